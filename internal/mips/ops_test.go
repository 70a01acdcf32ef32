package mips

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecState() (*State, *ExecContext) {
	mm := NewMemoryMap()
	mem := NewMemory(mm)
	s := NewState(mm)
	return s, &ExecContext{State: s, Mem: mem}
}

// --- scenario 3: multiply/divide -----------------------------------------

func TestMulEncodingMatchesLiteralScenario(t *testing.T) {
	op, err := Decode(0x712A4002, DefaultTextBase)
	require.NoError(t, err)
	assert.Equal(t, OpMul, op.Op)

	s, ctx := newExecState()
	s.SetReg(op.Rs, 6)
	s.SetReg(op.Rt, 7)
	require.NoError(t, op.Execute(ctx))
	assert.Equal(t, uint32(42), s.GetReg(op.Rd))
}

func TestDivProducesQuotientAndRemainder(t *testing.T) {
	s, ctx := newExecState()
	op := &DecodedOp{Op: OpDiv, Rs: 8, Rt: 9}
	s.SetReg(8, uint32(int32(-7)))
	s.SetReg(9, 2)
	require.NoError(t, op.Execute(ctx))
	assert.Equal(t, int32(-1), int32(s.HI))
	assert.Equal(t, int32(-3), int32(s.LO))
}

func TestDivByZeroLeavesHiLoUnchanged(t *testing.T) {
	s, ctx := newExecState()
	s.HI, s.LO = 11, 22
	op := &DecodedOp{Op: OpDiv, Rs: 8, Rt: 9}
	s.SetReg(8, 5)
	s.SetReg(9, 0)
	require.NoError(t, op.Execute(ctx))
	assert.Equal(t, uint32(11), s.HI)
	assert.Equal(t, uint32(22), s.LO)
}

// --- round-trip / idempotence properties ----------------------------------

func TestConvertDoubleToSingleRoundTrip(t *testing.T) {
	s, ctx := newExecState()
	x := float32(3.5)
	s.SetFPRSingle(0, x)

	toDouble := &DecodedOp{Op: OpCvtDS, Rd: 0, Shamt: 2}
	require.NoError(t, toDouble.Execute(ctx))

	backToSingle := &DecodedOp{Op: OpCvtSD, Rd: 2, Shamt: 4}
	require.NoError(t, backToSingle.Execute(ctx))

	assert.Equal(t, x, s.FPRSingle(4))
}

func TestWsbhAppliedTwiceIsIdentity(t *testing.T) {
	s, ctx := newExecState()
	s.SetReg(1, 0x12345678)

	once := &DecodedOp{Op: OpWsbh, Rt: 1, Rd: 2}
	require.NoError(t, once.Execute(ctx))

	twice := &DecodedOp{Op: OpWsbh, Rt: 2, Rd: 3}
	require.NoError(t, twice.Execute(ctx))

	assert.Equal(t, s.GetReg(1), s.GetReg(3))
}

func TestSebFollowedByMaskEqualsOriginalMask(t *testing.T) {
	s, ctx := newExecState()
	original := uint32(0xCAFEBEEF)
	s.SetReg(1, original)

	op := &DecodedOp{Op: OpSeb, Rt: 1, Rd: 2}
	require.NoError(t, op.Execute(ctx))

	assert.Equal(t, original&0xFF, s.GetReg(2)&0xFF)
}

func TestSehFollowedByMaskEqualsOriginalMask(t *testing.T) {
	s, ctx := newExecState()
	original := uint32(0xCAFEBEEF)
	s.SetReg(1, original)

	op := &DecodedOp{Op: OpSeh, Rt: 1, Rd: 2}
	require.NoError(t, op.Execute(ctx))

	assert.Equal(t, original&0xFFFF, s.GetReg(2)&0xFFFF)
}

func TestRotateRightRoundTrip(t *testing.T) {
	for k := uint8(1); k < 32; k++ {
		s, ctx := newExecState()
		x := uint32(0x9E3779B9)
		s.SetReg(1, x)

		forward := &DecodedOp{Op: OpRotr, Rt: 1, Rd: 2, Shamt: k}
		require.NoError(t, forward.Execute(ctx))

		back := &DecodedOp{Op: OpRotr, Rt: 2, Rd: 3, Shamt: 32 - k}
		require.NoError(t, back.Execute(ctx))

		assert.Equal(t, x, s.GetReg(3), "k=%d", k)
	}
}

func TestJalThenJrReturnsPastDelaySlot(t *testing.T) {
	s, ctx := newExecState()
	jal := &DecodedOp{Op: OpJal, PC: 0x00400010, Target: 0}
	require.NoError(t, jal.Execute(ctx))
	assert.Equal(t, uint32(0x00400018), s.GetReg(31), "link register must point past the delay slot")
	s.Branch.Advance() // jal's own branch: Registered -> Triggered
	s.Branch.Advance() // Triggered -> Cleared; the callee is now running

	jr := &DecodedOp{Op: OpJr, PC: 0x00401000, Rs: 31}
	require.NoError(t, jr.Execute(ctx))
	_, taken := s.Branch.Advance() // Registered -> Triggered
	assert.False(t, taken)
	pc, taken := s.Branch.Advance() // Triggered -> Cleared, delivers the target
	assert.True(t, taken)
	assert.Equal(t, uint32(0x00400018), pc)
}

// --- ldc1 alignment / register-parity checks ------------------------------

func TestLdc1RejectsMisalignedAddress(t *testing.T) {
	s, ctx := newExecState()
	s.SetReg(1, 4) // base + imm will be 4, not a multiple of 8
	op := &DecodedOp{Op: OpLdc1, Rs: 1, Rt: 0, Imm: 0}
	err := op.Execute(ctx)
	require.Error(t, err)
	var addrErr *AddressError
	assert.ErrorAs(t, err, &addrErr)
}

func TestLdc1RejectsOddTargetRegister(t *testing.T) {
	s, ctx := newExecState()
	s.SetReg(1, 8)
	op := &DecodedOp{Op: OpLdc1, Rs: 1, Rt: 1, Imm: 0}
	err := op.Execute(ctx)
	require.Error(t, err)
	var rangeErr *RangeError
	assert.ErrorAs(t, err, &rangeErr)
}

func TestLdc1LoadsHighAndLowWords(t *testing.T) {
	s, ctx := newExecState()
	s.SetReg(1, DefaultDataBase)
	require.NoError(t, ctx.Mem.WriteWord(DefaultDataBase, 0x3FF00000, AccessWrite))   // high word of 1.0
	require.NoError(t, ctx.Mem.WriteWord(DefaultDataBase+4, 0x00000000, AccessWrite)) // low word

	op := &DecodedOp{Op: OpLdc1, Rs: 1, Rt: 0, Imm: 0}
	require.NoError(t, op.Execute(ctx))
	assert.Equal(t, 1.0, s.FPRDouble(0))
}

// --- clamp / round-to-nearest-even for float-to-int conversions ----------

func TestFloatToClampedInt32SaturatesOutOfRange(t *testing.T) {
	assert.Equal(t, uint32(0x7FFFFFFF), floatToClampedInt32(math.NaN()))
	assert.Equal(t, uint32(0x7FFFFFFF), floatToClampedInt32(math.Inf(1)))
	assert.Equal(t, uint32(0x80000000), floatToClampedInt32(math.Inf(-1)))
}

// --- quantified invariants -------------------------------------------------

func TestRegisterZeroIsAlwaysZero(t *testing.T) {
	s, _ := newExecState()
	s.SetReg(0, 0xDEADBEEF)
	assert.Equal(t, uint32(0), s.GetReg(0))
}

func TestWriteWordRejectsMisalignedAddress(t *testing.T) {
	_, ctx := newExecState()
	_, err := ctx.Mem.ReadWord(DefaultDataBase+1, AccessRead)
	require.Error(t, err)
	var addrErr *AddressError
	assert.ErrorAs(t, err, &addrErr)

	err = ctx.Mem.WriteWord(DefaultDataBase+2, 0x1, AccessWrite)
	require.Error(t, err)
	assert.ErrorAs(t, err, &addrErr)
}

func TestAddOverflowMatchesSignBitFormula(t *testing.T) {
	s, ctx := newExecState()
	op := &DecodedOp{Op: OpAdd, Rs: 1, Rt: 2, Rd: 3}
	s.SetReg(1, uint32(math.MaxInt32))
	s.SetReg(2, 1)
	err := op.Execute(ctx)
	require.Error(t, err)
	var overflow *ArithmeticOverflowError
	assert.ErrorAs(t, err, &overflow)

	s.SetReg(1, 5)
	s.SetReg(2, 7)
	require.NoError(t, op.Execute(ctx))
	assert.Equal(t, uint32(12), s.GetReg(3))
}

func TestRoundWRoundsHalfToEven(t *testing.T) {
	s, ctx := newExecState()
	s.SetFPRSingle(0, 2.5)
	op := &DecodedOp{Op: OpRoundW, Rd: 0, Shamt: 1, Fmt: 0x10}
	require.NoError(t, op.Execute(ctx))
	assert.Equal(t, int32(2), int32(s.FPRBits(1)))

	s.SetFPRSingle(0, 3.5)
	require.NoError(t, op.Execute(ctx))
	assert.Equal(t, int32(4), int32(s.FPRBits(1)))
}
