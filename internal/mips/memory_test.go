package mips

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWordRoundTrip(t *testing.T) {
	mm := NewMemoryMap()
	mem := NewMemory(mm)

	require.NoError(t, mem.WriteWord(DefaultDataBase, 0xCAFEBABE, AccessWrite))
	v, err := mem.ReadWord(DefaultDataBase, AccessRead)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xCAFEBABE), v)
}

func TestMemoryMisalignedWordFaults(t *testing.T) {
	mm := NewMemoryMap()
	mem := NewMemory(mm)

	_, err := mem.ReadWord(DefaultDataBase+1, AccessRead)
	require.Error(t, err)
	var aerr *AddressError
	require.ErrorAs(t, err, &aerr)
}

func TestMemoryTextSegmentIsNotWritable(t *testing.T) {
	mm := NewMemoryMap()
	mem := NewMemory(mm)

	err := mem.WriteWord(DefaultTextBase, 0x12345678, AccessWrite)
	require.Error(t, err)
	var perr *PrivilegeViolation
	require.ErrorAs(t, err, &perr)
}

func TestMemoryUserModeCannotTouchKernelSegment(t *testing.T) {
	mm := NewMemoryMap()
	mem := NewMemory(mm)

	_, err := mem.ReadWord(DefaultKDataBase, AccessRead)
	require.Error(t, err)
	var perr *PrivilegeViolation
	require.ErrorAs(t, err, &perr)

	mm.SetKernelMode(true)
	_, err = mem.ReadWord(DefaultKDataBase, AccessRead)
	require.NoError(t, err)
}

// TestSelfModifyingCodeInvalidatesInstructionCache covers spec.md §8 scenario
// 6 at the memory/cache layer: with a write-through data cache and an
// instruction cache both resident, patching an already-fetched instruction
// word must be visible on the next fetch, per spec.md §4.3's invalidate-on-
// write design.
func TestSelfModifyingCodeInvalidatesInstructionCache(t *testing.T) {
	mm := NewMemoryMap()
	mem := NewMemory(mm)
	mem.ICache = NewCache(4<<10, 32, 4, WriteThrough, mem)
	mem.DCache = NewCache(4<<10, 32, 4, WriteThrough, mem)
	state := NewState(mm)

	addr := DefaultDataBase
	require.NoError(t, mem.WriteWord(addr, 0x24020001, AccessWrite)) // addiu $v0, $zero, 1

	word, err := mem.LoadWord(addr)
	require.NoError(t, err)
	op, err := Decode(word, addr)
	require.NoError(t, err)
	ctx := &ExecContext{State: state, Mem: mem}
	require.NoError(t, op.Execute(ctx))
	assert.Equal(t, uint32(1), state.GetReg(2), "first call observes the original instruction")

	require.NoError(t, mem.WriteWord(addr, 0x2402002A, AccessWrite)) // addiu $v0, $zero, 42

	word, err = mem.LoadWord(addr)
	require.NoError(t, err)
	op, err = Decode(word, addr)
	require.NoError(t, err)
	require.NoError(t, op.Execute(ctx))
	assert.Equal(t, uint32(42), state.GetReg(2), "second call must observe the patched instruction")
}

func TestLLSCReservationInvalidatedByOverlappingStore(t *testing.T) {
	mm := NewMemoryMap()
	mem := NewMemory(mm)
	state := NewState(mm)

	addr := DefaultDataBase
	require.NoError(t, mem.WriteWord(addr, 1, AccessWrite))
	state.SetReservation(addr)
	assert.True(t, state.CheckReservation(addr))

	state.InvalidateIfOverlaps(addr, 4)
	assert.False(t, state.CheckReservation(addr))
}
