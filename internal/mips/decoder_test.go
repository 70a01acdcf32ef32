package mips

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRType(t *testing.T) {
	// add $t0, $t1, $t2
	op, err := Decode(0x012A4020, 0x00400000)
	require.NoError(t, err)
	assert.Equal(t, OpAdd, op.Op)
	assert.EqualValues(t, 9, op.Rs)
	assert.EqualValues(t, 10, op.Rt)
	assert.EqualValues(t, 8, op.Rd)
}

func TestDecodeIType(t *testing.T) {
	// addi $t0, $t1, 5
	op, err := Decode(0x21280005, 0x00400000)
	require.NoError(t, err)
	assert.Equal(t, OpAddi, op.Op)
	assert.EqualValues(t, 9, op.Rs)
	assert.EqualValues(t, 8, op.Rt)
	assert.EqualValues(t, 5, op.Imm)
}

func TestDecodeJType(t *testing.T) {
	op, err := Decode(0x08000010, 0x00400000)
	require.NoError(t, err)
	assert.Equal(t, OpJ, op.Op)
	assert.EqualValues(t, 0x10, op.Target)
}

func TestDecodeZeroIsNop(t *testing.T) {
	op, err := Decode(0, 0x00400000)
	require.NoError(t, err)
	assert.Equal(t, OpNop, op.Op)
}

func TestDecodeUnknownFunctIsInvalid(t *testing.T) {
	// opcode 0 (SPECIAL) with an unassigned funct
	_, err := Decode(0x0000003F, 0x00400000)
	require.Error(t, err)
	var ierr *InvalidInstructionError
	require.ErrorAs(t, err, &ierr)
}

func TestDecodeBranchAndRegimm(t *testing.T) {
	// bltz $t0, 4   -> opcode 1, rs=8, rt=0, imm=4
	word := uint32(1)<<26 | uint32(8)<<21 | uint32(0)<<16 | 4
	op, err := Decode(word, 0x00400000)
	require.NoError(t, err)
	assert.Equal(t, OpBltz, op.Op)
}
