package syscall

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhammadTahaBinZaeem/amips/internal/mips"
)

const aZeroReg = 4

func newMachine(t *testing.T) (*mips.State, *mips.Memory) {
	t.Helper()
	mm := mips.NewMemoryMap()
	mem := mips.NewMemory(mm)
	state := mips.NewState(mm)
	return state, mem
}

func TestDispatchPrintInt(t *testing.T) {
	state, mem := newMachine(t)
	state.SetReg(aZeroReg, uint32(int32(-7)))

	var out bytes.Buffer
	tbl := NewTable(strings.NewReader(""), &out)

	exit, err := tbl.Dispatch(1, state, mem)
	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, "-7", out.String())
}

func TestDispatchPrintString(t *testing.T) {
	state, mem := newMachine(t)
	addr := mips.DefaultDataBase
	require.NoError(t, mem.WriteByte(addr, 'h', mips.AccessWrite))
	require.NoError(t, mem.WriteByte(addr+1, 'i', mips.AccessWrite))
	require.NoError(t, mem.WriteByte(addr+2, 0, mips.AccessWrite))
	state.SetReg(aZeroReg, addr)

	var out bytes.Buffer
	tbl := NewTable(strings.NewReader(""), &out)
	_, err := tbl.Dispatch(4, state, mem)
	require.NoError(t, err)
	assert.Equal(t, "hi", out.String())
}

func TestDispatchExitSetsExit(t *testing.T) {
	state, mem := newMachine(t)
	tbl := NewTable(strings.NewReader(""), &bytes.Buffer{})
	exit, err := tbl.Dispatch(10, state, mem)
	require.NoError(t, err)
	assert.True(t, exit)
}

func TestDispatchUnimplementedCodeErrors(t *testing.T) {
	state, mem := newMachine(t)
	tbl := NewTable(strings.NewReader(""), &bytes.Buffer{})
	_, err := tbl.Dispatch(9999, state, mem)
	require.Error(t, err)
}

func TestDispatchSbrkAdvancesHeap(t *testing.T) {
	state, mem := newMachine(t)
	state.SetReg(aZeroReg, 64)
	tbl := NewTable(strings.NewReader(""), &bytes.Buffer{})
	_, err := tbl.Dispatch(9, state, mem)
	require.NoError(t, err)
	assert.NotEqual(t, uint32(0), state.GetReg(2))
	assert.Equal(t, mips.DefaultHeapBase+64, mem.Map().HeapPointer())
}

type scriptedDialogs struct {
	confirm bool
	str     string
	i       int32
}

func (s scriptedDialogs) Confirm(string) bool      { return s.confirm }
func (s scriptedDialogs) InputString(string) string { return s.str }
func (s scriptedDialogs) InputInt(string) int32     { return s.i }

func TestDispatchConfirmDialog(t *testing.T) {
	state, mem := newMachine(t)
	addr := mips.DefaultDataBase
	require.NoError(t, mem.WriteByte(addr, 0, mips.AccessWrite))
	state.SetReg(aZeroReg, addr)

	tbl := NewTable(strings.NewReader(""), &bytes.Buffer{})
	tbl.Dialogs = scriptedDialogs{confirm: true}

	_, err := tbl.Dispatch(50, state, mem)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), state.GetReg(aZeroReg))
}

func TestDispatchDialogWithoutHandlerErrors(t *testing.T) {
	state, mem := newMachine(t)
	addr := mips.DefaultDataBase
	require.NoError(t, mem.WriteByte(addr, 0, mips.AccessWrite))
	state.SetReg(aZeroReg, addr)

	tbl := NewTable(strings.NewReader(""), &bytes.Buffer{})
	_, err := tbl.Dispatch(50, state, mem)
	require.Error(t, err)
}
