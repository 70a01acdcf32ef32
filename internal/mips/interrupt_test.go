package mips

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSyscalls struct {
	exit bool
	err  error
	got  uint32
}

func (s *stubSyscalls) Dispatch(code uint32, state *State, mem *Memory) (bool, error) {
	s.got = code
	return s.exit, s.err
}

func TestInterruptControllerFIFOOrder(t *testing.T) {
	ic := NewInterruptController(4)
	stub := &stubSyscalls{}
	ic.Syscalls = stub
	assert.False(t, ic.Pending())

	ic.RequestDeviceInterrupt("kbd")
	ic.RequestSyscallInterrupt(17, 0x00400008)
	require.True(t, ic.Pending())

	mm := NewMemoryMap()
	state := NewState(mm)

	pc, ok, err := ic.HandleNext(state, nil, 0x00400000)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, DefaultKTextBase, pc)
	assert.True(t, state.COP0().InException())

	state.COP0().ERET()
	pc, ok, err = ic.HandleNext(state, nil, 0x00400004)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(0x00400008), pc)
	assert.Equal(t, uint32(17), stub.got)
}

func TestInterruptControllerDispatchesSyscallAndHandlesExit(t *testing.T) {
	ic := NewInterruptController(2)
	stub := &stubSyscalls{exit: true}
	ic.Syscalls = stub
	ic.RequestSyscallInterrupt(10, 0x00400004)

	mm := NewMemoryMap()
	state := NewState(mm)

	_, ok, err := ic.HandleNext(state, nil, 0x00400000)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, state.Terminated())
}

func TestInterruptControllerSurfacesDispatchError(t *testing.T) {
	ic := NewInterruptController(2)
	wantErr := errors.New("boom")
	ic.Syscalls = &stubSyscalls{err: wantErr}
	ic.RequestSyscallInterrupt(99, 0x00400004)

	mm := NewMemoryMap()
	state := NewState(mm)

	_, ok, err := ic.HandleNext(state, nil, 0x00400000)
	require.True(t, ok)
	assert.ErrorIs(t, err, wantErr)
}

func TestInterruptControllerMissingDispatcherErrors(t *testing.T) {
	ic := NewInterruptController(2)
	ic.RequestSyscallInterrupt(1, 0x00400004)

	mm := NewMemoryMap()
	state := NewState(mm)

	_, ok, err := ic.HandleNext(state, nil, 0x00400000)
	require.True(t, ok)
	assert.Error(t, err)
}

func TestInterruptControllerPanicsOnOverflow(t *testing.T) {
	ic := NewInterruptController(2)
	ic.RequestDeviceInterrupt("a")
	ic.RequestDeviceInterrupt("b")

	assert.Panics(t, func() { ic.RequestDeviceInterrupt("c") })
}
