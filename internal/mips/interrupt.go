package mips

import (
	"fmt"
	"sync"
)

// InterruptRequest is one pending interrupt: either a device signaling
// readiness or a syscall handed off by the pipeline for out-of-band
// servicing.
type InterruptRequest struct {
	Device bool
	Code   uint32
	PC     uint32
	Source string
}

// SyscallDispatcher executes the trap a `syscall` instruction requested.
// The mips/syscall package implements this against the MARS/SPIM numbering
// spec.md §6 adopts; it's consumed here as an interface, not imported
// directly, since that package needs *State/*Memory from this one and a
// direct import would cycle.
type SyscallDispatcher interface {
	Dispatch(code uint32, state *State, mem *Memory) (exit bool, err error)
}

// InterruptController is a small FIFO of pending interrupts, serviced at
// most one per pipeline step, per spec.md §9 ("a small ring buffer rather
// than a channel, since the pipeline polls it synchronously once per
// step"). Device interrupts are vectored the same way as a synchronous
// exception: through COP0.RaiseException. RequestXxx is called from
// whatever goroutine owns the device (e.g. the keyboard's background
// poller), while HandleNext/Pending run on the pipeline's goroutine, so
// the ring is mutex-guarded.
type InterruptController struct {
	mu       sync.Mutex
	ring     []InterruptRequest
	head     int
	count    int
	Syscalls SyscallDispatcher
}

// NewInterruptController builds a controller with room for capacity
// pending requests before a RequestXxx call panics on overflow.
func NewInterruptController(capacity int) *InterruptController {
	if capacity <= 0 {
		capacity = 16
	}
	return &InterruptController{ring: make([]InterruptRequest, capacity)}
}

// push enqueues req. The ring is sized to comfortably exceed realistic
// load (at most one syscall per retiring instruction plus one per device
// tick per cycle), so a full ring means the guest — or the host wiring —
// has a bug, not that the queue needs to degrade gracefully. Per spec.md
// §9's design note, overflow is treated as an internal error rather than
// silently dropping a pending interrupt.
func (ic *InterruptController) push(req InterruptRequest) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if ic.count == len(ic.ring) {
		panic("mips: interrupt controller ring buffer overflowed")
	}
	tail := (ic.head + ic.count) % len(ic.ring)
	ic.ring[tail] = req
	ic.count++
}

// RequestDeviceInterrupt enqueues a device-sourced interrupt.
func (ic *InterruptController) RequestDeviceInterrupt(source string) {
	ic.push(InterruptRequest{Device: true, Source: source})
}

// RequestSyscallInterrupt enqueues a syscall handoff carrying the code that
// was in $v0 when `syscall` executed and the PC to resume at (the
// delay-slot-adjusted address following the `syscall` instruction itself).
func (ic *InterruptController) RequestSyscallInterrupt(code, pc uint32) {
	ic.push(InterruptRequest{Code: code, PC: pc, Source: "syscall"})
}

// Pending reports whether any interrupt is waiting.
func (ic *InterruptController) Pending() bool {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.count > 0
}

// HandleNext pops the oldest pending interrupt, if any, and services it.
// Device interrupts vector into the kernel exception handler via COP0, the
// same as a synchronous exception. A syscall request instead reads the
// syscall routine contract spec.md §6 describes: it delegates to Syscalls
// and resumes at the PC captured when `syscall` executed, with no kernel
// entry at all. It returns the new PC, whether an interrupt was serviced,
// and any error the syscall dispatcher reported.
func (ic *InterruptController) HandleNext(state *State, mem *Memory, currentPC uint32) (uint32, bool, error) {
	ic.mu.Lock()
	if ic.count == 0 {
		ic.mu.Unlock()
		return 0, false, nil
	}
	req := ic.ring[ic.head]
	ic.head = (ic.head + 1) % len(ic.ring)
	ic.count--
	ic.mu.Unlock()

	if !req.Device {
		if ic.Syscalls == nil {
			return currentPC, true, fmt.Errorf("no syscall dispatcher configured for syscall %d", req.Code)
		}
		exit, err := ic.Syscalls.Dispatch(req.Code, state, mem)
		if err != nil {
			return currentPC, true, err
		}
		if exit {
			state.Terminate()
		}
		return req.PC, true, nil
	}

	newPC := state.COP0().RaiseException(ExcInterrupt, currentPC)
	return newPC, true, nil
}
