package mips

// BreakpointEngine is consulted by the pipeline immediately before IF
// fetches the next instruction (spec.md §4.4's pre-fetch breakpoint
// check). A nil engine never halts.
type BreakpointEngine interface {
	Hit(pc uint32) bool
}

// AddressBreakpoints is the minimal BreakpointEngine: a set of PCs at
// which Step should halt before fetching.
type AddressBreakpoints struct {
	addrs map[uint32]bool
}

// NewAddressBreakpoints builds an empty breakpoint set.
func NewAddressBreakpoints() *AddressBreakpoints {
	return &AddressBreakpoints{addrs: make(map[uint32]bool)}
}

// Set arms a breakpoint at pc.
func (b *AddressBreakpoints) Set(pc uint32) { b.addrs[pc] = true }

// Clear disarms a breakpoint at pc.
func (b *AddressBreakpoints) Clear(pc uint32) { delete(b.addrs, pc) }

// Hit reports whether pc is armed.
func (b *AddressBreakpoints) Hit(pc uint32) bool { return b.addrs[pc] }
