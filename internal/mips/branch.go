package mips

// BranchPhase is the delayed-branch state machine described in spec.md §4.2.
type BranchPhase int

const (
	BranchCleared BranchPhase = iota
	BranchRegistered
	BranchTriggered
)

func (p BranchPhase) String() string {
	switch p {
	case BranchCleared:
		return "cleared"
	case BranchRegistered:
		return "registered"
	case BranchTriggered:
		return "triggered"
	default:
		return "unknown"
	}
}

// BranchState tracks the single pending delayed-branch target for a CPU.
// It must be advanced exactly once per pipeline step, right after EX.
type BranchState struct {
	phase  BranchPhase
	target uint32
}

// Register records a branch target taken in EX. The delay slot (the next
// fetched instruction) always executes before the branch takes effect.
// If a branch is already Registered or Triggered, the first registration
// wins and this call is a no-op (spec.md §4.2: "first-writer wins").
func (b *BranchState) Register(target uint32) {
	if b.phase == BranchCleared {
		b.target = target
		b.phase = BranchRegistered
	}
}

// Advance moves Cleared->Cleared, Registered->Triggered, or applies the
// pending target and returns to Cleared from Triggered. It returns the new
// PC and whether a branch was taken effect this call.
func (b *BranchState) Advance() (pc uint32, taken bool) {
	switch b.phase {
	case BranchRegistered:
		b.phase = BranchTriggered
		return 0, false
	case BranchTriggered:
		pc = b.target
		b.phase = BranchCleared
		return pc, true
	default:
		return 0, false
	}
}

// Clear resets the state machine, used by eret and pipeline clears.
func (b *BranchState) Clear() {
	b.phase = BranchCleared
	b.target = 0
}

// Phase reports the current state, mostly for snapshots and tests.
func (b *BranchState) Phase() BranchPhase { return b.phase }

// Pending reports whether a branch has been registered but not yet applied.
func (b *BranchState) Pending() bool { return b.phase != BranchCleared }
