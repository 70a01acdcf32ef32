package mips

// StageSnapshot is a read-only view of one pipeline register's occupant,
// for UIs and tests that want to show what's in flight.
type StageSnapshot struct {
	Valid       bool
	Bubble      bool
	Stalled     bool
	Flushed     bool
	PC          uint32
	Instruction uint32 // raw fetched word; 0 once decoded into Name
	Name        string // decoded mnemonic, empty until IF/ID has been decoded
}

// PipelineStatistics is the running counter block spec.md §6 requires,
// plus the two derived rates (cycles-per-instruction and the fraction of
// cycles that produced a bubble) computed once per publish rather than
// tracked incrementally.
type PipelineStatistics struct {
	CycleCount       uint64
	InstructionCount uint64
	StallCount       uint64
	LoadUseStalls    uint64
	StructuralStalls uint64
	BubbleCount      uint64
	FlushCount       uint64
	CPI              float64
	BubbleRate       float64
}

// PipelineSnapshot is published once per Step, per spec.md §6. It carries
// no pointers into live pipeline state so subscribers can retain it freely.
type PipelineSnapshot struct {
	Cycle  uint64
	PC     uint32
	Branch BranchPhase

	IFID, IDEX, EXMEM, MEMWB StageSnapshot

	LoadUseHazard          bool
	StructuralHazard       bool
	BranchRegistered       bool
	ForwardingEnabled      bool
	HazardDetectionEnabled bool

	Statistics PipelineStatistics

	LastException string // empty if no exception was raised this cycle
}

// RuntimeSnapshot is the coarser, register-file-level view used by the CLI
// `step`/`run` reporting path.
type RuntimeSnapshot struct {
	PC         uint32
	Registers  [32]uint32
	HI, LO     uint32
	Kernel     bool
	Terminated bool
}

// Subscriber receives a PipelineSnapshot after each completed Step.
type Subscriber func(PipelineSnapshot)

// SnapshotHub is a small pub/sub registry owned by a Pipeline; per spec.md
// §9's design note, there is no global/singleton broadcaster, so multiple
// independently-configured Pipelines can coexist in the same process.
type SnapshotHub struct {
	subs []Subscriber
}

// Subscribe registers fn to be called after every Step.
func (h *SnapshotHub) Subscribe(fn Subscriber) {
	h.subs = append(h.subs, fn)
}

func (h *SnapshotHub) publish(s PipelineSnapshot) {
	for _, fn := range h.subs {
		fn(s)
	}
}
