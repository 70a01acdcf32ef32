package mips

// PipeStage is one of the four latches between pipeline stages: IF/ID,
// ID/EX, EX/MEM, MEM/WB. Op is nil until ID has decoded the fetched word.
type PipeStage struct {
	Valid  bool
	Bubble bool
	PC     uint32
	Word   uint32
	Op     *DecodedOp
}

// Pipeline owns the architectural State and the Memory it addresses
// directly — no CPU wrapper, no cyclic ownership back into a decoder, per
// spec.md §9's design note.
type Pipeline struct {
	State       *State
	Mem         *Memory
	Interrupts  *InterruptController
	Breakpoints BreakpointEngine
	Hazard      HazardUnit
	Hub         SnapshotHub

	ifid, idex, exmem, memwb PipeStage

	Halted bool

	CycleCount           uint64
	InstructionCount     uint64
	StallCount           uint64
	LoadUseStallCount    uint64
	StructuralStallCount uint64
	BubbleCount          uint64
	FlushCount           uint64

	LastException *CpuException
}

// NewPipeline builds a pipeline with forwarding and hazard detection
// enabled by default.
func NewPipeline(state *State, mem *Memory) *Pipeline {
	return &Pipeline{
		State:      state,
		Mem:        mem,
		Interrupts: NewInterruptController(16),
		Hazard:     HazardUnit{Forwarding: true, Enabled: true},
	}
}

func (p *Pipeline) flushFetched() {
	p.ifid = PipeStage{}
	p.idex = PipeStage{}
}

// Step advances the pipeline by one cycle, in the exact substep order
// spec.md §4.4 prescribes: service interrupts, detect hazards, retire
// MEM/WB, execute ID/EX (completing its memory access too, since this
// core folds MEM into EX rather than modeling a separate memory port),
// finalize the delayed branch, decode IF/ID, check breakpoints, fetch, and
// advance the PC, then publish a snapshot. The ID substep bubbles on
// either a load-use/RAW hazard or a structural hazard (EX/MEM occupying
// the shared memory port this cycle); the IF substep is additionally
// gated on a branch having just registered, per spec.md §4.4/§4.5.
func (p *Pipeline) Step() {
	p.CycleCount++
	p.LastException = nil
	var lastHazard HazardResult

	if p.Interrupts.Pending() {
		if pc, ok, err := p.Interrupts.HandleNext(p.State, p.Mem, p.State.PC); ok {
			if err != nil {
				p.raiseException(err, p.State.PC)
				p.publish(lastHazard)
				return
			}
			p.flushFetched()
			p.exmem = PipeStage{}
			p.memwb = PipeStage{}
			p.State.PC = pc
			p.FlushCount++
			p.publish(lastHazard)
			return
		}
	}

	hz := p.Hazard.Detect(p.idex.Op, p.exmem.Op, p.memwb.Op)
	lastHazard = hz
	idStall := hz.Stall()
	if idStall {
		p.StallCount++
	}
	if hz.LoadUse {
		p.LoadUseStallCount++
	}
	if hz.Structural {
		p.StructuralStallCount++
	}

	if p.memwb.Valid && !p.memwb.Bubble {
		p.InstructionCount++
	}

	retiring := p.exmem
	var produced PipeStage
	exceptionRaised := false
	if idStall {
		produced = PipeStage{Valid: true, Bubble: true}
		p.BubbleCount++
	} else if p.idex.Valid && !p.idex.Bubble && p.idex.Op != nil {
		ctx := &ExecContext{State: p.State, Mem: p.Mem}
		if err := p.idex.Op.Execute(ctx); err != nil {
			if se, ok := err.(*SyscallException); ok {
				resumePC := se.PC + 4
				p.Interrupts.RequestSyscallInterrupt(se.Code, resumePC)
				pc, _, derr := p.Interrupts.HandleNext(p.State, p.Mem, se.PC)
				if derr != nil {
					p.raiseException(derr, se.PC)
				} else {
					p.State.Branch.Clear()
					p.State.PC = pc
					p.FlushCount++
				}
			} else {
				p.raiseException(err, p.idex.PC)
			}
			produced = PipeStage{Valid: true, Bubble: true}
			exceptionRaised = true
		} else {
			produced = PipeStage{Valid: true, PC: p.idex.PC, Op: p.idex.Op}
		}
	} else {
		produced = p.idex
	}
	p.memwb = retiring
	p.exmem = produced

	if exceptionRaised {
		p.flushFetched()
		p.publish(lastHazard)
		return
	}

	branchRegistered := p.State.Branch.Phase() == BranchRegistered
	if pc, taken := p.State.Branch.Advance(); taken {
		p.State.PC = pc
		p.flushFetched()
		p.FlushCount++
	}

	if !idStall {
		if p.ifid.Valid {
			decoded, err := Decode(p.ifid.Word, p.ifid.PC)
			if err != nil {
				p.raiseException(err, p.ifid.PC)
				p.idex = PipeStage{}
				p.flushFetched()
				p.publish(lastHazard)
				return
			}
			p.idex = PipeStage{Valid: true, PC: p.ifid.PC, Op: decoded}
		} else {
			p.idex = PipeStage{}
		}
	}

	// IF must hold whenever ID held (the fetched word in IF/ID hasn't
	// moved on yet, so fetching again would overwrite and lose it), and
	// additionally whenever a branch has just registered, since the next
	// fetch address isn't settled until the branch resolves.
	ifStall := idStall || branchRegistered
	if !ifStall {
		if p.Breakpoints != nil && p.Breakpoints.Hit(p.State.PC) {
			p.Halted = true
			p.ifid = PipeStage{}
		} else if p.Mem.HasInstructionAt(p.State.PC) {
			word, err := p.Mem.LoadWord(p.State.PC)
			if err != nil {
				p.raiseException(err, p.State.PC)
				p.ifid = PipeStage{}
				p.publish(lastHazard)
				return
			}
			p.ifid = PipeStage{Valid: true, PC: p.State.PC, Word: word}
			p.State.PC += 4
		} else {
			p.Halted = true
			p.ifid = PipeStage{}
		}
	}

	p.publish(lastHazard)
}

// excCodeFor maps a normalized CPU exception to the COP0 Cause.ExcCode it
// should report, per spec.md §4.7's taxonomy.
func excCodeFor(ce *CpuException) uint8 {
	switch e := ce.Inner.(type) {
	case *SyscallException:
		return ExcSyscall
	case *TrapException:
		return ExcTrap
	case *ArithmeticOverflowError:
		return ExcOverflow
	case *MemoryAccessException:
		if e.Access == AccessWrite {
			return ExcAddrStore
		}
		return ExcAddrLoad
	case *PrivilegeViolation:
		if e.Access == AccessWrite {
			return ExcAddrStore
		}
		return ExcAddrLoad
	case *InvalidInstructionError, *RangeError:
		return ExcReserved
	default:
		return ExcReserved
	}
}

func (p *Pipeline) raiseException(err error, pc uint32) {
	ce := NormalizeCpuException(err, pc)
	p.LastException = ce
	newPC := p.State.COP0().RaiseException(excCodeFor(ce), pc)
	p.State.Branch.Clear()
	p.State.PC = newPC
	p.FlushCount++
}

func stageSnapshot(s PipeStage, stalled, flushed bool) StageSnapshot {
	name := ""
	if s.Op != nil {
		name = s.Op.Name
	}
	return StageSnapshot{
		Valid:       s.Valid,
		Bubble:      s.Bubble,
		Stalled:     stalled,
		Flushed:     flushed,
		PC:          s.PC,
		Instruction: s.Word,
		Name:        name,
	}
}

func (p *Pipeline) publish(hz HazardResult) {
	flushed := p.FlushCount > 0 && !p.ifid.Valid && !p.idex.Valid
	stats := PipelineStatistics{
		CycleCount:       p.CycleCount,
		InstructionCount: p.InstructionCount,
		StallCount:       p.StallCount,
		LoadUseStalls:    p.LoadUseStallCount,
		StructuralStalls: p.StructuralStallCount,
		BubbleCount:      p.BubbleCount,
		FlushCount:       p.FlushCount,
	}
	if p.InstructionCount > 0 {
		stats.CPI = float64(p.CycleCount) / float64(p.InstructionCount)
	}
	if p.CycleCount > 0 {
		stats.BubbleRate = float64(p.BubbleCount) / float64(p.CycleCount)
	}

	snap := PipelineSnapshot{
		Cycle:                  p.CycleCount,
		PC:                     p.State.PC,
		Branch:                 p.State.Branch.Phase(),
		IFID:                   stageSnapshot(p.ifid, hz.Stall(), flushed),
		IDEX:                   stageSnapshot(p.idex, hz.Stall(), flushed),
		EXMEM:                  stageSnapshot(p.exmem, false, false),
		MEMWB:                  stageSnapshot(p.memwb, false, false),
		LoadUseHazard:          hz.LoadUse,
		StructuralHazard:       hz.Structural,
		BranchRegistered:       p.State.Branch.Phase() == BranchRegistered,
		ForwardingEnabled:      p.Hazard.Forwarding,
		HazardDetectionEnabled: p.Hazard.Enabled,
		Statistics:             stats,
	}
	if p.LastException != nil {
		snap.LastException = p.LastException.Error()
	}
	p.Hub.publish(snap)
}

// Runtime returns the coarse register-level snapshot used by the CLI.
func (p *Pipeline) Runtime() RuntimeSnapshot {
	rs := RuntimeSnapshot{PC: p.State.PC, HI: p.State.HI, LO: p.State.LO, Kernel: p.State.Kernel(), Terminated: p.State.Terminated()}
	for i := uint8(0); i < 32; i++ {
		rs.Registers[i] = p.State.GetReg(i)
	}
	return rs
}

// Drained reports whether every pipeline register is empty, i.e. nothing
// fetched before a halt is still waiting to retire.
func (p *Pipeline) Drained() bool {
	return !p.ifid.Valid && !p.idex.Valid && !p.exmem.Valid && !p.memwb.Valid
}

// Run steps the pipeline until it halts and drains (breakpoint or
// out-of-text PC, with every already-fetched instruction retired), the
// machine terminates, or maxCycles is reached (0 means unbounded).
func (p *Pipeline) Run(maxCycles uint64) {
	for maxCycles == 0 || p.CycleCount < maxCycles {
		if p.State.Terminated() || (p.Halted && p.Drained()) {
			return
		}
		p.Step()
	}
}
