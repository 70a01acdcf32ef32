package mips

import "math"

// State is the architectural machine state: general registers, PC, HI/LO,
// the FPU register file and condition flags, a COP0 register file, the
// delayed-branch state machine and the LL/SC reservation, per spec.md §3.
type State struct {
	regs [32]uint32
	PC   uint32
	HI   uint32
	LO   uint32

	fpr [32]uint32
	fcc [8]bool

	cop0 *COP0

	Branch BranchState

	llValid bool
	llAddr  uint32

	terminated bool
	kernel     bool
}

// NewState builds a machine with PC at the default text base and a COP0
// with 16 translation-probe slots (the TLB data itself lives on
// MemoryMap per spec.md §3; COP0 here models only the architectural
// registers and the TLBP/TLBR/TLBWI/TLBWR staging registers).
func NewState(mm *MemoryMap) *State {
	return &State{
		PC:   DefaultTextBase,
		cop0: NewCOP0(mm),
	}
}

// Reset returns registers, PC, HI/LO and the delayed-branch machine to
// their defaults, per spec.md §3's lifecycle note. COP0 and the FPU file
// are also cleared.
func (s *State) Reset() {
	s.regs = [32]uint32{}
	s.PC = DefaultTextBase
	s.HI, s.LO = 0, 0
	s.fpr = [32]uint32{}
	s.fcc = [8]bool{}
	s.Branch.Clear()
	s.llValid = false
	s.terminated = false
	s.kernel = false
	s.cop0.Reset()
}

// GetReg reads a general register; register 0 always reads 0.
func (s *State) GetReg(i uint8) uint32 {
	if i == 0 {
		return 0
	}
	return s.regs[i&0x1F]
}

// SetReg writes a general register; writes to register 0 are discarded.
func (s *State) SetReg(i uint8, v uint32) {
	if i == 0 {
		return
	}
	s.regs[i&0x1F] = v
}

// COP0 exposes the coprocessor-0 register file.
func (s *State) COP0() *COP0 { return s.cop0 }

// Kernel reports whether the CPU is currently in kernel mode.
func (s *State) Kernel() bool { return s.kernel }

// SetKernel sets the kernel-mode flag.
func (s *State) SetKernel(v bool) { s.kernel = v }

// Terminate sets the termination flag, checked by the pipeline after every
// substep.
func (s *State) Terminate() { s.terminated = true }

// Terminated reports whether Terminate has been called.
func (s *State) Terminated() bool { return s.terminated }

// --- FPU register file -----------------------------------------------

// FPRBits returns the raw 32-bit pattern of FPU register i.
func (s *State) FPRBits(i uint8) uint32 { return s.fpr[i&0x1F] }

// SetFPRBits writes the raw 32-bit pattern of FPU register i.
func (s *State) SetFPRBits(i uint8, v uint32) { s.fpr[i&0x1F] = v }

// FPRSingle reads register i as an IEEE-754 binary32.
func (s *State) FPRSingle(i uint8) float32 {
	return math.Float32frombits(s.fpr[i&0x1F])
}

// SetFPRSingle stores x, coerced to binary32 precision, into register i.
func (s *State) SetFPRSingle(i uint8, x float32) {
	s.fpr[i&0x1F] = math.Float32bits(x)
}

// FPRDouble reads the pair (i, i+1) as a binary64, low word in the even
// register, per spec.md §3.
func (s *State) FPRDouble(i uint8) float64 {
	i &^= 1
	lo := uint64(s.fpr[i])
	hi := uint64(s.fpr[i+1])
	return math.Float64frombits(hi<<32 | lo)
}

// SetFPRDouble stores x into the register pair (i, i+1), even register
// first, low word first.
func (s *State) SetFPRDouble(i uint8, x float64) {
	i &^= 1
	bits := math.Float64bits(x)
	s.fpr[i] = uint32(bits)
	s.fpr[i+1] = uint32(bits >> 32)
}

// FCC reads FPU condition flag n (0..7).
func (s *State) FCC(n uint8) bool { return s.fcc[n&0x7] }

// SetFCC writes FPU condition flag n.
func (s *State) SetFCC(n uint8, v bool) { s.fcc[n&0x7] = v }

// --- LL/SC reservation --------------------------------------------------

// SetReservation records a load-linked reservation on the word at addr.
func (s *State) SetReservation(addr uint32) {
	s.llValid = true
	s.llAddr = addr &^ 0x3
}

// ClearReservation invalidates the LL/SC reservation unconditionally; sc
// calls it after a successful store. Ordinary stores go through
// InvalidateIfOverlaps instead.
func (s *State) ClearReservation() { s.llValid = false }

// CheckReservation reports whether a valid reservation covers addr.
func (s *State) CheckReservation(addr uint32) bool {
	return s.llValid && s.llAddr == addr&^0x3
}

// InvalidateIfOverlaps clears the reservation if [addr, addr+size) overlaps
// the single reserved word, per spec.md §3 and §8.
func (s *State) InvalidateIfOverlaps(addr uint32, size uint32) {
	if !s.llValid {
		return
	}
	lo, hi := addr, addr+size
	if s.llAddr+4 > lo && s.llAddr < hi {
		s.llValid = false
	}
}
