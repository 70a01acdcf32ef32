package mips

// COP0 models the subset of coprocessor 0 spec.md §3/§4 calls for: Status
// (bit 1 = "in exception"), EPC, Cause/BadVAddr for exception reporting,
// and the staging registers (EntryHi/EntryLo0/PageMask/Index/Random) used
// by the TLBP/TLBR/TLBWI/TLBWR instructions to manipulate entries that
// live on the owning MemoryMap. This adapts the teacher's standalone
// COP0+TLB model (which kept TLB entries inside COP0 itself) onto
// spec.md §3's placement of the TLB on MemoryMap.
type COP0 struct {
	mm *MemoryMap

	status uint32
	epc    uint32
	cause  uint32
	badVA  uint32

	entryHi  uint32
	entryLo0 uint32
	pageMask uint32
	index    uint32
	random   uint32
	tlbSize  uint32
}

// Cause.ExcCode values (subset of spec.md §4.7's taxonomy).
const (
	ExcInterrupt = 0
	ExcAddrLoad  = 4
	ExcAddrStore = 5
	ExcSyscall   = 8
	ExcBreak     = 9
	ExcReserved  = 10
	ExcOverflow  = 12
	ExcTrap      = 13
)

const (
	statusIE  uint32 = 1 << 0
	statusEXL uint32 = 1 << 1 // "in exception", per spec.md §3
)

// NewCOP0 builds a COP0 bound to mm, with 16 TLB slots addressable via
// Index/Random.
func NewCOP0(mm *MemoryMap) *COP0 {
	return &COP0{mm: mm, tlbSize: 16, random: 15}
}

// Reset clears all registers, preserving the MemoryMap binding.
func (c *COP0) Reset() {
	tlbSize := c.tlbSize
	mm := c.mm
	*c = COP0{mm: mm, tlbSize: tlbSize, random: tlbSize - 1}
}

// Status returns the raw Status register.
func (c *COP0) Status() uint32 { return c.status }

// SetStatus writes the raw Status register.
func (c *COP0) SetStatus(v uint32) {
	c.status = v
	c.mm.SetKernelMode(v&statusEXL != 0)
}

// InException reports Status bit 1.
func (c *COP0) InException() bool { return c.status&statusEXL != 0 }

// EPC returns the exception program counter.
func (c *COP0) EPC() uint32 { return c.epc }

// SetEPC writes EPC directly (used by mtc0).
func (c *COP0) SetEPC(v uint32) { c.epc = v }

// Cause returns the raw Cause register.
func (c *COP0) Cause() uint32 { return c.cause }

// BadVAddr returns the last faulting virtual address.
func (c *COP0) BadVAddr() uint32 { return c.badVA }

// SetBadVAddr records the last faulting virtual address.
func (c *COP0) SetBadVAddr(addr uint32) { c.badVA = addr }

// RaiseException sets Cause.ExcCode, EPC and Status.EXL and returns the
// new PC (the exception vector). The core's Non-goals exclude full
// BEV/vector-base modeling; a single fixed kernel-text vector is used.
func (c *COP0) RaiseException(excCode uint8, pc uint32) uint32 {
	c.cause = (c.cause &^ 0x7C) | uint32(excCode&0x1F)<<2
	c.epc = pc
	c.status |= statusEXL
	c.mm.SetKernelMode(true)
	return DefaultKTextBase
}

// ERET implements the `eret` instruction: clears Status bit 1 (leaving any
// other mode bits to the caller, per spec.md's Open Question resolution)
// and returns EPC as the new PC.
func (c *COP0) ERET() uint32 {
	c.status &^= statusEXL
	c.mm.SetKernelMode(false)
	return c.epc
}

// --- Generic mfc0/mtc0 register numbers (reg, sel=0 implied) ------------

const (
	cop0RegIndex    = 0
	cop0RegEntryLo0 = 2
	cop0RegPageMask = 5
	cop0RegBadVAddr = 8
	cop0RegEntryHi  = 10
	cop0RegStatus   = 12
	cop0RegCause    = 13
	cop0RegEPC      = 14
	cop0RegRandom   = 1
)

// Read returns the value of CP0 register reg.
func (c *COP0) Read(reg int) uint32 {
	switch reg {
	case cop0RegStatus:
		return c.status
	case cop0RegCause:
		return c.cause
	case cop0RegEPC:
		return c.epc
	case cop0RegBadVAddr:
		return c.badVA
	case cop0RegEntryHi:
		return c.entryHi
	case cop0RegEntryLo0:
		return c.entryLo0
	case cop0RegPageMask:
		return c.pageMask
	case cop0RegIndex:
		return c.index
	case cop0RegRandom:
		return c.random
	default:
		return 0
	}
}

// Write sets the value of CP0 register reg.
func (c *COP0) Write(reg int, val uint32) {
	switch reg {
	case cop0RegStatus:
		c.SetStatus(val)
	case cop0RegCause:
		c.cause = val
	case cop0RegEPC:
		c.epc = val
	case cop0RegBadVAddr:
		// read-only in hardware; ignored
	case cop0RegEntryHi:
		c.entryHi = val
	case cop0RegEntryLo0:
		c.entryLo0 = val
	case cop0RegPageMask:
		c.pageMask = val
	case cop0RegIndex:
		c.index = val % c.tlbSize
	case cop0RegRandom:
		// read-only in hardware; ignored
	}
}

// pageSizeFromMask converts a PageMask register value to a byte count:
// mask bits select which VPN bits are "don't care", so page size is
// (mask+1)*4KiB. No rounding is applied: only masks of the form 2^k-1
// give a power-of-two page size.
func pageSizeFromMask(mask uint32) uint32 {
	return (mask + 1) * 4096
}

// TLBWI writes a single-page TLB entry (spec.md's simplified TLB shape,
// rather than the even/odd dual-page entries of real MIPS hardware) built
// from EntryHi/EntryLo0/PageMask at the COP0 Index register.
func (c *COP0) TLBWI() { c.writeTLBAt(int(c.index % c.tlbSize)) }

// TLBWR writes the entry at the Random register, then decrements Random.
func (c *COP0) TLBWR() {
	c.writeTLBAt(int(c.random % c.tlbSize))
	if c.random == 0 {
		c.random = c.tlbSize - 1
	} else {
		c.random--
	}
}

func (c *COP0) writeTLBAt(idx int) {
	size := pageSizeFromMask(c.pageMask)
	vpn := c.entryHi &^ (size - 1)
	ppn := (c.entryLo0 << 6) &^ (size - 1)
	rights := Rights{
		Read:    c.entryLo0&(1<<1) != 0,
		Write:   c.entryLo0&(1<<2) != 0,
		Execute: true,
	}
	entry := TLBEntry{VirtualStart: vpn, PhysicalStart: ppn, PageSize: size, Rights: rights}
	for len(c.mm.tlb) <= idx {
		c.mm.tlb = append(c.mm.tlb, TLBEntry{})
	}
	c.mm.tlb[idx] = entry
}

// TLBR reads the entry at Index back into EntryHi/EntryLo0/PageMask.
func (c *COP0) TLBR() {
	idx := int(c.index % c.tlbSize)
	if idx >= len(c.mm.tlb) {
		return
	}
	e := c.mm.tlb[idx]
	c.entryHi = e.VirtualStart
	c.entryLo0 = e.PhysicalStart >> 6
	if e.Rights.Read {
		c.entryLo0 |= 1 << 1
	}
	if e.Rights.Write {
		c.entryLo0 |= 1 << 2
	}
	if e.PageSize > 0 {
		c.pageMask = e.PageSize/4096 - 1
	}
}

// TLBP searches for an entry whose virtual range covers EntryHi and sets
// Index to its slot, or sets the probe-fail bit (31) on miss.
func (c *COP0) TLBP() {
	for i, e := range c.mm.tlb {
		if e.covers(c.entryHi) {
			c.index = uint32(i)
			return
		}
	}
	c.index = 1 << 31
}
