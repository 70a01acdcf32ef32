package mips

import "sort"

// SegmentName identifies one of the fixed segments in spec.md §3.
type SegmentName int

const (
	SegText SegmentName = iota
	SegData
	SegHeap
	SegStack
	SegKText
	SegKData
	SegMMIO
)

func (s SegmentName) String() string {
	switch s {
	case SegText:
		return "text"
	case SegData:
		return "data"
	case SegHeap:
		return "heap"
	case SegStack:
		return "stack"
	case SegKText:
		return "ktext"
	case SegKData:
		return "kdata"
	case SegMMIO:
		return "mmio"
	default:
		return "unknown"
	}
}

// Segment describes one region of the address space.
type Segment struct {
	Name     SegmentName
	Start    uint32
	End      uint32 // inclusive
	Writable bool
	Kernel   bool // requires kernel mode to access
}

func (s Segment) contains(addr uint32) bool {
	return addr >= s.Start && addr <= s.End
}

// Default segment bases from spec.md §3.
const (
	DefaultTextBase  uint32 = 0x00400000
	DefaultTextSize  uint32 = 4 << 20
	DefaultDataBase  uint32 = 0x10000000
	DefaultHeapBase  uint32 = 0x10040000
	DefaultDataSize  uint32 = DefaultHeapBase - DefaultDataBase
	DefaultStackTop  uint32 = 0x7FFFFFFC
	DefaultStackSize uint32 = 4 << 20
	DefaultKTextBase uint32 = 0x80000000
	DefaultKTextSize uint32 = 4 << 20
	DefaultKDataBase uint32 = 0x90000000
	DefaultKDataSize uint32 = 4 << 20
	DefaultMMIOBase  uint32 = 0xFFFF0000
	DefaultMMIOSize  uint32 = 64 << 10
)

// Rights describes TLB access permissions for a page.
type Rights struct {
	Read, Write, Execute bool
}

// TLBEntry maps a virtual page to a physical page with access rights.
// PageSize must be a power of two.
type TLBEntry struct {
	VirtualStart  uint32
	PhysicalStart uint32
	PageSize      uint32
	Rights        Rights
}

func (e TLBEntry) covers(addr uint32) bool {
	return addr >= e.VirtualStart && addr < e.VirtualStart+e.PageSize
}

func (e TLBEntry) translate(addr uint32) uint32 {
	return e.PhysicalStart + (addr - e.VirtualStart)
}

// DeviceRange binds a MemoryMappedDevice to an interval inside the mmio
// segment.
type DeviceRange struct {
	Start  uint32
	End    uint32// inclusive
	Device MemoryMappedDevice
}

// MemoryMappedDevice is the external collaborator interface from
// spec.md §6.
type MemoryMappedDevice interface {
	Read(offset uint32) (byte, bool)
	Write(offset uint32, b byte)
}

// InterruptingDevice is implemented by devices that can raise an
// interrupt (timer, keyboard, ...).
type InterruptingDevice interface {
	MemoryMappedDevice
	OnInterrupt(func())
}

// MemoryMap resolves virtual addresses through the TLB (identity mapping
// when no entries cover an address), enforces access rights and kernel
// gating, and locates the containing segment and any device range.
type MemoryMap struct {
	segments []Segment
	tlb      []TLBEntry
	devices  []DeviceRange
	kernel   bool
	heapPtr  uint32
}

// NewMemoryMap builds the default segment layout from spec.md §3.
func NewMemoryMap() *MemoryMap {
	mm := &MemoryMap{
		segments: []Segment{
			{Name: SegText, Start: DefaultTextBase, End: DefaultTextBase + DefaultTextSize - 1, Writable: false},
			{Name: SegData, Start: DefaultDataBase, End: DefaultHeapBase - 1, Writable: true},
			{Name: SegHeap, Start: DefaultHeapBase, End: DefaultStackTop - DefaultStackSize - 1, Writable: true},
			{Name: SegStack, Start: DefaultStackTop - DefaultStackSize + 1, End: DefaultStackTop, Writable: true},
			{Name: SegKText, Start: DefaultKTextBase, End: DefaultKTextBase + DefaultKTextSize - 1, Writable: false, Kernel: true},
			{Name: SegKData, Start: DefaultKDataBase, End: DefaultKDataBase + DefaultKDataSize - 1, Writable: true, Kernel: true},
			{Name: SegMMIO, Start: DefaultMMIOBase, End: DefaultMMIOBase + DefaultMMIOSize - 1, Writable: true, Kernel: true},
		},
		heapPtr: DefaultHeapBase,
	}
	return mm
}

// SetKernelMode toggles whether ktext/kdata/mmio accesses are permitted.
func (mm *MemoryMap) SetKernelMode(v bool) { mm.kernel = v }

// KernelMode reports the current privilege level.
func (mm *MemoryMap) KernelMode() bool { return mm.kernel }

// AddTLBEntry installs a translation. Entries are consulted in insertion
// order; the first covering entry wins.
func (mm *MemoryMap) AddTLBEntry(e TLBEntry) { mm.tlb = append(mm.tlb, e) }

// ClearTLB removes all translations, reverting to identity mapping.
func (mm *MemoryMap) ClearTLB() { mm.tlb = nil }

// RegisterDevice binds a device to [start,end] inside the mmio segment.
// Ranges are kept sorted by start address for binary search.
func (mm *MemoryMap) RegisterDevice(start, end uint32, dev MemoryMappedDevice) {
	mm.devices = append(mm.devices, DeviceRange{Start: start, End: end, Device: dev})
	sort.Slice(mm.devices, func(i, j int) bool { return mm.devices[i].Start < mm.devices[j].Start })
}

// FindDevice returns the device range covering addr, if any.
func (mm *MemoryMap) FindDevice(addr uint32) (DeviceRange, bool) {
	idx := sort.Search(len(mm.devices), func(i int) bool { return mm.devices[i].End >= addr })
	if idx < len(mm.devices) && mm.devices[idx].Start <= addr {
		return mm.devices[idx], true
	}
	return DeviceRange{}, false
}

// SegmentFor returns the segment containing the physical address.
func (mm *MemoryMap) SegmentFor(addr uint32) (Segment, bool) {
	for _, s := range mm.segments {
		if s.contains(addr) {
			return s, true
		}
	}
	return Segment{}, false
}

// Resolve translates a virtual address through the TLB (or identity, if
// uncovered), enforces rights and kernel gating for the given access kind,
// and returns the physical address and containing segment.
func (mm *MemoryMap) Resolve(addr uint32, access AccessKind) (uint32, Segment, error) {
	phys := addr
	for _, e := range mm.tlb {
		if e.covers(addr) {
			if !rightsAllow(e.Rights, access) {
				return 0, Segment{}, &PrivilegeViolation{Address: addr, Access: access}
			}
			phys = e.translate(addr)
			break
		}
	}

	seg, ok := mm.SegmentFor(phys)
	if !ok {
		return 0, Segment{}, &MemoryAccessException{Address: phys, Access: access, Reason: "address outside any segment"}
	}
	if seg.Kernel && !mm.kernel {
		return 0, Segment{}, &PrivilegeViolation{Address: addr, Access: access}
	}
	if access == AccessWrite && !seg.Writable {
		return 0, Segment{}, &PrivilegeViolation{Address: addr, Access: access}
	}
	return phys, seg, nil
}

func rightsAllow(r Rights, access AccessKind) bool {
	switch access {
	case AccessRead:
		return r.Read
	case AccessWrite:
		return r.Write
	case AccessExecute:
		return r.Execute
	default:
		return false
	}
}

// Sbrk advances the heap pointer on the heap segment by n bytes (the add
// wraps modulo 2^32, so a two's-complement negative n moves the pointer
// down) and returns the address the pointer had before the call.
func (mm *MemoryMap) Sbrk(n uint32) uint32 {
	prev := mm.heapPtr
	mm.heapPtr += n
	return prev
}

// HeapPointer reports the current break.
func (mm *MemoryMap) HeapPointer() uint32 { return mm.heapPtr }
