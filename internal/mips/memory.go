package mips

// Memory is the byte-addressable backing store, sparse-mapped by physical
// address, fronted by an optional instruction cache and data cache and a
// MemoryMap that handles translation, rights and MMIO dispatch. This
// generalizes the teacher's flat byte-slice Memory into the segmented,
// cached, MMIO-aware store spec.md §4.3 requires.
type Memory struct {
	bytes map[uint32]byte
	mm    *MemoryMap

	ICache *Cache
	DCache *Cache
}

// NewMemory creates an empty backing store bound to mm.
func NewMemory(mm *MemoryMap) *Memory {
	return &Memory{bytes: make(map[uint32]byte), mm: mm}
}

// Map returns the bound MemoryMap.
func (m *Memory) Map() *MemoryMap { return m.mm }

// Reset clears every byte and both caches.
func (m *Memory) Reset() {
	m.bytes = make(map[uint32]byte)
	if m.ICache != nil {
		m.ICache.InvalidateAll()
	}
	if m.DCache != nil {
		m.DCache.InvalidateAll()
	}
}

// readBackingByte/writeBackingByte are the raw sparse-map accessors used
// directly by caches on fill/writeback; the physical address is already
// resolved by the time a cache is involved.
func (m *Memory) readBackingByte(addr uint32) byte { return m.bytes[addr] }
func (m *Memory) writeBackingByte(addr uint32, b byte) {
	if b == 0 {
		delete(m.bytes, addr)
		return
	}
	m.bytes[addr] = b
}

func (m *Memory) cacheFor(access AccessKind) *Cache {
	if access == AccessExecute {
		return m.ICache
	}
	return m.DCache
}

// ReadByte resolves addr through the MemoryMap and services the access via
// MMIO, the appropriate cache, or the backing store, in that order, per
// spec.md §4.3.
func (m *Memory) ReadByte(addr uint32, access AccessKind) (byte, error) {
	phys, seg, err := m.mm.Resolve(addr, access)
	if err != nil {
		return 0, err
	}
	if seg.Name == SegMMIO {
		if dr, ok := m.mm.FindDevice(phys); ok {
			v, ok := dr.Device.Read(phys - dr.Start)
			if !ok {
				return 0, &MemoryAccessException{Address: addr, Access: access, Reason: "device read failed"}
			}
			return v, nil
		}
	}
	if c := m.cacheFor(access); c != nil {
		return c.ReadByte(phys), nil
	}
	return m.readBackingByte(phys), nil
}

// WriteByte mirrors ReadByte for stores.
func (m *Memory) WriteByte(addr uint32, b byte, access AccessKind) error {
	phys, seg, err := m.mm.Resolve(addr, access)
	if err != nil {
		return err
	}
	if seg.Name == SegMMIO {
		if dr, ok := m.mm.FindDevice(phys); ok {
			dr.Device.Write(phys-dr.Start, b)
			return nil
		}
	}
	if c := m.cacheFor(access); c != nil {
		c.WriteByte(phys, b)
	} else {
		m.writeBackingByte(phys, b)
	}
	// Stores never snoop the instruction cache, so self-modifying code
	// needs an explicit invalidate here, per spec.md §4.3. Harmless when
	// nothing at phys is resident: ICache only ever holds lines fetched
	// for AccessExecute, so a write to data-only addresses just misses.
	if m.ICache != nil {
		m.ICache.Invalidate(phys)
	}
	return nil
}

// ReadWord requires 4-byte alignment; misaligned addresses raise
// AddressError with the given access kind.
func (m *Memory) ReadWord(addr uint32, access AccessKind) (uint32, error) {
	if addr%4 != 0 {
		return 0, &AddressError{Address: addr, Access: access}
	}
	var v uint32
	for i := uint32(0); i < 4; i++ {
		b, err := m.ReadByte(addr+i, access)
		if err != nil {
			return 0, err
		}
		v = (v << 8) | uint32(b)
	}
	return v, nil
}

// WriteWord mirrors ReadWord for stores.
func (m *Memory) WriteWord(addr uint32, value uint32, access AccessKind) error {
	if addr%4 != 0 {
		return &AddressError{Address: addr, Access: access}
	}
	for i := uint32(0); i < 4; i++ {
		shift := 24 - 8*i
		if err := m.WriteByte(addr+i, byte(value>>shift), access); err != nil {
			return err
		}
	}
	return nil
}

// ReadHalf requires 2-byte alignment.
func (m *Memory) ReadHalf(addr uint32, access AccessKind) (uint16, error) {
	if addr%2 != 0 {
		return 0, &AddressError{Address: addr, Access: access}
	}
	hi, err := m.ReadByte(addr, access)
	if err != nil {
		return 0, err
	}
	lo, err := m.ReadByte(addr+1, access)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// WriteHalf mirrors ReadHalf for stores.
func (m *Memory) WriteHalf(addr uint32, value uint16, access AccessKind) error {
	if addr%2 != 0 {
		return &AddressError{Address: addr, Access: access}
	}
	if err := m.WriteByte(addr, byte(value>>8), access); err != nil {
		return err
	}
	return m.WriteByte(addr+1, byte(value), access)
}

// Read returns a word if addr is 4-byte aligned, else a zero-extended byte
// read, per spec.md §4.3.
func (m *Memory) Read(addr uint32) (uint32, error) {
	if addr%4 == 0 {
		return m.ReadWord(addr, AccessRead)
	}
	b, err := m.ReadByte(addr, AccessRead)
	return uint32(b), err
}

// LoadWord is equivalent to ReadWord(addr, execute): the fetch path used by
// the pipeline's IF stage.
func (m *Memory) LoadWord(addr uint32) (uint32, error) {
	return m.ReadWord(addr, AccessExecute)
}

// HasInstructionAt reports whether a fetch at addr would land inside a
// text segment that has been populated, used by the pipeline to decide
// whether to keep stepping (spec.md §4.4).
func (m *Memory) HasInstructionAt(addr uint32) bool {
	phys, seg, err := m.mm.Resolve(addr, AccessExecute)
	if err != nil {
		return false
	}
	if seg.Name != SegText && seg.Name != SegKText {
		return false
	}
	for i := uint32(0); i < 4; i++ {
		if _, ok := m.bytes[phys+i]; ok {
			return true
		}
	}
	return false
}

// WriteBytes copies data into memory starting at base, bypassing access
// checks and caches; used by the loader to seed text/data segments.
func (m *Memory) WriteBytes(base uint32, data []byte) {
	for i, b := range data {
		m.writeBackingByte(base+uint32(i), b)
	}
}
