package mips

// WritePolicy selects how a cache handles stores.
type WritePolicy int

const (
	WriteBack WritePolicy = iota
	WriteThrough
)

// CacheLine owns its byte buffer, per spec.md §9 ("lines own their byte
// buffers").
type CacheLine struct {
	tag      uint32
	valid    bool
	dirty    bool
	lastUsed uint64
	data     []byte
}

// CacheStats tracks hit/miss/eviction counters for diagnostics, per
// spec.md §2's Caches component.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache is a set-associative LRU line cache sitting in front of a backing
// byte store, per spec.md §4.3.
type Cache struct {
	lineSize    uint32
	assoc       int
	setCount    uint32
	policy      WritePolicy
	sets        [][]CacheLine
	clock       uint64
	Stats       CacheStats
	backing     *Memory
}

// NewCache builds a cache of totalSize bytes, split into lines of lineSize
// bytes, each set holding assoc ways. lineSize must be a power of two.
func NewCache(totalSize, lineSize uint32, assoc int, policy WritePolicy, backing *Memory) *Cache {
	if lineSize == 0 || lineSize&(lineSize-1) != 0 {
		panic("cache line size must be a power of two")
	}
	if assoc <= 0 {
		assoc = 1
	}
	setCount := totalSize / (lineSize * uint32(assoc))
	if setCount == 0 {
		setCount = 1
	}
	sets := make([][]CacheLine, setCount)
	for i := range sets {
		lines := make([]CacheLine, assoc)
		for j := range lines {
			lines[j].data = make([]byte, lineSize)
		}
		sets[i] = lines
	}
	return &Cache{
		lineSize: lineSize,
		assoc:    assoc,
		setCount: setCount,
		policy:   policy,
		sets:     sets,
		backing:  backing,
	}
}

func (c *Cache) indexAndTag(addr uint32) (setIdx, tag uint32) {
	lineAddr := addr / c.lineSize
	setIdx = lineAddr % c.setCount
	tag = lineAddr / c.setCount
	return
}

// lookup finds a valid line with a matching tag in the given set, or -1.
func (c *Cache) lookup(setIdx, tag uint32) int {
	set := c.sets[setIdx]
	for i := range set {
		if set[i].valid && set[i].tag == tag {
			return i
		}
	}
	return -1
}

// victim picks the least-recently-used way in the set, ties broken by the
// lowest index, per spec.md §9.
func (c *Cache) victim(setIdx uint32) int {
	set := c.sets[setIdx]
	best := 0
	for i := 1; i < len(set); i++ {
		if set[i].lastUsed < set[best].lastUsed {
			best = i
		}
	}
	return best
}

// ensureLine guarantees a valid, resident line for addr's line, handling
// eviction and backing fill, and returns the set/way indices.
func (c *Cache) ensureLine(addr uint32) (setIdx uint32, way int) {
	setIdx, tag := c.indexAndTag(addr)
	if way = c.lookup(setIdx, tag); way >= 0 {
		c.Stats.Hits++
		c.clock++
		c.sets[setIdx][way].lastUsed = c.clock
		return setIdx, way
	}

	c.Stats.Misses++
	way = c.victim(setIdx)
	line := &c.sets[setIdx][way]
	if line.valid && line.dirty {
		c.writeBackLine(setIdx, line)
		c.Stats.Evictions++
	} else if line.valid {
		c.Stats.Evictions++
	}

	lineBase := addr &^ (c.lineSize - 1)
	for i := uint32(0); i < c.lineSize; i++ {
		line.data[i] = c.backing.readBackingByte(lineBase + i)
	}
	line.tag = tag
	line.valid = true
	line.dirty = false
	c.clock++
	line.lastUsed = c.clock
	return setIdx, way
}

func (c *Cache) writeBackLine(setIdx uint32, line *CacheLine) {
	lineAddr := line.tag*c.setCount + setIdx
	base := lineAddr * c.lineSize
	for i := uint32(0); i < c.lineSize; i++ {
		c.backing.writeBackingByte(base+i, line.data[i])
	}
	line.dirty = false
}

// ReadByte services a byte read through the cache.
func (c *Cache) ReadByte(addr uint32) byte {
	setIdx, way := c.ensureLine(addr)
	off := addr % c.lineSize
	return c.sets[setIdx][way].data[off]
}

// WriteByte services a byte write through the cache, honoring the
// configured write policy.
func (c *Cache) WriteByte(addr uint32, b byte) {
	setIdx, way := c.ensureLine(addr)
	off := addr % c.lineSize
	line := &c.sets[setIdx][way]
	line.data[off] = b
	if c.policy == WriteThrough {
		c.backing.writeBackingByte(addr, b)
		line.dirty = false
	} else {
		line.dirty = true
	}
}

// Flush writes back every valid+dirty line and clears their dirty bits,
// leaving valid lines resident, per spec.md §4.3.
func (c *Cache) Flush() {
	for s := range c.sets {
		for w := range c.sets[s] {
			line := &c.sets[s][w]
			if line.valid && line.dirty {
				c.writeBackLine(uint32(s), line)
			}
		}
	}
}

// Invalidate drops any line containing addr without writing it back,
// supporting explicit instruction-cache invalidation on self-modifying
// code per spec.md §4.3 and §9.
func (c *Cache) Invalidate(addr uint32) {
	setIdx, tag := c.indexAndTag(addr)
	if way := c.lookup(setIdx, tag); way >= 0 {
		c.sets[setIdx][way].valid = false
		c.sets[setIdx][way].dirty = false
	}
}

// InvalidateAll clears every line without writing back.
func (c *Cache) InvalidateAll() {
	for s := range c.sets {
		for w := range c.sets[s] {
			c.sets[s][w].valid = false
			c.sets[s][w].dirty = false
		}
	}
}
