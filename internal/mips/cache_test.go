package mips

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheFillAndWriteBack(t *testing.T) {
	mm := NewMemoryMap()
	mem := NewMemory(mm)
	c := NewCache(64, 16, 2, WriteBack, mem)

	c.WriteByte(0x10000000, 0xAB)
	assert.Equal(t, byte(0), mem.readBackingByte(0x10000000), "write-back should not hit backing store yet")

	got := c.ReadByte(0x10000000)
	assert.Equal(t, byte(0xAB), got)

	c.Flush()
	assert.Equal(t, byte(0xAB), mem.readBackingByte(0x10000000))
}

func TestCacheWriteThroughIsImmediate(t *testing.T) {
	mm := NewMemoryMap()
	mem := NewMemory(mm)
	c := NewCache(64, 16, 2, WriteThrough, mem)

	c.WriteByte(0x10000000, 0x7F)
	assert.Equal(t, byte(0x7F), mem.readBackingByte(0x10000000))
}

func TestCacheEvictsLRUWithLowestIndexTieBreak(t *testing.T) {
	mm := NewMemoryMap()
	mem := NewMemory(mm)
	// one set, two ways, so the two fills below collide and the third evicts.
	c := NewCache(32, 16, 2, WriteBack, mem)

	c.ReadByte(0x10000000) // way 0 (both ways empty and equally stale -> lowest index wins)
	c.ReadByte(0x10000010) // way 1
	c.ReadByte(0x10000020) // must evict way 0 (least recently used)

	assert.EqualValues(t, 3, c.Stats.Misses)
	assert.EqualValues(t, 1, c.Stats.Evictions)
}
