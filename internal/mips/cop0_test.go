package mips

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTLBWriteAndProbe(t *testing.T) {
	mm := NewMemoryMap()
	c0 := NewCOP0(mm)

	c0.Write(cop0RegEntryHi, 0x00600000)
	c0.Write(cop0RegEntryLo0, (0x00700000>>6)|(1<<1)|(1<<2)) // readable+writable
	c0.Write(cop0RegPageMask, 0)                                // 4KiB page
	c0.Write(cop0RegIndex, 0)
	c0.TLBWI()

	c0.Write(cop0RegEntryHi, 0x00600000)
	c0.TLBP()
	assert.NotEqual(t, uint32(1<<31), c0.Read(cop0RegIndex))

	phys, _, err := mm.Resolve(0x00600000, AccessRead)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x00700000), phys)
}

func TestRaiseExceptionAndEret(t *testing.T) {
	mm := NewMemoryMap()
	c0 := NewCOP0(mm)

	newPC := c0.RaiseException(ExcOverflow, 0x00400010)
	assert.Equal(t, DefaultKTextBase, newPC)
	assert.True(t, c0.InException())
	assert.True(t, mm.KernelMode())
	assert.Equal(t, uint32(0x00400010), c0.EPC())

	back := c0.ERET()
	assert.Equal(t, uint32(0x00400010), back)
	assert.False(t, c0.InException())
	assert.False(t, mm.KernelMode())
}
