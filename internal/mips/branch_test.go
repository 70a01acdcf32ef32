package mips

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBranchStateAdvancesAfterOneDelaySlot(t *testing.T) {
	var b BranchState
	assert.False(t, b.Pending())

	b.Register(0x1000)
	assert.Equal(t, BranchRegistered, b.Phase())

	pc, taken := b.Advance()
	assert.False(t, taken)
	assert.Equal(t, uint32(0), pc)
	assert.Equal(t, BranchTriggered, b.Phase())

	pc, taken = b.Advance()
	assert.True(t, taken)
	assert.Equal(t, uint32(0x1000), pc)
	assert.Equal(t, BranchCleared, b.Phase())
}

func TestBranchStateFirstWriterWins(t *testing.T) {
	var b BranchState
	b.Register(0x1000)
	b.Register(0x2000)
	_, _ = b.Advance()
	pc, taken := b.Advance()
	assert.True(t, taken)
	assert.Equal(t, uint32(0x1000), pc)
}
