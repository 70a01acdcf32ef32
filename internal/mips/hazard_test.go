package mips

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHazardLoadUseStallsEvenWithForwarding(t *testing.T) {
	h := HazardUnit{Forwarding: true, Enabled: true}
	load := &DecodedOp{Op: OpLw, Rs: 1, Rt: 2}       // lw $2, 0($1)
	use := &DecodedOp{Op: OpAdd, Rs: 2, Rt: 3, Rd: 4} // add $4, $2, $3 -- depends on $2

	res := h.Detect(use, load, nil)
	assert.True(t, res.LoadUse)
	assert.True(t, res.Stall())
}

func TestHazardForwardingAvoidsNonLoadStall(t *testing.T) {
	h := HazardUnit{Forwarding: true, Enabled: true}
	producer := &DecodedOp{Op: OpAdd, Rs: 1, Rt: 1, Rd: 2}
	consumer := &DecodedOp{Op: OpAddu, Rs: 2, Rt: 3, Rd: 4}

	assert.False(t, h.Detect(consumer, producer, nil).Stall())
}

func TestHazardWithoutForwardingStallsOnAnyRAW(t *testing.T) {
	h := HazardUnit{Forwarding: false, Enabled: true}
	producer := &DecodedOp{Op: OpAdd, Rs: 1, Rt: 1, Rd: 2}
	consumer := &DecodedOp{Op: OpAddu, Rs: 2, Rt: 3, Rd: 4}

	res := h.Detect(consumer, producer, nil)
	assert.True(t, res.RAW)
	assert.True(t, res.Stall())
}

func TestHazardIgnoresRegisterZero(t *testing.T) {
	h := HazardUnit{Forwarding: false, Enabled: true}
	producer := &DecodedOp{Op: OpAdd, Rs: 1, Rt: 1, Rd: 0}
	consumer := &DecodedOp{Op: OpAddu, Rs: 0, Rt: 3, Rd: 4}

	assert.False(t, h.Detect(consumer, producer, nil).Stall())
}

func TestHazardStructuralWhenExMemCarriesLoadOrStore(t *testing.T) {
	h := HazardUnit{Forwarding: true, Enabled: true}
	unrelated := &DecodedOp{Op: OpAdd, Rs: 1, Rt: 1, Rd: 2}
	load := &DecodedOp{Op: OpLw, Rs: 3, Rt: 4}

	res := h.Detect(unrelated, load, nil)
	assert.True(t, res.Structural)
	assert.True(t, res.Stall())

	store := &DecodedOp{Op: OpSw, Rs: 3, Rt: 4}
	res = h.Detect(unrelated, store, nil)
	assert.True(t, res.Structural)
}

func TestHazardStructuralClearsOnceExMemAdvancesPastTheLoad(t *testing.T) {
	h := HazardUnit{Forwarding: true, Enabled: true}
	unrelated := &DecodedOp{Op: OpAdd, Rs: 1, Rt: 1, Rd: 2}
	load := &DecodedOp{Op: OpLw, Rs: 3, Rt: 4}

	res := h.Detect(unrelated, nil, load)
	assert.False(t, res.Structural, "a load two stages ahead no longer contends for the memory port")
}

func TestHazardDisabledReportsNothing(t *testing.T) {
	h := HazardUnit{Forwarding: true, Enabled: false}
	load := &DecodedOp{Op: OpLw, Rs: 1, Rt: 2}
	use := &DecodedOp{Op: OpAdd, Rs: 2, Rt: 3, Rd: 4}

	assert.False(t, h.Detect(use, load, load).Stall())
}
