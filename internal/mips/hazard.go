package mips

// Synthetic register indices for the HI/LO accumulator pair, so the hazard
// unit can track them with the same machinery as the 32 general registers,
// per spec.md §4.5.
const (
	regHI uint8 = 33
	regLO uint8 = 34
)

// RegUse describes which registers an instruction reads and writes, for
// hazard detection and forwarding, plus whether it occupies the shared
// memory port (IsLoad/IsStore), per spec.md §4.5.
type RegUse struct {
	Sources []uint8
	Dests   []uint8
	IsLoad  bool
	IsStore bool
}

// Classify extracts the register footprint of a decoded instruction. FPU
// and COP0 control-flow instructions (eret, tlb*) are left with no GPR
// footprint: they don't participate in the integer hazard graph.
func Classify(op *DecodedOp) RegUse {
	if op == nil {
		return RegUse{}
	}
	switch op.Op {
	case OpAdd, OpAddu, OpSub, OpSubu, OpAnd, OpOr, OpXor, OpNor, OpSlt, OpSltu,
		OpSllv, OpSrlv, OpSrav:
		return RegUse{Sources: []uint8{op.Rs, op.Rt}, Dests: []uint8{op.Rd}}
	case OpSll, OpSrl, OpSra, OpRotr, OpSeb, OpSeh, OpWsbh:
		return RegUse{Sources: []uint8{op.Rt}, Dests: []uint8{op.Rd}}
	case OpMult, OpMultu, OpDiv, OpDivu:
		return RegUse{Sources: []uint8{op.Rs, op.Rt}, Dests: []uint8{regHI, regLO}}
	case OpMadd, OpMaddu, OpMsub, OpMsubu:
		return RegUse{Sources: []uint8{op.Rs, op.Rt, regHI, regLO}, Dests: []uint8{regHI, regLO}}
	case OpMfhi:
		return RegUse{Sources: []uint8{regHI}, Dests: []uint8{op.Rd}}
	case OpMflo:
		return RegUse{Sources: []uint8{regLO}, Dests: []uint8{op.Rd}}
	case OpMthi:
		return RegUse{Sources: []uint8{op.Rs}, Dests: []uint8{regHI}}
	case OpMtlo:
		return RegUse{Sources: []uint8{op.Rs}, Dests: []uint8{regLO}}
	case OpMul, OpClz, OpClo:
		return RegUse{Sources: []uint8{op.Rs, op.Rt}, Dests: []uint8{op.Rd}}
	case OpExt, OpIns:
		return RegUse{Sources: []uint8{op.Rs, op.Rt}, Dests: []uint8{op.Rt}}
	case OpJr:
		return RegUse{Sources: []uint8{op.Rs}}
	case OpJalr:
		dest := op.Rd
		if dest == 0 {
			dest = 31
		}
		return RegUse{Sources: []uint8{op.Rs}, Dests: []uint8{dest}}
	case OpMovz, OpMovn:
		return RegUse{Sources: []uint8{op.Rs, op.Rt, op.Rd}, Dests: []uint8{op.Rd}}
	case OpBeq, OpBne:
		return RegUse{Sources: []uint8{op.Rs, op.Rt}}
	case OpBlez, OpBgtz, OpBltz, OpBgez:
		return RegUse{Sources: []uint8{op.Rs}}
	case OpBltzal, OpBgezal:
		return RegUse{Sources: []uint8{op.Rs}, Dests: []uint8{31}}
	case OpJal:
		return RegUse{Dests: []uint8{31}}
	case OpAddi, OpAddiu, OpSlti, OpSltiu, OpAndi, OpOri, OpXori:
		return RegUse{Sources: []uint8{op.Rs}, Dests: []uint8{op.Rt}}
	case OpLui:
		return RegUse{Dests: []uint8{op.Rt}}
	case OpLb, OpLbu, OpLh, OpLhu, OpLw, OpLl, OpLwc1, OpLdc1:
		return RegUse{Sources: []uint8{op.Rs}, Dests: []uint8{op.Rt}, IsLoad: true}
	case OpLwl, OpLwr:
		return RegUse{Sources: []uint8{op.Rs, op.Rt}, Dests: []uint8{op.Rt}, IsLoad: true}
	case OpSb, OpSh, OpSw, OpSwl, OpSwr, OpSwc1, OpSdc1:
		return RegUse{Sources: []uint8{op.Rs, op.Rt}, IsStore: true}
	case OpSc:
		return RegUse{Sources: []uint8{op.Rs, op.Rt}, Dests: []uint8{op.Rt}, IsStore: true}
	case OpMfc0:
		return RegUse{Dests: []uint8{op.Rt}}
	case OpMtc0, OpMfc1, OpMtc1:
		return RegUse{Sources: []uint8{op.Rt}}
	case OpTge, OpTgeu, OpTlt, OpTltu, OpTeq, OpTne:
		return RegUse{Sources: []uint8{op.Rs, op.Rt}}
	case OpTgei, OpTgeiu, OpTlti, OpTltiu, OpTeqi, OpTnei:
		return RegUse{Sources: []uint8{op.Rs}}
	default:
		return RegUse{}
	}
}

// HazardUnit decides whether the instruction occupying ID/EX must stall one
// more cycle before it can execute, given what's in flight ahead of it.
// Per spec.md §4.5: with forwarding disabled, any RAW dependency on an
// in-flight producer stalls; with forwarding enabled, only the load-use
// hazard (producer one stage ahead is a load) still stalls, since the
// loaded value isn't available until its own EX/MEM completes. Independent
// of RAW, a structural hazard exists whenever the EX/MEM-stage instruction
// is a load or store: this core folds MEM into EX, so that instruction's
// data access and the current cycle's instruction fetch contend for the
// one shared memory port this cycle, regardless of any register overlap.
type HazardUnit struct {
	Forwarding bool
	// Enabled gates the whole unit; with it false, Detect reports no
	// hazards at all (a diagnostic/test configuration), per spec.md §6's
	// hazardDetectionEnabled snapshot field.
	Enabled bool
}

// HazardResult separates the independent hazard signals spec.md §6's
// snapshot shape names, rather than folding them into one opaque bool.
type HazardResult struct {
	LoadUse    bool // producer one stage ahead is a load feeding this cycle's source
	RAW        bool // any other in-flight RAW dependency, only with forwarding off
	Structural bool // EX/MEM carries a load or store, contending for the memory port
}

// Stall reports whether ID must bubble and IF must hold this cycle.
func (r HazardResult) Stall() bool { return r.LoadUse || r.RAW || r.Structural }

// Detect reports the hazards idex faces this cycle. exmem is the
// instruction one stage ahead (already executed last cycle, now in
// EX/MEM); memwb is two stages ahead (in MEM/WB).
func (h *HazardUnit) Detect(idex, exmem, memwb *DecodedOp) HazardResult {
	var res HazardResult
	if !h.Enabled {
		return res
	}

	exU := Classify(exmem)
	res.Structural = exU.IsLoad || exU.IsStore

	cur := Classify(idex)
	if len(cur.Sources) == 0 {
		return res
	}
	if rawHit(cur, exU) {
		if exU.IsLoad {
			res.LoadUse = true
		} else if !h.Forwarding {
			res.RAW = true
		}
	}
	if !h.Forwarding && rawHit(cur, Classify(memwb)) {
		res.RAW = true
	}
	return res
}

func rawHit(cur, producer RegUse) bool {
	for _, d := range producer.Dests {
		if d == 0 {
			continue
		}
		for _, s := range cur.Sources {
			if s == d {
				return true
			}
		}
	}
	return false
}
