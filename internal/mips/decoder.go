package mips

// OpKind identifies the semantic operation a decoded instruction performs.
// Per spec.md §9's design note, decoded instructions are a closed sum type
// (fields precomputed at decode time) rather than per-instruction
// closures; Execute dispatches on Op with a type switch.
type OpKind int

const (
	OpNop OpKind = iota
	OpAdd
	OpAddu
	OpSub
	OpSubu
	OpAnd
	OpOr
	OpXor
	OpNor
	OpSll
	OpSrl
	OpSra
	OpSllv
	OpSrlv
	OpSrav
	OpSlt
	OpSltu
	OpMult
	OpMultu
	OpDiv
	OpDivu
	OpMfhi
	OpMflo
	OpMthi
	OpMtlo
	OpJr
	OpJalr
	OpMovz
	OpMovn
	OpMovf
	OpMovt
	OpSyscall
	OpBreak
	OpTge
	OpTgeu
	OpTlt
	OpTltu
	OpTeq
	OpTne
	OpRotr

	OpBltz
	OpBgez
	OpBltzal
	OpBgezal
	OpTgei
	OpTgeiu
	OpTlti
	OpTltiu
	OpTeqi
	OpTnei

	OpJ
	OpJal

	OpBeq
	OpBne
	OpBlez
	OpBgtz

	OpAddi
	OpAddiu
	OpSlti
	OpSltiu
	OpAndi
	OpOri
	OpXori
	OpLui

	OpMfc0
	OpMtc0
	OpEret
	OpTlbp
	OpTlbr
	OpTlbwi
	OpTlbwr

	OpMfc1
	OpMtc1
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFSqrt
	OpFAbs
	OpFMov
	OpFNeg
	OpCvtSD
	OpCvtSW
	OpCvtDS
	OpCvtDW
	OpCvtWS
	OpCvtWD
	OpCeilW
	OpFloorW
	OpRoundW
	OpTruncW
	OpCEq
	OpCLe
	OpCLt
	OpFMovz
	OpFMovn
	OpFMovf
	OpFMovt
	OpBc1t
	OpBc1f

	OpMul
	OpMadd
	OpMaddu
	OpMsub
	OpMsubu
	OpClz
	OpClo

	OpExt
	OpIns
	OpDext
	OpDins
	OpWsbh
	OpSeb
	OpSeh

	OpLb
	OpLbu
	OpLh
	OpLhu
	OpLw
	OpLwl
	OpLwr
	OpLl
	OpLwc1
	OpLdc1

	OpSb
	OpSh
	OpSw
	OpSwl
	OpSwr
	OpSc
	OpSwc1
	OpSdc1
)

// DecodedOp is the tagged record spec.md §4.1 describes: an opcode name
// for diagnostics/snapshots plus precomputed operands.
type DecodedOp struct {
	Name string
	Op   OpKind

	Rs, Rt, Rd, Shamt uint8
	Funct             uint8
	Imm               uint16
	Target            uint32
	Fmt               uint8
	Sel               uint8
	PC                uint32 // the instruction's own PC, for branch math
}

func signExt16(imm uint16) uint32 {
	return uint32(int32(int16(imm)))
}

// Decode maps a 32-bit instruction word at address pc to a DecodedOp, per
// spec.md §4.1. It returns an error (InvalidInstructionError) for unknown
// or reserved encodings; 0 always decodes as nop regardless of other
// fields.
func Decode(word uint32, pc uint32) (*DecodedOp, error) {
	if word == 0 {
		return &DecodedOp{Name: "nop", Op: OpNop, PC: pc}, nil
	}

	opcode := uint8((word >> 26) & 0x3F)
	rs := uint8((word >> 21) & 0x1F)
	rt := uint8((word >> 16) & 0x1F)
	rd := uint8((word >> 11) & 0x1F)
	shamt := uint8((word >> 6) & 0x1F)
	funct := uint8(word & 0x3F)
	imm := uint16(word & 0xFFFF)
	target := word & 0x3FFFFFF

	d := &DecodedOp{Rs: rs, Rt: rt, Rd: rd, Shamt: shamt, Funct: funct, Imm: imm, Target: target, PC: pc}

	switch opcode {
	case 0x00:
		return decodeSpecial(d, rs)
	case 0x01:
		return decodeRegimm(d)
	case 0x02:
		d.Name, d.Op = "j", OpJ
		return d, nil
	case 0x03:
		d.Name, d.Op = "jal", OpJal
		return d, nil
	case 0x04:
		d.Name, d.Op = "beq", OpBeq
		return d, nil
	case 0x05:
		d.Name, d.Op = "bne", OpBne
		return d, nil
	case 0x06:
		d.Name, d.Op = "blez", OpBlez
		return d, nil
	case 0x07:
		d.Name, d.Op = "bgtz", OpBgtz
		return d, nil
	case 0x08:
		d.Name, d.Op = "addi", OpAddi
		return d, nil
	case 0x09:
		d.Name, d.Op = "addiu", OpAddiu
		return d, nil
	case 0x0A:
		d.Name, d.Op = "slti", OpSlti
		return d, nil
	case 0x0B:
		d.Name, d.Op = "sltiu", OpSltiu
		return d, nil
	case 0x0C:
		d.Name, d.Op = "andi", OpAndi
		return d, nil
	case 0x0D:
		d.Name, d.Op = "ori", OpOri
		return d, nil
	case 0x0E:
		d.Name, d.Op = "xori", OpXori
		return d, nil
	case 0x0F:
		d.Name, d.Op = "lui", OpLui
		return d, nil
	case 0x10:
		return decodeCop0(d, rs, funct)
	case 0x11:
		return decodeCop1(d, rs, funct, word)
	case 0x1C:
		return decodeSpecial2(d, funct)
	case 0x1F:
		return decodeSpecial3(d, funct)
	case 0x20:
		d.Name, d.Op = "lb", OpLb
		return d, nil
	case 0x21:
		d.Name, d.Op = "lh", OpLh
		return d, nil
	case 0x22:
		d.Name, d.Op = "lwl", OpLwl
		return d, nil
	case 0x23:
		d.Name, d.Op = "lw", OpLw
		return d, nil
	case 0x24:
		d.Name, d.Op = "lbu", OpLbu
		return d, nil
	case 0x25:
		d.Name, d.Op = "lhu", OpLhu
		return d, nil
	case 0x26:
		d.Name, d.Op = "lwr", OpLwr
		return d, nil
	case 0x28:
		d.Name, d.Op = "sb", OpSb
		return d, nil
	case 0x29:
		d.Name, d.Op = "sh", OpSh
		return d, nil
	case 0x2A:
		d.Name, d.Op = "swl", OpSwl
		return d, nil
	case 0x2B:
		d.Name, d.Op = "sw", OpSw
		return d, nil
	case 0x2E:
		d.Name, d.Op = "swr", OpSwr
		return d, nil
	case 0x30:
		d.Name, d.Op = "ll", OpLl
		return d, nil
	case 0x31:
		d.Name, d.Op = "lwc1", OpLwc1
		return d, nil
	case 0x35:
		d.Name, d.Op = "ldc1", OpLdc1
		return d, nil
	case 0x38:
		d.Name, d.Op = "sc", OpSc
		return d, nil
	case 0x39:
		d.Name, d.Op = "swc1", OpSwc1
		return d, nil
	case 0x3D:
		d.Name, d.Op = "sdc1", OpSdc1
		return d, nil
	}

	return nil, &InvalidInstructionError{Instruction: word, PC: pc}
}

func decodeSpecial(d *DecodedOp, rs uint8) (*DecodedOp, error) {
	switch d.Funct {
	case 0x00:
		if rs == 0x01 {
			d.Name, d.Op = "rotr", OpRotr
		} else {
			d.Name, d.Op = "sll", OpSll
		}
	case 0x02:
		d.Name, d.Op = "srl", OpSrl
	case 0x03:
		d.Name, d.Op = "sra", OpSra
	case 0x04:
		d.Name, d.Op = "sllv", OpSllv
	case 0x06:
		d.Name, d.Op = "srlv", OpSrlv
	case 0x07:
		d.Name, d.Op = "srav", OpSrav
	case 0x08:
		d.Name, d.Op = "jr", OpJr
	case 0x09:
		d.Name, d.Op = "jalr", OpJalr
	case 0x0A:
		d.Name, d.Op = "movz", OpMovz
	case 0x0B:
		d.Name, d.Op = "movn", OpMovn
	case 0x0C:
		d.Name, d.Op = "syscall", OpSyscall
	case 0x0D:
		d.Name, d.Op = "break", OpBreak
	case 0x10:
		d.Name, d.Op = "mfhi", OpMfhi
	case 0x11:
		d.Name, d.Op = "mthi", OpMthi
	case 0x12:
		d.Name, d.Op = "mflo", OpMflo
	case 0x13:
		d.Name, d.Op = "mtlo", OpMtlo
	case 0x18:
		d.Name, d.Op = "mult", OpMult
	case 0x19:
		d.Name, d.Op = "multu", OpMultu
	case 0x1A:
		d.Name, d.Op = "div", OpDiv
	case 0x1B:
		d.Name, d.Op = "divu", OpDivu
	case 0x20:
		d.Name, d.Op = "add", OpAdd
	case 0x21:
		d.Name, d.Op = "addu", OpAddu
	case 0x22:
		d.Name, d.Op = "sub", OpSub
	case 0x23:
		d.Name, d.Op = "subu", OpSubu
	case 0x24:
		d.Name, d.Op = "and", OpAnd
	case 0x25:
		d.Name, d.Op = "or", OpOr
	case 0x26:
		d.Name, d.Op = "xor", OpXor
	case 0x27:
		d.Name, d.Op = "nor", OpNor
	case 0x2A:
		d.Name, d.Op = "slt", OpSlt
	case 0x2B:
		d.Name, d.Op = "sltu", OpSltu
	case 0x01:
		// MOVF/MOVT share funct 0x01, distinguished by bit 16 of rt.
		if d.Rt&0x1 == 0 {
			d.Name, d.Op = "movf", OpMovf
		} else {
			d.Name, d.Op = "movt", OpMovt
		}
	case 0x30:
		d.Name, d.Op = "tge", OpTge
	case 0x31:
		d.Name, d.Op = "tgeu", OpTgeu
	case 0x32:
		d.Name, d.Op = "tlt", OpTlt
	case 0x33:
		d.Name, d.Op = "tltu", OpTltu
	case 0x34:
		d.Name, d.Op = "teq", OpTeq
	case 0x36:
		d.Name, d.Op = "tne", OpTne
	default:
		return nil, &InvalidInstructionError{Instruction: uint32(d.Funct), PC: d.PC}
	}
	return d, nil
}

func decodeRegimm(d *DecodedOp) (*DecodedOp, error) {
	switch d.Rt {
	case 0x00:
		d.Name, d.Op = "bltz", OpBltz
	case 0x01:
		d.Name, d.Op = "bgez", OpBgez
	case 0x10:
		d.Name, d.Op = "bltzal", OpBltzal
	case 0x11:
		d.Name, d.Op = "bgezal", OpBgezal
	case 0x08:
		d.Name, d.Op = "tgei", OpTgei
	case 0x09:
		d.Name, d.Op = "tgeiu", OpTgeiu
	case 0x0A:
		d.Name, d.Op = "tlti", OpTlti
	case 0x0B:
		d.Name, d.Op = "tltiu", OpTltiu
	case 0x0C:
		d.Name, d.Op = "teqi", OpTeqi
	case 0x0E:
		d.Name, d.Op = "tnei", OpTnei
	default:
		return nil, &InvalidInstructionError{PC: d.PC}
	}
	return d, nil
}

func decodeCop0(d *DecodedOp, rs, funct uint8) (*DecodedOp, error) {
	d.Sel = uint8(d.Funct & 0x7) // for mtc0/mfc0, bits [2:0] of the full word are the select field
	switch rs {
	case 0x00:
		d.Name, d.Op = "mfc0", OpMfc0
		return d, nil
	case 0x04:
		d.Name, d.Op = "mtc0", OpMtc0
		return d, nil
	case 0x10:
		switch funct {
		case 0x18:
			d.Name, d.Op = "eret", OpEret
		case 0x08:
			d.Name, d.Op = "tlbp", OpTlbp
		case 0x01:
			d.Name, d.Op = "tlbr", OpTlbr
		case 0x02:
			d.Name, d.Op = "tlbwi", OpTlbwi
		case 0x06:
			d.Name, d.Op = "tlbwr", OpTlbwr
		default:
			return nil, &InvalidInstructionError{PC: d.PC}
		}
		return d, nil
	}
	return nil, &InvalidInstructionError{PC: d.PC}
}

func decodeCop1(d *DecodedOp, rs, funct uint8, word uint32) (*DecodedOp, error) {
	switch rs {
	case 0x00:
		d.Name, d.Op = "mfc1", OpMfc1
		return d, nil
	case 0x04:
		d.Name, d.Op = "mtc1", OpMtc1
		return d, nil
	case 0x08:
		// bc1t / bc1f, condition code in rt[4:2], tf bit in rt[0]
		d.Fmt = 0x08
		if d.Rt&0x1 == 0 {
			d.Name, d.Op = "bc1f", OpBc1f
		} else {
			d.Name, d.Op = "bc1t", OpBc1t
		}
		return d, nil
	case 0x10, 0x11, 0x14:
		d.Fmt = rs
		return decodeCop1Funct(d, funct)
	}
	return nil, &InvalidInstructionError{Instruction: word, PC: d.PC}
}

func decodeCop1Funct(d *DecodedOp, funct uint8) (*DecodedOp, error) {
	switch funct {
	case 0x00:
		d.Name, d.Op = "add.fmt", OpFAdd
	case 0x01:
		d.Name, d.Op = "sub.fmt", OpFSub
	case 0x02:
		d.Name, d.Op = "mul.fmt", OpFMul
	case 0x03:
		d.Name, d.Op = "div.fmt", OpFDiv
	case 0x04:
		d.Name, d.Op = "sqrt.fmt", OpFSqrt
	case 0x05:
		d.Name, d.Op = "abs.fmt", OpFAbs
	case 0x06:
		d.Name, d.Op = "mov.fmt", OpFMov
	case 0x07:
		d.Name, d.Op = "neg.fmt", OpFNeg
	case 0x0E:
		d.Name, d.Op = "ceil.w.fmt", OpCeilW
	case 0x0C:
		d.Name, d.Op = "round.w.fmt", OpRoundW
	case 0x0F:
		d.Name, d.Op = "floor.w.fmt", OpFloorW
	case 0x0D:
		d.Name, d.Op = "trunc.w.fmt", OpTruncW
	case 0x20:
		if d.Fmt == 0x11 {
			d.Name, d.Op = "cvt.s.d", OpCvtSD
		} else {
			d.Name, d.Op = "cvt.s.w", OpCvtSW
		}
	case 0x21:
		if d.Fmt == 0x14 {
			d.Name, d.Op = "cvt.d.w", OpCvtDW
		} else {
			d.Name, d.Op = "cvt.d.s", OpCvtDS
		}
	case 0x24:
		d.Name, d.Op = "cvt.w.fmt", OpCvtWS
		if d.Fmt == 0x11 {
			d.Op = OpCvtWD
		}
	case 0x32:
		d.Name, d.Op = "c.eq.fmt", OpCEq
	case 0x3E:
		d.Name, d.Op = "c.le.fmt", OpCLe
	case 0x3C:
		d.Name, d.Op = "c.lt.fmt", OpCLt
	case 0x12:
		d.Name, d.Op = "movz.fmt", OpFMovz
	case 0x13:
		d.Name, d.Op = "movn.fmt", OpFMovn
	case 0x11:
		if d.Rt&0x1 == 0 {
			d.Name, d.Op = "movf.fmt", OpFMovf
		} else {
			d.Name, d.Op = "movt.fmt", OpFMovt
		}
	default:
		return nil, &InvalidInstructionError{PC: d.PC}
	}
	return d, nil
}

func decodeSpecial2(d *DecodedOp, funct uint8) (*DecodedOp, error) {
	switch funct {
	case 0x02:
		d.Name, d.Op = "mul", OpMul
	case 0x00:
		d.Name, d.Op = "madd", OpMadd
	case 0x01:
		d.Name, d.Op = "maddu", OpMaddu
	case 0x04:
		d.Name, d.Op = "msub", OpMsub
	case 0x05:
		d.Name, d.Op = "msubu", OpMsubu
	case 0x20:
		d.Name, d.Op = "clz", OpClz
	case 0x21:
		d.Name, d.Op = "clo", OpClo
	default:
		return nil, &InvalidInstructionError{PC: d.PC}
	}
	return d, nil
}

func decodeSpecial3(d *DecodedOp, funct uint8) (*DecodedOp, error) {
	switch funct {
	case 0x00:
		d.Name, d.Op = "ext", OpExt
	case 0x04:
		d.Name, d.Op = "ins", OpIns
	case 0x01:
		d.Name, d.Op = "dext", OpDext
	case 0x05:
		d.Name, d.Op = "dins", OpDins
	case 0x20:
		switch d.Shamt {
		case 0x02:
			d.Name, d.Op = "wsbh", OpWsbh
		case 0x10:
			d.Name, d.Op = "seb", OpSeb
		case 0x18:
			d.Name, d.Op = "seh", OpSeh
		default:
			return nil, &InvalidInstructionError{PC: d.PC}
		}
	default:
		return nil, &InvalidInstructionError{PC: d.PC}
	}
	return d, nil
}
