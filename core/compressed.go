package core

// DecodeCompressed expands a 16-bit compressed instruction into the same
// tagged Instruction the 32-bit decoder produces, with Compressed set
// (§4.D.2). Word is left zero: no equivalent 32-bit encoding is built for
// compressed sources. half's low two bits
// select the quadrant; 0b11 is never compressed and must not reach here.
func DecodeCompressed(half uint16, addr uint32) (Instruction, error) {
	quadrant := half & 0x3
	funct3 := (half >> 13) & 0x7

	switch quadrant {
	case 0:
		return decodeC0(half, addr, funct3)
	case 1:
		return decodeC1(half, addr, funct3)
	case 2:
		return decodeC2(half, addr, funct3)
	default:
		return Instruction{Address: addr}, ErrIllegalInstruction
	}
}

// rs/rd' fields in quadrants 0 and 1 are 3 bits, biased by 8 (x8..x15).
func cReg(bits uint16) int { return int(bits&0x7) + 8 }

func decodeC0(half uint16, addr uint32, funct3 uint16) (Instruction, error) {
	rdp := cReg(half >> 2)
	rs1p := cReg(half >> 7)
	base := Instruction{Address: addr, Compressed: true}

	switch funct3 {
	case 0x0: // C.ADDI4SPN -> addi rd', x2, nzuimm
		uimm := (uint32(half>>5&0x1) << 3) | (uint32(half>>6&0x1) << 2) |
			(uint32(half>>7&0xf) << 6) | (uint32(half>>11&0x3) << 4)
		if uimm == 0 {
			return base, ErrIllegalInstruction
		}
		return makeC(base, OpADDI, rdp, 2, 0, int32(uimm)), nil

	case 0x2: // C.LW -> lw rd', offset(rs1')
		off := cLoadStoreOffset(half)
		return makeC(base, OpLW, rdp, rs1p, 0, int32(off)), nil

	case 0x6: // C.SW -> sw rs2', offset(rs1')
		off := cLoadStoreOffset(half)
		inst := makeC(base, OpSW, 0, rs1p, rdp, int32(off))
		inst.Format = FormatS
		return inst, nil

	default:
		return base, ErrIllegalInstruction
	}
}

// cLoadStoreOffset decodes the 5-bit scattered offset shared by C.LW/C.SW.
func cLoadStoreOffset(half uint16) uint32 {
	return (uint32(half>>6&0x1) << 2) | (uint32(half>>10&0x7) << 3) | (uint32(half>>5&0x1) << 6)
}

func decodeC1(half uint16, addr uint32, funct3 uint16) (Instruction, error) {
	base := Instruction{Address: addr, Compressed: true}
	rd := int((half >> 7) & 0x1f)

	switch funct3 {
	case 0x0: // C.ADDI / C.NOP
		imm := cImm6(half)
		return makeC(base, OpADDI, rd, rd, 0, imm), nil

	case 0x1: // C.JAL (RV32 only) -> jal x1, offset
		imm := cJumpOffset(half)
		return makeC(base, OpJAL, 1, 0, 0, imm), nil

	case 0x2: // C.LI -> addi rd, x0, imm
		imm := cImm6(half)
		return makeC(base, OpADDI, rd, 0, 0, imm), nil

	case 0x3:
		if rd == 2 { // C.ADDI16SP -> addi x2, x2, nzimm
			imm := cAddi16spImm(half)
			if imm == 0 {
				return base, ErrIllegalInstruction
			}
			return makeC(base, OpADDI, 2, 2, 0, imm), nil
		}
		// C.LUI -> lui rd, nzimm
		imm := cLuiImm(half)
		if imm == 0 || rd == 0 {
			return base, ErrIllegalInstruction
		}
		inst := makeC(base, OpLUI, rd, 0, 0, imm)
		inst.Format = FormatU
		return inst, nil

	case 0x4:
		return decodeC1Arith(base, half)

	case 0x5: // C.J -> jal x0, offset
		imm := cJumpOffset(half)
		return makeC(base, OpJAL, 0, 0, 0, imm), nil

	case 0x6: // C.BEQZ -> beq rs1', x0, offset
		rs1p := cReg(half >> 7)
		imm := cBranchOffset(half)
		inst := makeC(base, OpBEQ, 0, rs1p, 0, imm)
		inst.Format = FormatB
		return inst, nil

	case 0x7: // C.BNEZ -> bne rs1', x0, offset
		rs1p := cReg(half >> 7)
		imm := cBranchOffset(half)
		inst := makeC(base, OpBNE, 0, rs1p, 0, imm)
		inst.Format = FormatB
		return inst, nil

	default:
		return base, ErrIllegalInstruction
	}
}

func decodeC1Arith(base Instruction, half uint16) (Instruction, error) {
	rdp := cReg(half >> 7)
	funct2hi := (half >> 10) & 0x3

	switch funct2hi {
	case 0x0: // C.SRLI -> srli rd', rd', shamt
		shamt := cShamt(half)
		return makeC(base, OpSRLI, rdp, rdp, 0, int32(shamt)), nil
	case 0x1: // C.SRAI -> srai rd', rd', shamt
		shamt := cShamt(half)
		return makeC(base, OpSRAI, rdp, rdp, 0, int32(shamt)), nil
	case 0x2: // C.ANDI -> andi rd', rd', imm
		imm := cImm6(half)
		return makeC(base, OpANDI, rdp, rdp, 0, imm), nil
	case 0x3:
		rs2p := cReg(half >> 2)
		isWord := (half >> 12) & 0x1
		funct2lo := (half >> 5) & 0x3
		if isWord != 0 {
			return base, ErrIllegalInstruction // C.SUBW/ADDW/etc. are RV64-only
		}
		var op Op
		switch funct2lo {
		case 0x0:
			op = OpSUB
		case 0x1:
			op = OpXOR
		case 0x2:
			op = OpOR
		case 0x3:
			op = OpAND
		}
		return makeC(base, op, rdp, rdp, rs2p, 0), nil
	default:
		return base, ErrIllegalInstruction
	}
}

func decodeC2(half uint16, addr uint32, funct3 uint16) (Instruction, error) {
	base := Instruction{Address: addr, Compressed: true}
	rd := int((half >> 7) & 0x1f)
	rs2 := int((half >> 2) & 0x1f)

	switch funct3 {
	case 0x0: // C.SLLI -> slli rd, rd, shamt
		shamt := cShamt(half)
		return makeC(base, OpSLLI, rd, rd, 0, int32(shamt)), nil

	case 0x2: // C.LWSP -> lw rd, offset(x2)
		if rd == 0 {
			return base, ErrIllegalInstruction
		}
		off := cLwspOffset(half)
		return makeC(base, OpLW, rd, 2, 0, int32(off)), nil

	case 0x4:
		bit12 := (half >> 12) & 0x1
		switch {
		case bit12 == 0 && rs2 == 0: // C.JR -> jalr x0, 0(rd)
			if rd == 0 {
				return base, ErrIllegalInstruction
			}
			return makeC(base, OpJALR, 0, rd, 0, 0), nil
		case bit12 == 0: // C.MV -> add rd, x0, rs2
			return makeC(base, OpADD, rd, 0, rs2, 0), nil
		case bit12 == 1 && rd == 0 && rs2 == 0: // C.EBREAK
			inst := makeC(base, OpEBREAK, 0, 0, 0, 0)
			inst.Format = FormatSystem
			return inst, nil
		case bit12 == 1 && rs2 == 0: // C.JALR -> jalr x1, 0(rd)
			return makeC(base, OpJALR, 1, rd, 0, 0), nil
		default: // C.ADD -> add rd, rd, rs2
			return makeC(base, OpADD, rd, rd, rs2, 0), nil
		}

	case 0x6: // C.SWSP -> sw rs2, offset(x2)
		off := cSwspOffset(half)
		inst := makeC(base, OpSW, 0, 2, rs2, int32(off))
		inst.Format = FormatS
		return inst, nil

	default:
		return base, ErrIllegalInstruction
	}
}

func makeC(base Instruction, op Op, rd, rs1, rs2 int, imm int32) Instruction {
	base.Op = op
	base.Rd, base.Rs1, base.Rs2 = rd, rs1, rs2
	base.Imm = imm
	base.Format = formatFor(op)
	return base
}

func formatFor(op Op) Format {
	switch op {
	case OpLUI:
		return FormatU
	case OpJAL:
		return FormatJ
	case OpJALR, OpADDI, OpANDI, OpSLLI, OpSRLI, OpSRAI, OpLW:
		return FormatI
	case OpBEQ, OpBNE:
		return FormatB
	case OpSW:
		return FormatS
	default:
		return FormatR
	}
}

func cImm6(half uint16) int32 {
	v := (uint32(half>>12&0x1) << 5) | uint32(half>>2&0x1f)
	return signExtend(v, 6)
}

func cShamt(half uint16) uint32 {
	return (uint32(half>>12&0x1) << 5) | uint32(half>>2&0x1f)
}

func cAddi16spImm(half uint16) int32 {
	v := (uint32(half>>12&0x1) << 9) | (uint32(half>>3&0x3) << 7) |
		(uint32(half>>5&0x1) << 6) | (uint32(half>>2&0x1) << 5) | (uint32(half>>6&0x1) << 4)
	return signExtend(v, 10)
}

func cLuiImm(half uint16) int32 {
	v := (uint32(half>>12&0x1) << 17) | (uint32(half>>2&0x1f) << 12)
	return signExtend(v, 18)
}

func cJumpOffset(half uint16) int32 {
	v := (uint32(half>>12&0x1) << 11) | (uint32(half>>11&0x1) << 4) |
		(uint32(half>>9&0x3) << 8) | (uint32(half>>8&0x1) << 10) |
		(uint32(half>>7&0x1) << 6) | (uint32(half>>6&0x1) << 7) |
		(uint32(half>>3&0x7) << 1) | (uint32(half>>2&0x1) << 5)
	return signExtend(v, 12)
}

func cBranchOffset(half uint16) int32 {
	v := (uint32(half>>12&0x1) << 8) | (uint32(half>>10&0x3) << 3) |
		(uint32(half>>5&0x3) << 6) | (uint32(half>>3&0x3) << 1) | (uint32(half>>2&0x1) << 5)
	return signExtend(v, 9)
}

func cLwspOffset(half uint16) uint32 {
	return (uint32(half>>12&0x1) << 5) | (uint32(half>>4&0x7) << 2) | (uint32(half>>2&0x3) << 6)
}

func cSwspOffset(half uint16) uint32 {
	return (uint32(half>>9&0xf) << 2) | (uint32(half>>7&0x3) << 6)
}
