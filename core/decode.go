package core

import "errors"

// ErrIllegalInstruction is returned by Decode/DecodeCompressed when the word
// does not match any defined encoding; the caller raises CauseIllegalInstruction.
var ErrIllegalInstruction = errors.New("core: illegal instruction")

const (
	opcodeLUI     = 0x37
	opcodeAUIPC   = 0x17
	opcodeJAL     = 0x6f
	opcodeJALR    = 0x67
	opcodeBranch  = 0x63
	opcodeLoad    = 0x03
	opcodeStore   = 0x23
	opcodeArithI  = 0x13
	opcodeArithR  = 0x33
	opcodeFence  = 0x0f
	opcodeSystem = 0x73
	funct7M      = 0x01
	funct7Base   = 0x00
	funct7Alt    = 0x20
	funct7MinMax = 0x05
	funct7Count  = 0x30 // CLZ/CTZ/CPOP/SEXT.B/SEXT.H funct7 (shift-imm opcode)
	funct7Rot    = 0x30 // ROL/ROR share funct7 with the count ops, disambiguated by funct3
	funct7ZextH  = 0x04

	// ORC.B / REV8 are full-immediate encodings within ARITH-I funct3=5,
	// not funct7/rs2 splits (RISC-V Zbb, RV32 encoding).
	imm12OrcB = 0x287
	imm12Rev8 = 0x698
)

// signExtend sign-extends the low `bits` bits of v.
func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

// Decode maps a raw 32-bit instruction word into its tagged variant (§4.D.1).
func Decode(word uint32, addr uint32) (Instruction, error) {
	opcode := word & 0x7f
	rd := int((word >> 7) & 0x1f)
	funct3 := (word >> 12) & 0x7
	rs1 := int((word >> 15) & 0x1f)
	rs2 := int((word >> 20) & 0x1f)
	funct7 := (word >> 25) & 0x7f

	inst := Instruction{Address: addr, Word: word}

	switch opcode {
	case opcodeLUI:
		inst.Format = FormatU
		inst.Op = OpLUI
		inst.Rd = rd
		inst.Imm = int32(word & 0xfffff000)
		return inst, nil

	case opcodeAUIPC:
		inst.Format = FormatU
		inst.Op = OpAUIPC
		inst.Rd = rd
		inst.Imm = int32(word & 0xfffff000)
		return inst, nil

	case opcodeJAL:
		inst.Format = FormatJ
		inst.Op = OpJAL
		inst.Rd = rd
		imm := ((word >> 31) & 1 << 20) | ((word >> 21) & 0x3ff << 1) |
			((word >> 20) & 1 << 11) | ((word >> 12) & 0xff << 12)
		inst.Imm = signExtend(imm, 21)
		return inst, nil

	case opcodeJALR:
		if funct3 != 0 {
			return inst, ErrIllegalInstruction
		}
		inst.Format = FormatI
		inst.Op = OpJALR
		inst.Rd, inst.Rs1 = rd, rs1
		inst.Imm = signExtend(word>>20, 12)
		return inst, nil

	case opcodeBranch:
		inst.Format = FormatB
		inst.Rs1, inst.Rs2 = rs1, rs2
		imm := ((word >> 31) & 1 << 12) | ((word >> 7) & 1 << 11) |
			((word >> 25) & 0x3f << 5) | ((word >> 8) & 0xf << 1)
		inst.Imm = signExtend(imm, 13)
		switch funct3 {
		case 0:
			inst.Op = OpBEQ
		case 1:
			inst.Op = OpBNE
		case 4:
			inst.Op = OpBLT
		case 5:
			inst.Op = OpBGE
		case 6:
			inst.Op = OpBLTU
		case 7:
			inst.Op = OpBGEU
		default:
			return inst, ErrIllegalInstruction
		}
		return inst, nil

	case opcodeLoad:
		inst.Format = FormatI
		inst.Rd, inst.Rs1 = rd, rs1
		inst.Imm = signExtend(word>>20, 12)
		switch funct3 {
		case 0:
			inst.Op = OpLB
		case 1:
			inst.Op = OpLH
		case 2:
			inst.Op = OpLW
		case 4:
			inst.Op = OpLBU
		case 5:
			inst.Op = OpLHU
		default:
			return inst, ErrIllegalInstruction
		}
		return inst, nil

	case opcodeStore:
		inst.Format = FormatS
		inst.Rs1, inst.Rs2 = rs1, rs2
		imm := (funct7 << 5) | uint32(rd)
		inst.Imm = signExtend(imm, 12)
		switch funct3 {
		case 0:
			inst.Op = OpSB
		case 1:
			inst.Op = OpSH
		case 2:
			inst.Op = OpSW
		default:
			return inst, ErrIllegalInstruction
		}
		return inst, nil

	case opcodeArithI:
		inst.Format = FormatI
		inst.Rd, inst.Rs1 = rd, rs1
		switch funct3 {
		case 0:
			inst.Op = OpADDI
			inst.Imm = signExtend(word>>20, 12)
		case 2:
			inst.Op = OpSLTI
			inst.Imm = signExtend(word>>20, 12)
		case 3:
			inst.Op = OpSLTIU
			inst.Imm = signExtend(word>>20, 12)
		case 4:
			inst.Op = OpXORI
			inst.Imm = signExtend(word>>20, 12)
		case 6:
			inst.Op = OpORI
			inst.Imm = signExtend(word>>20, 12)
		case 7:
			inst.Op = OpANDI
			inst.Imm = signExtend(word>>20, 12)
		case 1:
			return decodeShiftOrCountImm(inst, word, funct7, rs2)
		case 5:
			imm12 := word >> 20
			switch {
			case funct7 == funct7Base:
				inst.Op = OpSRLI
				inst.Imm = int32(rs2)
			case funct7 == funct7Alt:
				inst.Op = OpSRAI
				inst.Imm = int32(rs2)
			case funct7 == funct7Rot:
				inst.Op = OpRORI
				inst.Imm = int32(rs2)
			case imm12 == imm12OrcB:
				inst.Op = OpORCB
			case imm12 == imm12Rev8:
				inst.Op = OpREV8
			default:
				return inst, ErrIllegalInstruction
			}
		default:
			return inst, ErrIllegalInstruction
		}
		return inst, nil

	case opcodeArithR:
		inst.Format = FormatR
		inst.Rd, inst.Rs1, inst.Rs2 = rd, rs1, rs2
		return decodeArithR(inst, funct3, funct7)

	case opcodeFence:
		inst.Format = FormatI
		inst.Op = OpFENCE
		return inst, nil

	case opcodeSystem:
		return decodeSystem(inst, word, funct3, rs1, rd)

	default:
		return inst, ErrIllegalInstruction
	}
}

func decodeShiftOrCountImm(inst Instruction, word uint32, funct7 uint32, rs2 int) (Instruction, error) {
	switch funct7 {
	case funct7Base:
		inst.Op = OpSLLI
		inst.Imm = int32(rs2)
		return inst, nil
	case funct7Count:
		switch rs2 {
		case 0x00:
			inst.Op = OpCLZ
		case 0x01:
			inst.Op = OpCTZ
		case 0x02:
			inst.Op = OpCPOP
		case 0x04:
			inst.Op = OpSEXTB
		case 0x05:
			inst.Op = OpSEXTH
		default:
			return inst, ErrIllegalInstruction
		}
		return inst, nil
	default:
		return inst, ErrIllegalInstruction
	}
}

func decodeArithR(inst Instruction, funct3, funct7 uint32) (Instruction, error) {
	switch funct7 {
	case funct7Base:
		switch funct3 {
		case 0:
			inst.Op = OpADD
		case 1:
			inst.Op = OpSLL
		case 2:
			inst.Op = OpSLT
		case 3:
			inst.Op = OpSLTU
		case 4:
			inst.Op = OpXOR
		case 5:
			inst.Op = OpSRL
		case 6:
			inst.Op = OpOR
		case 7:
			inst.Op = OpAND
		default:
			return inst, ErrIllegalInstruction
		}
		return inst, nil
	case funct7Alt:
		switch funct3 {
		case 0:
			inst.Op = OpSUB
		case 5:
			inst.Op = OpSRA
		case 4:
			inst.Op = OpXNOR
		case 6:
			inst.Op = OpORN
		case 7:
			inst.Op = OpANDN
		default:
			return inst, ErrIllegalInstruction
		}
		return inst, nil
	case funct7M:
		switch funct3 {
		case 0:
			inst.Op = OpMUL
		case 1:
			inst.Op = OpMULH
		case 2:
			inst.Op = OpMULHSU
		case 3:
			inst.Op = OpMULHU
		case 4:
			inst.Op = OpDIV
		case 5:
			inst.Op = OpDIVU
		case 6:
			inst.Op = OpREM
		case 7:
			inst.Op = OpREMU
		default:
			return inst, ErrIllegalInstruction
		}
		return inst, nil
	case funct7MinMax:
		switch funct3 {
		case 4:
			inst.Op = OpMIN
		case 5:
			inst.Op = OpMINU
		case 6:
			inst.Op = OpMAX
		case 7:
			inst.Op = OpMAXU
		default:
			return inst, ErrIllegalInstruction
		}
		return inst, nil
	case funct7ZextH:
		if funct3 == 4 && inst.Rs2 == 0 {
			inst.Op = OpZEXTH
			return inst, nil
		}
		return inst, ErrIllegalInstruction
	case funct7Rot:
		switch funct3 {
		case 1:
			inst.Op = OpROL
			return inst, nil
		case 5:
			inst.Op = OpROR
			return inst, nil
		}
		return inst, ErrIllegalInstruction
	default:
		return inst, ErrIllegalInstruction
	}
}

func decodeSystem(inst Instruction, word uint32, funct3 uint32, rs1, rd int) (Instruction, error) {
	inst.Format = FormatSystem
	imm12 := word >> 20
	switch funct3 {
	case 0:
		if rs1 != 0 || rd != 0 {
			return inst, ErrIllegalInstruction
		}
		switch imm12 {
		case 0x000:
			inst.Op = OpECALL
		case 0x001:
			inst.Op = OpEBREAK
		case 0x302:
			inst.Op = OpMRET
		default:
			return inst, ErrIllegalInstruction
		}
		return inst, nil
	case 1:
		inst.Op = OpCSRRW
	case 2:
		inst.Op = OpCSRRS
	case 3:
		inst.Op = OpCSRRC
	case 5:
		inst.Op = OpCSRRWI
	case 6:
		inst.Op = OpCSRRSI
	case 7:
		inst.Op = OpCSRRCI
	default:
		return inst, ErrIllegalInstruction
	}
	inst.Rd = rd
	inst.Rs1 = rs1
	inst.Uimm = uint32(rs1)
	inst.CSR = CSRAddr(imm12)
	return inst, nil
}
