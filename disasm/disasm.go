// Package disasm renders operand-formatted RISC-V assembly text for a
// decoded core.Instruction: ABI register names, resolved PC-relative branch
// and jump targets, and symbol annotations. No other package in this
// repository imports it.
package disasm

import (
	"fmt"

	"github.com/lookbusy1344/riscv-sim/core"
)

// abiNames are the calling-convention names for x0-x31 (§ ABI, RISC-V
// calling convention), preferred over raw x-numbers the way objdump and
// the teacher's own disassembly output do.
var abiNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegName returns the ABI name for register idx (0-31).
func RegName(idx int) string {
	if idx < 0 || idx > 31 {
		return fmt.Sprintf("x%d", idx)
	}
	return abiNames[idx]
}

// Decode fetches and decodes the instruction at addr, transparently
// handling the compressed encoding exactly as the debugger's
// instructionAtPC does: read 2 bytes, check bit pattern, read 2 more if
// it's a full-width instruction.
func Decode(read func(addr uint32, n int) ([]byte, error), addr uint32) (core.Instruction, error) {
	b, err := read(addr, 2)
	if err != nil {
		return core.Instruction{}, err
	}
	half := uint16(b[0]) | uint16(b[1])<<8
	if half&0x3 != 0x3 {
		return core.DecodeCompressed(half, addr)
	}
	full, err := read(addr, 4)
	if err != nil {
		return core.Instruction{}, err
	}
	word := uint32(full[0]) | uint32(full[1])<<8 | uint32(full[2])<<16 | uint32(full[3])<<24
	return core.Decode(word, addr)
}

// Format renders inst as assembly text, resolving PC-relative targets to
// absolute addresses and, where symbols is non-nil, annotating a resolved
// target with its symbol name.
func Format(inst core.Instruction, symbols map[uint32]string) string {
	name := opName(inst.Op)

	switch inst.Format {
	case core.FormatR:
		return fmt.Sprintf("%s %s,%s,%s", name, RegName(inst.Rd), RegName(inst.Rs1), RegName(inst.Rs2))

	case core.FormatI:
		if inst.Op == core.OpJALR {
			return fmt.Sprintf("%s %s,%d(%s)", name, RegName(inst.Rd), inst.Imm, RegName(inst.Rs1))
		}
		return fmt.Sprintf("%s %s,%s,%d", name, RegName(inst.Rd), RegName(inst.Rs1), inst.Imm)

	case core.FormatS:
		return fmt.Sprintf("%s %s,%d(%s)", name, RegName(inst.Rs2), inst.Imm, RegName(inst.Rs1))

	case core.FormatB:
		target := inst.Address + uint32(inst.Imm)
		return fmt.Sprintf("%s %s,%s,%s", name, RegName(inst.Rs1), RegName(inst.Rs2), targetText(target, symbols))

	case core.FormatU:
		return fmt.Sprintf("%s %s,0x%x", name, RegName(inst.Rd), uint32(inst.Imm)>>12)

	case core.FormatJ:
		target := inst.Address + uint32(inst.Imm)
		return fmt.Sprintf("%s %s,%s", name, RegName(inst.Rd), targetText(target, symbols))

	case core.FormatSystem:
		if inst.Op == core.OpECALL || inst.Op == core.OpEBREAK || inst.Op == core.OpMRET {
			return name
		}
		return fmt.Sprintf("%s %s,0x%x,%s", name, RegName(inst.Rd), inst.CSR, RegName(inst.Rs1))

	default:
		return name
	}
}

func targetText(addr uint32, symbols map[uint32]string) string {
	if sym, ok := symbols[addr]; ok {
		return fmt.Sprintf("0x%x <%s>", addr, sym)
	}
	return fmt.Sprintf("0x%x", addr)
}

func opName(op core.Op) string {
	switch op {
	case core.OpLUI:
		return "lui"
	case core.OpAUIPC:
		return "auipc"
	case core.OpJAL:
		return "jal"
	case core.OpJALR:
		return "jalr"
	case core.OpBEQ:
		return "beq"
	case core.OpBNE:
		return "bne"
	case core.OpBLT:
		return "blt"
	case core.OpBGE:
		return "bge"
	case core.OpBLTU:
		return "bltu"
	case core.OpBGEU:
		return "bgeu"
	case core.OpLB:
		return "lb"
	case core.OpLH:
		return "lh"
	case core.OpLW:
		return "lw"
	case core.OpLBU:
		return "lbu"
	case core.OpLHU:
		return "lhu"
	case core.OpSB:
		return "sb"
	case core.OpSH:
		return "sh"
	case core.OpSW:
		return "sw"
	case core.OpADDI:
		return "addi"
	case core.OpSLTI:
		return "slti"
	case core.OpSLTIU:
		return "sltiu"
	case core.OpXORI:
		return "xori"
	case core.OpORI:
		return "ori"
	case core.OpANDI:
		return "andi"
	case core.OpSLLI:
		return "slli"
	case core.OpSRLI:
		return "srli"
	case core.OpSRAI:
		return "srai"
	case core.OpADD:
		return "add"
	case core.OpSUB:
		return "sub"
	case core.OpSLL:
		return "sll"
	case core.OpSLT:
		return "slt"
	case core.OpSLTU:
		return "sltu"
	case core.OpXOR:
		return "xor"
	case core.OpSRL:
		return "srl"
	case core.OpSRA:
		return "sra"
	case core.OpOR:
		return "or"
	case core.OpAND:
		return "and"
	case core.OpMUL:
		return "mul"
	case core.OpMULH:
		return "mulh"
	case core.OpMULHSU:
		return "mulhsu"
	case core.OpMULHU:
		return "mulhu"
	case core.OpDIV:
		return "div"
	case core.OpDIVU:
		return "divu"
	case core.OpREM:
		return "rem"
	case core.OpREMU:
		return "remu"
	case core.OpFENCE:
		return "fence"
	case core.OpECALL:
		return "ecall"
	case core.OpEBREAK:
		return "ebreak"
	case core.OpMRET:
		return "mret"
	case core.OpCSRRW:
		return "csrrw"
	case core.OpCSRRS:
		return "csrrs"
	case core.OpCSRRC:
		return "csrrc"
	case core.OpCSRRWI:
		return "csrrwi"
	case core.OpCSRRSI:
		return "csrrsi"
	case core.OpCSRRCI:
		return "csrrci"
	case core.OpANDN:
		return "andn"
	case core.OpORN:
		return "orn"
	case core.OpXNOR:
		return "xnor"
	case core.OpMIN:
		return "min"
	case core.OpMINU:
		return "minu"
	case core.OpMAX:
		return "max"
	case core.OpMAXU:
		return "maxu"
	case core.OpCLZ:
		return "clz"
	case core.OpCTZ:
		return "ctz"
	case core.OpCPOP:
		return "cpop"
	case core.OpSEXTB:
		return "sext.b"
	case core.OpSEXTH:
		return "sext.h"
	case core.OpZEXTH:
		return "zext.h"
	case core.OpROL:
		return "rol"
	case core.OpROR:
		return "ror"
	case core.OpRORI:
		return "rori"
	case core.OpORCB:
		return "orc.b"
	case core.OpREV8:
		return "rev8"
	default:
		return "unknown"
	}
}
