package disasm_test

import (
	"encoding/binary"
	"testing"

	"github.com/lookbusy1344/riscv-sim/core"
	"github.com/lookbusy1344/riscv-sim/disasm"
	"github.com/stretchr/testify/require"
)

func addi(rd, rs1 int, imm uint32) uint32 {
	return (imm&0xfff)<<20 | uint32(rs1)<<15 | uint32(rd)<<7 | 0x13
}

func beq(rs1, rs2 int, imm uint32) uint32 {
	b := imm
	imm12 := (b >> 12) & 1
	imm11 := (b >> 11) & 1
	imm10_5 := (b >> 5) & 0x3f
	imm4_1 := (b >> 1) & 0xf
	return imm12<<31 | imm10_5<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | 0<<12 | imm4_1<<8 | imm11<<7 | 0x63
}

func memReader(words map[uint32]uint32) func(uint32, int) ([]byte, error) {
	return func(addr uint32, n int) ([]byte, error) {
		out := make([]byte, n)
		for i := 0; i < n; i++ {
			a := addr + uint32(i)
			word := words[a-a%4]
			b := make([]byte, 4)
			binary.LittleEndian.PutUint32(b, word)
			out[i] = b[a%4]
		}
		return out, nil
	}
}

func TestDecode_ADDI(t *testing.T) {
	read := memReader(map[uint32]uint32{0: addi(5, 0, 42)})

	inst, err := disasm.Decode(read, 0)
	require.NoError(t, err)
	require.Equal(t, core.OpADDI, inst.Op)
	require.Equal(t, 5, inst.Rd)
	require.Equal(t, int32(42), inst.Imm)
}

func TestFormat_ADDI_UsesABINames(t *testing.T) {
	read := memReader(map[uint32]uint32{0: addi(10, 0, 7)})
	inst, err := disasm.Decode(read, 0)
	require.NoError(t, err)

	text := disasm.Format(inst, nil)
	require.Equal(t, "addi a0,zero,7", text)
}

func TestFormat_Branch_ResolvesSymbol(t *testing.T) {
	read := memReader(map[uint32]uint32{0x100: beq(1, 2, 8)})
	inst, err := disasm.Decode(read, 0x100)
	require.NoError(t, err)

	symbols := map[uint32]string{0x108: "loop"}
	text := disasm.Format(inst, symbols)
	require.Equal(t, "beq ra,sp,0x108 <loop>", text)
}

func TestRegName_OutOfRangeFallsBackToXForm(t *testing.T) {
	require.Equal(t, "x40", disasm.RegName(40))
}
