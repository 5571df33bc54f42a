package core_test

import (
	"testing"

	"github.com/lookbusy1344/riscv-sim/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeR builds an R-type word: funct7 rs2 rs1 funct3 rd opcode.
func encodeR(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

// encodeI builds an I-type word.
func encodeI(imm12 uint32, rs1, funct3, rd, opcode uint32) uint32 {
	return (imm12&0xfff)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func TestDecode_ADDI(t *testing.T) {
	// addi x5, x6, -1
	word := encodeI(0xfff, 6, 0, 5, 0x13)
	inst, err := core.Decode(word, 0x1000)
	require.NoError(t, err)
	assert.Equal(t, core.OpADDI, inst.Op)
	assert.Equal(t, 5, inst.Rd)
	assert.Equal(t, 6, inst.Rs1)
	assert.Equal(t, int32(-1), inst.Imm)
}

func TestDecode_ADD(t *testing.T) {
	word := encodeR(0x00, 2, 1, 0, 3, 0x33)
	inst, err := core.Decode(word, 0)
	require.NoError(t, err)
	assert.Equal(t, core.OpADD, inst.Op)
	assert.Equal(t, core.FormatR, inst.Format)
}

func TestDecode_SUB(t *testing.T) {
	word := encodeR(0x20, 2, 1, 0, 3, 0x33)
	inst, err := core.Decode(word, 0)
	require.NoError(t, err)
	assert.Equal(t, core.OpSUB, inst.Op)
}

func TestDecode_MUL(t *testing.T) {
	word := encodeR(0x01, 2, 1, 0, 3, 0x33)
	inst, err := core.Decode(word, 0)
	require.NoError(t, err)
	assert.Equal(t, core.OpMUL, inst.Op)
}

func TestDecode_DIVU(t *testing.T) {
	word := encodeR(0x01, 2, 1, 5, 3, 0x33)
	inst, err := core.Decode(word, 0)
	require.NoError(t, err)
	assert.Equal(t, core.OpDIVU, inst.Op)
}

func TestDecode_LUI(t *testing.T) {
	// lui x1, 0x12345
	word := uint32(0x12345000) | 1<<7 | 0x37
	inst, err := core.Decode(word, 0)
	require.NoError(t, err)
	assert.Equal(t, core.OpLUI, inst.Op)
	assert.Equal(t, int32(0x12345000), inst.Imm)
}

func TestDecode_JAL(t *testing.T) {
	// jal x1, 0x4 (forward, byte offset 4)
	word := uint32(2<<21) | 1<<7 | 0x6f // imm[10:1] = 2
	inst, err := core.Decode(word, 0x1000)
	require.NoError(t, err)
	assert.Equal(t, core.OpJAL, inst.Op)
	assert.Equal(t, int32(4), inst.Imm)
}

func TestDecode_Branch(t *testing.T) {
	// beq x1, x2, 0 (imm=0)
	word := encodeR(0, 2, 1, 0, 0, 0x63)
	inst, err := core.Decode(word, 0)
	require.NoError(t, err)
	assert.Equal(t, core.OpBEQ, inst.Op)
	assert.Equal(t, core.FormatB, inst.Format)
}

func TestDecode_Store(t *testing.T) {
	// sw x2, 0(x1)
	word := encodeR(0, 2, 1, 2, 0, 0x23)
	inst, err := core.Decode(word, 0)
	require.NoError(t, err)
	assert.Equal(t, core.OpSW, inst.Op)
	assert.Equal(t, 1, inst.Rs1)
	assert.Equal(t, 2, inst.Rs2)
}

func TestDecode_CSRRW(t *testing.T) {
	// csrrw x1, mscratch(0x340), x2
	word := encodeI(0x340, 2, 1, 1, 0x73)
	inst, err := core.Decode(word, 0)
	require.NoError(t, err)
	assert.Equal(t, core.OpCSRRW, inst.Op)
	assert.Equal(t, core.CSRAddr(0x340), inst.CSR)
	assert.True(t, inst.IsSystem())
}

func TestDecode_ECALL(t *testing.T) {
	word := uint32(0x73)
	inst, err := core.Decode(word, 0)
	require.NoError(t, err)
	assert.Equal(t, core.OpECALL, inst.Op)
}

func TestDecode_MRET(t *testing.T) {
	word := encodeI(0x302, 0, 0, 0, 0x73)
	inst, err := core.Decode(word, 0)
	require.NoError(t, err)
	assert.Equal(t, core.OpMRET, inst.Op)
}

func TestDecode_IllegalOpcode(t *testing.T) {
	_, err := core.Decode(0x7b, 0) // reserved custom-3 opcode, not implemented
	assert.ErrorIs(t, err, core.ErrIllegalInstruction)
}

func TestDecode_BitmanipOps(t *testing.T) {
	// andn x3, x1, x2
	word := encodeR(0x20, 2, 1, 7, 3, 0x33)
	inst, err := core.Decode(word, 0)
	require.NoError(t, err)
	assert.Equal(t, core.OpANDN, inst.Op)

	// min x3, x1, x2
	word = encodeR(0x05, 2, 1, 4, 3, 0x33)
	inst, err = core.Decode(word, 0)
	require.NoError(t, err)
	assert.Equal(t, core.OpMIN, inst.Op)
}
