package core_test

import (
	"testing"

	"github.com/lookbusy1344/riscv-sim/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCompressed_ADDI4SPN(t *testing.T) {
	// c.addi4spn x8, x2, 4 (quadrant 0, funct3 0, nzuimm=4 -> bit6=1)
	half := uint16(0)<<13 | uint16(1)<<6 | uint16(0) // quadrant bits are 0b00
	inst, err := core.DecodeCompressed(half, 0)
	require.NoError(t, err)
	assert.Equal(t, core.OpADDI, inst.Op)
	assert.Equal(t, 8, inst.Rd)
	assert.Equal(t, 2, inst.Rs1)
	assert.Equal(t, int32(4), inst.Imm)
	assert.True(t, inst.Compressed)
}

func TestDecodeCompressed_ADDI4SPN_ZeroIsIllegal(t *testing.T) {
	half := uint16(0) // quadrant 0, funct3 0, nzuimm all zero
	_, err := core.DecodeCompressed(half, 0)
	assert.ErrorIs(t, err, core.ErrIllegalInstruction)
}

func TestDecodeCompressed_NOP(t *testing.T) {
	// c.addi x0, x0, 0 == c.nop: quadrant 1, funct3 0, rd=0, imm=0
	half := uint16(0x0)<<13 | uint16(0x1) // quadrant bits 0b01
	inst, err := core.DecodeCompressed(half, 0)
	require.NoError(t, err)
	assert.Equal(t, core.OpADDI, inst.Op)
	assert.Equal(t, 0, inst.Rd)
	assert.Equal(t, int32(0), inst.Imm)
}

func TestDecodeCompressed_LI(t *testing.T) {
	// c.li x5, 3: quadrant 1, funct3=2, rd=5 (bits 11:7), imm lo bits 6:2=3
	half := uint16(0x2)<<13 | uint16(5)<<7 | uint16(3)<<2 | uint16(0x1)
	inst, err := core.DecodeCompressed(half, 0)
	require.NoError(t, err)
	assert.Equal(t, core.OpADDI, inst.Op)
	assert.Equal(t, 5, inst.Rd)
	assert.Equal(t, 0, inst.Rs1)
	assert.Equal(t, int32(3), inst.Imm)
}

func TestDecodeCompressed_MV(t *testing.T) {
	// c.mv x5, x6: quadrant 2, funct3=4, bit12=0, rd=5, rs2=6
	half := uint16(0x4)<<13 | uint16(0)<<12 | uint16(5)<<7 | uint16(6)<<2 | uint16(0x2)
	inst, err := core.DecodeCompressed(half, 0)
	require.NoError(t, err)
	assert.Equal(t, core.OpADD, inst.Op)
	assert.Equal(t, 5, inst.Rd)
	assert.Equal(t, 0, inst.Rs1)
	assert.Equal(t, 6, inst.Rs2)
}

func TestDecodeCompressed_JR(t *testing.T) {
	// c.jr x1: quadrant 2, funct3=4, bit12=0, rd=1, rs2=0
	half := uint16(0x4)<<13 | uint16(0)<<12 | uint16(1)<<7 | uint16(0x2)
	inst, err := core.DecodeCompressed(half, 0)
	require.NoError(t, err)
	assert.Equal(t, core.OpJALR, inst.Op)
	assert.Equal(t, 0, inst.Rd)
	assert.Equal(t, 1, inst.Rs1)
}

func TestDecodeCompressed_EBREAK(t *testing.T) {
	half := uint16(0x4)<<13 | uint16(1)<<12 | uint16(0x2)
	inst, err := core.DecodeCompressed(half, 0)
	require.NoError(t, err)
	assert.Equal(t, core.OpEBREAK, inst.Op)
}
