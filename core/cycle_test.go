package core_test

import (
	"testing"

	"github.com/lookbusy1344/riscv-sim/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulator_BranchPenaltyOnMisprediction(t *testing.T) {
	sim := newTestSim(t)
	sim.PredictTaken = false // predict not-taken by default
	sim.Regs.Write(1, 1)
	sim.Regs.Write(2, 1)
	// beq x1, x2, 8 (always taken: a == b)
	writeWord(t, sim, 0, encodeR(0, 2, 1, 0, 8, 0x63))
	require.NoError(t, sim.Step())

	assert.Equal(t, uint64(1+sim.BranchPenalty), sim.CSR.Cycle(), "mispredicted taken branch costs base + penalty")
}

func TestSimulator_NoBranchPenaltyOnCorrectPrediction(t *testing.T) {
	sim := newTestSim(t)
	sim.PredictTaken = false
	sim.Regs.Write(1, 1)
	sim.Regs.Write(2, 2)
	// beq x1, x2, 8 (not taken: a != b, matches the not-taken prediction)
	writeWord(t, sim, 0, encodeR(0, 2, 1, 0, 8, 0x63))
	require.NoError(t, sim.Step())

	assert.Equal(t, uint64(1), sim.CSR.Cycle(), "correctly predicted branch costs only the base cycle")
}

func TestSimulator_PredictTakenBackwardBranchNoPenaltyWhenTaken(t *testing.T) {
	sim := newTestSim(t)
	sim.PredictTaken = true
	sim.PC = 8
	sim.Regs.Write(1, 1)
	sim.Regs.Write(2, 1)
	// beq x1, x2, -8 (backward, taken: a == b): predicted taken, correct.
	writeWord(t, sim, 8, encodeR(0x7f, 2, 1, 0, 25, 0x63))
	require.NoError(t, sim.Step())

	assert.Equal(t, uint64(1), sim.CSR.Cycle(), "backward branch predicted taken and taken costs only the base cycle")
	assert.Equal(t, uint32(0), sim.PC)
}

func TestSimulator_PredictTakenForwardBranchPenaltyWhenTaken(t *testing.T) {
	sim := newTestSim(t)
	sim.PredictTaken = true
	sim.Regs.Write(1, 1)
	sim.Regs.Write(2, 1)
	// beq x1, x2, 8 (forward, taken): predicted not-taken, mispredicted.
	writeWord(t, sim, 0, encodeR(0, 2, 1, 0, 8, 0x63))
	require.NoError(t, sim.Step())

	assert.Equal(t, uint64(1+sim.BranchPenalty), sim.CSR.Cycle(), "forward branch predicted not-taken but taken costs base + penalty")
}

func TestSimulator_SingleRAMStall(t *testing.T) {
	sim := newTestSim(t)
	sim.SingleRAM = true
	sim.Regs.Write(1, 0)
	// lw x2, 0(x1)
	writeWord(t, sim, 0, encodeI(0, 1, 2, 2, 0x03))
	require.NoError(t, sim.Step())

	assert.Equal(t, uint64(2), sim.CSR.Cycle(), "single-RAM stall adds one extra cycle to a load")
}

func TestSimulator_CompressedTransitionPenalty(t *testing.T) {
	sim := newTestSim(t)
	// first instruction: ordinary 32-bit nop (addi x0,x0,0)
	writeWord(t, sim, 0, encodeI(0, 0, 0, 0, 0x13))
	require.NoError(t, sim.Step())
	assert.Equal(t, uint64(1), sim.CSR.Cycle(), "first instruction: no transition yet")

	// second instruction: a compressed c.nop immediately after
	half := uint16(0)<<13 | uint16(0x1) // quadrant 1, funct3 0, rd=0, imm=0
	require.NoError(t, sim.Mem.WriteHalf(4, half))
	require.NoError(t, sim.Step())
	assert.Equal(t, uint64(3), sim.CSR.Cycle(), "switching from 32-bit to compressed fetch costs one extra cycle")
}
