package core

// cycleCost returns the base per-instruction cycle cost (§4.H), excluding
// the branch/trap redirect penalty already returned by execute. Every
// instruction costs at least one cycle; two additional components can add
// to that:
//
//   - single-RAM stall: when SingleRAM is set, a load or store competes
//     with instruction fetch for the one memory port and costs one extra
//     cycle.
//   - compressed transition: switching between compressed and
//     non-compressed instruction fetch costs one extra cycle on the first
//     instruction after each switch, modeling the wider-fetch realignment.
func (s *Simulator) cycleCost(inst Instruction) uint64 {
	cost := uint64(1)

	if s.SingleRAM && isMemoryOp(inst.Op) {
		cost++
	}

	if inst.Compressed != s.lastWasCompressed {
		cost++
	}

	return cost
}

func isMemoryOp(op Op) bool {
	switch op {
	case OpLB, OpLH, OpLW, OpLBU, OpLHU, OpSB, OpSH, OpSW:
		return true
	default:
		return false
	}
}
