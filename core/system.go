package core

// executeSystem handles ECALL/EBREAK/MRET and the six CSR instruction forms
// (§4.C, §4.F). SYSTEM instructions are never interrupted mid-execution
// (checked by the caller in Step before dispatch ever reaches here).
func (s *Simulator) executeSystem(inst Instruction, next uint32) (uint64, error) {
	switch inst.Op {
	case OpECALL:
		newPC, penalty := s.Trap.Raise(CauseEnvironmentCallFromMMode, s.PC, 0)
		s.PC = newPC
		return penalty, nil

	case OpEBREAK:
		newPC, penalty := s.Trap.Raise(CauseBreakpoint, s.PC, 0)
		s.PC = newPC
		return penalty, nil

	case OpMRET:
		resumePC, penalty := s.Trap.Return()
		s.PC = resumePC
		return penalty, nil

	default:
		return s.executeCSR(inst, next)
	}
}

func (s *Simulator) executeCSR(inst Instruction, next uint32) (uint64, error) {
	var op CSROp
	var operand uint32
	var immForm bool

	switch inst.Op {
	case OpCSRRW:
		op, operand = CSROpWrite, s.Regs.Read(inst.Rs1)
	case OpCSRRS:
		op, operand = CSROpSet, s.Regs.Read(inst.Rs1)
	case OpCSRRC:
		op, operand = CSROpClear, s.Regs.Read(inst.Rs1)
	case OpCSRRWI:
		op, operand, immForm = CSROpWrite, inst.Uimm, true
	case OpCSRRSI:
		op, operand, immForm = CSROpSet, inst.Uimm, true
	case OpCSRRCI:
		op, operand, immForm = CSROpClear, inst.Uimm, true
	}

	// Set/Clear forms skip the write entirely when the operand source is
	// architecturally zero: rs1==x0 for the register forms, or the 5-bit
	// immediate field itself is zero for the *I forms (§4.C) — not merely
	// when the resulting value happens to be zero.
	skipWrite := false
	if op != CSROpWrite {
		if immForm {
			skipWrite = inst.Uimm == 0
		} else {
			skipWrite = inst.Rs1 == 0
		}
	}

	old, ok := s.CSR.Access(inst.CSR, op, operand, skipWrite)
	if !ok {
		s.trap(CauseIllegalInstruction, s.PC)
		return 0, nil
	}
	s.writeReg(inst.Rd, old)
	s.PC = next
	return 0, nil
}
