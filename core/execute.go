package core

import "fmt"

// execute dispatches a decoded instruction to its semantic handler and
// advances s.PC. It returns the branch-penalty cycles incurred by this
// instruction (0 for anything that does not redirect control flow); the
// caller (Step) adds the base per-instruction cost separately via cycleCost.
func (s *Simulator) execute(inst Instruction) (uint64, error) {
	next := s.PC + inst.Len()

	switch inst.Format {
	case FormatR:
		return s.executeR(inst, next)
	case FormatI:
		return s.executeI(inst, next)
	case FormatS:
		return s.executeStore(inst, next)
	case FormatB:
		return s.executeBranch(inst, next)
	case FormatU:
		return s.executeU(inst, next)
	case FormatJ:
		return s.executeJump(inst, next)
	case FormatSystem:
		return s.executeSystem(inst, next)
	default:
		s.trap(CauseIllegalInstruction, s.PC)
		return 0, nil
	}
}

func (s *Simulator) executeU(inst Instruction, next uint32) (uint64, error) {
	switch inst.Op {
	case OpLUI:
		s.writeReg(inst.Rd, uint32(inst.Imm))
	case OpAUIPC:
		s.writeReg(inst.Rd, s.PC+uint32(inst.Imm))
	default:
		return 0, fmt.Errorf("core: unreachable U-format op %v", inst.Op)
	}
	s.PC = next
	return 0, nil
}

func (s *Simulator) executeJump(inst Instruction, next uint32) (uint64, error) {
	switch inst.Op {
	case OpJAL:
		// The J-type immediate is decoded with bit 0 always zero, so a
		// misaligned target here is architecturally impossible; any fetch
		// misalignment (bit 1 set with C disabled) is instead caught at
		// fetch time in Step (§3).
		target := s.PC + uint32(inst.Imm)
		s.checkSelfLoop(s.PC, target)
		s.writeReg(inst.Rd, next)
		s.PC = target
		return s.BranchPenalty, nil
	default:
		return 0, fmt.Errorf("core: unreachable J-format op %v", inst.Op)
	}
}

func (s *Simulator) executeBranch(inst Instruction, next uint32) (uint64, error) {
	a, b := s.Regs.Read(inst.Rs1), s.Regs.Read(inst.Rs2)
	var taken bool
	switch inst.Op {
	case OpBEQ:
		taken = a == b
	case OpBNE:
		taken = a != b
	case OpBLT:
		taken = int32(a) < int32(b)
	case OpBGE:
		taken = int32(a) >= int32(b)
	case OpBLTU:
		taken = a < b
	case OpBGEU:
		taken = a >= b
	default:
		return 0, fmt.Errorf("core: unreachable branch op %v", inst.Op)
	}

	// Static prediction (§4.G) is direction-based, not a single flag applied
	// to every branch: a backward branch (negative displacement) predicts
	// taken, a forward branch predicts not-taken. With prediction disabled,
	// every branch is assumed not-taken, so the penalty is charged whenever
	// the branch is actually taken.
	backward := int32(inst.Imm) < 0
	predictedTaken := s.PredictTaken && backward

	if !taken {
		s.PC = next
		if predictedTaken {
			return s.BranchPenalty, nil // mispredicted: predicted taken, went not-taken
		}
		return 0, nil
	}

	// The B-type immediate is decoded with bit 0 always zero, so a
	// misaligned target here is architecturally impossible (§3); see the
	// comment in executeJump.
	target := s.PC + uint32(inst.Imm)
	s.checkSelfLoop(s.PC, target)
	s.PC = target
	if predictedTaken {
		return 0, nil // correctly predicted taken
	}
	return s.BranchPenalty, nil // not predicted taken (no prediction, or forward+predicted not-taken)
}

func (s *Simulator) executeI(inst Instruction, next uint32) (uint64, error) {
	switch inst.Op {
	case OpJALR:
		// The low bit of the target is masked off by definition (§4.B), so
		// it can never be misaligned here; see the comment in executeJump.
		base := s.Regs.Read(inst.Rs1)
		target := (base + uint32(inst.Imm)) &^ 1
		s.checkSelfLoop(s.PC, target)
		s.writeReg(inst.Rd, next)
		s.PC = target
		return s.BranchPenalty, nil

	case OpLB, OpLH, OpLW, OpLBU, OpLHU:
		return s.executeLoad(inst, next)

	case OpFENCE:
		s.PC = next
		return 0, nil

	default:
		s.executeArithImmediate(inst)
		s.PC = next
		return 0, nil
	}
}

func (s *Simulator) executeArithImmediate(inst Instruction) {
	a := s.Regs.Read(inst.Rs1)
	var r uint32
	switch inst.Op {
	case OpADDI:
		r = a + uint32(inst.Imm)
	case OpSLTI:
		r = boolToWord(int32(a) < inst.Imm)
	case OpSLTIU:
		r = boolToWord(a < uint32(inst.Imm))
	case OpXORI:
		r = a ^ uint32(inst.Imm)
	case OpORI:
		r = a | uint32(inst.Imm)
	case OpANDI:
		r = a & uint32(inst.Imm)
	case OpSLLI:
		r = a << (uint32(inst.Imm) & 0x1f)
	case OpSRLI:
		r = a >> (uint32(inst.Imm) & 0x1f)
	case OpSRAI:
		r = uint32(int32(a) >> (uint32(inst.Imm) & 0x1f))
	case OpRORI:
		r = rotr32(a, uint32(inst.Imm)&0x1f)
	case OpORCB:
		r = orcB(a)
	case OpREV8:
		r = rev8(a)
	}
	s.writeReg(inst.Rd, r)
}

func (s *Simulator) executeLoad(inst Instruction, next uint32) (uint64, error) {
	addr := s.Regs.Read(inst.Rs1) + uint32(inst.Imm)
	var v uint32
	var err error
	switch inst.Op {
	case OpLB:
		v, err = s.readByte(addr)
		v = uint32(int32(int8(v)))
	case OpLBU:
		v, err = s.readByte(addr)
	case OpLH:
		v, err = s.readHalf(addr)
		v = uint32(int32(int16(v)))
	case OpLHU:
		v, err = s.readHalf(addr)
	case OpLW:
		v, err = s.readWord(addr)
	}
	if err == ErrMisaligned {
		s.trap(CauseLoadAddressMisaligned, addr)
		return 0, nil
	}
	if err != nil {
		if exit, ok := err.(*ExitRequest); ok {
			return 0, exit
		}
		s.trap(CauseLoadAccessFault, addr)
		return 0, nil
	}
	s.Regs.Write(inst.Rd, v)
	s.recordLoad(addr, inst.Rd, v)
	s.PC = next
	return 0, nil
}

func (s *Simulator) executeStore(inst Instruction, next uint32) (uint64, error) {
	addr := s.Regs.Read(inst.Rs1) + uint32(inst.Imm)
	v := s.Regs.Read(inst.Rs2)
	var err error
	switch inst.Op {
	case OpSB:
		err = s.writeByte(addr, byte(v))
	case OpSH:
		err = s.writeHalf(addr, uint16(v))
	case OpSW:
		err = s.writeWord(addr, v)
	}
	if err == ErrMisaligned {
		s.trap(CauseStoreAddressMisaligned, addr)
		return 0, nil
	}
	if err != nil {
		if exit, ok := err.(*ExitRequest); ok {
			return 0, exit
		}
		s.trap(CauseStoreAccessFault, addr)
		return 0, nil
	}
	s.recordStore(addr, v)
	s.PC = next
	return 0, nil
}

func (s *Simulator) executeR(inst Instruction, next uint32) (uint64, error) {
	a, b := s.Regs.Read(inst.Rs1), s.Regs.Read(inst.Rs2)
	var r uint32
	switch inst.Op {
	case OpADD:
		r = a + b
	case OpSUB:
		r = a - b
	case OpSLL:
		r = a << (b & 0x1f)
	case OpSLT:
		r = boolToWord(int32(a) < int32(b))
	case OpSLTU:
		r = boolToWord(a < b)
	case OpXOR:
		r = a ^ b
	case OpSRL:
		r = a >> (b & 0x1f)
	case OpSRA:
		r = uint32(int32(a) >> (b & 0x1f))
	case OpOR:
		r = a | b
	case OpAND:
		r = a & b
	case OpMUL:
		r = a * b
	case OpMULH:
		r = uint32(int64(int32(a)) * int64(int32(b)) >> 32)
	case OpMULHSU:
		r = uint32((int64(int32(a)) * int64(uint64(b))) >> 32)
	case OpMULHU:
		r = uint32((uint64(a) * uint64(b)) >> 32)
	case OpDIV:
		r = divSigned(a, b)
	case OpDIVU:
		r = divUnsigned(a, b)
	case OpREM:
		r = remSigned(a, b)
	case OpREMU:
		r = remUnsigned(a, b)
	case OpANDN:
		r = a &^ b
	case OpORN:
		r = a | ^b
	case OpXNOR:
		r = ^(a ^ b)
	case OpMIN:
		r = uint32(minI32(int32(a), int32(b)))
	case OpMINU:
		r = minU32(a, b)
	case OpMAX:
		r = uint32(maxI32(int32(a), int32(b)))
	case OpMAXU:
		r = maxU32(a, b)
	case OpCLZ:
		r = clz32(a)
	case OpCTZ:
		r = ctz32(a)
	case OpCPOP:
		r = popcount32(a)
	case OpSEXTB:
		r = uint32(int32(int8(a)))
	case OpSEXTH:
		r = uint32(int32(int16(a)))
	case OpZEXTH:
		r = a & 0xffff
	case OpROL:
		r = rotl32(a, b&0x1f)
	case OpROR:
		r = rotr32(a, b&0x1f)
	default:
		return 0, fmt.Errorf("core: unreachable R-format op %v", inst.Op)
	}
	s.writeReg(inst.Rd, r)
	s.PC = next
	return 0, nil
}

// divSigned implements DIV per §4.B: division by zero yields -1, and the
// INT_MIN/-1 overflow case yields INT_MIN rather than trapping.
func divSigned(a, b uint32) uint32 {
	if b == 0 {
		return 0xffffffff
	}
	sa, sb := int32(a), int32(b)
	if sa == -(1<<31) && sb == -1 {
		return a
	}
	return uint32(sa / sb)
}

func divUnsigned(a, b uint32) uint32 {
	if b == 0 {
		return 0xffffffff
	}
	return a / b
}

func remSigned(a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	sa, sb := int32(a), int32(b)
	if sa == -(1<<31) && sb == -1 {
		return 0
	}
	return uint32(sa % sb)
}

func remUnsigned(a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	return a % b
}

func boolToWord(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

func minI32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func maxI32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

func clz32(v uint32) uint32 {
	if v == 0 {
		return 32
	}
	var n uint32
	for v&0x80000000 == 0 {
		v <<= 1
		n++
	}
	return n
}

func ctz32(v uint32) uint32 {
	if v == 0 {
		return 32
	}
	var n uint32
	for v&1 == 0 {
		v >>= 1
		n++
	}
	return n
}

func popcount32(v uint32) uint32 {
	var n uint32
	for v != 0 {
		n += v & 1
		v >>= 1
	}
	return n
}

func rotl32(v, n uint32) uint32 {
	n &= 0x1f
	if n == 0 {
		return v
	}
	return v<<n | v>>(32-n)
}

func rotr32(v, n uint32) uint32 {
	n &= 0x1f
	if n == 0 {
		return v
	}
	return v>>n | v<<(32-n)
}

func orcB(v uint32) uint32 {
	var r uint32
	for i := 0; i < 4; i++ {
		shift := uint(i * 8)
		b := byte(v >> shift)
		if b != 0 {
			r |= 0xff << shift
		}
	}
	return r
}

func rev8(v uint32) uint32 {
	return v>>24 | (v>>8)&0xff00 | (v<<8)&0xff0000 | v<<24
}
