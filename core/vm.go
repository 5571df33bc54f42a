package core

import (
	"fmt"
	"os"
)

// Simulator is the top-level instance wiring components A-I together
// (§3, §4.G). It owns no goroutines itself; Step is called by either the
// CLI's run loop or the debugger (§5).
type Simulator struct {
	Regs *RegisterFile
	Mem  *Memory
	MMIO *MMIO
	CSR  *CSRFile
	Trap *TrapUnit

	PC uint32

	Ext     Extension
	Variant Variant

	MaxCycles     uint64
	BranchPenalty uint64
	PredictTaken  bool // static branch-prediction direction (§4.H)
	SingleRAM     bool // charge an extra stall cycle for load/store (§4.H)

	Trace *Trace

	Halted   bool
	ExitCode int

	lastWasCompressed bool

	// effect* fields accumulate the architectural effect of the instruction
	// currently being executed, reset to EffectNone before every execute
	// call and read back by Step once execution succeeds (§4.I).
	effectKind     EffectKind
	effectRegIndex int
	effectRegValue uint32
	effectMemAddr  uint32
	effectMemValue uint32
}

// Config bundles the construction-time parameters for NewSimulator.
type Config struct {
	MemBase       uint32
	MemSize       uint32
	Ext           Extension
	Variant       Variant
	MaxCycles     uint64
	BranchPenalty uint64
	PredictTaken  bool
	SingleRAM     bool
	Console       Console
	Host          HostFile
}

// NewSimulator builds a fully wired Simulator from cfg.
func NewSimulator(cfg Config) *Simulator {
	mem := NewMemory(cfg.MemBase, cfg.MemSize)
	csr := NewCSRFile(cfg.Ext)
	s := &Simulator{
		Regs:          NewRegisterFile(cfg.Variant),
		Mem:           mem,
		MMIO:          NewMMIO(cfg.Console, cfg.Host, mem),
		CSR:           csr,
		Trap:          NewTrapUnit(csr, cfg.BranchPenalty),
		Ext:           cfg.Ext,
		Variant:       cfg.Variant,
		MaxCycles:     cfg.MaxCycles,
		BranchPenalty: cfg.BranchPenalty,
		PredictTaken:  cfg.PredictTaken,
		SingleRAM:     cfg.SingleRAM,
	}
	return s
}

// Reset restores the simulator to its post-reset architectural state (§3).
func (s *Simulator) Reset(entry uint32) {
	s.Regs.Reset()
	s.Mem.Reset()
	s.MMIO.Reset()
	s.CSR.Reset(s.Ext)
	s.PC = entry
	s.Halted = false
	s.ExitCode = 0
	s.lastWasCompressed = false
}

// Bootstrap loads an already-decoded memory image (built by the loader
// package) and sets the entry point, mirroring the teacher's Bootstrap
// method but without ARM assembly parsing — the ELF loader does that work
// out-of-band and simply writes bytes into s.Mem before this is called.
func (s *Simulator) Bootstrap(entry uint32) error {
	if entry < s.Mem.Base || uint64(entry) >= uint64(s.Mem.Base)+uint64(len(s.Mem.Bytes)) {
		return fmt.Errorf("core: entry point 0x%x outside memory image", entry)
	}
	s.PC = entry
	return nil
}

// readByte/readWord/writeWord route through MMIO when the address falls in
// its region, otherwise through Mem — the single address-space "bus" (§4.E).
func (s *Simulator) readWord(addr uint32) (uint32, error) {
	if Contains(addr) {
		return s.MMIO.ReadWord(addr)
	}
	return s.Mem.ReadWord(addr)
}

func (s *Simulator) writeWord(addr uint32, v uint32) error {
	if Contains(addr) {
		return s.MMIO.WriteWord(addr, v)
	}
	return s.Mem.WriteWord(addr, v)
}

func (s *Simulator) readHalf(addr uint32) (uint32, error) {
	if Contains(addr) {
		v, err := s.MMIO.ReadWord(addr &^ 0x3)
		return v & 0xffff, err
	}
	return s.Mem.ReadHalf(addr)
}

func (s *Simulator) writeHalf(addr uint32, v uint16) error {
	if Contains(addr) {
		return s.MMIO.WriteWord(addr&^0x3, uint32(v))
	}
	return s.Mem.WriteHalf(addr, v)
}

func (s *Simulator) readByte(addr uint32) (uint32, error) {
	if Contains(addr) {
		v, err := s.MMIO.ReadWord(addr &^ 0x3)
		return v & 0xff, err
	}
	return s.Mem.ReadByte(addr)
}

func (s *Simulator) writeByte(addr uint32, v byte) error {
	if Contains(addr) {
		return s.MMIO.WriteWord(addr&^0x3, uint32(v))
	}
	return s.Mem.WriteByte(addr, v)
}

// writeReg writes v to register idx and, unless idx names the architectural
// zero register, records a register-effect for the trace sink (§4.I). Every
// instruction handler that writes a general-purpose register routes through
// here instead of calling s.Regs.Write directly.
func (s *Simulator) writeReg(idx int, v uint32) {
	s.Regs.Write(idx, v)
	if idx != 0 {
		s.effectKind = EffectRegister
		s.effectRegIndex = idx
		s.effectRegValue = v
	}
}

// recordLoad records a load-effect: the memory address read and the value
// that landed in regIdx (§4.I). The caller still writes the register itself.
func (s *Simulator) recordLoad(addr uint32, regIdx int, regValue uint32) {
	s.effectKind = EffectLoad
	s.effectMemAddr = addr
	s.effectMemValue = regValue
	s.effectRegIndex = regIdx
	s.effectRegValue = regValue
}

// recordStore records a store-effect: the memory address and value written
// (§4.I).
func (s *Simulator) recordStore(addr, value uint32) {
	s.effectKind = EffectStore
	s.effectMemAddr = addr
	s.effectMemValue = value
}

// fetch reads the instruction at the current PC, trying the compressed
// 16-bit form first when the C extension is enabled (§4.D).
func (s *Simulator) fetch() (Instruction, error) {
	if s.Ext&ExtC != 0 {
		half, err := s.Mem.FetchHalf(s.PC)
		if err != nil {
			return Instruction{}, err
		}
		if half&0x3 != 0x3 {
			return DecodeCompressed(uint16(half), s.PC)
		}
		// Under C a 32-bit instruction only needs 2-byte alignment, so the
		// upper half is fetched separately rather than via ReadWord.
		hi, err := s.Mem.FetchHalf(s.PC + 2)
		if err != nil {
			return Instruction{}, err
		}
		return Decode(half|hi<<16, s.PC)
	}
	word, err := s.Mem.ReadWord(s.PC)
	if err != nil {
		return Instruction{}, err
	}
	return Decode(word, s.PC)
}

// Step executes exactly one instruction, per the ten-step state machine of
// §4.G: cycle-limit check, fetch, decode, pending-interrupt check (only
// between instructions, never mid-SYSTEM-instruction), execute, timing
// update, counter update.
func (s *Simulator) Step() error {
	if s.Halted {
		return nil
	}
	if s.MaxCycles != 0 && s.CSR.Cycle() >= s.MaxCycles {
		s.Halted = true
		return nil
	}

	inst, ferr := s.fetch()
	if ferr == ErrIllegalInstruction {
		s.trap(CauseIllegalInstruction, s.PC)
		return nil
	}
	if ferr == ErrMisaligned {
		s.trap(CauseInstructionAddressMisaligned, s.PC)
		return nil
	}
	if ferr != nil {
		s.trap(CauseInstructionAccessFault, s.PC)
		return nil
	}

	timerPending := s.MMIO.MTime() >= s.MMIO.MTimeCmp()
	softwarePending := s.MMIO.MSIP()
	externalPending := s.MMIO.MEIP()
	s.CSR.SyncMIP(timerPending, softwarePending, externalPending)

	if cause, pending := s.Trap.PendingInterrupt(timerPending, softwarePending, externalPending); pending && !inst.IsSystem() {
		newPC, penalty := s.Trap.Raise(cause, s.PC, 0)
		s.PC = newPC
		s.chargeCycles(penalty)
		return nil
	}

	s.effectKind = EffectNone
	penalty, execErr := s.execute(inst)
	if execErr != nil {
		if exit, ok := execErr.(*ExitRequest); ok {
			s.Halted = true
			s.ExitCode = exit.Code
			return nil
		}
		return execErr
	}

	s.chargeCycles(s.cycleCost(inst) + penalty)
	s.CSR.TickInstret()
	if s.Trace != nil {
		s.Trace.Record(TraceEntry{
			Cycle:    s.CSR.Cycle(),
			Address:  inst.Address,
			Word:     inst.Word,
			Kind:     s.effectKind,
			RegIndex: s.effectRegIndex,
			RegValue: s.effectRegValue,
			MemAddr:  s.effectMemAddr,
			MemValue: s.effectMemValue,
		})
	}
	s.lastWasCompressed = inst.Compressed
	return nil
}

// chargeCycles advances both the architectural cycle counter and mtime in
// lockstep, per §4.H ("mtime advances with the cycle counter unless the
// guest has written it directly this step").
func (s *Simulator) chargeCycles(n uint64) {
	s.CSR.TickCycle(n)
	if !s.MMIO.ConsumeMTimeWritten() {
		s.MMIO.AdvanceTime(n)
	}
}

// trap is a convenience wrapper for faults discovered outside execute
// (fetch failures).
func (s *Simulator) trap(cause TrapCause, tval uint32) {
	newPC, penalty := s.Trap.Raise(cause, s.PC, tval)
	s.PC = newPC
	s.chargeCycles(penalty)
}

// checkSelfLoop surfaces an unconditional jump or taken branch whose target
// is its own address: a guest program spinning forever at one instruction.
// This is a programmer-error diagnostic (§7 item 3), not an architectural
// trap — it prints to the host error channel and halts the simulator so the
// run doesn't hang silently.
func (s *Simulator) checkSelfLoop(sourcePC, target uint32) {
	if target != sourcePC {
		return
	}
	fmt.Fprintf(os.Stderr, "riscv-sim: self-loop detected at pc=0x%08x, terminating\n", sourcePC)
	s.Halted = true
	s.ExitCode = 1
}

// Run steps until halted or an unrecoverable error occurs.
func (s *Simulator) Run() error {
	for !s.Halted {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// DumpState renders a human-readable register/CSR snapshot, in the
// teacher's DumpState style, for the debugger's "info registers" command.
func (s *Simulator) DumpState() string {
	var out string
	out += fmt.Sprintf("pc=0x%08x cycle=%d instret=%d\n", s.PC, s.CSR.Cycle(), s.CSR.Instret())
	for i := 0; i < s.Regs.NumRegisters(); i++ {
		out += fmt.Sprintf("x%-2d=0x%08x ", i, s.Regs.Read(i))
		if i%4 == 3 {
			out += "\n"
		}
	}
	return out
}
