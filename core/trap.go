package core

// TrapUnit implements vectored/direct dispatch and the mstatus MIE/MPIE
// save-restore discipline of §4.F. It never unwinds as a Go error: Raise and
// Return both mutate CSR state and return the new PC directly, per Design
// Note "Macros with control flow" (the original's TRAP() macro redirected
// control flow rather than propagating an error value).
type TrapUnit struct {
	csr           *CSRFile
	branchPenalty uint64
}

// NewTrapUnit builds a trap unit bound to csr.
func NewTrapUnit(csr *CSRFile, branchPenalty uint64) *TrapUnit {
	return &TrapUnit{csr: csr, branchPenalty: branchPenalty}
}

// PendingInterrupt reports the highest-priority enabled, pending interrupt,
// if any, given the current mie and the timer/software/external pending
// inputs (mip itself is not consulted). Priority order: machine external, then timer, then software
// (standard RISC-V priority for same-privilege interrupts).
func (t *TrapUnit) PendingInterrupt(timerPending, softwarePending, externalPending bool) (TrapCause, bool) {
	if !t.csr.MIEEnabled() {
		return 0, false
	}
	mie := t.csr.MIE()
	if mie&(1<<mieMEIBit) != 0 && externalPending {
		return CauseMachineExternalInterrupt, true
	}
	if mie&(1<<mieMTIBit) != 0 && timerPending {
		return CauseMachineTimerInterrupt, true
	}
	if mie&(1<<mieMSIBit) != 0 && softwarePending {
		return CauseMachineSoftwareInterrupt, true
	}
	return 0, false
}

// Raise enters a trap (interrupt or synchronous exception) from pc, saving
// mstatus.MIE into MPIE and clearing MIE, recording cause/mepc/mtval, and
// returning the redirect target per mtvec mode (§4.F). It also returns the
// number of extra cycles to charge: entering a trap is a control-flow
// redirect, so it is charged exactly like a taken branch (branchPenalty).
func (t *TrapUnit) Raise(cause TrapCause, pc uint32, tval uint32) (newPC uint32, penalty uint64) {
	t.csr.SetMEPC(pc)
	t.csr.SetMCause(uint32(cause))
	t.csr.SetMTVal(tval)
	t.csr.SetMPIEEnabled(t.csr.MIEEnabled())
	t.csr.SetMIEEnabled(false)

	mtvec := t.csr.MTVec()
	mode := mtvec & 0x3
	base := mtvec &^ 0x3
	if mode == 1 && cause.IsInterrupt() {
		// Vectored mode: interrupts redirect to base + 4*code; exceptions
		// always use the direct base regardless of mtvec mode.
		return base + 4*cause.ExceptionCode(), t.branchPenalty
	}
	return base, t.branchPenalty
}

// Return performs MRET: restores mstatus.MIE from MPIE, sets MPIE, and
// returns mepc as the resume address plus the branch penalty (a return is
// also a control-flow redirect).
func (t *TrapUnit) Return() (resumePC uint32, penalty uint64) {
	t.csr.SetMIEEnabled(t.csr.MPIEEnabled())
	t.csr.SetMPIEEnabled(true)
	return t.csr.MEPC(), t.branchPenalty
}
