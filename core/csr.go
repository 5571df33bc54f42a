package core

// CSRAddr identifies a control/status register by its 12-bit address.
type CSRAddr uint16

const (
	csrMVendorID CSRAddr = 0xF11
	csrMArchID   CSRAddr = 0xF12
	csrMImpID    CSRAddr = 0xF13
	csrMHartID   CSRAddr = 0xF14

	csrMStatus  CSRAddr = 0x300
	csrMISA     CSRAddr = 0x301
	csrMIE      CSRAddr = 0x304
	csrMTVec    CSRAddr = 0x305
	csrMScratch CSRAddr = 0x340
	csrMEPC     CSRAddr = 0x341
	csrMCause   CSRAddr = 0x342
	csrMTVal    CSRAddr = 0x343
	csrMIP      CSRAddr = 0x344

	csrCycle    CSRAddr = 0xC00
	csrCycleH   CSRAddr = 0xC80
	csrInstret  CSRAddr = 0xC02
	csrInstretH CSRAddr = 0xC82
)

// CSROp is the read-modify-write mode of a CSR instruction.
type CSROp int

const (
	CSROpWrite CSROp = iota
	CSROpSet
	CSROpClear
)

// csrDescriptor is a table entry per Design Note "CSR dispatch table":
// (address -> {read, write}) rather than a giant switch.
type csrDescriptor struct {
	read     func(*CSRFile) uint32
	write    func(*CSRFile, uint32) // nil for read-only registers
	readOnly bool
}

// CSRFile holds the fixed set of CSRs plus the four 64-bit counters. Counter
// halves are exposed through the same table as ordinary 32-bit CSRs.
type CSRFile struct {
	mstatus  uint32
	misa     uint32
	mie      uint32
	mip      uint32
	mtvec    uint32
	mepc     uint32
	mcause   uint32
	mtval    uint32
	mscratch uint32

	cycle   uint64
	instret uint64
	time    uint64

	table map[CSRAddr]csrDescriptor
}

// NewCSRFile builds a CSR file with misa set for the given extensions.
func NewCSRFile(ext Extension) *CSRFile {
	f := &CSRFile{}
	f.misa = impliedMISA(ext)
	f.buildTable()
	return f
}

func impliedMISA(ext Extension) uint32 {
	v := misaMXL32 | misaExtI
	if ext&ExtM != 0 {
		v |= misaExtM
	}
	if ext&ExtC != 0 {
		v |= misaExtC
	}
	if ext&ExtB != 0 {
		v |= misaExtB
	}
	if ext&ExtE != 0 {
		v |= misaExtE
	}
	return v
}

func (f *CSRFile) buildTable() {
	f.table = map[CSRAddr]csrDescriptor{
		csrMVendorID: {read: func(*CSRFile) uint32 { return VendorID }, readOnly: true},
		csrMArchID:   {read: func(*CSRFile) uint32 { return ArchID }, readOnly: true},
		csrMImpID:    {read: func(*CSRFile) uint32 { return ImplID }, readOnly: true},
		csrMHartID:   {read: func(*CSRFile) uint32 { return HartID }, readOnly: true},

		csrMStatus: {
			read:  func(c *CSRFile) uint32 { return c.mstatus },
			write: func(c *CSRFile, v uint32) { c.mstatus = v },
		},
		csrMISA: {
			read:  func(c *CSRFile) uint32 { return c.misa },
			write: func(c *CSRFile, v uint32) { c.misa = v }, // written value is stored as given
		},
		csrMIE: {
			read:  func(c *CSRFile) uint32 { return c.mie },
			write: func(c *CSRFile, v uint32) { c.mie = v },
		},
		csrMIP: {
			read:  func(c *CSRFile) uint32 { return c.mip },
			write: func(c *CSRFile, v uint32) { c.mip = v },
		},
		csrMTVec: {
			read:  func(c *CSRFile) uint32 { return c.mtvec },
			write: func(c *CSRFile, v uint32) { c.mtvec = v },
		},
		csrMScratch: {
			read:  func(c *CSRFile) uint32 { return c.mscratch },
			write: func(c *CSRFile, v uint32) { c.mscratch = v },
		},
		csrMEPC: {
			read:  func(c *CSRFile) uint32 { return c.mepc },
			write: func(c *CSRFile, v uint32) { c.mepc = v &^ 1 },
		},
		csrMCause: {
			read:  func(c *CSRFile) uint32 { return c.mcause },
			write: func(c *CSRFile, v uint32) { c.mcause = v },
		},
		csrMTVal: {
			read:  func(c *CSRFile) uint32 { return c.mtval },
			write: func(c *CSRFile, v uint32) { c.mtval = v },
		},

		// Counters report the value as of the instruction preceding the
		// current one: instret/cycle have already been bumped for this
		// step by the time the CSR read executes, so subtract one (§4.C).
		csrCycle:    {read: func(c *CSRFile) uint32 { return uint32(c.cycle - 1) }, readOnly: true},
		csrCycleH:   {read: func(c *CSRFile) uint32 { return uint32((c.cycle - 1) >> 32) }, readOnly: true},
		csrInstret:  {read: func(c *CSRFile) uint32 { return uint32(c.instret - 1) }, readOnly: true},
		csrInstretH: {read: func(c *CSRFile) uint32 { return uint32((c.instret - 1) >> 32) }, readOnly: true},
	}
}

// Reset restores reset-time values (§3 Lifecycles).
func (f *CSRFile) Reset(ext Extension) {
	f.mstatus = 0
	f.misa = impliedMISA(ext)
	f.mie = 0
	f.mip = 0
	f.mtvec = 0
	f.mepc = 0
	f.mcause = 0
	f.mtval = 0
	f.mscratch = 0
	f.cycle = 0
	f.instret = 0
	f.time = 0
}

// Lookup returns the descriptor for addr, or false if unimplemented.
func (f *CSRFile) Lookup(addr CSRAddr) (csrDescriptor, bool) {
	d, ok := f.table[addr]
	return d, ok
}

// Access performs a CSR read-modify-write. It returns the pre-modification
// value. skipWrite implements the "operand source is immediate-zero" /
// "rs1 is x0" rule (§4.C): under Set/Clear mode with a zero operand (or
// under the immediate forms with a zero 5-bit immediate), the register is
// not written at all, so its side effects (if any) do not fire.
func (f *CSRFile) Access(addr CSRAddr, op CSROp, operand uint32, skipWrite bool) (old uint32, ok bool) {
	d, found := f.table[addr]
	if !found {
		return 0, false
	}
	old = d.read(f)
	if d.readOnly || d.write == nil {
		if op != CSROpSet && op != CSROpClear {
			// CSRRW/CSRRWI to a read-only CSR is always refused; the
			// execute step turns the refusal into an illegal-instruction
			// trap.
			return old, false
		}
		if operand != 0 && !skipWrite {
			return old, false
		}
		return old, true
	}
	if op == CSROpWrite {
		d.write(f, operand)
		return old, true
	}
	if skipWrite {
		return old, true
	}
	var next uint32
	switch op {
	case CSROpSet:
		next = old | operand
	case CSROpClear:
		next = old &^ operand
	}
	d.write(f, next)
	return old, true
}

// TickCycle advances the cycle counter by n (component H).
func (f *CSRFile) TickCycle(n uint64) { f.cycle += n }

// TickInstret advances the retired-instruction counter by one.
func (f *CSRFile) TickInstret() { f.instret++ }

// Cycle returns the raw, uncompensated cycle counter (used by the timing
// model and trace sink, which want the "as of right now" value, not the
// guest-visible one-behind value CSR reads return).
func (f *CSRFile) Cycle() uint64 { return f.cycle }

// Instret returns the raw retired-instruction counter.
func (f *CSRFile) Instret() uint64 { return f.instret }

// Time returns the mtime counter (driven by the timing model / MMIO, §4.H).
func (f *CSRFile) Time() uint64 { return f.time }

// SetTime overwrites mtime, e.g. from an MMIO store (§4.E).
func (f *CSRFile) SetTime(v uint64) { f.time = v }

// TickTime advances mtime in lockstep with cycle unless suppressed for this
// step (§3, §4.H).
func (f *CSRFile) TickTime(n uint64) { f.time += n }

// SyncMIP sets or clears the MTIP/MSIP/MEIP bits of mip to match the live
// timer/software/external interrupt-source state, so a guest polling mip
// via CSR reads observes pending bits "set on the edge" (§4.F) even when
// the interrupt is masked or not yet taken.
func (f *CSRFile) SyncMIP(timerPending, softwarePending, externalPending bool) {
	f.mip = setBit(f.mip, mieMTIBit, timerPending)
	f.mip = setBit(f.mip, mieMSIBit, softwarePending)
	f.mip = setBit(f.mip, mieMEIBit, externalPending)
}

func setBit(v uint32, bit int, set bool) uint32 {
	if set {
		return v | 1<<bit
	}
	return v &^ (1 << bit)
}

// MStatus / MIE / MIP / MTVec / MEPC / MCause / MTVal direct accessors used
// by the trap unit, which must bypass the counter-compensation and
// read-only rules above.
func (f *CSRFile) MStatus() uint32     { return f.mstatus }
func (f *CSRFile) SetMStatus(v uint32) { f.mstatus = v }
func (f *CSRFile) MIE() uint32         { return f.mie }
func (f *CSRFile) MIP() uint32         { return f.mip }
func (f *CSRFile) SetMIP(v uint32)     { f.mip = v }
func (f *CSRFile) MTVec() uint32       { return f.mtvec }
func (f *CSRFile) MEPC() uint32        { return f.mepc }
func (f *CSRFile) SetMEPC(v uint32)    { f.mepc = v &^ 1 }
func (f *CSRFile) SetMCause(v uint32)  { f.mcause = v }
func (f *CSRFile) MTVal() uint32       { return f.mtval }
func (f *CSRFile) SetMTVal(v uint32)   { f.mtval = v }

// MIEEnabled reports mstatus.MIE.
func (f *CSRFile) MIEEnabled() bool { return f.mstatus&(1<<mstatusMIEBit) != 0 }

// SetMIEEnabled sets or clears mstatus.MIE.
func (f *CSRFile) SetMIEEnabled(v bool) {
	if v {
		f.mstatus |= 1 << mstatusMIEBit
	} else {
		f.mstatus &^= 1 << mstatusMIEBit
	}
}

// MPIEEnabled reports mstatus.MPIE.
func (f *CSRFile) MPIEEnabled() bool { return f.mstatus&(1<<mstatusMPIEBit) != 0 }

// SetMPIEEnabled sets or clears mstatus.MPIE.
func (f *CSRFile) SetMPIEEnabled(v bool) {
	if v {
		f.mstatus |= 1 << mstatusMPIEBit
	} else {
		f.mstatus &^= 1 << mstatusMPIEBit
	}
}
