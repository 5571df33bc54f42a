package core

import (
	"fmt"
	"io"
)

// EffectKind distinguishes the four shapes of architectural effect a traced
// instruction can produce (§4.I): none (e.g. a branch, or a store that
// faulted away), a register write, a memory load (which also writes a
// register), or a memory store.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectRegister
	EffectLoad
	EffectStore
)

// abiNames gives the ABI register names used in trace-log lines, duplicated
// from package disasm's table rather than imported: core has no outward
// dependency on disasm (§5), and this is the only corner of core that needs
// register names rendered.
var abiNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// TraceEntry is one recorded instruction step: its retired address and
// encoding, plus exactly the effect it produced (§4.I) — a register write,
// a load (address, value, target register), a store (address, value), or
// nothing.
type TraceEntry struct {
	Cycle   uint64
	Address uint32
	Word    uint32

	Kind EffectKind

	RegIndex int
	RegValue uint32

	MemAddr  uint32
	MemValue uint32
}

// Trace is the execution trace sink (§4.I), mirroring the teacher's
// ExecutionTrace: an io.Writer-backed, bounded buffer of entries flushed on
// demand. Once MaxEntries entries are buffered, further records are dropped.
type Trace struct {
	Enabled    bool
	Writer     io.Writer
	MaxEntries int

	entries []TraceEntry
}

// NewTrace builds a trace sink bound to w.
func NewTrace(w io.Writer) *Trace {
	return &Trace{
		Enabled:    true,
		Writer:     w,
		MaxEntries: 100000,
		entries:    make([]TraceEntry, 0, 1024),
	}
}

// Record appends one already-built entry to the trace buffer. Callers
// assemble entry from the simulator's per-step effect bookkeeping (see
// Simulator.writeReg, Simulator.recordLoad, Simulator.recordStore in vm.go).
func (t *Trace) Record(entry TraceEntry) {
	if !t.Enabled {
		return
	}
	if t.MaxEntries > 0 && len(t.entries) >= t.MaxEntries {
		return
	}
	t.entries = append(t.entries, entry)
}

// Flush writes every buffered entry to Writer in the trace-log format of
// §6 and clears the buffer:
//
//	<cycle> <pc> <word> x<N> (<name>) <= 0x<val>                  register effect
//	<cycle> <pc> <word> read 0x<addr>, x<N> (<name>) <= 0x<val>   load effect
//	<cycle> <pc> <word> write 0x<addr> <= 0x<val>                 store effect
//	<cycle> <pc> <word>                                            no effect
func (t *Trace) Flush() error {
	for _, e := range t.entries {
		var line string
		switch e.Kind {
		case EffectRegister:
			line = fmt.Sprintf("%d %08x %08x x%d (%s) <= 0x%08x\n",
				e.Cycle, e.Address, e.Word, e.RegIndex, abiNames[e.RegIndex], e.RegValue)
		case EffectLoad:
			line = fmt.Sprintf("%d %08x %08x read 0x%08x, x%d (%s) <= 0x%08x\n",
				e.Cycle, e.Address, e.Word, e.MemAddr, e.RegIndex, abiNames[e.RegIndex], e.RegValue)
		case EffectStore:
			line = fmt.Sprintf("%d %08x %08x write 0x%08x <= 0x%08x\n",
				e.Cycle, e.Address, e.Word, e.MemAddr, e.MemValue)
		default:
			line = fmt.Sprintf("%d %08x %08x\n", e.Cycle, e.Address, e.Word)
		}
		if _, err := io.WriteString(t.Writer, line); err != nil {
			return err
		}
	}
	t.entries = t.entries[:0]
	return nil
}
