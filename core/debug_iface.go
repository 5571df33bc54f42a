package core

import "sync/atomic"

// DebugInterface is the narrow, concurrency-safe surface a remote debugger
// (package gdbstub) or an interactive REPL (package debugger) uses to
// observe and control a running Simulator without ever touching its CPU or
// memory arrays directly (§5). The simulator's own step loop and the debug
// side coordinate through two atomic flags, halt and interrupted, which
// need no mutex because each is only ever written by one side and read by
// the other (the same access discipline as the teacher's remote-debug
// collaborator).
type DebugInterface struct {
	sim *Simulator

	halt        atomic.Bool
	interrupted atomic.Bool
}

// NewDebugInterface wraps sim for external control.
func NewDebugInterface(sim *Simulator) *DebugInterface {
	return &DebugInterface{sim: sim}
}

// RequestHalt asks the run loop to stop before its next instruction. Safe to
// call from any goroutine.
func (d *DebugInterface) RequestHalt() { d.halt.Store(true) }

// ClearHalt clears a previously requested halt, allowing Run to continue.
func (d *DebugInterface) ClearHalt() { d.halt.Store(false) }

// HaltRequested reports whether a halt has been requested.
func (d *DebugInterface) HaltRequested() bool { return d.halt.Load() }

// Interrupt marks the simulator as having been asynchronously interrupted
// (e.g. Ctrl-C from a remote debug session).
func (d *DebugInterface) Interrupt() { d.interrupted.Store(true) }

// ConsumeInterrupt reports and clears the interrupted flag.
func (d *DebugInterface) ConsumeInterrupt() bool {
	return d.interrupted.CompareAndSwap(true, false)
}

// RunUntilHalt steps the simulator until it halts, a breakpoint address is
// reached, or a halt/interrupt request arrives. breakpoints may be nil.
func (d *DebugInterface) RunUntilHalt(breakpoints map[uint32]bool) error {
	for !d.sim.Halted {
		if d.halt.Load() || d.interrupted.Load() {
			return nil
		}
		if breakpoints != nil && breakpoints[d.sim.PC] {
			return nil
		}
		if err := d.sim.Step(); err != nil {
			return err
		}
	}
	return nil
}

// PC returns the current program counter.
func (d *DebugInterface) PC() uint32 { return d.sim.PC }

// Register reads register idx.
func (d *DebugInterface) Register(idx int) uint32 { return d.sim.Regs.Read(idx) }

// SetRegister writes register idx.
func (d *DebugInterface) SetRegister(idx int, v uint32) { d.sim.Regs.Write(idx, v) }

// ReadMemory reads n bytes starting at addr, for display/inspection.
func (d *DebugInterface) ReadMemory(addr uint32, n int) ([]byte, error) {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		v, err := d.sim.readByte(addr + uint32(i))
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}

// WriteMemory writes data starting at addr.
func (d *DebugInterface) WriteMemory(addr uint32, data []byte) error {
	for i, b := range data {
		if err := d.sim.writeByte(addr+uint32(i), b); err != nil {
			return err
		}
	}
	return nil
}

// Step single-steps exactly one instruction.
func (d *DebugInterface) Step() error { return d.sim.Step() }

// Halted reports whether the simulator has halted (exit, not a debug pause).
func (d *DebugInterface) Halted() bool { return d.sim.Halted }

// ExitCode returns the guest exit code once Halted is true.
func (d *DebugInterface) ExitCode() int { return d.sim.ExitCode }

// Reset re-initializes the simulator at entry.
func (d *DebugInterface) Reset(entry uint32) { d.sim.Reset(entry) }

// Simulator exposes the underlying instance for read-only diagnostics
// (DumpState, CSR snapshotting) that don't need the narrower surface above.
func (d *DebugInterface) Simulator() *Simulator { return d.sim }
