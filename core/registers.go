package core

import "log"

// RegisterFile holds the 32 (or 16, under RV32E) integer registers.
// Index 0 always reads as zero; writes to index 0 are silently dropped.
type RegisterFile struct {
	regs    [32]uint32
	variant Variant
}

// NewRegisterFile creates a zeroed register file for the given variant.
func NewRegisterFile(variant Variant) *RegisterFile {
	return &RegisterFile{variant: variant}
}

// NumRegisters returns the number of addressable registers for this variant.
func (r *RegisterFile) NumRegisters() int {
	if r.variant == VariantE16 {
		return 16
	}
	return 32
}

// Read returns the value of register idx. Index 0 always reads zero. Under
// RV32E an index outside 0..15 is a programming error: it is diagnosed and
// treated as zero rather than corrupting state.
func (r *RegisterFile) Read(idx int) uint32 {
	if idx == 0 {
		return 0
	}
	if idx < 0 || idx >= r.NumRegisters() {
		log.Printf("core: register read x%d out of range for %d-register file", idx, r.NumRegisters())
		return 0
	}
	return r.regs[idx]
}

// Write sets register idx to value. Index 0 is a no-op. Under RV32E an
// index outside 0..15 is diagnosed and dropped.
func (r *RegisterFile) Write(idx int, value uint32) {
	if idx == 0 {
		return
	}
	if idx < 0 || idx >= r.NumRegisters() {
		log.Printf("core: register write x%d out of range for %d-register file", idx, r.NumRegisters())
		return
	}
	r.regs[idx] = value
}

// Reset zeroes every register.
func (r *RegisterFile) Reset() {
	for i := range r.regs {
		r.regs[i] = 0
	}
}

// Snapshot copies the full register array for tracing/debugger use.
func (r *RegisterFile) Snapshot() [32]uint32 {
	return r.regs
}
