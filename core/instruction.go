package core

// Format is the base RV32 instruction format the word was decoded from.
type Format int

const (
	FormatR Format = iota
	FormatI
	FormatS
	FormatB
	FormatU
	FormatJ
	FormatSystem
)

// Op tags the architectural operation independent of format/encoding. The
// decoder (full 32-bit and compressed) always produces one of these plus
// its decoded fields, so execute never re-parses the raw word (§3).
type Op int

const (
	OpUnknown Op = iota

	OpLUI
	OpAUIPC
	OpJAL
	OpJALR

	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU

	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU

	OpSB
	OpSH
	OpSW

	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI

	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND

	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU

	OpFENCE
	OpECALL
	OpEBREAK
	OpMRET

	OpCSRRW
	OpCSRRS
	OpCSRRC
	OpCSRRWI
	OpCSRRSI
	OpCSRRCI

	// B-extension subset (Zbb-style; see DESIGN.md).
	OpANDN
	OpORN
	OpXNOR
	OpMIN
	OpMINU
	OpMAX
	OpMAXU
	OpCLZ
	OpCTZ
	OpCPOP
	OpSEXTB
	OpSEXTH
	OpZEXTH
	OpROL
	OpROR
	OpRORI
	OpORCB
	OpREV8
)

// Instruction is the decoded, tagged variant produced by the decoder. It
// carries the fields execute needs rather than the raw bits (Design Note
// "Bitfield unions").
type Instruction struct {
	Address    uint32
	Word       uint32 // the raw 32-bit word; zero for compressed sources
	Compressed bool

	Format Format
	Op     Op

	Rd, Rs1, Rs2 int
	Imm          int32 // sign-extended immediate for I/S/B/U/J forms
	CSR          CSRAddr
	Uimm         uint32 // zero-extended 5-bit immediate for CSRR{W,S,C}I
}

// Len returns the instruction's length in bytes: 2 for compressed, 4 otherwise.
func (i Instruction) Len() uint32 {
	if i.Compressed {
		return 2
	}
	return 4
}

// IsSystem reports whether this is a SYSTEM-opcode instruction (ECALL,
// EBREAK, MRET, or any CSR access) — these are never interrupted mid-step
// (§4.F, §4.G step 2, and the "SYSTEM" universal invariant in §8).
func (i Instruction) IsSystem() bool {
	switch i.Op {
	case OpECALL, OpEBREAK, OpMRET, OpCSRRW, OpCSRRS, OpCSRRC, OpCSRRWI, OpCSRRSI, OpCSRRCI:
		return true
	default:
		return false
	}
}
