// Package cpu implements a cycle-level Tomasulo-style out-of-order
// simulator for the RV32I integer instruction subset.
package cpu

// TypeClass identifies the RISC-V instruction format a decoded word
// belongs to, plus the simulator's own "L" split of loads out of the
// generic I-format for dispatch purposes.
type TypeClass byte

const (
	TypeNone TypeClass = 0
	TypeU    TypeClass = 'U'
	TypeJ    TypeClass = 'J'
	TypeI    TypeClass = 'I'
	TypeR    TypeClass = 'R'
	TypeB    TypeClass = 'B'
	TypeL    TypeClass = 'L'
	TypeS    TypeClass = 'S'
)

// Op enumerates every RV32I operation the ALU and decoder recognize.
type Op int

const (
	OpNOPE Op = iota
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
)

// Terminator is the instruction word whose commit ends the simulation:
// addi a0, zero, 0xFF.
const Terminator uint32 = 0x0FF00513

// RS/LSB slot state machine.
type State byte

const (
	StateEmpty State = iota
	StateWaitingCDB
	StateExecuted
	StateGetAddr
	StateLoading
	StateWaitingStore
	StateStoring
)

// rob entry type classes (A covers arithmetic/upper/jump entries that
// write a destination register directly).
type robKind byte

const (
	robA robKind = 'A'
	robL robKind = 'L'
	robS robKind = 'S'
	robB robKind = 'B'
)
