package cpu

// Decoded is the result of decoding one 32-bit RV32I instruction word.
type Decoded struct {
	Type TypeClass
	Op   Op
	Raw  uint32
	Rs1  uint32
	Rs2  uint32
	Rd   uint32
	Imm  uint32
}

func bits(word uint32, lo, hi uint) uint32 {
	width := hi - lo + 1
	mask := uint32(1)<<width - 1
	return (word >> lo) & mask
}

// sext sign-extends the low `width` bits of x to a full 32-bit value.
func sext(x uint32, width uint) uint32 {
	shift := 32 - width
	return uint32(int32(x<<shift) >> shift)
}

func immI(w uint32) uint32  { return sext(bits(w, 20, 31), 12) }
func immIu(w uint32) uint32 { return bits(w, 20, 31) }
func immIj(w uint32) uint32 { return sext(bits(w, 20, 31)<<1, 13) }
func immU(w uint32) uint32  { return bits(w, 12, 31) << 12 }

func immJ(w uint32) uint32 {
	v := (bits(w, 31, 31) << 20) | (bits(w, 12, 19) << 12) | (bits(w, 20, 20) << 11) | (bits(w, 21, 30) << 1)
	return sext(v, 21)
}

func immB(w uint32) uint32 {
	v := (bits(w, 31, 31) << 12) | (bits(w, 7, 7) << 11) | (bits(w, 25, 30) << 5) | (bits(w, 8, 11) << 1)
	return sext(v, 13)
}

func immS(w uint32) uint32 {
	v := (bits(w, 25, 31) << 5) | (bits(w, 7, 11))
	return sext(v, 12)
}

// Decode classifies a raw instruction word into its type class, operation,
// register indices and immediate. Unknown opcodes decode to TypeNone/OpNOPE.
func Decode(w uint32) Decoded {
	d := Decoded{Raw: w}
	opcode := bits(w, 0, 6)
	funct3 := bits(w, 12, 14)
	bit30 := bits(w, 30, 30)

	switch opcode {
	case 0x37: // LUI
		d.Type = TypeU
		d.Rd = bits(w, 7, 11)
		d.Op = OpLUI
		d.Imm = immU(w)
	case 0x17: // AUIPC
		d.Type = TypeU
		d.Rd = bits(w, 7, 11)
		d.Op = OpAUIPC
		d.Imm = immU(w)
	case 0x6F: // JAL
		d.Type = TypeJ
		d.Rd = bits(w, 7, 11)
		d.Op = OpJAL
		d.Imm = immJ(w)
	case 0x67: // JALR
		d.Type = TypeI
		d.Rd = bits(w, 7, 11)
		d.Rs1 = bits(w, 15, 19)
		d.Op = OpJALR
		d.Imm = immIj(w)
	case 0x63: // branches
		d.Type = TypeB
		d.Rs1 = bits(w, 15, 19)
		d.Rs2 = bits(w, 20, 24)
		d.Imm = immB(w)
		switch funct3 {
		case 0:
			d.Op = OpBEQ
		case 1:
			d.Op = OpBNE
		case 4:
			d.Op = OpBLT
		case 5:
			d.Op = OpBGE
		case 6:
			d.Op = OpBLTU
		case 7:
			d.Op = OpBGEU
		}
	case 0x03: // loads
		d.Type = TypeL
		d.Rd = bits(w, 7, 11)
		d.Rs1 = bits(w, 15, 19)
		d.Imm = immI(w)
		switch funct3 {
		case 0:
			d.Op = OpLB
		case 1:
			d.Op = OpLH
		case 2:
			d.Op = OpLW
		case 4:
			d.Op = OpLBU
		case 5:
			d.Op = OpLHU
		}
	case 0x23: // stores
		d.Type = TypeS
		d.Rs1 = bits(w, 15, 19)
		d.Rs2 = bits(w, 20, 24)
		d.Imm = immS(w)
		switch funct3 {
		case 0:
			d.Op = OpSB
		case 1:
			d.Op = OpSH
		case 2:
			d.Op = OpSW
		}
	case 0x13: // ALU immediate
		d.Type = TypeI
		d.Rd = bits(w, 7, 11)
		d.Rs1 = bits(w, 15, 19)
		switch funct3 {
		case 0:
			d.Op = OpADDI
			d.Imm = immI(w)
		case 2:
			d.Op = OpSLTI
			d.Imm = immI(w)
		case 3:
			d.Op = OpSLTIU
			d.Imm = immI(w)
		case 4:
			d.Op = OpXORI
			d.Imm = immI(w)
		case 6:
			d.Op = OpORI
			d.Imm = immI(w)
		case 7:
			d.Op = OpANDI
			d.Imm = immI(w)
		case 1:
			d.Op = OpSLLI
			d.Imm = immIu(w) & 0x1F
		case 5:
			if bit30 == 1 {
				d.Op = OpSRAI
			} else {
				d.Op = OpSRLI
			}
			d.Imm = immIu(w) & 0x1F
		}
	case 0x33: // R-type
		d.Type = TypeR
		d.Rd = bits(w, 7, 11)
		d.Rs1 = bits(w, 15, 19)
		d.Rs2 = bits(w, 20, 24)
		switch funct3 {
		case 0:
			if bit30 == 1 {
				d.Op = OpSUB
			} else {
				d.Op = OpADD
			}
		case 1:
			d.Op = OpSLL
		case 2:
			d.Op = OpSLT
		case 3:
			d.Op = OpSLTU
		case 4:
			d.Op = OpXOR
		case 5:
			if bit30 == 1 {
				d.Op = OpSRA
			} else {
				d.Op = OpSRL
			}
		case 6:
			d.Op = OpOR
		case 7:
			d.Op = OpAND
		}
	default:
		d.Type = TypeNone
		d.Op = OpNOPE
	}
	return d
}
