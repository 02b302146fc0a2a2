package cpu

// Hand-rolled RV32I encoders used only by tests, to build instruction
// words without depending on an external assembler.

func encodeR(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeI(imm12 uint32, rs1, funct3, rd, opcode uint32) uint32 {
	return (imm12&0xFFF)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeS(imm12 uint32, rs2, rs1, funct3, opcode uint32) uint32 {
	imm := imm12 & 0xFFF
	hi := (imm >> 5) & 0x7F
	lo := imm & 0x1F
	return hi<<25 | rs2<<20 | rs1<<15 | funct3<<12 | lo<<7 | opcode
}

func encodeB(imm13 uint32, rs2, rs1, funct3, opcode uint32) uint32 {
	imm := imm13 & 0x1FFF
	b12 := (imm >> 12) & 1
	b11 := (imm >> 11) & 1
	b105 := (imm >> 5) & 0x3F
	b41 := (imm >> 1) & 0xF
	return b12<<31 | b105<<25 | rs2<<20 | rs1<<15 | funct3<<12 | b41<<8 | b11<<7 | opcode
}

func encodeU(imm20 uint32, rd, opcode uint32) uint32 {
	return (imm20 << 12) | rd<<7 | opcode
}

func encodeJ(imm21 uint32, rd, opcode uint32) uint32 {
	imm := imm21 & 0x1FFFFF
	b20 := (imm >> 20) & 1
	b101 := (imm >> 1) & 0x3FF
	b11 := (imm >> 11) & 1
	b1912 := (imm >> 12) & 0xFF
	return b20<<31 | b101<<21 | b11<<20 | b1912<<12 | rd<<7 | opcode
}

func asmADDI(rd, rs1 uint32, imm int32) uint32 {
	return encodeI(uint32(imm), rs1, 0, rd, 0x13)
}
func asmANDI(rd, rs1 uint32, imm int32) uint32 { return encodeI(uint32(imm), rs1, 7, rd, 0x13) }
func asmSUB(rd, rs1, rs2 uint32) uint32        { return encodeR(0x20, rs2, rs1, 0, rd, 0x33) }
func asmADD(rd, rs1, rs2 uint32) uint32        { return encodeR(0, rs2, rs1, 0, rd, 0x33) }
func asmBEQ(rs1, rs2 uint32, imm int32) uint32 { return encodeB(uint32(imm), rs2, rs1, 0, 0x63) }
func asmBLT(rs1, rs2 uint32, imm int32) uint32 { return encodeB(uint32(imm), rs2, rs1, 4, 0x63) }
func asmSW(rs1, rs2 uint32, imm int32) uint32  { return encodeS(uint32(imm), rs2, rs1, 2, 0x23) }
func asmLW(rd, rs1 uint32, imm int32) uint32   { return encodeI(uint32(imm), rs1, 2, rd, 0x3) }
func asmJAL(rd uint32, imm int32) uint32       { return encodeJ(uint32(imm), rd, 0x6F) }
func asmJALR(rd, rs1 uint32, imm int32) uint32 { return encodeI(uint32(imm), rs1, 0, rd, 0x67) }

const termWord = Terminator // addi a0, zero, 0xFF, already that exact encoding
