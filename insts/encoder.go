package insts

import "fmt"

// Encode packs the instruction back into its 32-bit machine word. It is
// the inverse of Decoder.Decode for every word Decode accepts.
func (i Instruction) Encode() uint32 {
	word := uint32(i.Op) << 25
	if i.SCC {
		word |= sccBit
	}

	dest := uint32(i.Rd)
	if i.IsConditional() {
		dest = uint32(i.Cond)
	}
	word |= (dest << 19) & destMask

	switch i.Format {
	case FormatShort:
		word |= (uint32(i.Rs1) << 14) & rs1Mask
		if i.SrcImm {
			word |= srcImmBit
			word |= uint32(i.Imm) & imm13Mask
		} else {
			word |= uint32(i.Rs2) & rs2Mask
		}
	case FormatLong:
		word |= uint32(i.Imm) & imm19Mask
	}

	return word
}

// Short builds a short-format three-register instruction.
func Short(op Op, scc bool, rd, rs1, rs2 uint8) uint32 {
	return Instruction{
		Op:     op,
		Format: FormatShort,
		SCC:    scc,
		Rd:     rd,
		Rs1:    rs1,
		Rs2:    rs2,
	}.Encode()
}

// ShortImm builds a short-format instruction with a 13-bit immediate
// second operand. Immediates outside the signed 13-bit range cannot be
// represented and make ShortImm panic.
func ShortImm(op Op, scc bool, rd, rs1 uint8, imm int32) uint32 {
	if imm < -0x1000 || imm > 0x0FFF {
		panic(fmt.Sprintf("immediate %d out of 13-bit range", imm))
	}
	return Instruction{
		Op:     op,
		Format: FormatShort,
		SCC:    scc,
		Rd:     rd,
		Rs1:    rs1,
		SrcImm: true,
		Imm:    imm,
	}.Encode()
}

// Long builds a long-format instruction with a 19-bit immediate.
func Long(op Op, scc bool, rd uint8, imm int32) uint32 {
	return Instruction{
		Op:     op,
		Format: FormatLong,
		SCC:    scc,
		Rd:     rd,
		Imm:    imm,
	}.Encode()
}

// CondShortImm builds a conditional short-format instruction, placing
// the condition code in the destination field.
func CondShortImm(op Op, cond Cond, rs1 uint8, imm int32) uint32 {
	if imm < -0x1000 || imm > 0x0FFF {
		panic(fmt.Sprintf("immediate %d out of 13-bit range", imm))
	}
	return Instruction{
		Op:     op,
		Format: FormatShort,
		Rd:     uint8(cond),
		Rs1:    rs1,
		SrcImm: true,
		Imm:    imm,
		Cond:   cond,
	}.Encode()
}

// CondLong builds a conditional long-format instruction.
func CondLong(op Op, cond Cond, imm int32) uint32 {
	return Instruction{
		Op:     op,
		Format: FormatLong,
		Rd:     uint8(cond),
		Imm:    imm,
		Cond:   cond,
	}.Encode()
}
