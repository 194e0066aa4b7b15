package insts

import "fmt"

// Bit field locations within the 32-bit instruction word.
const (
	sccBit    = 0x01000000 // bit 24: update condition codes
	destMask  = 0x00F80000 // bits <23:19>: rd or condition code
	rs1Mask   = 0x0007C000 // bits <18:14>: rs1
	srcImmBit = 0x00002000 // bit 13: short source is an immediate
	imm13Mask = 0x00001FFF // bits <12:0>: short immediate
	imm13Sign = 0x00001000 // bit 12: short immediate sign
	imm19Mask = 0x0007FFFF // bits <18:0>: long immediate
	imm19Sign = 0x00040000 // bit 18: long immediate sign
	rs2Mask   = 0x0000001F // bits <4:0>: rs2
)

// IllegalInstructionError reports a word that does not decode to any
// RISC II instruction.
type IllegalInstructionError struct {
	Word   uint32
	Reason string
}

func (e *IllegalInstructionError) Error() string {
	return fmt.Sprintf("illegal instruction 0x%08X: %s", e.Word, e.Reason)
}

// Decoder decodes RISC II machine words into instructions. Decoding is
// stateless: the same word always yields the same instruction.
type Decoder struct{}

// NewDecoder creates a new RISC II instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit RISC II instruction word. It returns an
// *IllegalInstructionError for unassigned opcode patterns and for
// conditional transfers carrying condition code 0.
func (d *Decoder) Decode(word uint32) (*Instruction, error) {
	op := Op(word >> 25)

	info, ok := opTable[op]
	if !ok {
		return nil, &IllegalInstructionError{Word: word, Reason: "unassigned opcode"}
	}

	inst := &Instruction{
		Op:     op,
		Format: info.format,
		SCC:    word&sccBit != 0,
		Rd:     uint8((word & destMask) >> 19),
	}

	switch info.format {
	case FormatShort:
		inst.Rs1 = uint8((word & rs1Mask) >> 14)
		if word&srcImmBit != 0 {
			inst.SrcImm = true
			inst.Imm = signExtend13(word & imm13Mask)
		} else {
			inst.Rs2 = uint8(word & rs2Mask)
		}
	case FormatLong:
		imm19 := word & imm19Mask
		if info.pcRelative {
			inst.Imm = signExtend19(imm19)
		} else {
			// ldhi keeps the raw 19-bit field; it lands in the
			// destination's top bits, not in an address sum.
			inst.Imm = int32(imm19)
		}
	}

	if info.conditional {
		cond := Cond(inst.Rd)
		if cond == 0 {
			return nil, &IllegalInstructionError{Word: word, Reason: "condition code 0"}
		}
		inst.Cond = cond
	}

	return inst, nil
}

// signExtend13 sign-extends a 13-bit immediate to 32 bits.
func signExtend13(v uint32) int32 {
	if v&imm13Sign != 0 {
		v |= ^uint32(imm13Mask)
	}
	return int32(v)
}

// signExtend19 sign-extends a 19-bit immediate to 32 bits.
func signExtend19(v uint32) int32 {
	if v&imm19Sign != 0 {
		v |= ^uint32(imm19Mask)
	}
	return int32(v)
}
