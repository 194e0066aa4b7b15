// Package insts provides RISC II instruction definitions, decoding, and
// encoding.
package insts

import "fmt"

// Op represents a RISC II opcode. The value is the 7-bit opcode field
// itself (instruction word bits <31:25>).
type Op uint8

// RISC II opcodes.
const (
	OpCalli  Op = 0x01 // interrupt call
	OpGetPSW Op = 0x02 // read processor status word
	OpGetLPC Op = 0x03 // read last program counter
	OpPutPSW Op = 0x04 // write processor status word
	OpCallx  Op = 0x08 // call, register indexed
	OpCallr  Op = 0x09 // call, PC relative
	OpJmpx   Op = 0x0C // conditional jump, register indexed
	OpJmpr   Op = 0x0D // conditional jump, PC relative
	OpRet    Op = 0x0E // conditional return
	OpReti   Op = 0x0F // conditional return from interrupt

	OpSll   Op = 0x11 // shift left logical
	OpSra   Op = 0x12 // shift right arithmetic
	OpSrl   Op = 0x13 // shift right logical
	OpLdhi  Op = 0x14 // load immediate high
	OpAnd   Op = 0x15 // bitwise and
	OpOr    Op = 0x16 // bitwise or
	OpXor   Op = 0x17 // bitwise xor
	OpAdd   Op = 0x18 // add
	OpAddc  Op = 0x19 // add with carry
	OpSub   Op = 0x1C // subtract
	OpSubc  Op = 0x1D // subtract with borrow
	OpSubi  Op = 0x1E // subtract inverse
	OpSubci Op = 0x1F // subtract inverse with borrow

	OpLdxw  Op = 0x26 // load word, register indexed
	OpLdrw  Op = 0x27 // load word, PC relative
	OpLdxhu Op = 0x28 // load half unsigned, register indexed
	OpLdrhu Op = 0x29 // load half unsigned, PC relative
	OpLdxhs Op = 0x2A // load half signed, register indexed
	OpLdrhs Op = 0x2B // load half signed, PC relative
	OpLdxbu Op = 0x2C // load byte unsigned, register indexed
	OpLdrbu Op = 0x2D // load byte unsigned, PC relative
	OpLdxbs Op = 0x2E // load byte signed, register indexed
	OpLdrbs Op = 0x2F // load byte signed, PC relative

	OpStxw Op = 0x36 // store word, register indexed
	OpStrw Op = 0x37 // store word, PC relative
	OpStxh Op = 0x3A // store half, register indexed
	OpStrh Op = 0x3B // store half, PC relative
	OpStxb Op = 0x3E // store byte, register indexed
	OpStrb Op = 0x3F // store byte, PC relative
)

// Format represents one of the two RISC II instruction encodings.
type Format uint8

// Instruction formats. Short format carries rs1 plus a short source
// (register or 13-bit immediate); long format carries a 19-bit immediate.
const (
	FormatUnknown Format = iota
	FormatShort
	FormatLong
)

// MemWidth is the access width of a load or store instruction.
type MemWidth uint8

// Memory access widths.
const (
	WidthNone MemWidth = iota
	WidthByte
	WidthHalf
	WidthWord
)

// Cond represents a RISC II condition code, encoded in the destination
// field of conditional transfer instructions.
type Cond uint8

// RISC II condition codes. Code 0 is unassigned and illegal.
const (
	CondGt   Cond = 1  // greater than (signed)
	CondLe   Cond = 2  // less than or equal (signed)
	CondGe   Cond = 3  // greater than or equal (signed)
	CondLt   Cond = 4  // less than (signed)
	CondHi   Cond = 5  // higher than (unsigned)
	CondLos  Cond = 6  // lower than or same (unsigned)
	CondLonc Cond = 7  // lower than, no carry (unsigned)
	CondHisc Cond = 8  // higher than or same, carry (unsigned)
	CondPl   Cond = 9  // plus
	CondMi   Cond = 10 // minus
	CondNe   Cond = 11 // not equal
	CondEq   Cond = 12 // equal
	CondNv   Cond = 13 // no overflow
	CondV    Cond = 14 // overflow
	CondAlw  Cond = 15 // always
)

var condNames = [16]string{
	"?", "gt", "le", "ge", "lt", "hi", "los", "lonc",
	"hisc", "pl", "mi", "ne", "eq", "nv", "v", "alw",
}

func (c Cond) String() string {
	if c > 15 {
		return "?"
	}
	return condNames[c]
}

// opInfo describes the static properties of one opcode.
type opInfo struct {
	name        string
	format      Format
	width       MemWidth // WidthNone for non-memory instructions
	store       bool
	signedLoad  bool
	pcRelative  bool // long-format address or target is PC+imm19
	conditional bool // rd field holds a condition code
	privileged  bool
	windowDelta int // CWP change: -1 for calls, +1 for returns
}

// opTable maps every assigned opcode to its properties. Absence from the
// table means the bit pattern is illegal.
var opTable = map[Op]opInfo{
	OpCalli:  {name: "calli", format: FormatShort, privileged: true, windowDelta: -1},
	OpGetPSW: {name: "getpsw", format: FormatShort},
	OpGetLPC: {name: "getlpc", format: FormatShort, privileged: true},
	OpPutPSW: {name: "putpsw", format: FormatShort, privileged: true},
	OpCallx:  {name: "callx", format: FormatShort, windowDelta: -1},
	OpCallr:  {name: "callr", format: FormatLong, pcRelative: true, windowDelta: -1},
	OpJmpx:   {name: "jmpx", format: FormatShort, conditional: true},
	OpJmpr:   {name: "jmpr", format: FormatLong, pcRelative: true, conditional: true},
	OpRet:    {name: "ret", format: FormatShort, conditional: true, windowDelta: 1},
	OpReti:   {name: "reti", format: FormatShort, conditional: true, privileged: true, windowDelta: 1},

	OpSll:   {name: "sll", format: FormatShort},
	OpSra:   {name: "sra", format: FormatShort},
	OpSrl:   {name: "srl", format: FormatShort},
	OpLdhi:  {name: "ldhi", format: FormatLong},
	OpAnd:   {name: "and", format: FormatShort},
	OpOr:    {name: "or", format: FormatShort},
	OpXor:   {name: "xor", format: FormatShort},
	OpAdd:   {name: "add", format: FormatShort},
	OpAddc:  {name: "addc", format: FormatShort},
	OpSub:   {name: "sub", format: FormatShort},
	OpSubc:  {name: "subc", format: FormatShort},
	OpSubi:  {name: "subi", format: FormatShort},
	OpSubci: {name: "subci", format: FormatShort},

	OpLdxw:  {name: "ldxw", format: FormatShort, width: WidthWord},
	OpLdrw:  {name: "ldrw", format: FormatLong, width: WidthWord, pcRelative: true},
	OpLdxhu: {name: "ldxhu", format: FormatShort, width: WidthHalf},
	OpLdrhu: {name: "ldrhu", format: FormatLong, width: WidthHalf, pcRelative: true},
	OpLdxhs: {name: "ldxhs", format: FormatShort, width: WidthHalf, signedLoad: true},
	OpLdrhs: {name: "ldrhs", format: FormatLong, width: WidthHalf, signedLoad: true, pcRelative: true},
	OpLdxbu: {name: "ldxbu", format: FormatShort, width: WidthByte},
	OpLdrbu: {name: "ldrbu", format: FormatLong, width: WidthByte, pcRelative: true},
	OpLdxbs: {name: "ldxbs", format: FormatShort, width: WidthByte, signedLoad: true},
	OpLdrbs: {name: "ldrbs", format: FormatLong, width: WidthByte, signedLoad: true, pcRelative: true},

	OpStxw: {name: "stxw", format: FormatShort, width: WidthWord, store: true},
	OpStrw: {name: "strw", format: FormatLong, width: WidthWord, store: true, pcRelative: true},
	OpStxh: {name: "stxh", format: FormatShort, width: WidthHalf, store: true},
	OpStrh: {name: "strh", format: FormatLong, width: WidthHalf, store: true, pcRelative: true},
	OpStxb: {name: "stxb", format: FormatShort, width: WidthByte, store: true},
	OpStrb: {name: "strb", format: FormatLong, width: WidthByte, store: true, pcRelative: true},
}

// Valid reports whether the opcode is assigned in the RISC II ISA.
func (o Op) Valid() bool {
	_, ok := opTable[o]
	return ok
}

func (o Op) String() string {
	if info, ok := opTable[o]; ok {
		return info.name
	}
	return fmt.Sprintf("op(0x%02X)", uint8(o))
}

// Instruction represents a decoded RISC II instruction.
type Instruction struct {
	Op     Op     // Operation code (word bits <31:25>)
	Format Format // Encoding format

	SCC bool  // true if the instruction updates the condition codes
	Rd  uint8 // Destination register (also store data source)
	Rs1 uint8 // First source register (short format)

	// Short source: either Rs2 or a sign-extended 13-bit immediate,
	// selected by SrcImm.
	Rs2    uint8
	SrcImm bool
	Imm    int32 // sign-extended imm13, sign-extended imm19, or raw imm19 for ldhi

	Cond Cond // Condition code for jmpx/jmpr/ret/reti (from the Rd field)
}

// IsMemory reports whether the instruction reads or writes data memory.
func (i *Instruction) IsMemory() bool {
	return opTable[i.Op].width != WidthNone
}

// IsStore reports whether the instruction writes data memory.
func (i *Instruction) IsStore() bool {
	return opTable[i.Op].store
}

// IsSignedLoad reports whether a load sign-extends its result.
func (i *Instruction) IsSignedLoad() bool {
	return opTable[i.Op].signedLoad
}

// MemWidth returns the access width for load/store instructions.
func (i *Instruction) MemWidth() MemWidth {
	return opTable[i.Op].width
}

// IsPCRelative reports whether the long-format immediate is an offset
// from the instruction's own address.
func (i *Instruction) IsPCRelative() bool {
	return opTable[i.Op].pcRelative
}

// IsConditional reports whether the Rd field carries a condition code.
func (i *Instruction) IsConditional() bool {
	return opTable[i.Op].conditional
}

// IsPrivileged reports whether the instruction requires system mode.
func (i *Instruction) IsPrivileged() bool {
	return opTable[i.Op].privileged
}

// WindowDelta returns the CWP change the instruction performs:
// -1 for the call class, +1 for the return class, 0 otherwise.
func (i *Instruction) WindowDelta() int {
	return opTable[i.Op].windowDelta
}

// shortSource renders the second operand of a short-format instruction.
func (i *Instruction) shortSource() string {
	if i.SrcImm {
		return fmt.Sprintf("%d", i.Imm)
	}
	return fmt.Sprintf("r%d", i.Rs2)
}

// String disassembles the instruction into assembler-like text.
func (i *Instruction) String() string {
	info, ok := opTable[i.Op]
	if !ok {
		return fmt.Sprintf("illegal(0x%02X)", uint8(i.Op))
	}

	scc := ""
	if i.SCC {
		scc = "{c}"
	}

	switch {
	case info.conditional && info.format == FormatShort:
		return fmt.Sprintf("%s%s %s, r%d, %s",
			info.name, scc, i.Cond, i.Rs1, i.shortSource())
	case info.conditional:
		return fmt.Sprintf("%s%s %s, %d", info.name, scc, i.Cond, i.Imm)
	case info.format == FormatLong:
		return fmt.Sprintf("%s%s r%d, %d", info.name, scc, i.Rd, i.Imm)
	default:
		return fmt.Sprintf("%s%s r%d, r%d, %s",
			info.name, scc, i.Rd, i.Rs1, i.shortSource())
	}
}
