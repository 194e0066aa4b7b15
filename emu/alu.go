package emu

// ALU implements the RISC II arithmetic, logic, and shift operations.
// Results are 32-bit; each operation optionally latches the condition
// codes into the attached status word.
type ALU struct {
	psw *PSW
}

// NewALU creates an ALU that writes condition codes into psw.
func NewALU(psw *PSW) *ALU {
	return &ALU{psw: psw}
}

// Add computes op1 + op2 + carryIn.
func (a *ALU) Add(op1, op2 uint32, carryIn, scc bool) uint32 {
	var cin uint64
	if carryIn {
		cin = 1
	}
	wide := uint64(op1) + uint64(op2) + cin
	result := uint32(wide)

	if scc {
		a.setResultFlags(result)
		a.psw.C = wide > 0xFFFFFFFF
		a.psw.V = sameSign(op1, op2) && !sameSign(op1, result)
	}
	return result
}

// Sub computes op1 - op2 - borrow. The carry flag is set to "no
// borrow": it is clear only when the subtraction wraps.
func (a *ALU) Sub(op1, op2 uint32, borrow, scc bool) uint32 {
	var bin uint64
	if borrow {
		bin = 1
	}
	result := uint32(uint64(op1) - uint64(op2) - bin)

	if scc {
		a.setResultFlags(result)
		a.psw.C = uint64(op1) >= uint64(op2)+bin
		a.psw.V = !sameSign(op1, op2) && sameSign(op2, result)
	}
	return result
}

// And computes op1 & op2.
func (a *ALU) And(op1, op2 uint32, scc bool) uint32 {
	return a.logical(op1&op2, scc)
}

// Or computes op1 | op2.
func (a *ALU) Or(op1, op2 uint32, scc bool) uint32 {
	return a.logical(op1|op2, scc)
}

// Xor computes op1 ^ op2.
func (a *ALU) Xor(op1, op2 uint32, scc bool) uint32 {
	return a.logical(op1^op2, scc)
}

// Sll shifts value left by the low five bits of amount.
func (a *ALU) Sll(value, amount uint32, scc bool) uint32 {
	return a.logical(value<<(amount&0x1F), scc)
}

// Srl shifts value right logically by the low five bits of amount.
func (a *ALU) Srl(value, amount uint32, scc bool) uint32 {
	return a.logical(value>>(amount&0x1F), scc)
}

// Sra shifts value right arithmetically by the low five bits of
// amount, replicating the sign bit.
func (a *ALU) Sra(value, amount uint32, scc bool) uint32 {
	return a.logical(uint32(int32(value)>>(amount&0x1F)), scc)
}

// LoadResult latches condition codes for a completed load. Loads share
// the logical flag rule: Z and N from the value, C and V cleared.
func (a *ALU) LoadResult(value uint32, scc bool) uint32 {
	return a.logical(value, scc)
}

// StoreFlags applies the store flag rule: C and V cleared, Z and N
// untouched.
func (a *ALU) StoreFlags(scc bool) {
	if scc {
		a.psw.C = false
		a.psw.V = false
	}
}

func (a *ALU) logical(result uint32, scc bool) uint32 {
	if scc {
		a.setResultFlags(result)
		a.psw.C = false
		a.psw.V = false
	}
	return result
}

func (a *ALU) setResultFlags(result uint32) {
	a.psw.Z = result == 0
	a.psw.N = result&0x80000000 != 0
}

func sameSign(x, y uint32) bool {
	return (x^y)&0x80000000 == 0
}
