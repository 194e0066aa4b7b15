package emu

import (
	"fmt"

	"github.com/r2lab/r2sim/insts"
)

func (m *Machine) readReg(reg uint8) uint32 {
	return m.regFile.Read(m.psw.CWP, reg)
}

func (m *Machine) writeReg(reg uint8, value uint32) {
	m.regFile.Write(m.psw.CWP, reg, value)
}

// shortSource resolves the second operand of a short-format
// instruction: rs2 or the sign-extended immediate.
func (m *Machine) shortSource(inst *insts.Instruction) uint32 {
	if inst.SrcImm {
		return uint32(inst.Imm)
	}
	return m.readReg(inst.Rs2)
}

// effectiveAddr computes the memory address of a load or store:
// rs1 plus the short source for the indexed forms, PC plus the long
// immediate for the PC-relative forms.
func (m *Machine) effectiveAddr(inst *insts.Instruction) uint32 {
	if inst.Format == insts.FormatLong {
		return m.pc + uint32(inst.Imm)
	}
	return m.readReg(inst.Rs1) + m.shortSource(inst)
}

// setZN latches only the zero and negative flags, the rule for the
// special-register reads.
func (m *Machine) setZN(value uint32) {
	m.psw.Z = value == 0
	m.psw.N = value&0x80000000 != 0
}

// execute runs one decoded instruction against architectural state.
// It returns a non-nil target when a transfer was taken; the caller
// schedules it behind the delay slot. A returned trap means no
// architectural state was modified. A returned error is fatal.
func (m *Machine) execute(inst *insts.Instruction) (*uint32, *Trap, error) {
	switch inst.Op {
	case insts.OpAdd:
		m.writeReg(inst.Rd, m.alu.Add(m.readReg(inst.Rs1), m.shortSource(inst), false, inst.SCC))
	case insts.OpAddc:
		m.writeReg(inst.Rd, m.alu.Add(m.readReg(inst.Rs1), m.shortSource(inst), m.psw.C, inst.SCC))
	case insts.OpSub:
		m.writeReg(inst.Rd, m.alu.Sub(m.readReg(inst.Rs1), m.shortSource(inst), false, inst.SCC))
	case insts.OpSubc:
		m.writeReg(inst.Rd, m.alu.Sub(m.readReg(inst.Rs1), m.shortSource(inst), !m.psw.C, inst.SCC))
	case insts.OpSubi:
		m.writeReg(inst.Rd, m.alu.Sub(m.shortSource(inst), m.readReg(inst.Rs1), false, inst.SCC))
	case insts.OpSubci:
		m.writeReg(inst.Rd, m.alu.Sub(m.shortSource(inst), m.readReg(inst.Rs1), !m.psw.C, inst.SCC))

	case insts.OpAnd:
		m.writeReg(inst.Rd, m.alu.And(m.readReg(inst.Rs1), m.shortSource(inst), inst.SCC))
	case insts.OpOr:
		m.writeReg(inst.Rd, m.alu.Or(m.readReg(inst.Rs1), m.shortSource(inst), inst.SCC))
	case insts.OpXor:
		m.writeReg(inst.Rd, m.alu.Xor(m.readReg(inst.Rs1), m.shortSource(inst), inst.SCC))

	case insts.OpSll:
		m.writeReg(inst.Rd, m.alu.Sll(m.readReg(inst.Rs1), m.shortSource(inst), inst.SCC))
	case insts.OpSrl:
		m.writeReg(inst.Rd, m.alu.Srl(m.readReg(inst.Rs1), m.shortSource(inst), inst.SCC))
	case insts.OpSra:
		m.writeReg(inst.Rd, m.alu.Sra(m.readReg(inst.Rs1), m.shortSource(inst), inst.SCC))

	case insts.OpLdhi:
		m.writeReg(inst.Rd, m.alu.LoadResult(uint32(inst.Imm)<<13, inst.SCC))

	case insts.OpGetPSW:
		value := m.psw.PackWord()
		m.writeReg(inst.Rd, value)
		if inst.SCC {
			m.setZN(value)
		}
	case insts.OpGetLPC:
		m.writeReg(inst.Rd, m.lstpc)
		if inst.SCC {
			m.setZN(m.lstpc)
		}
	case insts.OpPutPSW:
		if inst.SCC {
			// putpsw updating the codes it replaces is undefined;
			// treat it as an illegal encoding.
			return nil, &Trap{Kind: TrapIllegalInstruction}, nil
		}
		m.pendingPSW = UnpackPSW(m.readReg(inst.Rs1) + m.shortSource(inst))
		m.pswCountdown = pswWriteDelay

	case insts.OpCalli:
		next := (m.psw.CWP + NumWindows - 1) % NumWindows
		if next == m.psw.SWP {
			return nil, &Trap{Kind: TrapWindowOverflow}, nil
		}
		m.psw.CWP = next
		m.writeReg(inst.Rd, m.lstpc)
		if inst.SCC {
			m.setZN(m.lstpc)
		}

	case insts.OpCallx, insts.OpCallr:
		var addr uint32
		if inst.Op == insts.OpCallx {
			addr = m.readReg(inst.Rs1) + m.shortSource(inst)
		} else {
			addr = m.pc + uint32(inst.Imm)
		}
		next := (m.psw.CWP + NumWindows - 1) % NumWindows
		if next == m.psw.SWP {
			return nil, &Trap{Kind: TrapWindowOverflow}, nil
		}
		m.psw.CWP = next
		// The return address lands in the new window, where the
		// callee and a later ret can see it.
		m.writeReg(inst.Rd, m.pc)
		return &addr, nil, nil

	case insts.OpJmpx:
		if condTrue(inst.Cond, m.psw) {
			addr := m.readReg(inst.Rs1) + m.shortSource(inst)
			return &addr, nil, nil
		}
	case insts.OpJmpr:
		if condTrue(inst.Cond, m.psw) {
			addr := m.pc + uint32(inst.Imm)
			return &addr, nil, nil
		}

	case insts.OpRet, insts.OpReti:
		if !condTrue(inst.Cond, m.psw) {
			break
		}
		if m.psw.CWP == m.psw.SWP {
			return nil, &Trap{Kind: TrapWindowUnderflow}, nil
		}
		// A call saves its own address, so ret resumes two words past
		// it, behind the call's delay slot. Interrupt entry saves the
		// interrupted instruction itself and has no delay slot, so
		// reti resumes exactly there.
		addr := m.readReg(inst.Rs1) + 8
		if inst.Op == insts.OpReti {
			addr = m.readReg(inst.Rs1)
			m.psw.Sys = m.psw.PrevSys
			m.psw.IntEnabled = true
		}
		m.psw.CWP = (m.psw.CWP + 1) % NumWindows
		return &addr, nil, nil

	default:
		if inst.IsMemory() {
			return m.executeMemory(inst)
		}
		return nil, nil, fmt.Errorf("invariant violation: no executor for %s", inst.Op)
	}

	return nil, nil, nil
}

// executeMemory performs the load and store class. Faults surface as
// bus fault traps before any register is written.
func (m *Machine) executeMemory(inst *insts.Instruction) (*uint32, *Trap, error) {
	addr := m.effectiveAddr(inst)

	if inst.IsStore() {
		value := m.readReg(inst.Rd)
		var err error
		switch inst.MemWidth() {
		case insts.WidthWord:
			err = m.bus.WriteWord(addr, value)
		case insts.WidthHalf:
			err = m.bus.WriteHalf(addr, uint16(value))
		case insts.WidthByte:
			err = m.bus.WriteByte(addr, uint8(value))
		}
		if err != nil {
			return nil, &Trap{Kind: TrapBusFault, Addr: faultAddr(err, addr)}, nil
		}
		m.alu.StoreFlags(inst.SCC)
		return nil, nil, nil
	}

	var value uint32
	switch inst.MemWidth() {
	case insts.WidthWord:
		word, err := m.bus.ReadWord(addr)
		if err != nil {
			return nil, &Trap{Kind: TrapBusFault, Addr: faultAddr(err, addr)}, nil
		}
		value = word
	case insts.WidthHalf:
		half, err := m.bus.ReadHalf(addr)
		if err != nil {
			return nil, &Trap{Kind: TrapBusFault, Addr: faultAddr(err, addr)}, nil
		}
		value = uint32(half)
		if inst.IsSignedLoad() {
			value = uint32(int32(int16(half)))
		}
	case insts.WidthByte:
		b, err := m.bus.ReadByte(addr)
		if err != nil {
			return nil, &Trap{Kind: TrapBusFault, Addr: faultAddr(err, addr)}, nil
		}
		value = uint32(b)
		if inst.IsSignedLoad() {
			value = uint32(int32(int8(b)))
		}
	}

	m.writeReg(inst.Rd, m.alu.LoadResult(value, inst.SCC))
	return nil, nil, nil
}
