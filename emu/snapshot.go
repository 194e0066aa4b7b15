package emu

import (
	"fmt"
	"strings"

	"github.com/r2lab/r2sim/insts"
)

// Snapshot is a read-only view of the architectural state, taken
// between steps for debuggers and state dumps. It copies everything it
// reports, so holding one across further steps is safe.
type Snapshot struct {
	// Registers holds the 32 registers visible under the current
	// window pointer.
	Registers [NumVisible]uint32

	PSW PSW

	// The PC chain: PC is about to execute, NextPC is behind it in
	// the pipeline, LastPC already retired.
	PC     uint32
	NextPC uint32
	LastPC uint32

	// Executing and Fetching are the decoded instructions occupying
	// the two pipeline stages, at PC and NextPC. Either is nil when
	// its word does not fetch or decode.
	Executing *insts.Instruction
	Fetching  *insts.Instruction

	// InDelaySlot is true when the instruction at PC sits in the
	// shadow of a taken transfer.
	InDelaySlot bool

	// PSWWritePending is true while a putpsw is still in flight.
	PSWWritePending bool

	InterruptLine bool
	Halted        bool

	Stats Stats
}

// Snapshot captures the current architectural state. It performs no
// mutation and must not be interleaved with Step.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		Registers:       m.regFile.VisibleWindow(m.psw.CWP),
		PSW:             m.psw,
		PC:              m.pc,
		NextPC:          m.nxtpc,
		LastPC:          m.lstpc,
		Executing:       m.decodeAt(m.pc),
		Fetching:        m.decodeAt(m.nxtpc),
		InDelaySlot:     m.branchPending,
		PSWWritePending: m.pswCountdown > 0,
		InterruptLine:   m.intLine,
		Halted:          m.halted,
		Stats:           m.stats,
	}
}

// decodeAt peeks at the instruction a pipeline stage holds. A fetch
// or decode failure yields nil; the step that reaches the address
// reports the trap.
func (m *Machine) decodeAt(addr uint32) *insts.Instruction {
	if addr%4 != 0 {
		return nil
	}
	word, err := m.bus.ReadWord(addr)
	if err != nil {
		return nil
	}
	inst, err := m.decoder.Decode(word)
	if err != nil {
		return nil
	}
	return inst
}

// Dump renders the snapshot as a register dump, four registers per
// line, with the PC chain and status word on top.
func (s Snapshot) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pc=0x%08X nxtpc=0x%08X lstpc=0x%08X\n", s.PC, s.NextPC, s.LastPC)
	fmt.Fprintf(&b, "psw: %s\n", s.PSW)
	for i := 0; i < NumVisible; i += 4 {
		for j := i; j < i+4; j++ {
			fmt.Fprintf(&b, "r%-2d=0x%08X ", j, s.Registers[j])
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Disassemble decodes count instructions starting at addr. Words that
// fail to fetch or decode render as raw data so the listing never
// stops short.
func (m *Machine) Disassemble(addr uint32, count int) []string {
	lines := make([]string, 0, count)
	for i := 0; i < count; i++ {
		a := addr + uint32(i)*4
		word, err := m.bus.ReadWord(a)
		if err != nil {
			lines = append(lines, fmt.Sprintf("0x%08X: <fault>", a))
			continue
		}
		inst, err := m.decoder.Decode(word)
		if err != nil {
			lines = append(lines, fmt.Sprintf("0x%08X: .word 0x%08X", a, word))
			continue
		}
		lines = append(lines, fmt.Sprintf("0x%08X: %s", a, inst))
	}
	return lines
}
