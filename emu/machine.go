package emu

import (
	"context"
	"fmt"
	"io"

	"github.com/r2lab/r2sim/insts"
)

// Default machine geometry.
const (
	DefaultMemSize     = 1 << 20
	DefaultResetVector = 0x00000000
	DefaultIntVector   = 0x00000010
)

// putpsw takes effect after the following instruction retires. The
// countdown starts at two so the instruction in flight still sees the
// old status word.
const pswWriteDelay = 2

// Stats counts retired work since the last reset.
type Stats struct {
	Instructions   uint64
	Cycles         uint64
	MemOps         uint64
	TakenTransfers uint64
	Traps          uint64
	Interrupts     uint64
}

// StepResult reports what a single Step did.
type StepResult struct {
	// Halted is true when the machine is stopped, either because a
	// trap went unresolved or because the host halted it.
	Halted bool

	// Trap is the condition raised during this step, if any.
	Trap *Trap

	// Interrupt is true when the step was consumed by interrupt entry.
	Interrupt bool

	// Err is a fatal emulator error. Guest-visible conditions are
	// reported through Trap instead.
	Err error
}

// Machine is a functional RISC II processor: the windowed register
// file, the status word, the PC chain of the two-stage pipeline, and
// the bus connecting memory and devices.
type Machine struct {
	regFile *RegFile
	psw     PSW
	alu     *ALU
	decoder *insts.Decoder
	bus     *Bus
	sink    TrapSink

	// pc is the executing instruction, nxtpc the one behind it in the
	// pipeline, lstpc the one that last retired. A taken transfer
	// lands in nxtpc, which is what makes the next instruction a
	// delay slot.
	pc    uint32
	nxtpc uint32
	lstpc uint32

	// branchPending marks that nxtpc holds a transfer target, so the
	// instruction at pc is executing in a delay slot.
	branchPending bool

	pendingPSW   PSW
	pswCountdown int

	resetVector uint32
	intVector   uint32
	intLine     bool

	halted  bool
	maxInst uint64
	stats   Stats
	trace   io.Writer
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithMemSize sets the RAM size in bytes.
func WithMemSize(size uint32) MachineOption {
	return func(m *Machine) {
		m.bus = NewBus(NewRAM(size))
	}
}

// WithBus replaces the whole bus, RAM and device mappings included.
func WithBus(bus *Bus) MachineOption {
	return func(m *Machine) {
		m.bus = bus
	}
}

// WithTrapSink routes raised traps to sink instead of halting.
func WithTrapSink(sink TrapSink) MachineOption {
	return func(m *Machine) {
		m.sink = sink
	}
}

// WithResetVector sets the address execution starts from after Reset.
func WithResetVector(addr uint32) MachineOption {
	return func(m *Machine) {
		m.resetVector = addr
	}
}

// WithInterruptVector sets the address interrupt entry jumps to.
func WithInterruptVector(addr uint32) MachineOption {
	return func(m *Machine) {
		m.intVector = addr
	}
}

// WithTrace writes a one-line disassembly of every retired
// instruction to w.
func WithTrace(w io.Writer) MachineOption {
	return func(m *Machine) {
		m.trace = w
	}
}

// WithMaxInstructions bounds Run. A value of 0 means no limit.
func WithMaxInstructions(max uint64) MachineOption {
	return func(m *Machine) {
		m.maxInst = max
	}
}

// NewMachine creates a machine with default geometry and applies the
// options. The machine comes out reset and ready to step.
func NewMachine(opts ...MachineOption) *Machine {
	m := &Machine{
		regFile:     NewRegFile(),
		decoder:     insts.NewDecoder(),
		bus:         NewBus(NewRAM(DefaultMemSize)),
		sink:        haltSink{},
		resetVector: DefaultResetVector,
		intVector:   DefaultIntVector,
	}
	m.alu = NewALU(&m.psw)

	for _, opt := range opts {
		opt(m)
	}

	m.Reset()
	return m
}

// Reset returns the processor to its power-on state: all windows
// cleared, system mode with interrupts disabled, PC chain primed from
// the reset vector. Memory contents are left alone.
func (m *Machine) Reset() {
	m.regFile.Reset()
	m.psw = PSW{Sys: true}
	m.pc = m.resetVector
	m.nxtpc = m.resetVector + 4
	m.lstpc = 0
	m.branchPending = false
	m.pswCountdown = 0
	m.halted = false
	m.stats = Stats{}
}

// Bus returns the machine's bus for image loading and device mapping.
func (m *Machine) Bus() *Bus {
	return m.bus
}

// RegFile exposes the register file for loaders and debuggers.
func (m *Machine) RegFile() *RegFile {
	return m.regFile
}

// PSW returns the current status word.
func (m *Machine) PSW() PSW {
	return m.psw
}

// SetPSW replaces the status word immediately. This is a host
// operation; guest writes go through putpsw and are delayed.
func (m *Machine) SetPSW(p PSW) {
	m.psw = p
}

// PC returns the address of the next instruction Step will execute.
func (m *Machine) PC() uint32 {
	return m.pc
}

// SetPC redirects execution, clearing any pending delay slot.
func (m *Machine) SetPC(addr uint32) {
	m.pc = addr
	m.nxtpc = addr + 4
	m.branchPending = false
}

// SetPCChain restores the full pipeline PC chain, including a transfer
// already in flight. Used by save-state restore.
func (m *Machine) SetPCChain(pc, nxtpc, lstpc uint32) {
	m.pc = pc
	m.nxtpc = nxtpc
	m.lstpc = lstpc
	m.branchPending = nxtpc != pc+4
}

// Stats returns the counters accumulated since Reset.
func (m *Machine) Stats() Stats {
	return m.stats
}

// Halted reports whether the machine is stopped.
func (m *Machine) Halted() bool {
	return m.halted
}

// Halt stops the machine. Step becomes a no-op until Reset or Resume.
func (m *Machine) Halt() {
	m.halted = true
}

// Resume clears the halted state without touching anything else.
func (m *Machine) Resume() {
	m.halted = false
}

// AssertInterrupt drives the external interrupt line. The level is
// sampled at the top of every step; entry happens only while the
// status word has interrupts enabled.
func (m *Machine) AssertInterrupt(level bool) {
	m.intLine = level
}

// Step executes one instruction. It is the only unit of progress;
// nothing inside it interleaves with another Step or a Snapshot.
func (m *Machine) Step() StepResult {
	if m.halted {
		return StepResult{Halted: true}
	}

	if m.intLine && m.psw.IntEnabled {
		return m.enterInterrupt()
	}

	if m.pc%4 != 0 {
		return m.raiseTrap(TrapBusFault, m.pc)
	}

	word, err := m.bus.ReadWord(m.pc)
	if err != nil {
		return m.raiseTrap(TrapBusFault, faultAddr(err, m.pc))
	}

	inst, err := m.decoder.Decode(word)
	if err != nil {
		return m.raiseTrap(TrapIllegalInstruction, 0)
	}

	if inst.IsPrivileged() && !m.psw.Sys {
		return m.raiseTrap(TrapPrivilegeViolation, 0)
	}

	if m.trace != nil {
		fmt.Fprintf(m.trace, "0x%08X: %s\n", m.pc, inst)
	}

	target, trap, err := m.execute(inst)
	if err != nil {
		m.halted = true
		return StepResult{Halted: true, Err: err}
	}
	if trap != nil {
		return m.raiseTrap(trap.Kind, trap.Addr)
	}

	if target != nil && m.branchPending {
		m.halted = true
		return StepResult{Halted: true, Err: fmt.Errorf(
			"invariant violation: transfer at 0x%08X inside the delay slot of another transfer", m.pc)}
	}

	m.retire(inst, target)
	return StepResult{}
}

// retire advances the PC chain and applies end-of-instruction
// bookkeeping.
func (m *Machine) retire(inst *insts.Instruction, target *uint32) {
	m.lstpc = m.pc
	m.pc = m.nxtpc
	if target != nil {
		m.nxtpc = *target
		m.branchPending = true
		m.stats.TakenTransfers++
	} else {
		m.nxtpc += 4
		m.branchPending = false
	}

	m.stats.Instructions++
	m.stats.Cycles++
	if inst.IsMemory() {
		// Memory instructions occupy the bus for an extra cycle.
		m.stats.Cycles++
		m.stats.MemOps++
	}

	if m.pswCountdown > 0 {
		m.pswCountdown--
		if m.pswCountdown == 0 {
			m.psw = m.pendingPSW
		}
	}
}

// raiseTrap forwards a trap to the sink and either redirects or halts.
// Trap entry has no delay slot.
func (m *Machine) raiseTrap(kind TrapKind, addr uint32) StepResult {
	t := Trap{Kind: kind, PC: m.pc, Addr: addr}
	m.stats.Traps++

	resp := m.sink.Raise(t)
	if !resp.Resume {
		m.halted = true
		return StepResult{Halted: true, Trap: &t}
	}

	m.lstpc = m.pc
	m.pc = resp.ResumeAddr
	m.nxtpc = resp.ResumeAddr + 4
	m.branchPending = false
	return StepResult{Trap: &t}
}

// enterInterrupt performs external interrupt entry: a forced call into
// a fresh window with the interrupted PC saved, system mode entered,
// and further interrupts masked.
func (m *Machine) enterInterrupt() StepResult {
	next := (m.psw.CWP + NumWindows - 1) % NumWindows
	if next == m.psw.SWP {
		return m.raiseTrap(TrapWindowOverflow, 0)
	}

	m.psw.CWP = next
	m.regFile.Write(m.psw.CWP, interruptLinkReg, m.pc)
	m.psw.PrevSys = m.psw.Sys
	m.psw.Sys = true
	m.psw.IntEnabled = false

	m.lstpc = m.pc
	m.pc = m.intVector
	m.nxtpc = m.intVector + 4
	m.branchPending = false

	m.stats.Interrupts++
	m.stats.Cycles++
	return StepResult{Interrupt: true}
}

// interruptLinkReg is where interrupt entry saves the interrupted PC,
// the top local of the fresh window.
const interruptLinkReg = 25

// Run steps until the machine halts, a fatal error occurs, the
// instruction limit is reached, or ctx is done.
func (m *Machine) Run(ctx context.Context) StepResult {
	var last StepResult
	for !m.halted {
		if err := ctx.Err(); err != nil {
			last.Err = err
			return last
		}
		if m.maxInst > 0 && m.stats.Instructions >= m.maxInst {
			return last
		}
		last = m.Step()
		if last.Err != nil || last.Halted {
			return last
		}
	}
	return last
}

func faultAddr(err error, fallback uint32) uint32 {
	if access, ok := err.(*AccessError); ok {
		return access.Addr
	}
	return fallback
}
