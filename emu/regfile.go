package emu

// Register file geometry.
const (
	// NumGlobals is the count of global registers r0 through r9.
	// r0 is hardwired to zero.
	NumGlobals = 10

	// NumVisible is the count of registers a program can name.
	NumVisible = 32

	// NumWindows is the count of overlapping register windows.
	NumWindows = 8

	// regsPerWindow is how many new physical registers each window
	// adds. The remaining six visible windowed registers overlap the
	// adjacent window.
	regsPerWindow = 16

	// numWindowed is the size of the circular windowed bank.
	numWindowed = NumWindows * regsPerWindow
)

// RegFile represents the RISC II register file: ten globals shared by
// all windows and a circular bank of 128 windowed registers. A window
// pointer selects which 22 windowed registers are visible as r10-r31;
// the caller's r10-r15 are the callee's r26-r31.
type RegFile struct {
	globals  [NumGlobals]uint32
	windowed [numWindowed]uint32
}

// NewRegFile creates a register file with all registers cleared.
func NewRegFile() *RegFile {
	return &RegFile{}
}

// physIndex maps a visible windowed register, 10 through 31, to its
// slot in the circular bank for the given window.
func physIndex(window, reg uint8) int {
	return (int(window)*regsPerWindow + int(reg) - NumGlobals) % numWindowed
}

// Read reads visible register reg under the given window pointer.
// Register 0 always reads as zero; registers beyond r31 also read as
// zero so sentinel operands stay harmless.
func (r *RegFile) Read(window, reg uint8) uint32 {
	switch {
	case reg == 0 || reg >= NumVisible:
		return 0
	case reg < NumGlobals:
		return r.globals[reg]
	default:
		return r.windowed[physIndex(window%NumWindows, reg)]
	}
}

// Write writes visible register reg under the given window pointer.
// Writes to register 0 and to registers beyond r31 are discarded.
func (r *RegFile) Write(window, reg uint8, value uint32) {
	switch {
	case reg == 0 || reg >= NumVisible:
	case reg < NumGlobals:
		r.globals[reg] = value
	default:
		r.windowed[physIndex(window%NumWindows, reg)] = value
	}
}

// VisibleWindow returns the 32 registers a program sees under the
// given window pointer, indexed by register number.
func (r *RegFile) VisibleWindow(window uint8) [NumVisible]uint32 {
	var regs [NumVisible]uint32
	for reg := uint8(1); reg < NumVisible; reg++ {
		regs[reg] = r.Read(window, reg)
	}
	return regs
}

// Reset clears every register in every window.
func (r *RegFile) Reset() {
	r.globals = [NumGlobals]uint32{}
	r.windowed = [numWindowed]uint32{}
}
