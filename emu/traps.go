package emu

import "fmt"

// TrapKind identifies a guest-visible exceptional condition.
type TrapKind int

const (
	// TrapIllegalInstruction is raised when a fetched word does not
	// decode to any instruction.
	TrapIllegalInstruction TrapKind = iota

	// TrapBusFault is raised on a memory access fault or a misaligned
	// program counter.
	TrapBusFault

	// TrapWindowOverflow is raised when a call claims the window the
	// saved window pointer protects.
	TrapWindowOverflow

	// TrapWindowUnderflow is raised when a return pops past the saved
	// window pointer.
	TrapWindowUnderflow

	// TrapPrivilegeViolation is raised when user code executes a
	// system-mode instruction.
	TrapPrivilegeViolation
)

var trapKindNames = map[TrapKind]string{
	TrapIllegalInstruction: "illegal instruction",
	TrapBusFault:           "bus fault",
	TrapWindowOverflow:     "window overflow",
	TrapWindowUnderflow:    "window underflow",
	TrapPrivilegeViolation: "privilege violation",
}

func (k TrapKind) String() string {
	if name, ok := trapKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("trap(%d)", int(k))
}

// Trap carries a raised condition to the firmware sink. PC is the
// address of the faulting instruction; Addr is the offending memory
// address for bus faults and zero otherwise.
type Trap struct {
	Kind TrapKind
	PC   uint32
	Addr uint32
}

func (t Trap) String() string {
	if t.Kind == TrapBusFault {
		return fmt.Sprintf("%s at PC 0x%08X, address 0x%08X", t.Kind, t.PC, t.Addr)
	}
	return fmt.Sprintf("%s at PC 0x%08X", t.Kind, t.PC)
}

// TrapResponse tells the core how to continue after a trap.
type TrapResponse struct {
	// Resume redirects execution to ResumeAddr when true. When false
	// the core halts and reports the trap to the host.
	Resume     bool
	ResumeAddr uint32
}

// TrapSink receives guest-visible traps. Firmware models resolve the
// condition and hand back a resume address; hosts without firmware let
// the default response halt the machine.
type TrapSink interface {
	Raise(trap Trap) TrapResponse
}

// haltSink is the default sink: every trap stops the machine.
type haltSink struct{}

func (haltSink) Raise(Trap) TrapResponse {
	return TrapResponse{}
}

// TrapSinkFunc adapts a function to the TrapSink interface.
type TrapSinkFunc func(trap Trap) TrapResponse

// Raise calls f.
func (f TrapSinkFunc) Raise(trap Trap) TrapResponse {
	return f(trap)
}
