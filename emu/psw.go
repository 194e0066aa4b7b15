// Package emu provides functional RISC II emulation.
package emu

import "fmt"

// PSW bit positions within the 13-bit status word.
const (
	pswCarryBit    = 1 << 0
	pswOverflowBit = 1 << 1
	pswNegativeBit = 1 << 2
	pswZeroBit     = 1 << 3
	pswPrevSysBit  = 1 << 4
	pswSysBit      = 1 << 5
	pswIntEnBit    = 1 << 6
	pswSWPShift    = 7
	pswCWPShift    = 10
	pswPointerMask = 0x7

	// pswMask covers the architecturally defined PSW bits. The upper
	// 19 bits of a 32-bit status value are not implemented and read
	// back as ones.
	pswMask      = 0x1FFF
	pswUpperOnes = 0xFFFFE000
)

// PSW represents the processor status word: condition codes, privilege
// state, interrupt enable, and the two window pointers.
type PSW struct {
	// Condition codes.
	C bool // carry
	V bool // signed overflow
	N bool // negative
	Z bool // zero

	// Sys is the current privilege level; PrevSys is the level saved
	// by the last interrupt or trap entry.
	Sys     bool
	PrevSys bool

	// IntEnabled gates external interrupt delivery.
	IntEnabled bool

	// CWP is the current window pointer, SWP the saved window pointer
	// marking the boundary of windows resident in the register file.
	CWP uint8
	SWP uint8
}

// Pack encodes the status word into its 13-bit machine representation.
func (p PSW) Pack() uint32 {
	var v uint32
	if p.C {
		v |= pswCarryBit
	}
	if p.V {
		v |= pswOverflowBit
	}
	if p.N {
		v |= pswNegativeBit
	}
	if p.Z {
		v |= pswZeroBit
	}
	if p.PrevSys {
		v |= pswPrevSysBit
	}
	if p.Sys {
		v |= pswSysBit
	}
	if p.IntEnabled {
		v |= pswIntEnBit
	}
	v |= uint32(p.SWP&pswPointerMask) << pswSWPShift
	v |= uint32(p.CWP&pswPointerMask) << pswCWPShift
	return v
}

// PackWord encodes the status word as read by getpsw: the 13 defined
// bits with the unimplemented upper bits forced to one.
func (p PSW) PackWord() uint32 {
	return pswUpperOnes | p.Pack()
}

// UnpackPSW decodes a 13-bit machine status word. Bits above the
// defined field are ignored.
func UnpackPSW(v uint32) PSW {
	return PSW{
		C:          v&pswCarryBit != 0,
		V:          v&pswOverflowBit != 0,
		N:          v&pswNegativeBit != 0,
		Z:          v&pswZeroBit != 0,
		PrevSys:    v&pswPrevSysBit != 0,
		Sys:        v&pswSysBit != 0,
		IntEnabled: v&pswIntEnBit != 0,
		SWP:        uint8(v>>pswSWPShift) & pswPointerMask,
		CWP:        uint8(v>>pswCWPShift) & pswPointerMask,
	}
}

func (p PSW) String() string {
	flag := func(set bool, name string) string {
		if set {
			return name
		}
		return "-"
	}
	return fmt.Sprintf("cwp=%d swp=%d [%s%s%s%s] sys=%v prev=%v int=%v",
		p.CWP, p.SWP,
		flag(p.N, "N"), flag(p.Z, "Z"), flag(p.C, "C"), flag(p.V, "V"),
		p.Sys, p.PrevSys, p.IntEnabled)
}
