package loader

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/r2lab/r2sim/emu"
)

// Save-state archive layout, all fields big-endian: a fixed header,
// the full register file, then the raw memory image.
const (
	stateMagic   = 0x52325356 // "R2SV"
	stateVersion = 1
)

type stateHeader struct {
	Magic   uint32
	Version uint16
	PSW     uint16
	PC      uint32
	NextPC  uint32
	LastPC  uint32
	MemSize uint32
}

// SaveState writes the machine's architectural state and memory to w.
func SaveState(w io.Writer, m *emu.Machine) error {
	snap := m.Snapshot()
	memSize := m.Bus().RAM().Size()

	hdr := stateHeader{
		Magic:   stateMagic,
		Version: stateVersion,
		PSW:     uint16(snap.PSW.Pack()),
		PC:      snap.PC,
		NextPC:  snap.NextPC,
		LastPC:  snap.LastPC,
		MemSize: memSize,
	}
	if err := binary.Write(w, binary.BigEndian, hdr); err != nil {
		return fmt.Errorf("save state header: %w", err)
	}

	if err := binary.Write(w, binary.BigEndian, packRegisters(m.RegFile())); err != nil {
		return fmt.Errorf("save register file: %w", err)
	}

	image, err := m.Bus().RAM().DumpImage(0, memSize)
	if err != nil {
		return fmt.Errorf("save memory image: %w", err)
	}
	if _, err := w.Write(image); err != nil {
		return fmt.Errorf("save memory image: %w", err)
	}
	return nil
}

// LoadState restores a machine from an archive written by SaveState.
// The machine's memory must be at least as large as the saved image.
func LoadState(r io.Reader, m *emu.Machine) error {
	var hdr stateHeader
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return fmt.Errorf("load state header: %w", err)
	}
	if hdr.Magic != stateMagic {
		return fmt.Errorf("load state: bad magic 0x%08X", hdr.Magic)
	}
	if hdr.Version != stateVersion {
		return fmt.Errorf("load state: unsupported version %d", hdr.Version)
	}
	if hdr.MemSize > m.Bus().RAM().Size() {
		return fmt.Errorf("load state: image needs %d bytes of memory, machine has %d",
			hdr.MemSize, m.Bus().RAM().Size())
	}

	var regs [totalRegisters]uint32
	if err := binary.Read(r, binary.BigEndian, &regs); err != nil {
		return fmt.Errorf("load register file: %w", err)
	}

	image := make([]byte, hdr.MemSize)
	if _, err := io.ReadFull(r, image); err != nil {
		return fmt.Errorf("load memory image: %w", err)
	}

	unpackRegisters(m.RegFile(), regs)
	if err := m.Bus().RAM().LoadImage(0, image); err != nil {
		return fmt.Errorf("load memory image: %w", err)
	}
	m.SetPSW(emu.UnpackPSW(uint32(hdr.PSW)))
	m.SetPCChain(hdr.PC, hdr.NextPC, hdr.LastPC)
	return nil
}

// totalRegisters is the physical register count: the globals plus
// sixteen added registers per window.
const totalRegisters = emu.NumGlobals + emu.NumWindows*16

// packRegisters flattens the register file: globals first, then each
// window's sixteen added registers, visible there as r10 through r25.
func packRegisters(rf *emu.RegFile) [totalRegisters]uint32 {
	var regs [totalRegisters]uint32
	for g := uint8(1); g < emu.NumGlobals; g++ {
		regs[g] = rf.Read(0, g)
	}
	i := emu.NumGlobals
	for w := uint8(0); w < emu.NumWindows; w++ {
		for reg := uint8(10); reg < 26; reg++ {
			regs[i] = rf.Read(w, reg)
			i++
		}
	}
	return regs
}

func unpackRegisters(rf *emu.RegFile, regs [totalRegisters]uint32) {
	for g := uint8(1); g < emu.NumGlobals; g++ {
		rf.Write(0, g, regs[g])
	}
	i := emu.NumGlobals
	for w := uint8(0); w < emu.NumWindows; w++ {
		for reg := uint8(10); reg < 26; reg++ {
			rf.Write(w, reg, regs[i])
			i++
		}
	}
}
