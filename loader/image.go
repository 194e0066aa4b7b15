// Package loader reads RISC II program images and save-state archives
// into a machine.
package loader

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/r2lab/r2sim/emu"
)

// Program is a raw big-endian memory image and the address it loads
// at. Execution starts at Entry, which defaults to Base.
type Program struct {
	Base  uint32
	Entry uint32
	Data  []byte
}

// ReadProgram reads a raw image file. The file is instruction words
// and data exactly as they appear in memory; its length must be a
// multiple of the word size.
func ReadProgram(path string, base uint32) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("program %s: length %d is not word-aligned", path, len(data))
	}
	return &Program{Base: base, Entry: base, Data: data}, nil
}

// FromWords builds an in-memory program from instruction words.
func FromWords(base uint32, words ...uint32) *Program {
	data := make([]byte, len(words)*4)
	for i, w := range words {
		binary.BigEndian.PutUint32(data[i*4:], w)
	}
	return &Program{Base: base, Entry: base, Data: data}
}

// InstallTo copies the image into the machine's memory and points
// execution at the entry address.
func (p *Program) InstallTo(m *emu.Machine) error {
	if err := m.Bus().RAM().LoadImage(p.Base, p.Data); err != nil {
		return fmt.Errorf("install program at 0x%08X: %w", p.Base, err)
	}
	m.SetPC(p.Entry)
	return nil
}
