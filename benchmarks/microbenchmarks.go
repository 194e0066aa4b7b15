// Package benchmarks provides small RISC II programs that exercise
// the emulator end to end and report its instruction mix.
package benchmarks

import (
	"fmt"

	"github.com/r2lab/r2sim/emu"
	"github.com/r2lab/r2sim/insts"
	"github.com/r2lab/r2sim/loader"
)

// Benchmark is a self-checking guest program. The harness runs it
// until the PC reaches ExitPC, then calls Check against the final
// state.
type Benchmark struct {
	Name        string
	Description string
	Program     *loader.Program
	ExitPC      uint32
	Setup       func(m *emu.Machine)
	Check       func(m *emu.Machine) error
}

// All returns the standard microbenchmark set.
func All() []Benchmark {
	return []Benchmark{
		ArithmeticSequential(),
		DependencyChain(),
		CountdownLoop(),
		CallChain(),
		MemoryCopy(),
	}
}

func expectReg(m *emu.Machine, reg uint8, want uint32) error {
	got := m.RegFile().Read(m.PSW().CWP, reg)
	if got != want {
		return fmt.Errorf("r%d = 0x%08X, want 0x%08X", reg, got, want)
	}
	return nil
}

// ArithmeticSequential runs independent additions back to back.
func ArithmeticSequential() Benchmark {
	var words []uint32
	for i := 0; i < 10; i++ {
		rd := uint8(1 + i%5)
		words = append(words, insts.ShortImm(insts.OpAdd, false, rd, rd, 1))
	}
	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "ten independent adds",
		Program:     loader.FromWords(0, words...),
		ExitPC:      uint32(len(words) * 4),
		Check: func(m *emu.Machine) error {
			return expectReg(m, 1, 2)
		},
	}
}

// DependencyChain runs additions where each depends on the last.
func DependencyChain() Benchmark {
	var words []uint32
	for i := 0; i < 10; i++ {
		words = append(words, insts.ShortImm(insts.OpAdd, false, 1, 1, 3))
	}
	return Benchmark{
		Name:        "dependency_chain",
		Description: "ten serially dependent adds",
		Program:     loader.FromWords(0, words...),
		ExitPC:      uint32(len(words) * 4),
		Check: func(m *emu.Machine) error {
			return expectReg(m, 1, 30)
		},
	}
}

// CountdownLoop decrements a counter with a conditional backward
// branch, exercising flags and the delay slot on every iteration.
func CountdownLoop() Benchmark {
	return Benchmark{
		Name:        "countdown_loop",
		Description: "five-iteration countdown with a delayed branch",
		Program: loader.FromWords(0,
			insts.ShortImm(insts.OpAdd, false, 1, 0, 5),  // 0:  r1 = 5
			insts.ShortImm(insts.OpSub, true, 1, 1, 1),   // 4:  r1--
			insts.CondLong(insts.OpJmpr, insts.CondNe, -4), // 8: back to 4
			insts.ShortImm(insts.OpAdd, false, 2, 2, 1),  // 12: delay slot
		),
		ExitPC: 16,
		Check: func(m *emu.Machine) error {
			if err := expectReg(m, 1, 0); err != nil {
				return err
			}
			return expectReg(m, 2, 5)
		},
	}
}

// CallChain calls a leaf routine and returns, moving the register
// window both ways.
func CallChain() Benchmark {
	return Benchmark{
		Name:        "call_chain",
		Description: "call, leaf body, and return through the window file",
		Program: loader.FromWords(0,
			insts.Long(insts.OpCallr, false, 15, 16),              // 0:  call 16
			insts.Short(insts.OpAdd, false, 0, 0, 0),              // 4:  delay slot
			insts.ShortImm(insts.OpAdd, false, 3, 0, 3),           // 8:  after return
			insts.Short(insts.OpAdd, false, 0, 0, 0),              // 12: exit
			insts.ShortImm(insts.OpAdd, false, 2, 0, 2),           // 16: leaf body
			insts.CondShortImm(insts.OpRet, insts.CondAlw, 15, 0), // 20: return
			insts.Short(insts.OpAdd, false, 0, 0, 0),              // 24: delay slot
		),
		ExitPC: 12,
		Check: func(m *emu.Machine) error {
			if err := expectReg(m, 2, 2); err != nil {
				return err
			}
			if err := expectReg(m, 3, 3); err != nil {
				return err
			}
			if cwp := m.PSW().CWP; cwp != 0 {
				return fmt.Errorf("CWP = %d after return, want 0", cwp)
			}
			return nil
		},
	}
}

// MemoryCopy moves four words through loads and stores.
func MemoryCopy() Benchmark {
	const src, dst = 0x100, 0x200
	var words []uint32
	for i := int32(0); i < 4; i++ {
		words = append(words,
			insts.ShortImm(insts.OpLdxw, false, 1, 0, src+i*4),
			insts.ShortImm(insts.OpStxw, false, 1, 0, dst+i*4),
		)
	}
	return Benchmark{
		Name:        "memory_copy",
		Description: "four-word unrolled copy",
		Program:     loader.FromWords(0, words...),
		ExitPC:      uint32(len(words) * 4),
		Setup: func(m *emu.Machine) {
			for i := uint32(0); i < 4; i++ {
				_ = m.Bus().RAM().WriteWord(src+i*4, 0xA0A0A0A0+i)
			}
		},
		Check: func(m *emu.Machine) error {
			for i := uint32(0); i < 4; i++ {
				got, err := m.Bus().ReadWord(dst + i*4)
				if err != nil {
					return err
				}
				if got != 0xA0A0A0A0+i {
					return fmt.Errorf("word %d = 0x%08X, want 0x%08X", i, got, 0xA0A0A0A0+i)
				}
			}
			return nil
		},
	}
}
