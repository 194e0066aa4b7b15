// Package main provides r2dbg, a terminal debugger for the RISC II
// emulator: disassembly around the PC, the visible register window,
// and single-step control.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jroimartin/gocui"

	"github.com/r2lab/r2sim/config"
	"github.com/r2lab/r2sim/emu"
	"github.com/r2lab/r2sim/loader"
)

var (
	configPath = flag.String("config", config.DefaultPath(), "Path to the TOML configuration file")
	basePtr    = flag.Uint("base", 0, "Load address of the program image")
	statePath  = flag.String("state", "", "Save-state archive to restore instead of a program image")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 && *statePath == "" {
		fmt.Fprintf(os.Stderr, "Usage: r2dbg [options] <program.bin>\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	machine, err := buildMachine(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		log.Panicln("Couldn't create gui:", err)
	}
	defer g.Close()

	dbg := &debugger{machine: machine, cfg: cfg}

	g.SetManagerFunc(dbg.layout)
	if err := dbg.bindKeys(g); err != nil {
		log.Panicln(err)
	}

	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		log.Panicln(err)
	}
}

func buildMachine(cfg config.Config) (*emu.Machine, error) {
	machine := emu.NewMachine(
		emu.WithMemSize(cfg.MemSize),
		emu.WithResetVector(cfg.ResetVector),
		emu.WithInterruptVector(cfg.InterruptVector),
	)

	if *statePath != "" {
		f, err := os.Open(*statePath)
		if err != nil {
			return nil, fmt.Errorf("error restoring state: %w", err)
		}
		defer f.Close()
		if err := loader.LoadState(f, machine); err != nil {
			return nil, fmt.Errorf("error restoring state: %w", err)
		}
		return machine, nil
	}

	prog, err := loader.ReadProgram(flag.Arg(0), uint32(*basePtr))
	if err != nil {
		return nil, fmt.Errorf("error loading program: %w", err)
	}
	if err := prog.InstallTo(machine); err != nil {
		return nil, fmt.Errorf("error installing program: %w", err)
	}
	return machine, nil
}

// runBurst bounds the continue command so a spinning guest cannot
// freeze the UI.
const runBurst = 100000

type debugger struct {
	machine *emu.Machine
	cfg     config.Config
	status  string
}

// layout splits the screen: disassembly on the left, registers on the
// right, status line at the bottom.
func (d *debugger) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()

	if v, err := g.SetView("disasm", 0, 0, maxX/2-1, maxY-4); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Disassembly"
	}
	if v, err := g.SetView("registers", maxX/2, 0, maxX-1, maxY-4); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Registers"
	}
	if v, err := g.SetView("status", 0, maxY-3, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "s:step  c:continue  i:interrupt  R:reset  q:quit"
	}

	d.refresh(g)
	return nil
}

func (d *debugger) bindKeys(g *gocui.Gui) error {
	bindings := []struct {
		key     interface{}
		handler func(*gocui.Gui, *gocui.View) error
	}{
		{'s', d.step},
		{'c', d.resume},
		{'i', d.interrupt},
		{'R', d.reset},
		{'q', quit},
		{gocui.KeyCtrlC, quit},
	}
	for _, b := range bindings {
		if err := g.SetKeybinding("", b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}
	return nil
}

func (d *debugger) step(g *gocui.Gui, v *gocui.View) error {
	d.report(d.machine.Step())
	d.refresh(g)
	return nil
}

func (d *debugger) resume(g *gocui.Gui, v *gocui.View) error {
	d.machine.Resume()
	var result emu.StepResult
	for i := 0; i < runBurst; i++ {
		result = d.machine.Step()
		if result.Halted || result.Err != nil || result.Trap != nil {
			break
		}
	}
	d.report(result)
	d.refresh(g)
	return nil
}

func (d *debugger) interrupt(g *gocui.Gui, v *gocui.View) error {
	d.machine.AssertInterrupt(true)
	result := d.machine.Step()
	d.machine.AssertInterrupt(false)
	d.report(result)
	d.refresh(g)
	return nil
}

func (d *debugger) reset(g *gocui.Gui, v *gocui.View) error {
	d.machine.Reset()
	d.status = "reset"
	d.refresh(g)
	return nil
}

func (d *debugger) report(result emu.StepResult) {
	switch {
	case result.Err != nil:
		d.status = fmt.Sprintf("fatal: %v", result.Err)
	case result.Trap != nil:
		d.status = result.Trap.String()
	case result.Interrupt:
		d.status = "interrupt taken"
	case result.Halted:
		d.status = "halted"
	default:
		d.status = "running"
	}
}

func (d *debugger) refresh(g *gocui.Gui) {
	snap := d.machine.Snapshot()

	if v, err := g.View("disasm"); err == nil {
		v.Clear()
		start := snap.PC - 16
		if snap.PC < 16 {
			start = 0
		}
		for _, line := range d.machine.Disassemble(start, 16) {
			marker := "  "
			if addrOf(line) == snap.PC {
				marker = "> "
			}
			fmt.Fprintf(v, "%s%s\n", marker, line)
		}
	}

	if v, err := g.View("registers"); err == nil {
		v.Clear()
		fmt.Fprint(v, snap.Dump())
		if snap.Executing != nil {
			fmt.Fprintf(v, "exec:  %s\n", snap.Executing)
		}
		if snap.Fetching != nil {
			fmt.Fprintf(v, "fetch: %s\n", snap.Fetching)
		}
		if snap.InDelaySlot {
			fmt.Fprintln(v, "in delay slot")
		}
		fmt.Fprintf(v, "instructions=%d cycles=%d traps=%d\n",
			snap.Stats.Instructions, snap.Stats.Cycles, snap.Stats.Traps)
	}

	if v, err := g.View("status"); err == nil {
		v.Clear()
		fmt.Fprintln(v, d.status)
	}
}

// addrOf parses the leading address of a disassembly line.
func addrOf(line string) uint32 {
	var addr uint32
	fmt.Sscanf(line, "0x%08X", &addr)
	return addr
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}
