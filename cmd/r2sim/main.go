// Package main provides the entry point for r2sim, a functional
// RISC II processor emulator.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/r2lab/r2sim/config"
	"github.com/r2lab/r2sim/emu"
	"github.com/r2lab/r2sim/loader"
)

var (
	configPath = flag.String("config", config.DefaultPath(), "Path to the TOML configuration file")
	basePtr    = flag.Uint("base", 0, "Load address of the program image")
	statePath  = flag.String("state", "", "Save-state archive to restore instead of a program image")
	saveOnExit = flag.Bool("save", false, "Write a save-state archive when the run ends")
	trace      = flag.Bool("trace", false, "Trace every retired instruction")
	maxInst    = flag.Uint64("max", 0, "Stop after this many instructions (0 = unbounded)")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 && *statePath == "" {
		fmt.Fprintf(os.Stderr, "Usage: r2sim [options] <program.bin>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *maxInst > 0 {
		cfg.MaxInstructions = *maxInst
	}
	if *trace {
		cfg.Trace = true
	}

	os.Exit(run(cfg))
}

func run(cfg config.Config) int {
	opts := []emu.MachineOption{
		emu.WithMemSize(cfg.MemSize),
		emu.WithResetVector(cfg.ResetVector),
		emu.WithInterruptVector(cfg.InterruptVector),
		emu.WithMaxInstructions(cfg.MaxInstructions),
	}
	if cfg.Trace {
		opts = append(opts, emu.WithTrace(os.Stderr))
	}
	machine := emu.NewMachine(opts...)

	if *statePath != "" {
		if err := restoreState(machine, *statePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error restoring state: %v\n", err)
			return 1
		}
	} else {
		programPath := flag.Arg(0)
		prog, err := loader.ReadProgram(programPath, uint32(*basePtr))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
			return 1
		}
		if err := prog.InstallTo(machine); err != nil {
			fmt.Fprintf(os.Stderr, "Error installing program: %v\n", err)
			return 1
		}
		if *verbose {
			fmt.Printf("Loaded: %s (%d bytes at 0x%08X)\n",
				programPath, len(prog.Data), prog.Base)
		}
	}

	result := machine.Run(context.Background())

	code := 0
	switch {
	case result.Err != nil:
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", result.Err)
		code = 1
	case result.Trap != nil:
		fmt.Fprintf(os.Stderr, "Stopped: %s\n", result.Trap)
	}

	if *verbose {
		stats := machine.Stats()
		fmt.Printf("\nInstructions executed: %d\n", stats.Instructions)
		fmt.Printf("Cycles: %d\n", stats.Cycles)
		fmt.Printf("Memory operations: %d\n", stats.MemOps)
		fmt.Printf("Taken transfers: %d\n", stats.TakenTransfers)
		fmt.Printf("Traps: %d\n", stats.Traps)
		fmt.Print(machine.Snapshot().Dump())
	}

	if *saveOnExit {
		path, err := writeState(machine, cfg.SavePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error saving state: %v\n", err)
			return 1
		}
		fmt.Printf("State saved to %s\n", path)
	}

	return code
}

func restoreState(machine *emu.Machine, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return loader.LoadState(f, machine)
}

func writeState(machine *emu.Machine, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%d.r2sv", time.Now().Unix()))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := loader.SaveState(f, machine); err != nil {
		return "", err
	}
	return path, nil
}
