package benchmarks

import (
	"fmt"
	"io"

	"github.com/r2lab/r2sim/emu"
)

// maxSteps bounds a benchmark run so a broken program cannot spin the
// harness forever.
const maxSteps = 1 << 20

// Result holds the counters a benchmark accumulated.
type Result struct {
	Name  string
	Stats emu.Stats
	CPI   float64
}

// Run executes one benchmark on a fresh machine and verifies its
// final state.
func Run(b Benchmark) (Result, error) {
	m := emu.NewMachine()
	if err := b.Program.InstallTo(m); err != nil {
		return Result{}, fmt.Errorf("%s: %w", b.Name, err)
	}
	if b.Setup != nil {
		b.Setup(m)
	}

	done := false
	for steps := 0; steps < maxSteps; steps++ {
		if m.PC() == b.ExitPC {
			done = true
			break
		}
		result := m.Step()
		if result.Err != nil {
			return Result{}, fmt.Errorf("%s: %w", b.Name, result.Err)
		}
		if result.Trap != nil {
			return Result{}, fmt.Errorf("%s: unexpected %s", b.Name, result.Trap)
		}
		if result.Halted {
			return Result{}, fmt.Errorf("%s: halted before the exit point", b.Name)
		}
	}
	if !done {
		return Result{}, fmt.Errorf("%s: did not reach the exit point in %d steps", b.Name, maxSteps)
	}

	if b.Check != nil {
		if err := b.Check(m); err != nil {
			return Result{}, fmt.Errorf("%s: %w", b.Name, err)
		}
	}

	stats := m.Stats()
	result := Result{Name: b.Name, Stats: stats}
	if stats.Instructions > 0 {
		result.CPI = float64(stats.Cycles) / float64(stats.Instructions)
	}
	return result, nil
}

// RunAll executes every benchmark in the set.
func RunAll(set []Benchmark) ([]Result, error) {
	results := make([]Result, 0, len(set))
	for _, b := range set {
		r, err := Run(b)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

// PrintResults writes a fixed-width result table.
func PrintResults(w io.Writer, results []Result) {
	fmt.Fprintf(w, "%-24s %12s %10s %8s %6s\n",
		"benchmark", "instructions", "cycles", "memops", "cpi")
	for _, r := range results {
		fmt.Fprintf(w, "%-24s %12d %10d %8d %6.2f\n",
			r.Name, r.Stats.Instructions, r.Stats.Cycles, r.Stats.MemOps, r.CPI)
	}
}
