// Package benchmarks provides timing benchmark infrastructure for Runner
// firmware workloads.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/runnersim/emu"
	"github.com/sarchlab/runnersim/sim"
	"github.com/sarchlab/runnersim/timing/latency"
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedClocks is the clock count of the slowest runner
	SimulatedClocks uint64 `json:"simulated_clocks"`

	// Instructions is the number of executed instructions of all runners
	Instructions uint64 `json:"instructions"`

	// IPC is instructions per clock
	IPC float64 `json:"ipc"`

	// StallClocks counts clocks spent waiting on an accelerator
	StallClocks uint64 `json:"stall_clocks"`

	// ContextSwitches counts completed context switches
	ContextSwitches uint64 `json:"context_switches"`

	// Messages counts completed buffer messages
	Messages int `json:"messages"`

	// Error is the fatal error of the run, if any
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark workload.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Programs holds the code image of each runner. A nil image leaves
	// the runner out of the run.
	Programs [sim.NumRunners][]uint32

	// Setup prepares shared state before the run
	Setup func(s *sim.Simulator)
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Timing is the latency configuration. Nil means the default.
	Timing *latency.Config

	// Sequential runs the runners one after another
	Sequential bool

	// MaxClocks bounds every run
	MaxClocks uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		MaxClocks: 1_000_000,
		Output:    os.Stdout,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Timing == nil {
		config.Timing = latency.DefaultConfig()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		results = append(results, h.runBenchmark(bench))
	}

	return results
}

// runBenchmark executes a single benchmark on a fresh simulator.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	opts := []sim.Option{
		sim.WithConfig(h.config.Timing),
		sim.WithMaxClocks(h.config.MaxClocks),
	}
	if h.config.Sequential {
		opts = append(opts, sim.WithMode(sim.Sequential))
	}
	s := sim.NewSimulator(opts...)

	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	for i, code := range bench.Programs {
		if code == nil {
			continue
		}
		if err := s.LoadProgram(i, BuildProgram(code...)); err != nil {
			result.Error = err.Error()
			return result
		}
	}
	if bench.Setup != nil {
		bench.Setup(s)
	}

	start := time.Now()
	err := s.Run()
	result.WallTime = time.Since(start)
	if err != nil {
		result.Error = err.Error()
	}

	for _, r := range s.Summary().Runners {
		result.SimulatedClocks = max(result.SimulatedClocks, r.Clocks)
		result.Instructions += r.Instructions
		result.ContextSwitches += r.ContextSwitches
		for _, st := range r.Stalls {
			if st.Cause != emu.StallNoContext {
				result.StallClocks += st.Clocks
			}
		}
	}
	for i := 0; i < sim.NumRunners; i++ {
		result.Messages += len(s.Messages(i))
	}
	if result.SimulatedClocks > 0 {
		result.IPC = float64(result.Instructions) / float64(result.SimulatedClocks)
	}

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== Runner Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		if r.Error != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Error: %s\n", r.Error)
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Clocks:  %d\n", r.SimulatedClocks)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions:      %d\n", r.Instructions)
		_, _ = fmt.Fprintf(h.config.Output, "  IPC:               %.3f\n", r.IPC)
		_, _ = fmt.Fprintf(h.config.Output, "  Stall Clocks:      %d\n", r.StallClocks)
		_, _ = fmt.Fprintf(h.config.Output, "  Context Switches:  %d\n", r.ContextSwitches)
		if r.Messages > 0 {
			_, _ = fmt.Fprintf(h.config.Output, "  Messages:          %d\n", r.Messages)
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,clocks,instructions,ipc,stall_clocks,context_switches,messages,error")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%q\n",
			r.Name,
			r.SimulatedClocks,
			r.Instructions,
			r.IPC,
			r.StallClocks,
			r.ContextSwitches,
			r.Messages,
			r.Error,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Seed is the latency seed of the runs
	Seed uint64 `json:"seed"`

	// Sequential reports the driving mode
	Sequential bool `json:"sequential"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// TotalClocks is the sum of all simulated clocks
	TotalClocks uint64 `json:"total_clocks"`

	// TotalInstructions is the sum of all executed instructions
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageIPC is the overall instructions per clock
	AverageIPC float64 `json:"average_ipc"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	var totalClocks, totalInstructions uint64
	var totalWallTime time.Duration
	for _, r := range results {
		totalClocks += r.SimulatedClocks
		totalInstructions += r.Instructions
		totalWallTime += r.WallTime
	}

	avgIPC := float64(0)
	if totalClocks > 0 {
		avgIPC = float64(totalInstructions) / float64(totalClocks)
	}

	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Seed:       h.config.Timing.Seed,
			Sequential: h.config.Sequential,
		},
		Results: results,
		Summary: ReportSummary{
			TotalBenchmarks:   len(results),
			TotalClocks:       totalClocks,
			TotalInstructions: totalInstructions,
			AverageIPC:        avgIPC,
			TotalWallTime:     totalWallTime,
		},
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
