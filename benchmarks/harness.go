// Package benchmarks replays branch workloads through the tournament
// predictor and reports accuracy.
package benchmarks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/trace"
)

// BenchmarkResult holds the predictor results for a single workload.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains the branch behavior being exercised
	Description string `json:"description"`

	// Branches is the number of resolved branches replayed
	Branches uint64 `json:"branches"`

	// Conditional and Unconditional split Branches by kind
	Conditional   uint64 `json:"conditional"`
	Unconditional uint64 `json:"unconditional"`

	// Correct and Mispredictions compare the tournament prediction with the outcome
	Correct        uint64 `json:"correct"`
	Mispredictions uint64 `json:"mispredictions"`

	// AccuracyPercent is the tournament accuracy over all branches
	AccuracyPercent float64 `json:"accuracy_percent"`

	// LocalAccuracyPercent and GlobalAccuracyPercent are the sub-predictor
	// accuracies over conditional branches
	LocalAccuracyPercent  float64 `json:"local_accuracy_percent"`
	GlobalAccuracyPercent float64 `json:"global_accuracy_percent"`

	// ChoseLocal is how many conditional branches were predicted locally
	ChoseLocal uint64 `json:"chose_local"`

	// WallTime is the actual time taken to replay the workload
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark is a named, fixed branch stream.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains the branch behavior being exercised
	Description string

	// Events is the resolved branch stream, in program order
	Events []trace.Event
}

// RunStarter is a hook that wants to know when a benchmark begins. The
// harness calls StartRun with the benchmark name before replaying it.
type RunStarter interface {
	StartRun(name string)
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Predictor is the geometry and policy used for every benchmark
	Predictor predictor.Config

	// Hooks are attached to every predictor the harness creates
	Hooks []sim.Hook

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables per-benchmark progress output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Predictor: predictor.DefaultConfig(),
		Output:    os.Stdout,
		Verbose:   false,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
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

// RunAll replays every benchmark through a fresh predictor.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		results = append(results, h.runBenchmark(bench))
	}

	return results
}

func (h *Harness) newPredictor() *predictor.Predictor {
	opts := make([]predictor.Option, 0, len(h.config.Hooks))
	for _, hook := range h.config.Hooks {
		opts = append(opts, predictor.WithHook(hook))
	}
	return predictor.NewPredictor(h.config.Predictor, opts...)
}

func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	if h.config.Verbose {
		_, _ = fmt.Fprintf(h.config.Output, "Running %s (%d branches)\n",
			bench.Name, len(bench.Events))
	}

	for _, hook := range h.config.Hooks {
		if rs, ok := hook.(RunStarter); ok {
			rs.StartRun(bench.Name)
		}
	}

	p := h.newPredictor()

	start := time.Now()
	// A slice source never fails.
	_ = Replay(p, trace.NewSliceSource(bench.Events))
	wallTime := time.Since(start)

	return NewResult(bench.Name, bench.Description, p.Stats(), wallTime)
}

// Replay drives p with every event from src: one Predict, then one Update
// with the resolved outcome.
func Replay(p *predictor.Predictor, src trace.Source) error {
	for {
		ev, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		p.Predict(ev.Branch)
		p.Update(ev.Branch, ev.Taken)
	}
}

// NewResult converts predictor statistics into a BenchmarkResult.
func NewResult(
	name, description string,
	stats predictor.Stats,
	wallTime time.Duration,
) BenchmarkResult {
	return BenchmarkResult{
		Name:                  name,
		Description:           description,
		Branches:              stats.Updates,
		Conditional:           stats.Conditional,
		Unconditional:         stats.Unconditional,
		Correct:               stats.Correct,
		Mispredictions:        stats.Mispredictions,
		AccuracyPercent:       stats.Accuracy(),
		LocalAccuracyPercent:  stats.LocalAccuracy(),
		GlobalAccuracyPercent: stats.GlobalAccuracy(),
		ChoseLocal:            stats.ChoseLocal,
		WallTime:              wallTime,
	}
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== Tournament Predictor Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		if r.Description != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Branches:        %d\n", r.Branches)
		_, _ = fmt.Fprintf(h.config.Output, "  Conditional:     %d\n", r.Conditional)
		_, _ = fmt.Fprintf(h.config.Output, "  Unconditional:   %d\n", r.Unconditional)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Tournament ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Correct:         %d\n", r.Correct)
		_, _ = fmt.Fprintf(h.config.Output, "  Mispredictions:  %d\n", r.Mispredictions)
		_, _ = fmt.Fprintf(h.config.Output, "  Accuracy:        %.2f%%\n", r.AccuracyPercent)
		if r.Conditional > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- Components ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Local Accuracy:  %.2f%%\n", r.LocalAccuracyPercent)
			_, _ = fmt.Fprintf(h.config.Output, "  Global Accuracy: %.2f%%\n", r.GlobalAccuracyPercent)
			_, _ = fmt.Fprintf(h.config.Output, "  Chose Local:     %d\n", r.ChoseLocal)
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,branches,conditional,unconditional,correct,mispredictions,accuracy,local_accuracy,global_accuracy,chose_local")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%d,%d,%.3f,%.3f,%.3f,%d\n",
			r.Name,
			r.Branches,
			r.Conditional,
			r.Unconditional,
			r.Correct,
			r.Mispredictions,
			r.AccuracyPercent,
			r.LocalAccuracyPercent,
			r.GlobalAccuracyPercent,
			r.ChoseLocal,
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

	// Config is the predictor configuration used
	Config predictor.Config `json:"config"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// TotalBranches is the sum of all replayed branches
	TotalBranches uint64 `json:"total_branches"`

	// TotalMispredictions is the sum of all mispredictions
	TotalMispredictions uint64 `json:"total_mispredictions"`

	// AccuracyPercent is the accuracy over all branches of all benchmarks
	AccuracyPercent float64 `json:"accuracy_percent"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// Summarize aggregates results.
func Summarize(results []BenchmarkResult) ReportSummary {
	summary := ReportSummary{TotalBenchmarks: len(results)}

	var correct uint64
	for _, r := range results {
		summary.TotalBranches += r.Branches
		summary.TotalMispredictions += r.Mispredictions
		summary.TotalWallTime += r.WallTime
		correct += r.Correct
	}

	if summary.TotalBranches > 0 {
		summary.AccuracyPercent = float64(correct) / float64(summary.TotalBranches) * 100
	}

	return summary
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Config:    h.config.Predictor,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
