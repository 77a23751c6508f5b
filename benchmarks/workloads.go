package benchmarks

import (
	"math/rand"

	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/trace"
)

// GetWorkloads returns the standard set of synthetic workloads. Each targets
// a branch behavior that favors one part of the tournament predictor.
func GetWorkloads() []Benchmark {
	return []Benchmark{
		alwaysTaken(),
		alternating(),
		shortLoop(),
		nestedLoops(),
		correlatedPair(),
		biasedRandom(),
		callHeavy(),
	}
}

// GetCoreWorkloads returns a minimal set for quick validation: one
// local-friendly, one global-friendly and one mixed workload.
func GetCoreWorkloads() []Benchmark {
	return []Benchmark{
		shortLoop(),
		correlatedPair(),
		callHeavy(),
	}
}

// WorkloadNames lists the names accepted by Workload.
func WorkloadNames() []string {
	workloads := GetWorkloads()
	names := make([]string, 0, len(workloads))
	for _, w := range workloads {
		names = append(names, w.Name)
	}
	return names
}

// Workload returns the standard workload with the given name.
func Workload(name string) (Benchmark, bool) {
	for _, w := range GetWorkloads() {
		if w.Name == name {
			return w, true
		}
	}
	return Benchmark{}, false
}

// StreamBuilder appends resolved branches to a stream.
type StreamBuilder struct {
	events []trace.Event
}

// Conditional appends a conditional branch.
func (b *StreamBuilder) Conditional(pc uint64, taken bool) *StreamBuilder {
	b.events = append(b.events, trace.Event{
		Branch: predictor.BranchRecord{PC: pc, Conditional: true},
		Taken:  taken,
	})
	return b
}

// Jump appends an always-taken unconditional branch.
func (b *StreamBuilder) Jump(pc, target uint64) *StreamBuilder {
	b.events = append(b.events, trace.Event{
		Branch: predictor.BranchRecord{PC: pc, Target: target},
		Taken:  true,
	})
	return b
}

// Loop appends iterations executions of a loop whose back edge at pc is
// taken trip-1 times and then falls through.
func (b *StreamBuilder) Loop(pc uint64, trip, iterations int) *StreamBuilder {
	for i := 0; i < iterations; i++ {
		for j := 0; j < trip; j++ {
			b.Conditional(pc, j < trip-1)
		}
	}
	return b
}

// Events returns the stream built so far.
func (b *StreamBuilder) Events() []trace.Event {
	return b.events
}

// 1. Always taken - every predictor should converge immediately
func alwaysTaken() Benchmark {
	b := &StreamBuilder{}
	for i := 0; i < 2000; i++ {
		b.Conditional(0x1000, true)
	}
	return Benchmark{
		Name:        "always_taken",
		Description: "Single conditional branch that is always taken",
		Events:      b.Events(),
	}
}

// 2. Alternating - T/N/T/N is captured by both local and global history
func alternating() Benchmark {
	b := &StreamBuilder{}
	for i := 0; i < 4000; i++ {
		b.Conditional(0x2000, i%2 == 0)
	}
	return Benchmark{
		Name:        "alternating",
		Description: "Single branch alternating taken and not taken",
		Events:      b.Events(),
	}
}

// 3. Short loop - fixed trip count, learned by the local predictor
func shortLoop() Benchmark {
	b := &StreamBuilder{}
	b.Loop(0x3000, 7, 500)
	return Benchmark{
		Name:        "short_loop",
		Description: "Loop back edge with a trip count of 7",
		Events:      b.Events(),
	}
}

// 4. Nested loops - inner exit pattern plus an outer back edge
func nestedLoops() Benchmark {
	b := &StreamBuilder{}
	for outer := 0; outer < 300; outer++ {
		b.Loop(0x4010, 4, 1)
		b.Conditional(0x4020, outer%5 != 4)
	}
	return Benchmark{
		Name:        "nested_loops",
		Description: "Inner loop of 4 inside an outer loop of 5",
		Events:      b.Events(),
	}
}

// 5. Correlated pair - the second branch repeats the first, learned by the
// global predictor
func correlatedPair() Benchmark {
	rng := rand.New(rand.NewSource(17))
	b := &StreamBuilder{}
	for i := 0; i < 2000; i++ {
		first := rng.Intn(2) == 0
		b.Conditional(0x5000, first)
		b.Conditional(0x5040, first)
	}
	return Benchmark{
		Name:        "correlated_pair",
		Description: "Random branch followed by a branch with the same outcome",
		Events:      b.Events(),
	}
}

// 6. Biased random - 16 branches, each taken with its own fixed probability
func biasedRandom() Benchmark {
	rng := rand.New(rand.NewSource(23))
	bias := make([]float64, 16)
	for i := range bias {
		bias[i] = rng.Float64()
	}

	b := &StreamBuilder{}
	for i := 0; i < 4000; i++ {
		n := rng.Intn(len(bias))
		b.Conditional(0x6000+uint64(4*n), rng.Float64() < bias[n])
	}
	return Benchmark{
		Name:        "biased_random",
		Description: "16 independent branches with random per-branch bias",
		Events:      b.Events(),
	}
}

// 7. Call heavy - unconditional jumps interleaved with a loop
func callHeavy() Benchmark {
	b := &StreamBuilder{}
	for i := 0; i < 400; i++ {
		b.Jump(0x7000, 0x9000)
		b.Loop(0x9010, 3, 1)
		b.Jump(0x9020, 0x7004)
	}
	return Benchmark{
		Name:        "call_heavy",
		Description: "Call and return jumps around a 3-iteration loop",
		Events:      b.Events(),
	}
}
