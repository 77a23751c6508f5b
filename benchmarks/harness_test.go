package benchmarks_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/bpsim/benchmarks"
	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/trace"
)

type countingHook struct {
	calls int
}

func (h *countingHook) Func(ctx sim.HookCtx) {
	if ctx.Pos == predictor.HookPosBranchUpdate {
		h.calls++
	}
}

type runTrackingHook struct {
	countingHook
	runs       []string
	callsAtRun []int
}

func (h *runTrackingHook) StartRun(name string) {
	h.runs = append(h.runs, name)
	h.callsAtRun = append(h.callsAtRun, h.calls)
}

type failingSource struct{}

var errSourceBroken = errors.New("source broken")

func (failingSource) Next() (trace.Event, error) {
	return trace.Event{}, errSourceBroken
}

var _ = Describe("Harness", func() {
	var (
		out     *bytes.Buffer
		harness *benchmarks.Harness
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		config := benchmarks.DefaultConfig()
		config.Output = out
		harness = benchmarks.NewHarness(config)
	})

	It("should learn an always-taken branch", func() {
		bench, ok := benchmarks.Workload("always_taken")
		Expect(ok).To(BeTrue())
		harness.AddBenchmark(bench)

		results := harness.RunAll()
		Expect(results).To(HaveLen(1))
		Expect(results[0].Branches).To(Equal(uint64(2000)))
		Expect(results[0].AccuracyPercent).To(BeNumerically(">", 95))
	})

	It("should learn a fixed-trip loop", func() {
		bench, _ := benchmarks.Workload("short_loop")
		harness.AddBenchmark(bench)

		results := harness.RunAll()
		Expect(results[0].AccuracyPercent).To(BeNumerically(">", 90))
	})

	It("should split branches by kind", func() {
		bench, _ := benchmarks.Workload("call_heavy")
		harness.AddBenchmark(bench)

		r := harness.RunAll()[0]
		Expect(r.Branches).To(Equal(uint64(2000)))
		Expect(r.Unconditional).To(Equal(uint64(800)))
		Expect(r.Conditional).To(Equal(uint64(1200)))
	})

	It("should give identical results on every run", func() {
		harness.AddBenchmarks(benchmarks.GetCoreWorkloads())

		first := harness.RunAll()
		second := harness.RunAll()
		Expect(second).To(HaveLen(len(first)))
		for i := range first {
			first[i].WallTime = 0
			second[i].WallTime = 0
		}
		Expect(second).To(Equal(first))
	})

	It("should attach configured hooks to every predictor", func() {
		hook := &countingHook{}
		config := benchmarks.DefaultConfig()
		config.Output = out
		config.Hooks = []sim.Hook{hook}
		harness = benchmarks.NewHarness(config)

		bench, _ := benchmarks.Workload("alternating")
		harness.AddBenchmark(bench)
		harness.RunAll()

		Expect(hook.calls).To(Equal(len(bench.Events)))
	})

	It("should start a run on hooks before each benchmark", func() {
		hook := &runTrackingHook{}
		config := benchmarks.DefaultConfig()
		config.Output = out
		config.Hooks = []sim.Hook{hook}
		harness = benchmarks.NewHarness(config)

		first, _ := benchmarks.Workload("always_taken")
		second, _ := benchmarks.Workload("alternating")
		harness.AddBenchmarks([]benchmarks.Benchmark{first, second})
		harness.RunAll()

		Expect(hook.runs).To(Equal([]string{"always_taken", "alternating"}))
		Expect(hook.callsAtRun).To(Equal([]int{0, len(first.Events)}))
		Expect(hook.calls).To(Equal(len(first.Events) + len(second.Events)))
	})

	It("should print readable results", func() {
		harness.AddBenchmarks(benchmarks.GetCoreWorkloads())
		harness.PrintResults(harness.RunAll())

		Expect(out.String()).To(ContainSubstring("Benchmark: short_loop"))
		Expect(out.String()).To(ContainSubstring("Local Accuracy:"))
	})

	It("should print one CSV row per benchmark", func() {
		harness.AddBenchmarks(benchmarks.GetCoreWorkloads())
		harness.PrintCSV(harness.RunAll())

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		Expect(lines).To(HaveLen(4))
		Expect(lines[0]).To(HavePrefix("name,branches,"))
	})

	It("should print a JSON report with a summary", func() {
		harness.AddBenchmarks(benchmarks.GetCoreWorkloads())
		Expect(harness.PrintJSON(harness.RunAll())).To(Succeed())

		var report benchmarks.BenchmarkReport
		Expect(json.Unmarshal(out.Bytes(), &report)).To(Succeed())
		Expect(report.Summary.TotalBenchmarks).To(Equal(3))
		Expect(report.Metadata.Config.HistoryPolicy).To(Equal(predictor.ConditionalOnly))
	})
})

var _ = Describe("Replay", func() {
	It("should stop at the end of the source", func() {
		p := predictor.NewPredictor(predictor.DefaultConfig())
		src := trace.NewSliceSource([]trace.Event{
			{Branch: predictor.BranchRecord{PC: 0x10, Conditional: true}, Taken: true},
			{Branch: predictor.BranchRecord{PC: 0x14}, Taken: true},
		})

		Expect(benchmarks.Replay(p, src)).To(Succeed())
		Expect(p.Stats().Updates).To(Equal(uint64(2)))
	})

	It("should return source errors", func() {
		p := predictor.NewPredictor(predictor.DefaultConfig())
		Expect(benchmarks.Replay(p, failingSource{})).To(MatchError(errSourceBroken))
	})
})

var _ = Describe("Summarize", func() {
	It("should aggregate accuracy over all branches", func() {
		s := benchmarks.Summarize([]benchmarks.BenchmarkResult{
			{Branches: 100, Correct: 90, Mispredictions: 10},
			{Branches: 100, Correct: 70, Mispredictions: 30},
		})
		Expect(s.TotalBranches).To(Equal(uint64(200)))
		Expect(s.TotalMispredictions).To(Equal(uint64(40)))
		Expect(s.AccuracyPercent).To(BeNumerically("~", 80.0))
	})
})

var _ = Describe("Workloads", func() {
	It("should look up workloads by name", func() {
		Expect(benchmarks.WorkloadNames()).To(HaveLen(len(benchmarks.GetWorkloads())))
		_, ok := benchmarks.Workload("nope")
		Expect(ok).To(BeFalse())
	})

	It("should build loops with one fall-through per iteration", func() {
		b := &benchmarks.StreamBuilder{}
		events := b.Loop(0x100, 3, 2).Events()

		taken := []bool{}
		for _, ev := range events {
			taken = append(taken, ev.Taken)
		}
		Expect(taken).To(Equal([]bool{true, true, false, true, true, false}))
	})
})
