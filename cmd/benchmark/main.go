// Command benchmark runs the built-in workloads under both history policies.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv     Output results in CSV format (default: human-readable)
//	-core    Run only the core workloads
//	-config  Path to predictor configuration JSON file
//
// Example:
//
//	# Compare the policies on every workload
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/bpsim/benchmarks"
	"github.com/sarchlab/bpsim/predictor"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	coreOnly := flag.Bool("core", false, "Run only the core workloads")
	configPath := flag.String("config", "", "Path to predictor configuration JSON file")
	flag.Parse()

	base := predictor.DefaultConfig()
	if *configPath != "" {
		var err error
		base, err = predictor.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading predictor config: %v\n", err)
			os.Exit(1)
		}
	}

	workloads := benchmarks.GetWorkloads()
	if *coreOnly {
		workloads = benchmarks.GetCoreWorkloads()
	}

	policies := []predictor.HistoryPolicy{predictor.ConditionalOnly, predictor.EveryBranch}
	for i, policy := range policies {
		config := benchmarks.DefaultConfig()
		config.Predictor = base
		config.Predictor.HistoryPolicy = policy
		config.Output = os.Stdout

		harness := benchmarks.NewHarness(config)
		harness.AddBenchmarks(workloads)
		results := harness.RunAll()

		if *csvOutput {
			if i > 0 {
				fmt.Println("")
			}
			fmt.Printf("# policy=%s\n", policy)
			harness.PrintCSV(results)
			continue
		}

		fmt.Printf("History policy: %s\n", policy)
		fmt.Println("==============================")
		harness.PrintResults(results)

		summary := benchmarks.Summarize(results)
		fmt.Printf("Overall accuracy (%s): %.2f%% over %d branches\n\n",
			policy, summary.AccuracyPercent, summary.TotalBranches)
	}
}
