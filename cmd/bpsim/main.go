// Package main provides the bpsim command line tool.
// bpsim replays branch traces through a tournament branch predictor.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/bpsim/benchmarks"
	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/recorder"
	"github.com/sarchlab/bpsim/trace"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "bpsim",
		Short:        "Tournament branch predictor simulator",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newRunCmd(), newGenCmd(), newConfigCmd(), newWorkloadsCmd())

	return rootCmd
}

type runOptions struct {
	configPath   string
	policy       string
	workloads    []string
	allWorkloads bool
	format       string
	dbPath       string
	verbose      bool
}

func newRunCmd() *cobra.Command {
	opts := runOptions{}

	runCmd := &cobra.Command{
		Use:   "run [trace files]",
		Short: "Replay traces and workloads through the predictor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	runCmd.Flags().StringVar(&opts.configPath, "config", "", "Path to predictor configuration JSON file")
	runCmd.Flags().StringVar(&opts.policy, "policy", "", "History policy override (conditional-only, every-branch)")
	runCmd.Flags().StringSliceVarP(&opts.workloads, "workload", "w", nil, "Built-in workload to run (repeatable)")
	runCmd.Flags().BoolVar(&opts.allWorkloads, "all-workloads", false, "Run every built-in workload")
	runCmd.Flags().StringVar(&opts.format, "format", "text", "Output format (text, csv, json)")
	runCmd.Flags().StringVar(&opts.dbPath, "db", "", "Record every update into this SQLite database")
	runCmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")

	return runCmd
}

func run(cmd *cobra.Command, opts runOptions, traces []string) error {
	config, err := loadConfig(opts.configPath, opts.policy)
	if err != nil {
		return err
	}

	benches, err := collectBenchmarks(opts, traces)
	if err != nil {
		return err
	}

	harnessConfig := benchmarks.DefaultConfig()
	harnessConfig.Predictor = config
	harnessConfig.Output = cmd.OutOrStdout()
	harnessConfig.Verbose = opts.verbose

	var rec *recorder.Recorder
	if opts.dbPath != "" {
		rec, err = recorder.New(opts.dbPath)
		if err != nil {
			return err
		}
		defer rec.Close()

		harnessConfig.Hooks = []sim.Hook{rec}
		if opts.verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "Recording one run per benchmark into %s\n", opts.dbPath)
		}
	}

	harness := benchmarks.NewHarness(harnessConfig)
	harness.AddBenchmarks(benches)
	results := harness.RunAll()

	if rec != nil {
		for _, r := range results {
			stats := predictor.Stats{
				Updates:        r.Branches,
				Correct:        r.Correct,
				Mispredictions: r.Mispredictions,
			}
			if err := rec.WriteSummary(r.Name, config, stats); err != nil {
				return err
			}
		}
	}

	switch opts.format {
	case "text":
		harness.PrintResults(results)
	case "csv":
		harness.PrintCSV(results)
	case "json":
		return harness.PrintJSON(results)
	default:
		return fmt.Errorf("unknown output format %q", opts.format)
	}

	return nil
}

func loadConfig(path, policy string) (predictor.Config, error) {
	config := predictor.DefaultConfig()
	if path != "" {
		var err error
		config, err = predictor.LoadConfig(path)
		if err != nil {
			return predictor.Config{}, fmt.Errorf("error loading predictor config: %w", err)
		}
	}

	if policy != "" {
		config.HistoryPolicy = predictor.HistoryPolicy(policy)
	}

	if err := config.Validate(); err != nil {
		return predictor.Config{}, err
	}

	return config, nil
}

func collectBenchmarks(opts runOptions, traces []string) ([]benchmarks.Benchmark, error) {
	var benches []benchmarks.Benchmark

	for _, path := range traces {
		b, err := loadTrace(path)
		if err != nil {
			return nil, err
		}
		benches = append(benches, b)
	}

	if opts.allWorkloads {
		benches = append(benches, benchmarks.GetWorkloads()...)
	}

	for _, name := range opts.workloads {
		b, ok := benchmarks.Workload(name)
		if !ok {
			return nil, fmt.Errorf("unknown workload %q (available: %v)",
				name, benchmarks.WorkloadNames())
		}
		benches = append(benches, b)
	}

	if len(benches) == 0 {
		return nil, fmt.Errorf("nothing to run: pass trace files, --workload or --all-workloads")
	}

	return benches, nil
}

func loadTrace(path string) (benchmarks.Benchmark, error) {
	f, err := os.Open(path)
	if err != nil {
		return benchmarks.Benchmark{}, fmt.Errorf("error opening trace: %w", err)
	}
	defer f.Close()

	events, err := trace.ReadAll(f)
	if err != nil {
		return benchmarks.Benchmark{}, fmt.Errorf("error reading trace %s: %w", path, err)
	}

	return benchmarks.Benchmark{
		Name:        filepath.Base(path),
		Description: "trace " + path,
		Events:      events,
	}, nil
}

func newGenCmd() *cobra.Command {
	var output string

	genCmd := &cobra.Command{
		Use:   "gen <workload>",
		Short: "Write a built-in workload as a trace file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bench, ok := benchmarks.Workload(args[0])
			if !ok {
				return fmt.Errorf("unknown workload %q (available: %v)",
					args[0], benchmarks.WorkloadNames())
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			w := trace.NewWriter(out)
			if err := w.WriteComment(bench.Name + ": " + bench.Description); err != nil {
				return err
			}
			for _, ev := range bench.Events {
				if err := w.Write(ev); err != nil {
					return err
				}
			}
			return w.Flush()
		},
	}
	genCmd.Flags().StringVarP(&output, "output", "o", "", "Output trace file (default: stdout)")

	return genCmd
}

func newConfigCmd() *cobra.Command {
	var output string

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print or save the default predictor configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := predictor.DefaultConfig()
			if output != "" {
				return config.SaveConfig(output)
			}

			data, err := json.MarshalIndent(config, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
	configCmd.Flags().StringVarP(&output, "output", "o", "", "Write the configuration to this file")

	return configCmd
}

func newWorkloadsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workloads",
		Short: "List the built-in workloads",
		Run: func(cmd *cobra.Command, args []string) {
			for _, b := range benchmarks.GetWorkloads() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", b.Name, b.Description)
			}
		},
	}
}
