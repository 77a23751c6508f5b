// Package main provides the entry point for bpsim.
// bpsim simulates an Alpha 21264-style tournament branch predictor.
//
// For the full CLI, use: go run ./cmd/bpsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("bpsim - Tournament Branch Predictor Simulator")
	fmt.Println("")
	fmt.Println("Usage: bpsim <command> [options]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  run        Replay traces and workloads through the predictor")
	fmt.Println("  gen        Write a built-in workload as a trace file")
	fmt.Println("  config     Print or save the default predictor configuration")
	fmt.Println("  workloads  List the built-in workloads")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/bpsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/bpsim' instead.")
	}
}
