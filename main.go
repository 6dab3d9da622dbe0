// Package main provides the entry point for MESISim.
// MESISim is a MESI L1 cache controller simulator.
//
// For the full CLI, use: go run ./cmd/mesisim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("MESISim - MESI L1 Cache Controller Simulator")
	fmt.Println("Split 4-way instruction / 8-way data cache, built on Akita hooks")
	fmt.Println("")
	fmt.Println("Usage: mesisim [options] <trace-file>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -m, --mode     Dump mode (0: summary, 1: summary and L2 messages)")
	fmt.Println("  -c, --config   Path to configuration JSON file")
	fmt.Println("  -r, --record   Record events to <path>.sqlite3")
	fmt.Println("  -v, --verbose  Log every event")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/mesisim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/mesisim' instead.")
	}
}
