// Package main implements the oclrace CLI tool.
//
// The oclrace tool replays recorded kernel memory traces through the
// data-race detector:
//
//	oclrace replay trace.yaml     # Replay a trace, report races
//	oclrace version               # Print version information
//
// A trace is a YAML description of one kernel invocation: its dimensions,
// its buffers, and the ordered memory/barrier events observed by the
// simulator (see package cmd/oclrace/trace for the format).
//
// The tool exits 0 when the trace replays race-free, 1 when races were
// reported, and 2 on usage or trace-format errors.
package main

import (
	"fmt"
	"os"

	"github.com/kolkov/oclrace/race"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	command := os.Args[1]

	switch command {
	case "replay":
		replayCommand(os.Args[2:])
	case "version", "--version", "-v":
		info := race.GetInfo()
		fmt.Printf("oclrace version %s (%s)\n", info.Version, info.Algorithm)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Print(`oclrace - data-race detector for simulated OpenCL kernels

USAGE:
	oclrace replay [flags] <trace.yaml>   Replay a kernel trace
	oclrace version                       Print version information
	oclrace help                          Show this help

REPLAY FLAGS:
	-uniform-writes       report redundant same-value stores too
	-strict-atomic-sync   keep atomic permission revoked across group-scope syncs
	-q                    suppress race reports, print only the count

ENVIRONMENT:
	OCLGRIND_UNIFORM_WRITES   same effect as -uniform-writes
`)
}
