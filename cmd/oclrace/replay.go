package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kolkov/oclrace/cmd/oclrace/trace"
	"github.com/kolkov/oclrace/race"
)

// replayCommand implements "oclrace replay [flags] <trace.yaml>".
func replayCommand(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	uniformWrites := fs.Bool("uniform-writes", false,
		"report stores of the value already in memory too")
	strictAtomic := fs.Bool("strict-atomic-sync", false,
		"keep atomic permission revoked across group-scope synchronization")
	quiet := fs.Bool("q", false, "suppress race reports, print only the count")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "replay: expected exactly one trace file")
		os.Exit(2)
	}

	f, err := trace.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var out io.Writer = os.Stderr
	if *quiet {
		out = io.Discard
	}

	races, err := f.Replay(race.Config{
		DisableUniformWriteFilter: *uniformWrites ||
			os.Getenv("OCLGRIND_UNIFORM_WRITES") != "",
		StrictAtomicSync: *strictAtomic,
		Output:           out,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("%s: %d race(s)\n", f.Kernel.Name, races)
	if races > 0 {
		os.Exit(1)
	}
}
