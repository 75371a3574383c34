// Command vectoriaperf benchmarks a compiled VECTORIA graph: sequential
// Engine.Execute versus the level-parallel runtime.RunParallel benchmark
// dispatcher, across a sweep of worker counts. Grounded on cmd/sublperf's
// iterate-and-time structure, rewritten against graph descriptions instead
// of raw kernel microbenchmarks since the kernel registry is no longer
// addressed directly by cmd/ tools.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sulkysubject37/vectoria/capability"
	"github.com/sulkysubject37/vectoria/graphspec"
	"github.com/sulkysubject37/vectoria/runtime"
)

var (
	logLevel string
	iter     int
	workers  []int
)

var rootCmd = &cobra.Command{
	Use:   "vectoriaperf <graph.yaml>",
	Short: "Benchmark sequential vs parallel execution of a VECTORIA graph",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("invalid log level %q: %v", logLevel, err)
		}
		logrus.SetLevel(level)

		caps := capability.Probe()
		fmt.Printf("capabilities: %s\n", caps)

		spec, err := graphspec.Load(args[0])
		if err != nil {
			logrus.Fatalf("load graph: %v", err)
		}
		g, ids, err := graphspec.Build(spec)
		if err != nil {
			logrus.Fatalf("build graph: %v", err)
		}

		e := runtime.NewEngine(g)
		if err := e.Compile(); err != nil {
			logrus.Fatalf("compile: %v", err)
		}
		fillZeros(e, ids)

		fmt.Printf("nodes: %d, arena: %d bytes, iterations: %d\n\n", len(g.Nodes), e.ArenaSize(), iter)

		seq := timeIt(iter, func() error { return e.Execute() })
		fmt.Printf("sequential Execute:     %v/iter\n", seq/time.Duration(iter))

		for _, w := range workers {
			d := timeIt(iter, func() error { return runtime.RunParallel(e, w) })
			fmt.Printf("RunParallel(workers=%d): %v/iter\n", w, d/time.Duration(iter))
		}
	},
}

// fillZeros seeds every Input/Parameter buffer with zeros so Execute does
// not reject the run for unfilled inputs; benchmarking cares about dispatch
// cost, not numerical content.
func fillZeros(e *runtime.Engine, ids map[string]int32) {
	for _, id := range ids {
		resolved, err := e.Resolve(id)
		if err != nil {
			continue
		}
		buf, err := e.Buffer(resolved)
		if err != nil {
			continue
		}
		for i := range buf {
			buf[i] = 0
		}
	}
}

func timeIt(n int, fn func() error) time.Duration {
	start := time.Now()
	for i := 0; i < n; i++ {
		if err := fn(); err != nil {
			logrus.Fatalf("benchmark iteration failed: %v", err)
		}
	}
	return time.Since(start)
}

func init() {
	rootCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().IntVar(&iter, "iter", 1000, "Number of iterations per measurement")
	rootCmd.Flags().IntSliceVar(&workers, "workers", []int{2, 4, 8}, "Worker counts to sweep for RunParallel")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
