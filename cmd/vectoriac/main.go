// Command vectoriac loads a graph description, compiles it, and reports the
// result: node count, arena size, and the compiled node id of every named
// node, plus (with --trace-out) the compile-time trace prefix as JSON. Grounded on cmd/sublc's flag-based single-shot compiler CLI,
// rewritten against cobra/logrus since there is no longer a textual DSL or a
// binary .subl artifact to produce — compile() is an in-process step, so this
// tool's job is reporting what it did rather than writing a file.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sulkysubject37/vectoria/graphspec"
	"github.com/sulkysubject37/vectoria/runtime"
)

var (
	logLevel string
	traceOut string
	quiet    bool
)

var rootCmd = &cobra.Command{
	Use:   "vectoriac <graph.yaml>",
	Short: "Compile a VECTORIA graph description and report its schedule",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("invalid log level %q: %v", logLevel, err)
		}
		logrus.SetLevel(level)

		spec, err := graphspec.Load(args[0])
		if err != nil {
			logrus.Fatalf("load: %v", err)
		}
		g, ids, err := graphspec.Build(spec)
		if err != nil {
			logrus.Fatalf("build: %v", err)
		}
		logrus.Infof("built graph: %d nodes, output %q", len(g.Nodes), spec.Output)

		e := runtime.NewEngine(g)
		if err := e.Compile(); err != nil {
			logrus.Fatalf("compile: %v", err)
		}
		logrus.Infof("compiled: arena size %d bytes", e.ArenaSize())

		if !quiet {
			fmt.Printf("nodes: %d\n", len(g.Nodes))
			fmt.Printf("arena: %d bytes\n", e.ArenaSize())
			fmt.Printf("named buffers:\n")
			for name, id := range ids {
				resolved, err := e.Resolve(id)
				if err != nil {
					logrus.Fatalf("resolve %q: %v", name, err)
				}
				fmt.Printf("  %-20s node %d\n", name, resolved)
			}
		}

		if traceOut != "" {
			data, err := json.MarshalIndent(e.Trace(), "", "  ")
			if err != nil {
				logrus.Fatalf("marshal trace: %v", err)
			}
			if err := os.WriteFile(traceOut, data, 0o644); err != nil {
				logrus.Fatalf("write trace: %v", err)
			}
			logrus.Infof("wrote compile trace to %s", traceOut)
		}
	},
}

func init() {
	rootCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&traceOut, "trace-out", "", "Write the compile-time trace prefix as JSON to this path")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress the schedule report on stdout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
