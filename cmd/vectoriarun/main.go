// Command vectoriarun compiles a graph description, fills its Input and
// Parameter buffers from a JSON tensor file, executes it once, and prints
// the output tensor and trace. Grounded on cmd/sublrun's load-configure-run
// shape, rewritten against the new ir/runtime packages since sublrun's
// .subl loader, EngineOptions, and ExecuteStreaming no longer exist.
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
	logLevel  string
	inputPath string
	traceOut  string
)

var rootCmd = &cobra.Command{
	Use:   "vectoriarun <graph.yaml>",
	Short: "Compile and execute a VECTORIA graph description",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("invalid log level %q: %v", logLevel, err)
		}
		logrus.SetLevel(level)

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
		logrus.Infof("compiled: %d nodes, arena %d bytes", len(g.Nodes), e.ArenaSize())

		if inputPath != "" {
			if err := fillInputs(e, ids, inputPath); err != nil {
				logrus.Fatalf("fill inputs: %v", err)
			}
		}

		if err := e.Execute(); err != nil {
			logrus.Fatalf("execute: %v", err)
		}

		outID, ok := ids[spec.Output]
		if !ok {
			logrus.Fatalf("output node %q not found", spec.Output)
		}
		resolvedOut, err := e.Resolve(outID)
		if err != nil {
			logrus.Fatalf("resolve output %q: %v", spec.Output, err)
		}
		out, err := e.Buffer(resolvedOut)
		if err != nil {
			logrus.Fatalf("read output buffer: %v", err)
		}

		fmt.Printf("%s = %v\n", spec.Output, out)

		if traceOut != "" {
			data, err := json.MarshalIndent(e.Trace(), "", "  ")
			if err != nil {
				logrus.Fatalf("marshal trace: %v", err)
			}
			if err := os.WriteFile(traceOut, data, 0o644); err != nil {
				logrus.Fatalf("write trace: %v", err)
			}
			logrus.Infof("wrote execution trace to %s", traceOut)
		}
	},
}

// fillInputs loads a JSON object mapping node name -> flat float32 array
// and copies each into the matching Input/Parameter buffer.
func fillInputs(e *runtime.Engine, ids map[string]int32, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var tensors map[string][]float32
	if err := json.Unmarshal(data, &tensors); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for name, values := range tensors {
		id, ok := ids[name]
		if !ok {
			return fmt.Errorf("unknown input tensor %q", name)
		}
		resolved, err := e.Resolve(id)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", name, err)
		}
		buf, err := e.Buffer(resolved)
		if err != nil {
			return fmt.Errorf("buffer for %q: %w", name, err)
		}
		if len(values) != len(buf) {
			return fmt.Errorf("tensor %q has %d elements, want %d", name, len(values), len(buf))
		}
		copy(buf, values)
	}
	return nil
}

func init() {
	rootCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&inputPath, "input", "", "Path to a JSON file mapping input/parameter names to flat float32 arrays")
	rootCmd.Flags().StringVar(&traceOut, "trace-out", "", "Write the full execution trace as JSON to this path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
