// Command nexus-compile lowers an elaborated netlist into a signal.Module,
// optimizes it, and partitions it across a mesh of tiles under a fixed
// per-tile I/O budget. It takes its netlist as a JSON-encoded ast.Module
// (see hdl/ast.DecodeModule) rather than HDL source text: tokenising and
// parsing HDL is explicitly out of scope per spec.md §1, so the CLI picks
// up where an upstream elaborator would leave off.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/nexusfab/nexus/hdl"
	"github.com/nexusfab/nexus/hdl/ast"
	"github.com/nexusfab/nexus/internal/xlog"
	"github.com/nexusfab/nexus/optimize"
	"github.com/nexusfab/nexus/partition"
	"github.com/nexusfab/nexus/sv"
)

func main() {
	var (
		inPath           string
		outPath          string
		nodeInputs       int
		nodeOutputs      int
		forbidConstInput bool
		verbose          bool
	)

	root := &cobra.Command{
		Use:   "nexus-compile",
		Short: "Lower, optimize and partition a Nexus netlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			xlog.SetVerbose(verbose)

			raw, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("nexus-compile: reading netlist: %w", err)
			}
			astMod, err := ast.DecodeModule(raw)
			if err != nil {
				return fmt.Errorf("nexus-compile: decoding netlist: %w", err)
			}

			mod, err := hdl.Lower(astMod)
			if err != nil {
				return fmt.Errorf("nexus-compile: lowering: %w", err)
			}

			folded := optimize.Propagate(mod)
			pruned := optimize.Prune(mod)
			xlog.Trace("nexus-compile optimize", "folded", folded, "pruned", pruned)

			if err := optimize.Sanity(mod, forbidConstInput); err != nil {
				return fmt.Errorf("nexus-compile: sanity check: %w", err)
			}

			out, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("nexus-compile: creating output: %w", err)
			}
			defer out.Close()

			if nodeInputs <= 0 && nodeOutputs <= 0 {
				return sv.Print(out, mod)
			}

			pr := partition.New(mod, nodeInputs, nodeOutputs)
			if err := pr.Run(); err != nil {
				return fmt.Errorf("nexus-compile: partitioning: %w", err)
			}
			return sv.PrintPartitioned(out, pr)
		},
	}

	root.Flags().StringVar(&inPath, "in", "", "JSON-encoded elaborated netlist (ast.Module) to compile")
	root.Flags().StringVar(&outPath, "out", "", "SystemVerilog output path")
	root.Flags().IntVar(&nodeInputs, "node-inputs", 0, "per-tile input budget; partitioning is skipped when both budgets are 0")
	root.Flags().IntVar(&nodeOutputs, "node-outputs", 0, "per-tile output budget; partitioning is skipped when both budgets are 0")
	root.Flags().BoolVar(&forbidConstInput, "forbid-const-inputs", false, "fail sanity checking if a gate is driven directly by a constant")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable trace logging")
	root.MarkFlagRequired("in")
	root.MarkFlagRequired("out")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
