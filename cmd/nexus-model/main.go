// Command nexus-model runs the cycle-accurate functional model of a Nexus
// mesh: it optionally loads a design file, drives the engine for a fixed
// number of cycles, and reports the resulting device status.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/nexusfab/nexus/engine"
	"github.com/nexusfab/nexus/internal/xlog"
	"github.com/nexusfab/nexus/loader"
	"github.com/nexusfab/nexus/message"
)

func main() {
	var (
		rows, columns uint32
		cycles        uint32
		design        string
		vcdPath       string
		outPath       string
		verbose       bool
	)

	root := &cobra.Command{
		Use:   "nexus-model",
		Short: "Run the Nexus functional model over a mesh of tiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			xlog.SetVerbose(verbose)

			e := engine.New(rows, columns)

			if design != "" {
				if err := loader.Load(e, design); err != nil {
					return fmt.Errorf("nexus-model: loading design: %w", err)
				}
			}

			var vcd *vcdWriter
			if vcdPath != "" {
				f, err := os.Create(vcdPath)
				if err != nil {
					return fmt.Errorf("nexus-model: creating vcd file: %w", err)
				}
				atexit.Register(func() { f.Close() })
				vcd = newVCDWriter(f, columns)
				vcd.writeHeader()
			}

			freq := e.Run(cycles, true)
			if vcd != nil {
				vcd.writeSample(cycles, e.Mesh.Outputs())
			}

			status := message.UnpackStatus(message.PackStatus(message.Status{
				MeshIdle: e.Mesh.IsIdle(),
				AggIdle:  e.Control.IsIdle(),
				Cycle:    cycles,
			}))

			report := fmt.Sprintf(
				"ran %d cycles at %.1f Hz effective; mesh idle=%v, control idle=%v\n",
				cycles, freq, status.MeshIdle, status.AggIdle,
			)
			fmt.Print(report)

			if outPath != "" {
				if err := os.WriteFile(outPath, []byte(report), 0o644); err != nil {
					return fmt.Errorf("nexus-model: writing report: %w", err)
				}
			}
			return nil
		},
	}

	root.Flags().Uint32Var(&rows, "rows", 1, "mesh row count")
	root.Flags().Uint32Var(&columns, "columns", 1, "mesh column count")
	root.Flags().Uint32Var(&cycles, "cycles", 1, "number of cycles to run")
	root.Flags().StringVar(&design, "design", "", "JSON design file to load before running")
	root.Flags().StringVar(&vcdPath, "vcd", "", "write a value-change-dump style trace of aggregated outputs to this file")
	root.Flags().StringVar(&outPath, "out", "", "write the run report to this file")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable per-cycle trace logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
