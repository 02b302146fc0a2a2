package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Fircube/RISCV-Simulator/internal/cpu"
	"github.com/Fircube/RISCV-Simulator/internal/loader"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "suprax",
		Short: "SupraX — a speculative out-of-order RV32I core simulator",
	}

	var memSize uint32
	var seed int64
	var maxCycles uint64
	var trace bool

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Load a hex-stream program from stdin and run it to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			var traceOut = os.Stderr
			cfg := cpu.Config{
				MemSize:   memSize,
				Seed:      seed,
				MaxCycles: maxCycles,
			}
			if trace {
				cfg.Trace = traceOut
			}

			s := cpu.New(cfg)
			if err := loader.Load(os.Stdin, s.Mem); err != nil {
				return err
			}

			out, err := s.Run(context.Background())
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			fmt.Println(out)
			return nil
		},
	}
	runCmd.Flags().Uint32Var(&memSize, "mem-size", cpu.DefaultMemSize, "Flat memory size in bytes")
	runCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "Stage-shuffle RNG seed (deterministic replay)")
	runCmd.Flags().Uint64Var(&maxCycles, "max-cycles", 10_000_000, "Cycle budget before Run gives up and returns an error")
	runCmd.Flags().BoolVarP(&trace, "trace", "v", false, "Log a completion line (cycle, output, branch counts) to stderr")

	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
