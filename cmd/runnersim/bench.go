package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/runnersim/benchmarks"
	"github.com/sarchlab/runnersim/timing/latency"
)

func newBenchCommand() *cobra.Command {
	var (
		csvOutput  bool
		jsonOutput bool
		core       bool
		sequential bool
		configPath string
		seed       uint64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the Runner microbenchmarks",
		Long: `bench runs a set of small Runner programs, each targeting one part of
the timing model, and reports clocks, instructions and stalls.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if csvOutput && jsonOutput {
				return fmt.Errorf("--csv and --json are mutually exclusive")
			}

			timing := latency.DefaultConfig()
			if configPath != "" {
				var err error
				timing, err = latency.LoadConfig(configPath)
				if err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("seed") {
				timing.Seed = seed
			}

			config := benchmarks.DefaultConfig()
			config.Timing = timing
			config.Sequential = sequential
			config.Output = cmd.OutOrStdout()

			harness := benchmarks.NewHarness(config)
			if core {
				harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
			} else {
				harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
			}

			results := harness.RunAll()

			switch {
			case csvOutput:
				harness.PrintCSV(results)
			case jsonOutput:
				return harness.PrintJSON(results)
			default:
				harness.PrintResults(results)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&csvOutput, "csv", false, "output results in CSV format")
	f.BoolVar(&jsonOutput, "json", false, "output results in JSON format")
	f.BoolVar(&core, "core", false, "run only the core benchmarks")
	f.BoolVar(&sequential, "sequential", false, "run runner 0 to completion before runner 1")
	f.StringVar(&configPath, "config", "", "timing configuration (JSON or YAML)")
	f.Uint64Var(&seed, "seed", 0, "latency random seed (overrides the configuration)")

	return cmd
}
