// Package main provides the entry point for runnersim, a cycle-accurate
// simulator of a pair of multithreaded Runner packet processors.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/sarchlab/runnersim/loader"
	"github.com/sarchlab/runnersim/sim"
	"github.com/sarchlab/runnersim/timing/latency"
)

type options struct {
	images      [sim.NumRunners]loader.Paths
	common      string
	commands    string
	configPath  string
	seed        uint64
	maxClocks   uint64
	tracePath   string
	sequential  bool
	plotPath    string
	sampleEvery uint64
	verbose     int
	cpuProfile  string
	memProfile  string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "runnersim",
		Short: "Cycle-accurate simulator of the Runner packet processor",
		Long: `runnersim loads flat big-endian code, data and context images into
two co-running Runners sharing a common segment, runs them until every
runner is idle or halted, and prints per-runner statistics.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.commands != "" {
				if err := applyCommandsFile(cmd, opts.commands); err != nil {
					return err
				}
			}
			return profiled(opts, func() error { return run(cmd, opts) })
		},
	}
	cmd.AddCommand(newBenchCommand())

	f := cmd.Flags()
	for i := range opts.images {
		f.StringVar(&opts.images[i].Code, fmt.Sprintf("code%d", i), "",
			fmt.Sprintf("code image of runner %d", i))
		f.StringVar(&opts.images[i].Data, fmt.Sprintf("data%d", i), "",
			fmt.Sprintf("data image of runner %d", i))
		f.StringVar(&opts.images[i].Context, fmt.Sprintf("context%d", i), "",
			fmt.Sprintf("context image of runner %d", i))
	}
	f.StringVar(&opts.common, "common", "", "common segment image")
	f.StringVarP(&opts.commands, "commands", "f", "", "file of additional flags")
	f.StringVar(&opts.configPath, "config", "", "timing configuration (JSON or YAML)")
	f.Uint64Var(&opts.seed, "seed", 0, "latency random seed (overrides the configuration)")
	f.Uint64Var(&opts.maxClocks, "max-clocks", 0, "stop each runner after this many clocks (0 = no limit)")
	f.StringVar(&opts.tracePath, "trace", "", "write the instruction trace to this file (- for stdout)")
	f.BoolVar(&opts.sequential, "sequential", false, "run runner 0 to completion before runner 1")
	f.StringVar(&opts.plotPath, "plot", "", "save accelerator occupancy plots, e.g. occupancy.png")
	f.Uint64Var(&opts.sampleEvery, "sample-every", 16, "clocks between occupancy samples when plotting")
	f.CountVarP(&opts.verbose, "verbose", "v", "increase log verbosity")
	f.StringVar(&opts.cpuProfile, "cpuprofile", "", "write a CPU profile to this file")
	f.StringVar(&opts.memProfile, "memprofile", "", "write a memory profile to this file")

	return cmd
}

// profiled runs fn under the profiles requested in opts.
func profiled(opts *options, fn func() error) error {
	if opts.cpuProfile != "" {
		stop, err := startCPUProfile(opts.cpuProfile)
		if err != nil {
			return err
		}
		defer stop()
	}

	if err := fn(); err != nil {
		return err
	}

	if opts.memProfile != "" {
		return writeHeapProfile(opts.memProfile)
	}
	return nil
}

func newLogger(verbose int) logr.Logger {
	level := slog.LevelWarn
	if verbose > 0 {
		level = slog.Level(-verbose + 1)
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return logr.FromSlogHandler(h)
}

func loadConfig(cmd *cobra.Command, opts *options) (*latency.Config, error) {
	config := latency.DefaultConfig()
	if opts.configPath != "" {
		var err error
		config, err = latency.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("seed") {
		config.Seed = opts.seed
	}
	return config, nil
}

func run(cmd *cobra.Command, opts *options) error {
	config, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	simOpts := []sim.Option{
		sim.WithConfig(config),
		sim.WithLogger(newLogger(opts.verbose)),
		sim.WithMaxClocks(opts.maxClocks),
	}
	if opts.sequential {
		simOpts = append(simOpts, sim.WithMode(sim.Sequential))
	}
	if opts.plotPath != "" {
		simOpts = append(simOpts, sim.WithSampling(max(opts.sampleEvery, 1)))
	}

	out := cmd.OutOrStdout()
	switch opts.tracePath {
	case "":
	case "-":
		simOpts = append(simOpts, sim.WithTrace(out))
	default:
		traceFile, err := os.Create(opts.tracePath)
		if err != nil {
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		defer traceFile.Close()
		simOpts = append(simOpts, sim.WithTrace(traceFile))
	}

	s := sim.NewSimulator(simOpts...)

	if opts.common != "" {
		words, err := loader.Load(opts.common, loader.CommonSize)
		if err != nil {
			return err
		}
		s.LoadCommon(words)
	}
	for i, paths := range opts.images {
		if paths.Code == "" {
			continue
		}
		prog, err := loader.LoadProgram(paths)
		if err != nil {
			return fmt.Errorf("runner %d: %w", i, err)
		}
		if err := s.LoadProgram(i, prog); err != nil {
			return err
		}
	}

	runErr := s.Run()
	if errors.Is(runErr, sim.ErrNoProgram) {
		return runErr
	}

	if err := s.Summary().Print(out); err != nil {
		return err
	}

	if opts.plotPath != "" {
		ext := filepath.Ext(opts.plotPath)
		files, err := s.PlotOccupancy(strings.TrimSuffix(opts.plotPath, ext), ext)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintf(out, "occupancy plot: %s\n", f)
		}
	}

	return runErr
}
