// Package main provides the entry point for MESISim.
// MESISim replays a memory trace against split L1 instruction and data
// caches kept coherent with the MESI protocol.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/mesisim/cache"
	"github.com/sarchlab/mesisim/coherence"
	"github.com/sarchlab/mesisim/config"
	"github.com/sarchlab/mesisim/record"
	"github.com/sarchlab/mesisim/replay"
	"github.com/sarchlab/mesisim/report"
	"github.com/sarchlab/mesisim/trace"
)

type options struct {
	mode       int
	configPath string
	recordPath string
	verbose    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "mesisim [flags] <trace-file>",
		Short: "Replay a memory trace against MESI-coherent split L1 caches.",
		Long: `MESISim replays a trace of "<opcode> <hex-address>" lines against a ` +
			`4-way L1 instruction cache and an 8-way L1 data cache, tracking ` +
			`MESI state, LRU order and hit statistics.`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(cmd, opts, args[0], stdout, stderr)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.IntVarP(&opts.mode, "mode", "m", 0,
		"Dump mode: 0 prints contents and statistics, 1 also prints L2 messages")
	flags.StringVarP(&opts.configPath, "config", "c", "",
		"Path to a JSON configuration file")
	flags.StringVarP(&opts.recordPath, "record", "r", "",
		"Record every event to <path>.sqlite3")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false,
		"Log every event to stderr")

	return cmd
}

func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		cfg, err = config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("mode") {
		cfg.Mode = opts.mode
	}
	if cmd.Flags().Changed("record") {
		cfg.RecordPath = opts.recordPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func run(
	cmd *cobra.Command,
	opts *options,
	tracePath string,
	stdout, stderr io.Writer,
) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	reader, err := trace.Open(tracePath)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	controller := coherence.NewController(
		coherence.WithAddressLayout(cfg.Layout()),
		coherence.WithInstructionCache(cfg.InstructionCache()),
		coherence.WithDataCache(cfg.DataCache()),
	)

	busLog := report.NewBusLog()
	controller.AcceptHook(busLog)

	if opts.verbose {
		controller.AcceptHook(report.NewEventLogger(stderr))
	}

	var recorder *record.Recorder
	if cfg.RecordPath != "" {
		recorder, err = record.New(cfg.RecordPath)
		if err != nil {
			return fmt.Errorf("failed to create recorder: %w", err)
		}
		defer func() { _ = recorder.Close() }()

		controller.AcceptHook(recorder)
		fmt.Fprintf(stderr, "Recording events to %s (run %s)\n",
			recorder.Path(), recorder.RunID())
	}

	mode := report.Mode(cfg.Mode)
	runner := replay.NewRunner(controller, report.NewReporter(stdout, busLog), mode)

	summary, runErr := runner.Run(reader)
	if errors.Is(runErr, cache.ErrPolicyInvariant) {
		return runErr
	}

	if err := runner.Print(mode); err != nil {
		return err
	}

	if recorder != nil {
		if err := recorder.Close(); err != nil {
			return fmt.Errorf("failed to save recorded events: %w", err)
		}
	}

	if opts.verbose {
		fmt.Fprintf(stderr, "Events: %d (applied %d, resets %d, prints %d)\n",
			summary.Events, summary.Applied, summary.Resets, summary.Prints)
	}

	if runErr != nil {
		return fmt.Errorf("trace processing stopped: %w", runErr)
	}

	return nil
}

func main() {
	cmd := newRootCmd(os.Stdout, os.Stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
