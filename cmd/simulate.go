package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/antekone/gaeta/internal/feed"
	"github.com/antekone/gaeta/internal/simulate"
)

// newSimulateCmd creates the 'simulate' subcommand, which tracks a synthetic
// workload advancing on a ticker.
func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Track a synthetic workload",
		Long: `Generates readings from 0 to --total in increments of --step, one per
--interval, with optional multiplicative jitter, and tracks them like a real
operation. Useful for watching the estimator settle.`,
		Args: cobra.NoArgs,
		RunE: runSimulateCommand,
	}
	flags := cmd.Flags()
	flags.Uint64("total", 1000, "value that marks completion")
	flags.Uint64("step", 25, "mean increment per reading")
	flags.Duration("interval", 100*time.Millisecond, "time between readings")
	flags.Float64("jitter", 0, "relative step jitter in [0,1)")
	flags.Uint64("seed", 1, "jitter seed")
	return cmd
}

func runSimulateCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	sim := a.Config().Simulate
	w := simulate.Workload{
		Total:    sim.Total,
		Step:     sim.Step,
		Interval: sim.Interval,
		Jitter:   sim.Jitter,
		Seed:     sim.Seed,
	}
	if err := w.Validate(); err != nil {
		_ = a.Close(context.Background())
		return fmt.Errorf("invalid workload: %w", err)
	}
	return runTracked(cmd.Context(), a, func(ctx context.Context) <-chan feed.Item {
		return w.Stream(ctx)
	})
}
