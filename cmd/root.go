// Package cmd defines and implements the CLI commands for the gaeta executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/antekone/gaeta/internal/app"
	"github.com/antekone/gaeta/internal/config"
	"github.com/antekone/gaeta/internal/feed"
	"github.com/antekone/gaeta/internal/report"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// appFactory builds the App from loaded config. Tests inject their own.
type appFactory func(cfg config.Config) (*app.App, error)

// flagKeys maps flag names onto config keys. Flags missing from a command
// are skipped.
var flagKeys = map[string]string{
	"metrics-addr": "server.addr",
	"output":       "output.format",
	"unit":         "clock.unit",
	"quiet":        "output.quiet",
	"every":        "output.every",
	"total":        "simulate.total",
	"step":         "simulate.step",
	"interval":     "simulate.interval",
	"jitter":       "simulate.jitter",
	"seed":         "simulate.seed",
}

// newRootCmd creates and configures the root command.
func newRootCmd(newApp appFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gaeta",
		Short: "Estimate speed and remaining time of long-running operations.",
		Long: `gaeta feeds progress reports into a sliding-window estimator and prints
the smoothed speed and remaining time as the operation advances. Reports come
from a file, stdin, or a synthetic workload; an optional HTTP server exposes
run state and Prometheus metrics while the run is in flight.`,
		SilenceUsage: true,

		// Runs after flags are parsed but before the subcommand's RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile, err := cmd.Flags().GetString("config")
			if err != nil {
				return fmt.Errorf("read config flag: %w", err)
			}
			cfg, err := config.Load(cfgFile, bindings(cmd)...)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			appInstance, err := newApp(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			zap.ReplaceGlobals(appInstance.Logger())

			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (yaml, json or toml)")
	flags.String("metrics-addr", "", "serve /metrics and /v1/runs on this address while running")
	flags.String("output", config.OutputTable, "summary format: table or json")
	flags.Duration("unit", time.Millisecond, "duration of one estimator time unit")
	flags.Bool("quiet", false, "suppress per-report progress lines")
	flags.Duration("every", 0, "minimum gap between printed progress lines")

	cmd.AddCommand(newSimulateCmd(), newTrackCmd())
	return cmd
}

func bindings(cmd *cobra.Command) []config.FlagBinding {
	out := make([]config.FlagBinding, 0, len(flagKeys))
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			out = append(out, config.FlagBinding{Key: key, Flag: f})
		}
	}
	return out
}

func resolveApp(ctx context.Context) (*app.App, error) {
	if ctx == nil {
		return nil, errors.New("command context missing")
	}
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, errors.New("application not initialized")
	}
	return appInstance, nil
}

// runTracked starts the App, tracks items to completion, shuts the App down
// and prints the summary. The run error takes precedence over close errors.
func runTracked(ctx context.Context, a *app.App, items func(context.Context) <-chan feed.Item) error {
	if err := a.Start(ctx); err != nil {
		closeErr := a.Close(context.Background())
		return errors.Join(err, closeErr)
	}

	summary, runErr := a.Track(ctx, items(ctx))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config().Server.ShutdownTimeout)
	defer cancel()
	if err := a.Close(shutdownCtx); err != nil {
		a.Logger().Warn("failed to close application services", zap.Error(err))
	}

	cfg := a.Config()
	if err := report.WriteSummary(a.Out(), cfg.Output.Format, summary, cfg.Clock.Unit); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(defaultApp).ExecuteContext(ctx)
	stop()
	if err != nil {
		zap.L().Error("command execution failed", zap.Error(err))
		os.Exit(1)
	}
}

func defaultApp(cfg config.Config) (*app.App, error) {
	return app.New(cfg, app.Options{})
}
