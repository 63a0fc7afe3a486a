// Package app initializes and holds long-lived services, acting as a
// dependency injection container for the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/antekone/gaeta/internal/api"
	"github.com/antekone/gaeta/internal/clock/system"
	"github.com/antekone/gaeta/internal/config"
	"github.com/antekone/gaeta/internal/feed"
	"github.com/antekone/gaeta/internal/id/uuid"
	"github.com/antekone/gaeta/internal/logging"
	"github.com/antekone/gaeta/internal/progress"
	"github.com/antekone/gaeta/internal/progress/sinks"
	"github.com/antekone/gaeta/internal/report"
	"github.com/antekone/gaeta/internal/runner"
	"github.com/antekone/gaeta/internal/store/memory"
	"github.com/antekone/gaeta/pkg/eta"
)

// Options overrides process-level defaults, mainly for tests.
type Options struct {
	// Out receives table progress lines and summaries. Default: os.Stdout
	Out io.Writer
	// Err receives progress lines when summaries are JSON. Default: os.Stderr
	Err io.Writer
	// Logger replaces the logger built from config.
	Logger *zap.Logger
}

// App holds the shared services for one CLI invocation.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	runs     *memory.RunStore
	hub      *progress.Hub
	ids      *uuid.Generator
	out      io.Writer

	listener net.Listener
	server   *http.Server
	serveErr chan error
}

// New wires logging, metrics, the run store and the event hub from cfg.
func New(cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = logging.New(cfg.Logging.Development, cfg.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := opts.Err
	if errOut == nil {
		errOut = os.Stderr
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promSink, err := sinks.NewPrometheusSink(registry)
	if err != nil {
		return nil, fmt.Errorf("prometheus sink: %w", err)
	}

	runs := memory.NewRunStore()
	hubSinks := []progress.Sink{
		sinks.NewLogSink(logger.Named("progress")),
		promSink,
		sinks.NewStoreSink(runs, logger.Named("store")),
	}
	if !cfg.Output.Quiet {
		consoleOut := out
		if strings.EqualFold(cfg.Output.Format, config.OutputJSON) {
			consoleOut = errOut
		}
		hubSinks = append(hubSinks, report.NewConsoleSink(report.ConsoleOptions{
			Output: consoleOut,
			Every:  cfg.Output.Every,
		}))
	}

	hub := progress.NewHub(progress.Config{
		BufferSize:     cfg.Progress.BufferSize,
		MaxBatchEvents: cfg.Progress.MaxBatchEvents,
		MaxBatchWait:   cfg.Progress.MaxBatchWait,
		SinkTimeout:    cfg.Progress.SinkTimeout,
		Logger:         logger.Named("hub"),
	}, hubSinks...)

	return &App{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		runs:     runs,
		hub:      hub,
		ids:      uuid.New(),
		out:      out,
	}, nil
}

// Config returns the configuration the App was built from.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Runs returns the in-memory run repository fed by the hub.
func (a *App) Runs() *memory.RunStore {
	return a.runs
}

// Registry returns the metrics registry served on /metrics.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// Out returns the writer summaries are printed to.
func (a *App) Out() io.Writer {
	return a.out
}

// Addr reports the status server's listen address, or "" when it is off.
func (a *App) Addr() string {
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Start opens the status server when server.addr is set.
func (a *App) Start(context.Context) error {
	if a.cfg.Server.Addr == "" || a.server != nil {
		return nil
	}
	apiServer, err := api.NewServer(api.Options{
		Repo:     a.runs,
		Registry: a.registry,
		Logger:   a.logger.Named("api"),
	})
	if err != nil {
		return fmt.Errorf("build status server: %w", err)
	}
	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.Server.Addr, err)
	}
	a.listener = ln
	a.server = &http.Server{
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.serveErr = make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.String("addr", ln.Addr().String()))
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			a.serveErr <- err
		}
		close(a.serveErr)
	}()
	return nil
}

// Track runs one tracker over items using a fresh system clock.
func (a *App) Track(ctx context.Context, items <-chan feed.Item) (runner.Summary, error) {
	runID, err := a.ids.NewRunID()
	if err != nil {
		return runner.Summary{}, err
	}
	clock := system.New(a.cfg.Clock.Unit)
	tracker := eta.New(clock, eta.WithLogger(a.logger.Named("eta")))
	r := runner.New(tracker, runner.Config{
		RunID:   runID,
		Unit:    clock.Unit(),
		Emitter: a.hub,
		Logger:  a.logger.Named("runner"),
	})
	return r.Run(ctx, items)
}

// Close flushes the hub, stops the status server and syncs the logger.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.hub.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
		if err, ok := <-a.serveErr; ok && err != nil {
			errs = append(errs, fmt.Errorf("serve: %w", err))
		}
	}
	if err := a.logger.Sync(); err != nil {
		a.logger.Debug("logger sync failed", zap.Error(err))
	}
	return errors.Join(errs...)
}
