package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/antekone/gaeta/internal/progress"
)

// PrometheusSink exports run estimates via Prometheus. Gauges hold the values
// of the most recent update across all runs.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	runsActive    prometheus.Gauge
	runDuration   *prometheus.HistogramVec

	updates   prometheus.Counter
	progress  prometheus.Gauge
	speed     prometheus.Gauge
	remaining prometheus.Gauge
	samples   prometheus.Gauge

	active *runSet
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gaeta_runs_started_total",
			Help: "Total runs that have started.",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gaeta_runs_completed_total",
			Help: "Total runs completed partitioned by result.",
		}, []string{"result"}),
		runsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gaeta_runs_active",
			Help: "Current number of active runs.",
		}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gaeta_run_duration_seconds",
			Help:    "Wall time per completed run.",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 3600},
		}, []string{"result"}),
		updates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gaeta_updates_total",
			Help: "Progress reports applied to trackers.",
		}),
		progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gaeta_progress_percent",
			Help: "Completion percentage of the latest report.",
		}),
		speed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gaeta_speed_percent_per_unit",
			Help: "Smoothed speed in percent per time unit.",
		}),
		remaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gaeta_remaining_time_units",
			Help: "Estimated remaining time in time source units.",
		}),
		samples: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gaeta_window_samples",
			Help: "Samples currently held in the smoothing window.",
		}),
		active: newRunSet(),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runsActive,
		s.runDuration,
		s.updates,
		s.progress,
		s.speed,
		s.remaining,
		s.samples,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register run collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the Prometheus collectors using the provided batch.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
		if s.active.start(evt.RunID) {
			s.runsActive.Inc()
		}
	case progress.StageRunUpdate:
		s.updates.Inc()
		s.observeEstimate(evt)
	case progress.StageRunDone:
		s.observeEstimate(evt)
		s.finish(evt, "success")
	case progress.StageRunError:
		s.finish(evt, "error")
	}
}

func (s *PrometheusSink) observeEstimate(evt progress.Event) {
	s.progress.Set(evt.Progress)
	s.speed.Set(evt.Speed)
	s.remaining.Set(float64(evt.Remaining))
	s.samples.Set(float64(evt.Samples))
}

func (s *PrometheusSink) finish(evt progress.Event, result string) {
	s.runsCompleted.WithLabelValues(result).Inc()
	if evt.Dur > 0 {
		s.runDuration.WithLabelValues(result).Observe(evt.Dur.Seconds())
	}
	if s.active.complete(evt.RunID) {
		s.runsActive.Dec()
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

type runSet struct {
	mu      sync.Mutex
	running map[[16]byte]struct{}
}

func newRunSet() *runSet {
	return &runSet{running: make(map[[16]byte]struct{})}
}

func (r *runSet) start(id [16]byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.running[id]; ok {
		return false
	}
	r.running[id] = struct{}{}
	return true
}

func (r *runSet) complete(id [16]byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.running[id]; !ok {
		return false
	}
	delete(r.running, id)
	return true
}
