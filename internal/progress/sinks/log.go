package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/antekone/gaeta/internal/progress"
)

// LogSink writes each run event as a structured log line.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch. Updates are logged at debug level;
// lifecycle stages at info, errors at warn.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunUUID().String()),
			zap.String("stage", string(evt.Stage)),
			zap.Uint64("current", evt.Current),
			zap.Uint64("max", evt.Max),
			zap.Float64("progress", evt.Progress),
			zap.Float64("speed", evt.Speed),
			zap.Int64("remaining", evt.Remaining),
			zap.Int("samples", evt.Samples),
			zap.Duration("dur", evt.Dur),
		}
		if evt.Unit > 0 {
			fields = append(fields, zap.Duration("eta", evt.RemainingDuration()))
		}
		if evt.Note != "" {
			fields = append(fields, zap.String("note", evt.Note))
		}
		switch evt.Stage {
		case progress.StageRunUpdate:
			s.logger.Debug("run update", fields...)
		case progress.StageRunError:
			s.logger.Warn("run failed", fields...)
		default:
			s.logger.Info("run event", fields...)
		}
	}
	return nil
}

// Close implements the Sink interface; it flushes the logger.
func (s *LogSink) Close(context.Context) error {
	_ = s.logger.Sync()
	return nil
}
