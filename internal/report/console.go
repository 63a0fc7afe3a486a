package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/antekone/gaeta/internal/progress"
)

// ConsoleOptions configures a ConsoleSink.
type ConsoleOptions struct {
	// Output is where lines are written. Default: os.Stdout
	Output io.Writer

	// Prefix starts every line. Default: "[gaeta]"
	Prefix string

	// Every is the minimum event-time gap between two update lines.
	// Lifecycle events are always printed. Zero prints every update.
	Every time.Duration
}

// ConsoleSink prints human-readable progress lines.
type ConsoleSink struct {
	opts ConsoleOptions

	mu         sync.Mutex
	lastUpdate map[[16]byte]time.Time
}

// NewConsoleSink builds a ConsoleSink.
func NewConsoleSink(opts ConsoleOptions) *ConsoleSink {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Prefix == "" {
		opts.Prefix = "[gaeta]"
	}
	return &ConsoleSink{
		opts:       opts,
		lastUpdate: make(map[[16]byte]time.Time),
	}
}

// Consume writes one line per printable event.
func (s *ConsoleSink) Consume(ctx context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, evt := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, ok := s.format(evt)
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(s.opts.Output, "%s %s\n", s.opts.Prefix, line); err != nil {
			return fmt.Errorf("write progress line: %w", err)
		}
	}
	return nil
}

// Close is a no-op.
func (s *ConsoleSink) Close(context.Context) error {
	return nil
}

func (s *ConsoleSink) format(evt progress.Event) (string, bool) {
	id := evt.RunUUID().String()
	switch evt.Stage {
	case progress.StageRunStart:
		s.lastUpdate[evt.RunID] = time.Time{}
		return fmt.Sprintf("run %s started", id), true
	case progress.StageRunUpdate:
		if s.opts.Every > 0 {
			if last, ok := s.lastUpdate[evt.RunID]; ok && !last.IsZero() && evt.TS.Sub(last) < s.opts.Every {
				return "", false
			}
		}
		s.lastUpdate[evt.RunID] = evt.TS
		return ProgressLine(evt), true
	case progress.StageRunDone:
		delete(s.lastUpdate, evt.RunID)
		return fmt.Sprintf("run %s complete in %s", id, FormatDuration(evt.Dur)), true
	case progress.StageRunError:
		delete(s.lastUpdate, evt.RunID)
		return fmt.Sprintf("run %s failed after %s: %s", id, FormatDuration(evt.Dur), evt.Note), true
	default:
		return "", false
	}
}

// ProgressLine renders the tracker fields of evt on one line.
func ProgressLine(evt progress.Event) string {
	return fmt.Sprintf("Progress: %s | %d / %d | Speed: %s | ETA: %s | Samples: %d",
		FormatPercent(evt.Progress),
		evt.Current,
		evt.Max,
		FormatSpeed(evt.Speed, evt.Unit),
		FormatETA(evt),
		evt.Samples,
	)
}

// FormatETA renders the remaining time of evt. Without a positive speed
// there is no estimate yet.
func FormatETA(evt progress.Event) string {
	if evt.Speed <= 0 {
		if evt.Progress >= 100 {
			return "0s"
		}
		return "calculating..."
	}
	if evt.Unit <= 0 {
		return fmt.Sprintf("%d units", evt.Remaining)
	}
	d := evt.RemainingDuration()
	if d == progress.MaxRemaining {
		return "unknown"
	}
	return FormatDuration(d)
}
