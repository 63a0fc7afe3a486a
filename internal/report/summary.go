package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/antekone/gaeta/internal/runner"
)

// Output formats accepted by WriteSummary.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

type summaryJSON struct {
	RunID     string   `json:"run_id"`
	Status    string   `json:"status"`
	Updates   int      `json:"updates"`
	Current   uint64   `json:"current"`
	Max       uint64   `json:"max"`
	Progress  *float64 `json:"progress"`
	Speed     *float64 `json:"speed"`
	Remaining int64    `json:"remaining"`
	Samples   int      `json:"samples"`
	ElapsedMS int64    `json:"elapsed_ms"`
	Error     string   `json:"error,omitempty"`
}

// WriteSummary renders s to w in the requested format. unit labels the speed.
func WriteSummary(w io.Writer, format string, s runner.Summary, unit time.Duration) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		return writeSummaryJSON(w, s)
	case FormatTable, "":
		return writeSummaryTable(w, s, unit)
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
}

func status(s runner.Summary) string {
	if s.Complete {
		return "done"
	}
	return "error"
}

func writeSummaryJSON(w io.Writer, s runner.Summary) error {
	out := summaryJSON{
		RunID:     s.RunID.String(),
		Status:    status(s),
		Updates:   s.Updates,
		Current:   s.Last.Current,
		Max:       s.Last.Max,
		Progress:  JSONFloat(s.Final.Progress),
		Speed:     JSONFloat(s.Final.Speed),
		Remaining: s.Final.Remaining,
		Samples:   s.Final.Samples,
		ElapsedMS: s.Elapsed.Milliseconds(),
	}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

func writeSummaryTable(w io.Writer, s runner.Summary, unit time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header("Field", "Value")

	rows := [][2]string{
		{"Run", s.RunID.String()},
		{"Status", status(s)},
		{"Updates", fmt.Sprintf("%d", s.Updates)},
		{"Reading", fmt.Sprintf("%d / %d", s.Last.Current, s.Last.Max)},
		{"Progress", FormatPercent(s.Final.Progress)},
		{"Speed", FormatSpeed(s.Final.Speed, unit)},
		{"Remaining", fmt.Sprintf("%d", s.Final.Remaining)},
		{"Samples", fmt.Sprintf("%d", s.Final.Samples)},
		{"Elapsed", FormatDuration(s.Elapsed)},
	}
	if s.Err != nil {
		rows = append(rows, [2]string{"Error", s.Err.Error()})
	}
	for _, row := range rows {
		if err := table.Append(row[0], row[1]); err != nil {
			return fmt.Errorf("append summary row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	return nil
}
