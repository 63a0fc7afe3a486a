package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/antekone/gaeta/internal/feed"
	"github.com/antekone/gaeta/internal/runner"
	"github.com/antekone/gaeta/pkg/eta"
)

func testSummary() runner.Summary {
	return runner.Summary{
		RunID:    uuid.MustParse("0190b5c4-8a75-7d2e-9d3f-5b2a6c1e4f00"),
		Updates:  11,
		Last:     feed.Reading{Current: 100, Max: 100},
		Final:    eta.Snapshot{Progress: 100, Speed: 1, Samples: 10, Started: true},
		Elapsed:  1500 * time.Millisecond,
		Complete: true,
	}
}

// TestWriteSummaryJSON encodes the summary fields.
func TestWriteSummaryJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, "JSON", testSummary(), time.Second))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, "0190b5c4-8a75-7d2e-9d3f-5b2a6c1e4f00", got["run_id"])
	require.Equal(t, "done", got["status"])
	require.Equal(t, float64(11), got["updates"])
	require.Equal(t, float64(1500), got["elapsed_ms"])
	require.NotContains(t, got, "error")
}

// TestWriteSummaryJSONNonFinite keeps undefined tracker outputs encodable.
func TestWriteSummaryJSONNonFinite(t *testing.T) {
	t.Parallel()

	s := testSummary()
	s.Final.Progress = math.NaN()
	s.Final.Speed = math.Inf(1)
	s.Complete = false
	s.Err = errors.New("boom")

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, FormatJSON, s, 0))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Contains(t, got, "progress")
	require.Nil(t, got["progress"])
	require.Nil(t, got["speed"])
	require.Equal(t, "error", got["status"])
	require.Equal(t, "boom", got["error"])
}

// TestWriteSummaryTable renders the rows as a table.
func TestWriteSummaryTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, FormatTable, testSummary(), time.Second))

	out := buf.String()
	require.Contains(t, out, "0190b5c4-8a75-7d2e-9d3f-5b2a6c1e4f00")
	require.Contains(t, out, "100 / 100")
	require.Contains(t, out, "100.0%")
	require.Contains(t, out, "1.00%/s")
	require.Contains(t, out, "2s")
}

// TestWriteSummaryUnknownFormat rejects other formats.
func TestWriteSummaryUnknownFormat(t *testing.T) {
	t.Parallel()

	err := WriteSummary(&bytes.Buffer{}, "yaml", testSummary(), time.Second)
	require.ErrorIs(t, err, ErrUnknownFormat)
}
