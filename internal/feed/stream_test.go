package feed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestStreamDeliversReadings drains a well-formed stream.
func TestStreamDeliversReadings(t *testing.T) {
	t.Parallel()

	items := Stream(context.Background(), strings.NewReader("1 3\n2 3\n3 3\n"))
	var got []Reading
	for item := range items {
		require.NoError(t, item.Err)
		got = append(got, item.Reading)
	}
	require.Len(t, got, 3)
	require.True(t, got[2].Done())
}

// TestStreamReportsParseError ends the stream with the parse failure.
func TestStreamReportsParseError(t *testing.T) {
	t.Parallel()

	items := Stream(context.Background(), strings.NewReader("1 3\nnope\n"))
	first := <-items
	require.NoError(t, first.Err)
	last := <-items
	var perr *ParseError
	require.ErrorAs(t, last.Err, &perr)
	_, open := <-items
	require.False(t, open)
}

// TestStreamStopsOnCancel closes the channel once the context ends.
func TestStreamStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	items := Stream(ctx, strings.NewReader(strings.Repeat("1 2\n", 100)))
	<-items
	cancel()
	for range items {
	}
}
