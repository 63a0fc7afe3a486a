package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/antekone/gaeta/internal/feed"
)

// newTrackCmd creates the 'track' subcommand, which reads "cur max" reports
// from a file or stdin.
func newTrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Track progress reports read from a file or stdin",
		Long: `Reads one report per line in the form "cur max", "cur/max" or "cur,max".
Blank lines and lines starting with # are ignored. The run completes when a
report reaches its max; a stream that ends earlier fails the run.`,
		Example: `  seq 0 10 100 | sed 's|$|/100|' | gaeta track
  gaeta track --file progress.log --output json`,
		Args: cobra.NoArgs,
		RunE: runTrackCommand,
	}
	cmd.Flags().StringP("file", "f", "-", "file to read reports from, - for stdin")
	return cmd
}

func runTrackCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	path, err := cmd.Flags().GetString("file")
	if err != nil {
		return fmt.Errorf("read file flag: %w", err)
	}

	var in io.Reader = cmd.InOrStdin()
	if path != "-" && path != "" {
		f, err := os.Open(path)
		if err != nil {
			_ = a.Close(context.Background())
			return fmt.Errorf("open reports: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				a.Logger().Warn("failed to close report file", zap.Error(cerr))
			}
		}()
		in = f
	}
	return runTracked(cmd.Context(), a, func(ctx context.Context) <-chan feed.Item {
		return feed.Stream(ctx, in)
	})
}
