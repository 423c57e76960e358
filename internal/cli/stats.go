package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"pose-feedback/internal/database"
)

var statsCmd = &cobra.Command{
	Use:   "stats SESSION_ID...",
	Short: "Print recorded feedback totals per session from ClickHouse",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.ClickHouseAddr == "" {
			return errors.New("CLICKHOUSE_ADDR is not set, no feedback events are recorded")
		}

		db, err := database.NewClickHouseDB(cmd.Context(), database.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDB,
			Username: cfg.ClickHouseUser,
			Password: cfg.ClickHousePass,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize ClickHouse: %w", err)
		}
		defer db.Close()

		return printStats(cmd.Context(), db, args, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

type sessionCounter interface {
	GetSessionCounts(ctx context.Context, sessionID string) (*database.SessionCounts, error)
}

// printStats writes one line per session. Lookups stop at the first error.
func printStats(ctx context.Context, db sessionCounter, sessionIDs []string, w io.Writer) error {
	for _, id := range sessionIDs {
		counts, err := db.GetSessionCounts(ctx, id)
		if err != nil {
			return fmt.Errorf("session %s: %w", id, err)
		}

		share := 0.0
		if counts.Total > 0 {
			share = 100 * float64(counts.Correct) / float64(counts.Total)
		}
		fmt.Fprintf(w, "session %s: %d events, %d correct, %d incorrect (%.1f%% correct)\n",
			id, counts.Total, counts.Correct, counts.Incorrect, share)
	}
	return nil
}
