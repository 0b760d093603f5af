package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jasperwreed/campus-market/internal/storage"
)

func NewStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		Long:  `Display listing counts and price statistics for the active catalog.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context())
		},
	}

	return cmd
}

func runStats(ctx context.Context) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.catalog.Offline() {
		// Refreshing writes a new snapshot to the cache.
		if _, err := a.catalog.FetchActiveListings(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: using cached catalog: %v\n", err)
		}
	}

	stats, err := a.store.GetStats()
	if errors.Is(err, storage.ErrNoSnapshot) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}

	fmt.Println("Campus Market Statistics")
	fmt.Println("========================")
	fmt.Printf("\nActive Listings: %d\n", stats.TotalListings)
	fmt.Printf("Snapshot: %s\n", stats.SnapshotAt.Local().Format("2006-01-02 15:04:05"))

	if stats.TotalListings > 0 {
		fmt.Printf("Price Range: $%s - $%s\n", stats.MinPrice.StringFixed(2), stats.MaxPrice.StringFixed(2))
		fmt.Printf("Average Price: $%s\n", stats.AveragePrice.StringFixed(2))
	}

	if len(stats.CategoryBreakdown) > 0 {
		fmt.Println("\nListings by Category:")
		for _, category := range sortedKeys(stats.CategoryBreakdown) {
			fmt.Printf("  %s: %d\n", category, stats.CategoryBreakdown[category])
		}
	}

	return nil
}
