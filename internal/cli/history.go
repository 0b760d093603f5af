package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewHistoryCommand() *cobra.Command {
	var limit int
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent searches",
		Example: `  # Last 20 searches
  market history

  # Forget all searches
  market history --clear`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(limit, clearAll)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of searches to show")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete the search history")

	return cmd
}

func runHistory(limit int, clearAll bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if clearAll {
		if err := a.store.ClearSearches(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Println("Search history cleared.")
		return nil
	}

	records, err := a.store.ListSearches(limit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No searches yet.")
		return nil
	}

	fmt.Printf("Recent searches:\n\n")
	for _, rec := range records {
		fmt.Printf("[%s] %-5s %q -> %d result(s)",
			rec.CreatedAt.Local().Format("2006-01-02 15:04"), rec.Mode, rec.Query, rec.ResultCount)
		if rec.Error != "" {
			fmt.Printf(" (error: %s)", rec.Error)
		}
		fmt.Println()
	}

	return nil
}
