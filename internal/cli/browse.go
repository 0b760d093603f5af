package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jasperwreed/campus-market/internal/tui"
)

func NewBrowseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse listings in the TUI",
		Long:  `Open an interactive terminal UI to filter, search, and ask the AI about listings.`,
		Example: `  # Browse live listings
  market browse

  # Browse the cached catalog
  market browse --offline

  # Browse with debug logs written to a file
  market browse -v --config ./market.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd.Context())
		},
	}

	return cmd
}

func runBrowse(ctx context.Context) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	browser := tui.NewBrowser(a.newSearcher(), a.catalog, a.logger)
	return browser.Run(ctx)
}
