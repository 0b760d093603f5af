package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func NewSearchCommand() *cobra.Command {
	var opts filterOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search listing titles",
		Long: `Search active listings by title. The match is a case-insensitive substring
match, combined with any category and price filters.`,
		Example: `  # Find lamps
  market search lamp

  # Calculus books under $60
  market search calculus --category Textbooks --max 60`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.query = strings.Join(args, " ")
			return runSearch(cmd.Context(), opts)
		},
	}

	addFilterFlags(cmd, &opts)

	return cmd
}

func runSearch(ctx context.Context, opts filterOptions) error {
	if err := NewValidator().ValidateQuery(opts.query); err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.filteredSearcher(ctx, opts)
	if err != nil {
		return err
	}

	results := s.Visible()
	if len(results) == 0 {
		fmt.Println("No listings found.")
		return nil
	}

	fmt.Printf("Found %d listing(s) for '%s':\n\n", len(results), opts.query)
	printListings(results, opts.limit)
	return nil
}
