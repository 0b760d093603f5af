package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jasperwreed/campus-market/internal/search"
)

func NewAskCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "AI search in plain English",
		Long: `Ask the marketplace AI search for listings in plain English. The backend
interprets the question and returns matching listings. Requires a login token
(see 'market auth login').`,
		Example: `  # Let the AI work out category and price
  market ask "cheap desk lamp under 20 dollars"

  # Show every result
  market ask "used calculus textbook" --limit 0`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), strings.Join(args, " "), limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of listings to print (0 for all)")

	return cmd
}

func runAsk(ctx context.Context, question string, limit int) error {
	v := NewValidator()
	if err := v.ValidateQuery(question); err != nil {
		return err
	}
	if err := v.ValidateLimit(limit); err != nil {
		return err
	}
	if offline {
		return errors.New("AI search needs the backend and is not available with --offline")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s := a.newSearcher()
	if err := s.AISearch(ctx, question); err != nil {
		if errors.Is(err, search.ErrAuthRequired) {
			return fmt.Errorf("%w: run 'market auth login --token <token>'", err)
		}
		return fmt.Errorf("AI search failed: %w", err)
	}

	view := s.Snapshot()
	if parsed := describeParsed(view.Parsed); parsed != "" {
		fmt.Printf("Interpreted as: %s\n\n", parsed)
	}

	if len(view.Listings) == 0 {
		fmt.Println(view.Message)
		return nil
	}

	fmt.Printf("AI found %d listing(s) for '%s':\n\n", len(view.Listings), question)
	printListings(view.Listings, limit)
	return nil
}
