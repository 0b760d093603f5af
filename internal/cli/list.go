package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jasperwreed/campus-market/internal/api"
	"github.com/jasperwreed/campus-market/internal/search"
)

type filterOptions struct {
	categories []string
	minPrice   string
	maxPrice   string
	query      string
	limit      int
}

func addFilterFlags(cmd *cobra.Command, opts *filterOptions) {
	cmd.Flags().StringSliceVarP(&opts.categories, "category", "c", nil, "Only show these categories (repeatable)")
	cmd.Flags().StringVar(&opts.minPrice, "min", "", "Minimum price")
	cmd.Flags().StringVar(&opts.maxPrice, "max", "", "Maximum price")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "Maximum number of listings to print (0 for all)")
}

func NewListCommand() *cobra.Command {
	var opts filterOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active listings",
		Long:  `List active marketplace listings, narrowed by category, price, and title.`,
		Example: `  # List recent listings
  market list

  # Textbooks under $50
  market list --category Textbooks --max 50

  # Several categories at once
  market list -c Furniture -c "Dorm Supplies" --min 10

  # Use the cached catalog
  market list --offline --limit 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), opts)
		},
	}

	addFilterFlags(cmd, &opts)
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "Only show listings whose title contains this text")

	return cmd
}

func runList(ctx context.Context, opts filterOptions) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.filteredSearcher(ctx, opts)
	if err != nil {
		return err
	}

	view := s.Snapshot()
	if len(view.Listings) == 0 {
		fmt.Println("No listings found.")
		return nil
	}

	fmt.Printf("Active listings (%d of %d", len(view.Listings), view.Candidates)
	if !view.Selection.IsEmpty() {
		fmt.Printf(", %s", view.Selection)
	}
	fmt.Printf("):\n\n")

	printListings(view.Listings, opts.limit)
	return nil
}

// filteredSearcher loads the catalog and applies the filter flags.
func (a *app) filteredSearcher(ctx context.Context, opts filterOptions) (*search.Searcher, error) {
	v := NewValidator()
	if err := v.ValidateLimit(opts.limit); err != nil {
		return nil, err
	}
	minPrice, maxPrice, err := v.ValidatePriceRange(opts.minPrice, opts.maxPrice)
	if err != nil {
		return nil, err
	}
	if minPrice != nil && maxPrice != nil && minPrice.GreaterThan(*maxPrice) {
		a.logger.Warn("minimum price is above maximum, nothing can match",
			zap.String("min", minPrice.String()), zap.String("max", maxPrice.String()))
	}

	var categories []string
	if len(opts.categories) > 0 {
		known, catErr := a.catalog.FetchCategories(ctx)
		if catErr != nil {
			a.logger.Debug("category lookup failed", zap.Error(catErr))
		}
		if len(known) == 0 {
			known = api.DefaultCategories
		}
		categories, err = v.ValidateCategories(opts.categories, api.CategoryNames(known))
		if err != nil {
			return nil, err
		}
	}

	s := a.newSearcher()
	if err := s.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load listings: %w", err)
	}

	s.SetCategories(categories)
	s.SetPriceRange(minPrice, maxPrice)
	if strings.TrimSpace(opts.query) != "" {
		if err := s.Search(ctx, opts.query); err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}
	}
	return s, nil
}
