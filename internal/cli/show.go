package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jasperwreed/campus-market/internal/models"
	"github.com/jasperwreed/campus-market/internal/storage"
	"github.com/jasperwreed/campus-market/internal/tui"
)

func NewShowCommand() *cobra.Command {
	var id string
	var width int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show one listing in detail",
		Example: `  # Show listing 42
  market show --id 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), id, width)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Listing ID")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width")
	cmd.MarkFlagRequired("id")

	return cmd
}

func runShow(ctx context.Context, id string, width int) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	listing, err := findListing(ctx, a, id)
	if err != nil {
		return err
	}

	out, err := tui.RenderDetail(*listing, width, "notty")
	if err != nil {
		return fmt.Errorf("failed to render listing: %w", err)
	}
	fmt.Print(out)
	return nil
}

// findListing looks the listing up in a fresh catalog, falling back to the
// cache when the backend cannot be reached.
func findListing(ctx context.Context, a *app, id string) (*models.Listing, error) {
	listings, err := a.catalog.FetchActiveListings(ctx)
	if err == nil {
		for i := range listings {
			if listings[i].ID == id {
				return &listings[i], nil
			}
		}
		return nil, fmt.Errorf("no active listing with ID %s", id)
	}

	cached, cacheErr := a.store.GetListing(id)
	if cacheErr == nil {
		fmt.Printf("(backend unavailable, showing cached copy)\n\n")
		return cached, nil
	}
	if errors.Is(cacheErr, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to load listings: %w", err)
	}
	return nil, cacheErr
}
