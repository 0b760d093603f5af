package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jasperwreed/campus-market/internal/api"
)

func NewCategoriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List listing categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCategories(cmd.Context())
		},
	}

	return cmd
}

func runCategories(ctx context.Context) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	categories, err := a.catalog.FetchCategories(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: showing built-in categories: %v\n", err)
		if len(categories) == 0 {
			categories = api.DefaultCategories
		}
	}

	fmt.Println("Categories:")
	for _, c := range categories {
		fmt.Printf("  %s\n", c.Name)
	}
	return nil
}
