package api

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/jasperwreed/campus-market/internal/models"
)

// DefaultCategories is served when the backend cannot list categories.
var DefaultCategories = []models.Category{
	{ID: "1", Name: "Textbooks", Slug: "textbooks"},
	{ID: "2", Name: "Electronics", Slug: "electronics"},
	{ID: "3", Name: "Furniture", Slug: "furniture"},
	{ID: "4", Name: "Clothing", Slug: "clothing"},
	{ID: "5", Name: "Essentials", Slug: "essentials"},
	{ID: "6", Name: "Dorm Supplies", Slug: "dorm-supplies"},
	{ID: "7", Name: "Tickets", Slug: "tickets"},
	{ID: "8", Name: "Other", Slug: "other"},
}

// FetchCategories lists categories, falling back to DefaultCategories on any failure.
// The returned error is informational; the slice is always usable.
func (c *Client) FetchCategories(ctx context.Context) ([]models.Category, error) {
	var payload []apiCategory
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/categories",
		retry:  true,
	}, &payload)
	if err != nil {
		c.logger.Warn("falling back to built-in categories", zap.Error(err))
		return fallbackCategories(), err
	}

	out := make([]models.Category, 0, len(payload))
	for _, cat := range payload {
		out = append(out, models.Category{ID: string(cat.ID), Name: cat.Name, Slug: cat.Slug})
	}
	return out, nil
}

func fallbackCategories() []models.Category {
	out := make([]models.Category, len(DefaultCategories))
	copy(out, DefaultCategories)
	return out
}

// CategoryNames extracts names in order.
func CategoryNames(cats []models.Category) []string {
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	return names
}
