package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jasperwreed/campus-market/internal/models"
	"github.com/jasperwreed/campus-market/internal/tui"
)

func printListings(listings []models.Listing, limit int) {
	shown := listings
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	for _, l := range shown {
		fmt.Printf("[ID: %s] %s\n", l.ID, l.Title)
		fmt.Printf("  Price: %s", tui.FormatPrice(l))
		if l.Category != "" {
			fmt.Printf(" | Category: %s", l.Category)
		}
		if l.SellerName != "" {
			fmt.Printf(" | Seller: %s", l.SellerName)
		}
		if l.CreatedAt != nil {
			fmt.Printf("\n  Listed: %s", l.CreatedAt.Format("2006-01-02"))
		}
		fmt.Println()
		fmt.Println()
	}

	if hidden := len(listings) - len(shown); hidden > 0 {
		fmt.Printf("... and %d more (use --limit 0 to show all)\n", hidden)
	}
}

func describeParsed(p *models.ParsedQuery) string {
	if p == nil {
		return ""
	}
	var parts []string
	if p.Keywords != "" {
		parts = append(parts, fmt.Sprintf("keywords %q", p.Keywords))
	}
	if p.Category != "" {
		parts = append(parts, "category "+p.Category)
	}
	switch {
	case p.MinPrice != nil && p.MaxPrice != nil:
		parts = append(parts, fmt.Sprintf("price $%s-$%s", p.MinPrice.StringFixed(2), p.MaxPrice.StringFixed(2)))
	case p.MinPrice != nil:
		parts = append(parts, fmt.Sprintf("price from $%s", p.MinPrice.StringFixed(2)))
	case p.MaxPrice != nil:
		parts = append(parts, fmt.Sprintf("price up to $%s", p.MaxPrice.StringFixed(2)))
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
