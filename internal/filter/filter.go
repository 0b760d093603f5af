// Package filter narrows a listing collection with composable predicates.
package filter

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jasperwreed/campus-market/internal/models"
)

// Predicate reports whether a listing should stay visible.
type Predicate interface {
	Match(l models.Listing) bool
}

// PredicateFunc adapts a plain function to Predicate.
type PredicateFunc func(l models.Listing) bool

// Match calls f(l).
func (f PredicateFunc) Match(l models.Listing) bool {
	return f(l)
}

var passAll = PredicateFunc(func(models.Listing) bool { return true })

var rejectAll = PredicateFunc(func(models.Listing) bool { return false })

// Category accepts listings whose category is in active. An empty set
// accepts everything. Listings without a category never match a non-empty set.
func Category(active []string) Predicate {
	if len(active) == 0 {
		return passAll
	}
	set := make(map[string]struct{}, len(active))
	for _, c := range active {
		set[c] = struct{}{}
	}
	return PredicateFunc(func(l models.Listing) bool {
		if strings.TrimSpace(l.Category) == "" {
			return false
		}
		_, ok := set[l.Category]
		return ok
	})
}

// PriceRange accepts listings priced within [min, max]. A nil bound is open.
// When min > max nothing matches.
func PriceRange(minPrice, maxPrice *decimal.Decimal) Predicate {
	if minPrice == nil && maxPrice == nil {
		return passAll
	}
	if minPrice != nil && maxPrice != nil && minPrice.GreaterThan(*maxPrice) {
		return rejectAll
	}
	lo, hi := minPrice, maxPrice
	if lo != nil {
		v := *lo
		lo = &v
	}
	if hi != nil {
		v := *hi
		hi = &v
	}
	return PredicateFunc(func(l models.Listing) bool {
		if lo != nil && l.Price.LessThan(*lo) {
			return false
		}
		if hi != nil && l.Price.GreaterThan(*hi) {
			return false
		}
		return true
	})
}

// TextQuery accepts listings whose title contains q, ignoring case and
// surrounding whitespace.
func TextQuery(q string) Predicate {
	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" {
		return passAll
	}
	return PredicateFunc(func(l models.Listing) bool {
		return strings.Contains(strings.ToLower(strings.TrimSpace(l.Title)), needle)
	})
}

// Apply returns, in their original order, the candidates every predicate
// accepts. The candidates slice is not modified.
func Apply(candidates []models.Listing, preds ...Predicate) []models.Listing {
	out := make([]models.Listing, 0, len(candidates))
	for _, l := range candidates {
		if matchAll(l, preds) {
			out = append(out, l)
		}
	}
	return out
}

func matchAll(l models.Listing, preds []Predicate) bool {
	for _, p := range preds {
		if p != nil && !p.Match(l) {
			return false
		}
	}
	return true
}
