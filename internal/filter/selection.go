package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Selection is the user-controlled filter state. The zero value filters nothing.
type Selection struct {
	categories map[string]struct{}
	minPrice   *decimal.Decimal
	maxPrice   *decimal.Decimal
	query      string
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{categories: make(map[string]struct{})}
}

// ToggleCategory adds the category if absent and removes it otherwise.
// It reports whether the category is active afterwards.
func (s *Selection) ToggleCategory(name string) bool {
	if s.categories == nil {
		s.categories = make(map[string]struct{})
	}
	if _, ok := s.categories[name]; ok {
		delete(s.categories, name)
		return false
	}
	s.categories[name] = struct{}{}
	return true
}

// SetCategories replaces the active category set.
func (s *Selection) SetCategories(names []string) {
	s.categories = make(map[string]struct{}, len(names))
	for _, n := range names {
		s.categories[n] = struct{}{}
	}
}

// Categories returns the active categories in sorted order.
func (s *Selection) Categories() []string {
	out := make([]string, 0, len(s.categories))
	for c := range s.categories {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// SetMinPrice sets the lower bound; nil removes it.
func (s *Selection) SetMinPrice(p *decimal.Decimal) { s.minPrice = copyPrice(p) }

// SetMaxPrice sets the upper bound; nil removes it.
func (s *Selection) SetMaxPrice(p *decimal.Decimal) { s.maxPrice = copyPrice(p) }

// ClearPrice removes both price bounds.
func (s *Selection) ClearPrice() {
	s.minPrice = nil
	s.maxPrice = nil
}

// MinPrice returns a copy of the lower bound, or nil.
func (s *Selection) MinPrice() *decimal.Decimal { return copyPrice(s.minPrice) }

// MaxPrice returns a copy of the upper bound, or nil.
func (s *Selection) MaxPrice() *decimal.Decimal { return copyPrice(s.maxPrice) }

// SetQuery sets the free-text title query.
func (s *Selection) SetQuery(q string) { s.query = q }

// Query returns the free-text title query as entered.
func (s *Selection) Query() string { return s.query }

// IsEmpty reports whether no filter narrows the candidates.
func (s *Selection) IsEmpty() bool {
	return len(s.categories) == 0 && s.minPrice == nil && s.maxPrice == nil &&
		strings.TrimSpace(s.query) == ""
}

// Predicates builds fresh predicates from the current values.
func (s *Selection) Predicates() []Predicate {
	return []Predicate{
		Category(s.Categories()),
		PriceRange(s.minPrice, s.maxPrice),
		TextQuery(s.query),
	}
}

// Clone returns an independent copy.
func (s *Selection) Clone() *Selection {
	c := NewSelection()
	for k := range s.categories {
		c.categories[k] = struct{}{}
	}
	c.minPrice = copyPrice(s.minPrice)
	c.maxPrice = copyPrice(s.maxPrice)
	c.query = s.query
	return c
}

// String summarizes the active filters, or "no filters".
func (s *Selection) String() string {
	var parts []string
	if cats := s.Categories(); len(cats) > 0 {
		parts = append(parts, "categories="+strings.Join(cats, ","))
	}
	if s.minPrice != nil {
		parts = append(parts, "min="+s.minPrice.StringFixed(2))
	}
	if s.maxPrice != nil {
		parts = append(parts, "max="+s.maxPrice.StringFixed(2))
	}
	if q := strings.TrimSpace(s.query); q != "" {
		parts = append(parts, fmt.Sprintf("query=%q", q))
	}
	if len(parts) == 0 {
		return "no filters"
	}
	return strings.Join(parts, " ")
}

// ParsePrice reads a price bound. An empty string means no bound.
func ParsePrice(raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(raw, "$"))
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("invalid price %q: must not be negative", raw)
	}
	return &d, nil
}

func copyPrice(p *decimal.Decimal) *decimal.Decimal {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
