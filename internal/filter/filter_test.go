package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasperwreed/campus-market/internal/models"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func listing(id, title, p, category string) models.Listing {
	return models.Listing{ID: id, Title: title, Price: decimal.RequireFromString(p), Category: category}
}

func ids(ls []models.Listing) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.ID)
	}
	return out
}

func testCatalog() []models.Listing {
	return []models.Listing{
		listing("1", "Calculus Textbook", "40", "Textbooks"),
		listing("2", "Desk Lamp", "15", "Essentials"),
		listing("3", "  Lab Coat ", "25.50", "Clothing"),
		listing("4", "Physics Textbook", "60", "Textbooks"),
		listing("5", "Mystery Box", "5", ""),
	}
}

func TestApply_IdentityWithEmptySelection(t *testing.T) {
	catalog := testCatalog()
	got := Apply(catalog, NewSelection().Predicates()...)

	if diff := cmp.Diff(ids(catalog), ids(got)); diff != "" {
		t.Errorf("Apply() with empty selection mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	catalog := testCatalog()
	before := ids(catalog)

	got := Apply(catalog, TextQuery("textbook"))
	require.Len(t, got, 2)
	got[0].Title = "changed"

	assert.Equal(t, before, ids(catalog))
	assert.Equal(t, "Calculus Textbook", catalog[0].Title)
}

func TestCategory(t *testing.T) {
	tests := []struct {
		name   string
		active []string
		want   []string
	}{
		{name: "empty set passes everything", active: nil, want: []string{"1", "2", "3", "4", "5"}},
		{name: "single category", active: []string{"Textbooks"}, want: []string{"1", "4"}},
		{name: "two categories", active: []string{"Essentials", "Clothing"}, want: []string{"2", "3"}},
		{name: "unknown category", active: []string{"Furniture"}, want: []string{}},
		{name: "blank category never matches", active: []string{""}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(testCatalog(), Category(tt.active)))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Category(%v) mismatch (-want +got):\n%s", tt.active, diff)
			}
		})
	}
}

func TestPriceRange(t *testing.T) {
	tests := []struct {
		name string
		min  *decimal.Decimal
		max  *decimal.Decimal
		want []string
	}{
		{name: "unbounded", want: []string{"1", "2", "3", "4", "5"}},
		{name: "min only", min: price("25.50"), want: []string{"1", "3", "4"}},
		{name: "max only", max: price("15"), want: []string{"2", "5"}},
		{name: "inclusive range", min: price("15"), max: price("40"), want: []string{"1", "2", "3"}},
		{name: "min equals max", min: price("40"), max: price("40"), want: []string{"1"}},
		{name: "min above max", min: price("50"), max: price("10"), want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(testCatalog(), PriceRange(tt.min, tt.max)))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("PriceRange() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTextQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty query", query: "", want: []string{"1", "2", "3", "4", "5"}},
		{name: "whitespace query", query: "   ", want: []string{"1", "2", "3", "4", "5"}},
		{name: "case folded", query: "LAMP", want: []string{"2"}},
		{name: "trimmed query and title", query: " lab coat ", want: []string{"3"}},
		{name: "substring", query: "text", want: []string{"1", "4"}},
		{name: "no tokenization", query: "textbook calculus", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(testCatalog(), TextQuery(tt.query)))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("TextQuery(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestApply_ConjunctionIsOrderIndependent(t *testing.T) {
	catalog := testCatalog()
	p1 := Category([]string{"Textbooks", "Essentials"})
	p2 := PriceRange(nil, price("45"))
	p3 := TextQuery("k")

	forward := ids(Apply(catalog, p1, p2, p3))
	backward := ids(Apply(catalog, p3, p2, p1))
	assert.Equal(t, forward, backward)

	intersection := []string{}
	a, b, c := Apply(catalog, p1), Apply(catalog, p2), Apply(catalog, p3)
	for _, l := range catalog {
		if contains(a, l.ID) && contains(b, l.ID) && contains(c, l.ID) {
			intersection = append(intersection, l.ID)
		}
	}
	assert.Equal(t, intersection, forward)
	assert.Equal(t, []string{"1", "2"}, forward)
}

func TestApply_NilPredicateIsIgnored(t *testing.T) {
	got := Apply(testCatalog(), nil, TextQuery("desk"))
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestSelection_Scenarios(t *testing.T) {
	catalog := []models.Listing{
		listing("1", "Calculus Textbook", "40", "Textbooks"),
		listing("2", "Desk Lamp", "15", "Essentials"),
	}

	t.Run("category and max price", func(t *testing.T) {
		s := NewSelection()
		s.SetCategories([]string{"Textbooks"})
		s.SetMaxPrice(price("50"))
		assert.Equal(t, []string{"1"}, ids(Apply(catalog, s.Predicates()...)))
	})

	t.Run("text query only", func(t *testing.T) {
		s := NewSelection()
		s.SetQuery("lamp")
		assert.Equal(t, []string{"2"}, ids(Apply(catalog, s.Predicates()...)))
	})
}

func TestSelection_PredicatesAreNotStale(t *testing.T) {
	catalog := testCatalog()
	s := NewSelection()
	s.SetQuery("desk")
	old := s.Predicates()

	s.SetQuery("coat")
	assert.Equal(t, []string{"2"}, ids(Apply(catalog, old...)))
	assert.Equal(t, []string{"3"}, ids(Apply(catalog, s.Predicates()...)))
}

func TestSelection_ToggleAndClone(t *testing.T) {
	s := NewSelection()
	assert.True(t, s.IsEmpty())

	assert.True(t, s.ToggleCategory("Textbooks"))
	assert.True(t, s.ToggleCategory("Essentials"))
	assert.False(t, s.ToggleCategory("Textbooks"))
	assert.Equal(t, []string{"Essentials"}, s.Categories())

	lo := price("10")
	s.SetMinPrice(lo)
	*lo = decimal.NewFromInt(99)
	require.NotNil(t, s.MinPrice())
	assert.True(t, s.MinPrice().Equal(decimal.NewFromInt(10)))

	c := s.Clone()
	c.ToggleCategory("Clothing")
	c.ClearPrice()
	assert.Equal(t, []string{"Essentials"}, s.Categories())
	assert.NotNil(t, s.MinPrice())
	assert.Nil(t, c.MinPrice())
	assert.False(t, s.IsEmpty())
}

func TestSelection_String(t *testing.T) {
	s := NewSelection()
	assert.Equal(t, "no filters", s.String())

	s.SetCategories([]string{"Textbooks"})
	s.SetMaxPrice(price("50"))
	s.SetQuery("calc")
	assert.Equal(t, `categories=Textbooks max=50.00 query="calc"`, s.String())
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantNil bool
		wantErr bool
	}{
		{name: "empty is unset", raw: "", wantNil: true},
		{name: "blank is unset", raw: "  ", wantNil: true},
		{name: "integer", raw: "20", want: "20"},
		{name: "decimal", raw: "19.99", want: "19.99"},
		{name: "dollar sign", raw: "$5", want: "5"},
		{name: "zero", raw: "0", want: "0"},
		{name: "negative", raw: "-1", wantErr: true},
		{name: "garbage", raw: "cheap", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func contains(ls []models.Listing, id string) bool {
	for _, l := range ls {
		if l.ID == id {
			return true
		}
	}
	return false
}
