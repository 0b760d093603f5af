package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/shopspring/decimal"

	"github.com/jasperwreed/campus-market/internal/filter"
)

// Validator provides methods for validating CLI inputs
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidatePriceRange parses the --min and --max flags. Empty flags mean no
// bound. A minimum above the maximum is allowed and simply matches nothing.
func (v *Validator) ValidatePriceRange(minRaw, maxRaw string) (*decimal.Decimal, *decimal.Decimal, error) {
	minPrice, err := filter.ParsePrice(minRaw)
	if err != nil {
		return nil, nil, fmt.Errorf("--min: %w", err)
	}
	maxPrice, err := filter.ParsePrice(maxRaw)
	if err != nil {
		return nil, nil, fmt.Errorf("--max: %w", err)
	}
	return minPrice, maxPrice, nil
}

// ValidateCategories maps requested names onto known category names,
// ignoring case. Unknown names fail with a suggestion when one is close.
func (v *Validator) ValidateCategories(requested, known []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)

	for _, raw := range requested {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		canonical, ok := matchCategory(name, known)
		if !ok {
			if suggestion := suggestCategory(name, known); suggestion != "" {
				return nil, fmt.Errorf("unknown category %q (did you mean %q?)", name, suggestion)
			}
			return nil, fmt.Errorf("unknown category %q (known: %s)", name, strings.Join(known, ", "))
		}
		if !seen[canonical] {
			seen[canonical] = true
			out = append(out, canonical)
		}
	}

	return out, nil
}

// ValidateLimit rejects negative limits. Zero means no limit.
func (v *Validator) ValidateLimit(limit int) error {
	if limit < 0 {
		return fmt.Errorf("--limit must not be negative, got %d", limit)
	}
	return nil
}

// ValidateQuery checks that a search query has some content
func (v *Validator) ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return errors.New("query cannot be empty")
	}
	return nil
}

// ResolvePath resolves a path to an absolute path
func (v *Validator) ResolvePath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if path == "." {
		return os.Getwd()
	}

	if filepath.IsAbs(path) {
		return path, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	return filepath.Join(cwd, path), nil
}

func matchCategory(name string, known []string) (string, bool) {
	for _, k := range known {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return "", false
}

func suggestCategory(name string, known []string) string {
	lowered := make([]string, len(known))
	for i, k := range known {
		lowered[i] = strings.ToLower(k)
	}
	matches := fuzzy.Find(strings.ToLower(name), lowered)
	if len(matches) == 0 {
		return ""
	}
	return known[matches[0].Index]
}
