package search

import (
	"context"
	"errors"

	"github.com/jasperwreed/campus-market/internal/models"
)

// Mode says where the live candidate set came from.
type Mode int

const (
	// ModeLocal shows the catalog narrowed by the local filters.
	ModeLocal Mode = iota
	// ModeRemote shows the result of the last AI search as returned.
	ModeRemote
)

// String returns "local" or "remote".
func (m Mode) String() string {
	switch m {
	case ModeLocal:
		return "local"
	case ModeRemote:
		return "remote"
	default:
		return "unknown"
	}
}

var (
	// ErrEmptyQuery is returned for a blank AI search.
	ErrEmptyQuery = errors.New("search query is empty")
	// ErrAuthRequired is returned when AI search is attempted without a token.
	ErrAuthRequired = errors.New("authentication required for AI search, please log in")
	// ErrSuperseded is returned to a caller whose request was overtaken by a newer one.
	ErrSuperseded = errors.New("search superseded by a newer request")
)

const noResultsMessage = "No listings found matching your query."

// CatalogProvider supplies the active listing catalog.
type CatalogProvider interface {
	FetchActiveListings(ctx context.Context) ([]models.Listing, error)
}

// SemanticSearcher runs a natural-language search on the backend.
type SemanticSearcher interface {
	Search(ctx context.Context, query, token string) (models.SearchOutcome, error)
}

// AuthState reports the bearer token, if the user has one.
type AuthState interface {
	Token() (string, bool)
}

// History stores a record of every executed search.
type History interface {
	RecordSearch(rec models.SearchRecord) error
}
