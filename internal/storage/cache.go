package storage

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jasperwreed/campus-market/internal/models"
)

// Upstream is the live source the cache sits in front of.
type Upstream interface {
	FetchActiveListings(ctx context.Context) ([]models.Listing, error)
	FetchCategories(ctx context.Context) ([]models.Category, error)
}

// CachedCatalog persists every successful fetch. In offline mode it serves
// the last snapshot and never touches the upstream.
type CachedCatalog struct {
	upstream Upstream
	store    *SQLiteStore
	offline  bool
	logger   *zap.Logger
}

func NewCachedCatalog(upstream Upstream, store *SQLiteStore, offline bool, logger *zap.Logger) *CachedCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedCatalog{upstream: upstream, store: store, offline: offline || upstream == nil, logger: logger}
}

func (c *CachedCatalog) Offline() bool { return c.offline }

func (c *CachedCatalog) FetchActiveListings(ctx context.Context) ([]models.Listing, error) {
	if c.offline {
		listings, at, err := c.store.LoadCatalog()
		if err != nil {
			return nil, err
		}
		c.logger.Debug("serving cached catalog", zap.Int("listings", len(listings)), zap.Time("snapshot_at", at))
		return listings, nil
	}

	listings, err := c.upstream.FetchActiveListings(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.store.SaveCatalog(listings); err != nil {
		c.logger.Warn("failed to cache catalog", zap.Error(err))
	}
	return listings, nil
}

// FetchCategories returns the upstream categories, or the cached ones when
// offline. An upstream failure is passed through with whatever fallback the
// upstream returned.
func (c *CachedCatalog) FetchCategories(ctx context.Context) ([]models.Category, error) {
	if c.offline {
		categories, err := c.store.LoadCategories()
		if err != nil {
			return nil, err
		}
		if len(categories) == 0 {
			return nil, errors.New("no cached categories")
		}
		return categories, nil
	}

	categories, err := c.upstream.FetchCategories(ctx)
	if err != nil {
		return categories, err
	}
	if err := c.store.SaveCategories(categories); err != nil {
		c.logger.Warn("failed to cache categories", zap.Error(err))
	}
	return categories, nil
}
