package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jasperwreed/campus-market/internal/filter"
	"github.com/jasperwreed/campus-market/internal/models"
)

// Options configures a Searcher. The zero value is usable.
type Options struct {
	// AITimeout bounds a single AI search. Zero means no client-side limit.
	AITimeout time.Duration
	History   History
	Logger    *zap.Logger
}

// Searcher owns the filter selection and the live candidate set. All state
// changes go through its methods. Catalog loads and query requests are
// tracked separately: within each, only the most recently issued request may
// commit its result.
type Searcher struct {
	catalog  CatalogProvider
	semantic SemanticSearcher
	auth     AuthState
	history  History
	logger   *zap.Logger
	timeout  time.Duration

	mu        sync.Mutex
	mode      Mode
	all       []models.Listing
	remote    []models.Listing
	parsed    *models.ParsedQuery
	aiQuery   string
	selection *filter.Selection
	message   string
	lastErr   error

	load  flight
	query flight
	// commits counts query results that changed the mode or candidates.
	commits uint64
}

// View is a consistent copy of the Searcher state.
type View struct {
	Mode       Mode
	Listings   []models.Listing
	Candidates int
	Selection  *filter.Selection
	Message    string
	Err        error
	Loading    bool
	AIQuery    string
	Parsed     *models.ParsedQuery
}

// NewSearcher creates a Searcher in local mode with an empty catalog.
func NewSearcher(catalog CatalogProvider, semantic SemanticSearcher, auth AuthState, opts Options) *Searcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		catalog:   catalog,
		semantic:  semantic,
		auth:      auth,
		history:   opts.History,
		logger:    logger,
		timeout:   opts.AITimeout,
		selection: filter.NewSelection(),
	}
}

// Load fetches the catalog and returns to local mode. On failure the catalog
// is treated as empty and the error is kept for display. Only a newer Load
// supersedes it. If an AI search committed while the catalog was loading,
// the catalog is still replaced but the AI results stay on screen.
func (s *Searcher) Load(ctx context.Context) error {
	s.mu.Lock()
	reqCtx, gen := s.load.begin(ctx, 0)
	commits := s.commits
	s.mu.Unlock()

	listings, err := s.catalog.FetchActiveListings(reqCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.load.finish(gen) {
		return ErrSuperseded
	}

	if s.commits == commits {
		s.mode = ModeLocal
		s.remote = nil
		s.parsed = nil
		s.aiQuery = ""
		s.message = ""
	}
	if err != nil {
		s.all = nil
		s.lastErr = err
		s.logger.Warn("catalog load failed", zap.Error(err))
		return err
	}
	s.all = listings
	s.lastErr = nil
	s.logger.Debug("catalog loaded", zap.Int("listings", len(listings)))
	return nil
}

// Search applies a plain text query and supersedes any pending AI search.
// In remote mode it also refreshes the catalog and returns to local mode, so
// the query never narrows AI results. If the refresh fails the AI results
// and the previous query stay in place.
func (s *Searcher) Search(ctx context.Context, query string) error {
	s.mu.Lock()
	if s.mode != ModeRemote {
		s.query.supersede()
		s.selection.SetQuery(query)
		s.message = ""
		s.lastErr = nil
		count := len(s.visibleLocked())
		s.mu.Unlock()
		s.record(query, "plain", count, nil)
		return nil
	}
	reqCtx, gen := s.query.begin(ctx, 0)
	s.mu.Unlock()

	listings, err := s.catalog.FetchActiveListings(reqCtx)

	s.mu.Lock()
	if !s.query.finish(gen) {
		s.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		s.logger.Warn("catalog refresh failed, staying on AI results", zap.Error(err))
		s.record(query, "plain", 0, err)
		return err
	}
	s.selection.SetQuery(query)
	s.all = listings
	s.mode = ModeLocal
	s.remote = nil
	s.parsed = nil
	s.aiQuery = ""
	s.message = ""
	s.lastErr = nil
	s.commits++
	count := len(s.visibleLocked())
	s.mu.Unlock()

	s.record(query, "plain", count, nil)
	return nil
}

// AISearch replaces the candidate set with the backend's semantic search
// results. Blank queries are ignored and a missing token is rejected before
// any request is made. Failures leave the mode unchanged. A pending catalog
// load is not affected.
func (s *Searcher) AISearch(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}

	token, ok := "", false
	if s.auth != nil {
		token, ok = s.auth.Token()
	}
	if !ok || strings.TrimSpace(token) == "" {
		s.mu.Lock()
		s.lastErr = ErrAuthRequired
		s.mu.Unlock()
		return ErrAuthRequired
	}

	s.mu.Lock()
	reqCtx, gen := s.query.begin(ctx, s.timeout)
	s.mu.Unlock()

	outcome, err := s.semantic.Search(reqCtx, query, token)

	s.mu.Lock()
	if !s.query.finish(gen) {
		s.mu.Unlock()
		s.logger.Debug("dropping stale AI search result", zap.String("query", query))
		return ErrSuperseded
	}
	if err != nil {
		// Only our own deadline counts; the caller's context is still live.
		if s.timeout > 0 && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = &TimeoutError{After: s.timeout, Err: err}
		}
		s.lastErr = err
		s.mu.Unlock()
		s.logger.Warn("AI search failed", zap.String("query", query), zap.Error(err))
		s.record(query, "ai", 0, err)
		return err
	}

	s.remote = outcome.Listings
	if s.remote == nil {
		s.remote = []models.Listing{}
	}
	parsed := outcome.Parsed
	s.parsed = &parsed
	s.aiQuery = query
	s.selection.SetQuery("")
	s.mode = ModeRemote
	s.lastErr = nil
	s.message = ""
	s.commits++
	if len(s.remote) == 0 {
		s.message = outcome.Message
		if s.message == "" {
			s.message = noResultsMessage
		}
	}
	count := len(s.remote)
	s.mu.Unlock()

	s.record(query, "ai", count, nil)
	return nil
}

// Visible returns the listings to display for the current mode.
func (s *Searcher) Visible() []models.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleLocked()
}

// Snapshot returns a copy of the current state for display.
func (s *Searcher) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		Mode:      s.mode,
		Listings:  s.visibleLocked(),
		Selection: s.selection.Clone(),
		Message:   s.message,
		Err:       s.lastErr,
		Loading:   s.load.pending() || s.query.pending(),
		AIQuery:   s.aiQuery,
	}
	if s.mode == ModeRemote {
		v.Candidates = len(s.remote)
	} else {
		v.Candidates = len(s.all)
	}
	if s.parsed != nil {
		p := *s.parsed
		v.Parsed = &p
	}
	return v
}

// Mode reports where the visible listings come from.
func (s *Searcher) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Catalog returns the last loaded catalog snapshot regardless of mode.
func (s *Searcher) Catalog() []models.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Listing, len(s.all))
	copy(out, s.all)
	return out
}

// ToggleCategory flips one category filter and reports whether it is now active.
func (s *Searcher) ToggleCategory(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.ToggleCategory(name)
}

// SetCategories replaces the active category filters.
func (s *Searcher) SetCategories(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.SetCategories(names)
}

// SetMinPrice sets the lower price bound. Nil removes it.
func (s *Searcher) SetMinPrice(p *decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.SetMinPrice(p)
}

// SetMaxPrice sets the upper price bound. Nil removes it.
func (s *Searcher) SetMaxPrice(p *decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.SetMaxPrice(p)
}

// SetPriceRange sets both price bounds at once.
func (s *Searcher) SetPriceRange(minPrice, maxPrice *decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.SetMinPrice(minPrice)
	s.selection.SetMaxPrice(maxPrice)
}

// ClearPrice removes both price bounds.
func (s *Searcher) ClearPrice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.ClearPrice()
}

// Cancel aborts every in-flight request. Their callers receive ErrSuperseded.
func (s *Searcher) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load.supersede()
	s.query.supersede()
}

func (s *Searcher) visibleLocked() []models.Listing {
	if s.mode == ModeRemote {
		out := make([]models.Listing, len(s.remote))
		copy(out, s.remote)
		return out
	}
	return filter.Apply(s.all, s.selection.Predicates()...)
}

// flight tracks the latest request of one kind. Starting a request cancels
// the previous one and makes its result stale. Callers hold Searcher.mu.
type flight struct {
	gen    uint64
	cancel context.CancelFunc
}

func (f *flight) begin(parent context.Context, timeout time.Duration) (context.Context, uint64) {
	f.supersede()
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	f.cancel = cancel
	return ctx, f.gen
}

// finish reports whether gen is still the latest request and releases it.
func (f *flight) finish(gen uint64) bool {
	if gen != f.gen {
		return false
	}
	f.release()
	return true
}

// supersede makes any pending request stale.
func (f *flight) supersede() {
	f.release()
	f.gen++
}

func (f *flight) release() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

func (f *flight) pending() bool { return f.cancel != nil }

func (s *Searcher) record(query, mode string, count int, err error) {
	if s.history == nil {
		return
	}
	rec := models.SearchRecord{
		ID:          uuid.NewString(),
		Query:       query,
		Mode:        mode,
		ResultCount: count,
		CreatedAt:   time.Now(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if herr := s.history.RecordSearch(rec); herr != nil {
		s.logger.Warn("failed to record search", zap.Error(herr))
	}
}

// TimeoutError reports an AI search that ran past the client-side limit.
type TimeoutError struct {
	After time.Duration
	Err   error
}

// Error reports the client-side limit that expired.
func (e *TimeoutError) Error() string {
	return "AI search timed out after " + e.After.String()
}

// Unwrap returns the underlying context error.
func (e *TimeoutError) Unwrap() error { return e.Err }
