package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jasperwreed/campus-market/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeCatalog struct {
	mu       sync.Mutex
	listings []models.Listing
	err      error
	calls    int
}

func (f *fakeCatalog) FetchActiveListings(ctx context.Context) ([]models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Listing, len(f.listings))
	copy(out, f.listings)
	return out, nil
}

func (f *fakeCatalog) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeCatalog) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type semanticFunc func(ctx context.Context, query, token string) (models.SearchOutcome, error)

type fakeSemantic struct {
	fn    semanticFunc
	calls atomic.Int32
}

func (f *fakeSemantic) Search(ctx context.Context, query, token string) (models.SearchOutcome, error) {
	f.calls.Add(1)
	return f.fn(ctx, query, token)
}

type fakeAuth struct{ token string }

func (a fakeAuth) Token() (string, bool) { return a.token, a.token != "" }

type fakeHistory struct {
	mu   sync.Mutex
	recs []models.SearchRecord
}

func (h *fakeHistory) RecordSearch(rec models.SearchRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recs = append(h.recs, rec)
	return nil
}

func listing(id, title, price, category string) models.Listing {
	return models.Listing{
		ID:       id,
		Title:    title,
		Price:    decimal.RequireFromString(price),
		Category: category,
		Status:   models.StatusActive,
	}
}

func testCatalog() []models.Listing {
	return []models.Listing{
		listing("1", "Calculus Textbook", "40", "Textbooks"),
		listing("2", "Desk Lamp", "15", "Essentials"),
		listing("3", "Futon", "120", "Furniture"),
	}
}

func ids(listings []models.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// gatedCatalog blocks its first fetch until release is closed.
type gatedCatalog struct {
	listings []models.Listing
	started  chan struct{}
	release  chan struct{}
	once     sync.Once
}

func newGatedCatalog(listings []models.Listing) *gatedCatalog {
	return &gatedCatalog{listings: listings, started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedCatalog) FetchActiveListings(ctx context.Context) ([]models.Listing, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.started)
		<-g.release
	}
	out := make([]models.Listing, len(g.listings))
	copy(out, g.listings)
	return out, nil
}

func staticResults(results ...models.Listing) *fakeSemantic {
	return &fakeSemantic{fn: func(ctx context.Context, query, token string) (models.SearchOutcome, error) {
		return models.SearchOutcome{Listings: results}, nil
	}}
}

func newLoaded(t *testing.T, sem SemanticSearcher, auth AuthState, opts Options) (*Searcher, *fakeCatalog) {
	t.Helper()
	cat := &fakeCatalog{listings: testCatalog()}
	s := NewSearcher(cat, sem, auth, opts)
	require.NoError(t, s.Load(context.Background()))
	return s, cat
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "local", ModeLocal.String())
	assert.Equal(t, "remote", ModeRemote.String())
	assert.Equal(t, "unknown", Mode(7).String())
}

func TestLoad(t *testing.T) {
	s, _ := newLoaded(t, staticResults(), nil, Options{})

	v := s.Snapshot()
	assert.Equal(t, ModeLocal, v.Mode)
	assert.Equal(t, 3, v.Candidates)
	assert.Equal(t, []string{"1", "2", "3"}, ids(v.Listings))
	assert.NoError(t, v.Err)
	assert.False(t, v.Loading)
}

func TestLoad_FailureMeansNoCandidates(t *testing.T) {
	backendDown := errors.New("backend down")
	cat := &fakeCatalog{err: backendDown}
	s := NewSearcher(cat, staticResults(), nil, Options{})

	err := s.Load(context.Background())
	require.ErrorIs(t, err, backendDown)

	v := s.Snapshot()
	assert.Empty(t, v.Listings)
	assert.ErrorIs(t, v.Err, backendDown)
	assert.Equal(t, ModeLocal, v.Mode)
}

func TestVisible_LocalAppliesSelection(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *Searcher)
		want  []string
	}{
		{
			name:  "no filters",
			setup: func(s *Searcher) {},
			want:  []string{"1", "2", "3"},
		},
		{
			name: "category and max price",
			setup: func(s *Searcher) {
				s.SetCategories([]string{"Textbooks"})
				s.SetMaxPrice(price("50"))
			},
			want: []string{"1"},
		},
		{
			name: "min above max",
			setup: func(s *Searcher) {
				s.SetPriceRange(price("100"), price("10"))
			},
			want: []string{},
		},
		{
			name: "toggle twice restores",
			setup: func(s *Searcher) {
				s.ToggleCategory("Furniture")
				s.ToggleCategory("Furniture")
			},
			want: []string{"1", "2", "3"},
		},
		{
			name: "cleared price",
			setup: func(s *Searcher) {
				s.SetMinPrice(price("100"))
				s.ClearPrice()
			},
			want: []string{"1", "2", "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newLoaded(t, staticResults(), nil, Options{})
			tt.setup(s)
			if diff := cmp.Diff(tt.want, ids(s.Visible())); diff != "" {
				t.Errorf("visible mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSearch_LocalTextQuery(t *testing.T) {
	s, cat := newLoaded(t, staticResults(), nil, Options{})

	require.NoError(t, s.Search(context.Background(), "lamp"))
	assert.Equal(t, []string{"2"}, ids(s.Visible()))
	assert.Equal(t, "lamp", s.Snapshot().Selection.Query())
	assert.Equal(t, 1, cat.callCount(), "local search must not refetch")

	require.NoError(t, s.Search(context.Background(), ""))
	assert.Equal(t, []string{"1", "2", "3"}, ids(s.Visible()))
}

func TestAISearch_RequiresToken(t *testing.T) {
	sem := staticResults(listing("9", "Mini Fridge", "60", "Dorm Supplies"))
	s, _ := newLoaded(t, sem, fakeAuth{}, Options{})

	err := s.AISearch(context.Background(), "cheap fridge")
	require.ErrorIs(t, err, ErrAuthRequired)
	assert.Zero(t, sem.calls.Load(), "no request without a token")

	v := s.Snapshot()
	assert.Equal(t, ModeLocal, v.Mode)
	assert.ErrorIs(t, v.Err, ErrAuthRequired)
	assert.Equal(t, []string{"1", "2", "3"}, ids(v.Listings))
}

func TestAISearch_NilAuthRequiresToken(t *testing.T) {
	sem := staticResults()
	s, _ := newLoaded(t, sem, nil, Options{})

	require.ErrorIs(t, s.AISearch(context.Background(), "desk"), ErrAuthRequired)
	assert.Zero(t, sem.calls.Load())
}

func TestAISearch_BlankQueryIsNoop(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		sem := staticResults()
		s, _ := newLoaded(t, sem, fakeAuth{token: "tok"}, Options{})

		err := s.AISearch(context.Background(), q)
		require.ErrorIs(t, err, ErrEmptyQuery)
		assert.Zero(t, sem.calls.Load())
		v := s.Snapshot()
		assert.Equal(t, ModeLocal, v.Mode)
		assert.NoError(t, v.Err)
	}
}

func TestAISearch_ReplacesCandidates(t *testing.T) {
	var gotQuery, gotToken string
	sem := &fakeSemantic{fn: func(ctx context.Context, query, token string) (models.SearchOutcome, error) {
		gotQuery, gotToken = query, token
		return models.SearchOutcome{
			Listings: []models.Listing{
				listing("9", "Mini Fridge", "60", "Dorm Supplies"),
				listing("1", "Calculus Textbook", "40", "Textbooks"),
			},
			Parsed: models.ParsedQuery{Keywords: "fridge", MaxPrice: price("80")},
		}, nil
	}}
	s, _ := newLoaded(t, sem, fakeAuth{token: "tok"}, Options{})

	// Local filters that would exclude every remote result.
	s.SetCategories([]string{"Furniture"})
	s.SetMaxPrice(price("1"))
	require.NoError(t, s.Search(context.Background(), "zzz"))

	require.NoError(t, s.AISearch(context.Background(), "  fridge under 80 "))
	assert.Equal(t, "  fridge under 80 ", gotQuery, "query is sent as typed")
	assert.Equal(t, "tok", gotToken)

	v := s.Snapshot()
	assert.Equal(t, ModeRemote, v.Mode)
	assert.Equal(t, []string{"9", "1"}, ids(v.Listings))
	assert.Equal(t, 2, v.Candidates)
	assert.Equal(t, "", v.Selection.Query(), "text query is cleared")
	assert.Empty(t, v.Message)
	require.NotNil(t, v.Parsed)
	assert.Equal(t, "fridge", v.Parsed.Keywords)
	assert.Equal(t, "  fridge under 80 ", v.AIQuery)

	// Local filter edits do not touch the remote set.
	s.ToggleCategory("Textbooks")
	assert.Equal(t, []string{"9", "1"}, ids(s.Visible()))
}

func TestAISearch_EmptyResult(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{name: "provider message", message: "Nothing matched 'unicorn'.", want: "Nothing matched 'unicorn'."},
		{name: "default message", message: "", want: "No listings found matching your query."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sem := &fakeSemantic{fn: func(ctx context.Context, query, token string) (models.SearchOutcome, error) {
				return models.SearchOutcome{Message: tt.message}, nil
			}}
			s, _ := newLoaded(t, sem, fakeAuth{token: "tok"}, Options{})

			require.NoError(t, s.AISearch(context.Background(), "unicorn"))
			v := s.Snapshot()
			assert.Equal(t, ModeRemote, v.Mode)
			assert.Empty(t, v.Listings)
			assert.NotNil(t, v.Listings)
			assert.Equal(t, tt.want, v.Message)
			assert.NoError(t, v.Err)
		})
	}
}

func TestAISearch_FailureKeepsMode(t *testing.T) {
	providerErr := errors.New("model offline")
	fail := false
	sem := &fakeSemantic{fn: func(ctx context.Context, query, token string) (models.SearchOutcome, error) {
		if fail {
			return models.SearchOutcome{}, providerErr
		}
		return models.SearchOutcome{Listings: []models.Listing{listing("9", "Mini Fridge", "60", "Dorm Supplies")}}, nil
	}}

	t.Run("from local", func(t *testing.T) {
		fail = true
		s, _ := newLoaded(t, sem, fakeAuth{token: "tok"}, Options{})
		s.SetCategories([]string{"Essentials"})

		err := s.AISearch(context.Background(), "fridge")
		require.ErrorIs(t, err, providerErr)
		v := s.Snapshot()
		assert.Equal(t, ModeLocal, v.Mode)
		assert.Equal(t, []string{"2"}, ids(v.Listings))
		assert.ErrorIs(t, v.Err, providerErr)
	})

	t.Run("from remote", func(t *testing.T) {
		fail = false
		s, _ := newLoaded(t, sem, fakeAuth{token: "tok"}, Options{})
		require.NoError(t, s.AISearch(context.Background(), "fridge"))

		fail = true
		err := s.AISearch(context.Background(), "lamp")
		require.ErrorIs(t, err, providerErr)
		v := s.Snapshot()
		assert.Equal(t, ModeRemote, v.Mode)
		assert.Equal(t, []string{"9"}, ids(v.Listings))
		assert.Equal(t, "fridge", v.AIQuery)
	})
}

func TestAISearch_Timeout(t *testing.T) {
	sem := &fakeSemantic{fn: func(ctx context.Context, query, token string) (models.SearchOutcome, error) {
		<-ctx.Done()
		return models.SearchOutcome{}, ctx.Err()
	}}
	s, _ := newLoaded(t, sem, fakeAuth{token: "tok"}, Options{AITimeout: 20 * time.Millisecond})

	err := s.AISearch(context.Background(), "desk")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 20*time.Millisecond, te.After)
	assert.Contains(t, err.Error(), "timed out")

	v := s.Snapshot()
	assert.Equal(t, ModeLocal, v.Mode)
	assert.False(t, v.Loading)
}

func TestSearch_PlainSearchLeavesRemote(t *testing.T) {
	sem := staticResults(listing("9", "Mini Fridge", "60", "Dorm Supplies"))
	s, cat := newLoaded(t, sem, fakeAuth{token: "tok"}, Options{})
	require.NoError(t, s.AISearch(context.Background(), "fridge"))
	require.Equal(t, ModeRemote, s.Mode())

	cat.mu.Lock()
	cat.listings = append(cat.listings, listing("4", "Bike Lock", "12", "Essentials"))
	cat.mu.Unlock()

	require.NoError(t, s.Search(context.Background(), ""))
	v := s.Snapshot()
	assert.Equal(t, ModeLocal, v.Mode)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(v.Listings), "full catalog, not the AI results")
	assert.Equal(t, 2, cat.callCount(), "leaving AI mode refetches the catalog")
	assert.Nil(t, v.Parsed)
	assert.Empty(t, v.AIQuery)
}

func TestSearch_PlainSearchAppliesQueryAfterLeavingRemote(t *testing.T) {
	sem := staticResults(listing("9", "Mini Fridge", "60", "Dorm Supplies"))
	s, _ := newLoaded(t, sem, fakeAuth{token: "tok"}, Options{})
	require.NoError(t, s.AISearch(context.Background(), "fridge"))

	require.NoError(t, s.Search(context.Background(), "LAMP"))
	assert.Equal(t, ModeLocal, s.Mode())
	assert.Equal(t, []string{"2"}, ids(s.Visible()))
}

func TestSearch_RefetchFailureStaysRemote(t *testing.T) {
	sem := staticResults(listing("9", "Mini Fridge", "60", "Dorm Supplies"))
	s, cat := newLoaded(t, sem, fakeAuth{token: "tok"}, Options{})
	require.NoError(t, s.AISearch(context.Background(), "fridge"))

	down := errors.New("backend down")
	cat.setErr(down)

	err := s.Search(context.Background(), "")
	require.ErrorIs(t, err, down)
	v := s.Snapshot()
	assert.Equal(t, ModeRemote, v.Mode)
	assert.Equal(t, []string{"9"}, ids(v.Listings))
	assert.ErrorIs(t, v.Err, down)
}

func TestAISearch_LastRequestWins(t *testing.T) {
	t.Run("earlier response arrives late", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		sem := &fakeSemantic{fn: func(ctx context.Context, query, token string) (models.SearchOutcome, error) {
			if query == "first" {
				close(started)
				// Ignores cancellation to simulate a response already on the wire.
				<-release
				return models.SearchOutcome{Listings: []models.Listing{listing("A", "First", "1", "Other")}}, nil
			}
			return models.SearchOutcome{Listings: []models.Listing{listing("B", "Second", "2", "Other")}}, nil
		}}
		s, _ := newLoaded(t, sem, fakeAuth{token: "tok"}, Options{})

		firstErr := make(chan error, 1)
		go func() { firstErr <- s.AISearch(context.Background(), "first") }()
		<-started

		require.NoError(t, s.AISearch(context.Background(), "second"))
		close(release)
		require.ErrorIs(t, <-firstErr, ErrSuperseded)

		v := s.Snapshot()
		assert.Equal(t, ModeRemote, v.Mode)
		assert.Equal(t, []string{"B"}, ids(v.Listings))
		assert.Equal(t, "second", v.AIQuery)
	})

	t.Run("earlier request is cancelled", func(t *testing.T) {
		started := make(chan struct{})
		var firstCtxErr error
		sem := &fakeSemantic{fn: func(ctx context.Context, query, token string) (models.SearchOutcome, error) {
			if query == "first" {
				close(started)
				<-ctx.Done()
				firstCtxErr = ctx.Err()
				return models.SearchOutcome{}, ctx.Err()
			}
			return models.SearchOutcome{Listings: []models.Listing{listing("B", "Second", "2", "Other")}}, nil
		}}
		s, _ := newLoaded(t, sem, fakeAuth{token: "tok"}, Options{})

		firstErr := make(chan error, 1)
		go func() { firstErr <- s.AISearch(context.Background(), "first") }()
		<-started

		require.NoError(t, s.AISearch(context.Background(), "second"))
		require.ErrorIs(t, <-firstErr, ErrSuperseded)
		assert.ErrorIs(t, firstCtxErr, context.Canceled)

		v := s.Snapshot()
		assert.Equal(t, []string{"B"}, ids(v.Listings))
		assert.NoError(t, v.Err, "a superseded failure is not surfaced")
	})

	t.Run("plain search supersedes pending AI search", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		sem := &fakeSemantic{fn: func(ctx context.Context, query, token string) (models.SearchOutcome, error) {
			close(started)
			<-release
			return models.SearchOutcome{Listings: []models.Listing{listing("A", "First", "1", "Other")}}, nil
		}}
		s, _ := newLoaded(t, sem, fakeAuth{token: "tok"}, Options{})

		aiErr := make(chan error, 1)
		go func() { aiErr <- s.AISearch(context.Background(), "anything") }()
		<-started

		require.NoError(t, s.Search(context.Background(), "desk"))
		close(release)
		require.ErrorIs(t, <-aiErr, ErrSuperseded)

		assert.Equal(t, ModeLocal, s.Mode())
		assert.Equal(t, []string{"2"}, ids(s.Visible()))
	})
}

func TestCancel(t *testing.T) {
	started := make(chan struct{})
	sem := &fakeSemantic{fn: func(ctx context.Context, query, token string) (models.SearchOutcome, error) {
		close(started)
		<-ctx.Done()
		return models.SearchOutcome{}, ctx.Err()
	}}
	s, _ := newLoaded(t, sem, fakeAuth{token: "tok"}, Options{})

	errCh := make(chan error, 1)
	go func() { errCh <- s.AISearch(context.Background(), "desk") }()
	<-started
	s.Cancel()

	require.ErrorIs(t, <-errCh, ErrSuperseded)
	assert.Equal(t, ModeLocal, s.Mode())
	assert.False(t, s.Snapshot().Loading)
}

func TestHistoryRecording(t *testing.T) {
	hist := &fakeHistory{}
	sem := &fakeSemantic{fn: func(ctx context.Context, query, token string) (models.SearchOutcome, error) {
		if query == "broken" {
			return models.SearchOutcome{}, errors.New("boom")
		}
		return models.SearchOutcome{Listings: []models.Listing{listing("9", "Mini Fridge", "60", "Dorm Supplies")}}, nil
	}}
	s, _ := newLoaded(t, sem, fakeAuth{token: "tok"}, Options{History: hist})

	require.NoError(t, s.Search(context.Background(), "lamp"))
	require.NoError(t, s.AISearch(context.Background(), "fridge"))
	require.Error(t, s.AISearch(context.Background(), "broken"))
	require.ErrorIs(t, s.AISearch(context.Background(), " "), ErrEmptyQuery)

	require.Len(t, hist.recs, 3)
	assert.Equal(t, "plain", hist.recs[0].Mode)
	assert.Equal(t, "lamp", hist.recs[0].Query)
	assert.Equal(t, 1, hist.recs[0].ResultCount)
	assert.Equal(t, "ai", hist.recs[1].Mode)
	assert.Equal(t, 1, hist.recs[1].ResultCount)
	assert.Equal(t, "boom", hist.recs[2].Error)
	for _, rec := range hist.recs {
		assert.NotEmpty(t, rec.ID)
		assert.False(t, rec.CreatedAt.IsZero())
	}
	assert.NotEqual(t, hist.recs[0].ID, hist.recs[1].ID)
}

func TestSnapshotIsACopy(t *testing.T) {
	s, _ := newLoaded(t, staticResults(), nil, Options{})
	v := s.Snapshot()
	v.Listings[0].Title = "mutated"
	v.Selection.ToggleCategory("Textbooks")

	assert.Equal(t, "Calculus Textbook", s.Visible()[0].Title)
	assert.Len(t, s.Visible(), 3)

	cat := s.Catalog()
	cat[0].Title = "mutated"
	assert.Equal(t, "Calculus Textbook", s.Catalog()[0].Title)
}

func TestLoad_NotSupersededByPlainSearch(t *testing.T) {
	cat := newGatedCatalog(testCatalog())
	s := NewSearcher(cat, staticResults(), nil, Options{})

	loadErr := make(chan error, 1)
	go func() { loadErr <- s.Load(context.Background()) }()
	<-cat.started

	require.NoError(t, s.Search(context.Background(), "lamp"))
	assert.True(t, s.Snapshot().Loading)
	close(cat.release)
	require.NoError(t, <-loadErr)

	v := s.Snapshot()
	assert.Equal(t, ModeLocal, v.Mode)
	assert.Equal(t, 3, v.Candidates)
	assert.Equal(t, []string{"2"}, ids(v.Listings))
	assert.False(t, v.Loading)
}

func TestLoad_AISearchDuringLoadKeepsBoth(t *testing.T) {
	cat := newGatedCatalog(testCatalog())
	sem := staticResults(listing("9", "Mini Fridge", "60", "Dorm Supplies"))
	s := NewSearcher(cat, sem, fakeAuth{token: "tok"}, Options{})

	loadErr := make(chan error, 1)
	go func() { loadErr <- s.Load(context.Background()) }()
	<-cat.started

	require.NoError(t, s.AISearch(context.Background(), "fridge"))
	close(cat.release)
	require.NoError(t, <-loadErr)

	v := s.Snapshot()
	assert.Equal(t, ModeRemote, v.Mode, "a late catalog does not hide the AI results")
	assert.Equal(t, []string{"9"}, ids(v.Listings))
	assert.Len(t, s.Catalog(), 3)

	require.NoError(t, s.Search(context.Background(), ""))
	assert.Equal(t, []string{"1", "2", "3"}, ids(s.Visible()))
}

func TestLoad_ReloadLeavesRemote(t *testing.T) {
	sem := staticResults(listing("9", "Mini Fridge", "60", "Dorm Supplies"))
	s, _ := newLoaded(t, sem, fakeAuth{token: "tok"}, Options{})
	require.NoError(t, s.AISearch(context.Background(), "fridge"))

	require.NoError(t, s.Load(context.Background()))
	v := s.Snapshot()
	assert.Equal(t, ModeLocal, v.Mode)
	assert.Equal(t, []string{"1", "2", "3"}, ids(v.Listings))
	assert.Nil(t, v.Parsed)
}

func TestLoad_NewerLoadWins(t *testing.T) {
	cat := newGatedCatalog(testCatalog())
	s := NewSearcher(cat, staticResults(), nil, Options{})

	firstErr := make(chan error, 1)
	go func() { firstErr <- s.Load(context.Background()) }()
	<-cat.started

	require.NoError(t, s.Load(context.Background()))
	close(cat.release)
	require.ErrorIs(t, <-firstErr, ErrSuperseded)
	assert.Len(t, s.Visible(), 3)
}

func TestSearch_RefetchFailureKeepsPreviousQuery(t *testing.T) {
	sem := staticResults(listing("9", "Mini Fridge", "60", "Dorm Supplies"))
	s, cat := newLoaded(t, sem, fakeAuth{token: "tok"}, Options{})
	require.NoError(t, s.AISearch(context.Background(), "fridge"))

	cat.setErr(errors.New("backend down"))
	require.Error(t, s.Search(context.Background(), "desk"))
	assert.Equal(t, "", s.Snapshot().Selection.Query())

	cat.setErr(nil)
	require.NoError(t, s.Search(context.Background(), ""))
	assert.Equal(t, ModeLocal, s.Mode())
	assert.Equal(t, []string{"1", "2", "3"}, ids(s.Visible()))
}

func TestAISearch_CallerDeadlineIsNotATimeout(t *testing.T) {
	sem := &fakeSemantic{fn: func(ctx context.Context, query, token string) (models.SearchOutcome, error) {
		<-ctx.Done()
		return models.SearchOutcome{}, ctx.Err()
	}}

	tests := []struct {
		name      string
		aiTimeout time.Duration
	}{
		{name: "no client limit", aiTimeout: 0},
		{name: "client limit longer than caller deadline", aiTimeout: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newLoaded(t, sem, fakeAuth{token: "tok"}, Options{AITimeout: tt.aiTimeout})

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			err := s.AISearch(ctx, "desk")
			require.ErrorIs(t, err, context.DeadlineExceeded)
			var te *TimeoutError
			assert.False(t, errors.As(err, &te))
			assert.NotContains(t, err.Error(), "timed out after")
		})
	}
}
