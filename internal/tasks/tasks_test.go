package tasks

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/services"
	"github.com/desertthunder/freemovies/internal/shared"
)

type mockCatalog struct {
	mu      sync.Mutex
	pages   map[string][]models.MovieSummary
	errs    map[string]error
	queries []string
	times   []time.Time
}

func (m *mockCatalog) Search(ctx context.Context, query string, page int) (*models.SearchPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	m.times = append(m.times, time.Now())

	if err := m.errs[query]; err != nil {
		return nil, err
	}
	items := m.pages[query]
	return &models.SearchPage{Query: query, Page: page, Items: items, TotalResults: len(items)}, nil
}

func (m *mockCatalog) Movie(ctx context.Context, imdbID string) (*models.MovieDetail, error) {
	return nil, errors.New("not used")
}

func (m *mockCatalog) Series(ctx context.Context, limit int) ([]models.MovieSummary, error) {
	return nil, errors.New("not used")
}

func summaries(ids ...string) []models.MovieSummary {
	out := make([]models.MovieSummary, len(ids))
	for i, id := range ids {
		out[i] = models.MovieSummary{ImdbID: id, Title: "Title " + id}
	}
	return out
}

func ids(items []models.MovieSummary) []string {
	out := make([]string, len(items))
	for i, m := range items {
		out[i] = m.ImdbID
	}
	return out
}

func TestGenreTerms(t *testing.T) {
	tests := []struct {
		genre string
		want  []string
	}{
		{"movies", []string{"action", "adventure", "drama"}},
		{"Series", []string{"series", "tv"}},
		{"suspense", []string{"thriller", "suspense", "mystery"}},
		{"terror", []string{"horror", "terror", "scary"}},
		{"western", []string{"western"}},
		{" Noir ", []string{"Noir"}},
	}

	for _, tt := range tests {
		t.Run(tt.genre, func(t *testing.T) {
			if got := GenreTerms(tt.genre); !slices.Equal(got, tt.want) {
				t.Errorf("GenreTerms(%q) = %v, want %v", tt.genre, got, tt.want)
			}
		})
	}

	t.Run("returns a copy", func(t *testing.T) {
		GenreTerms("movies")[0] = "changed"
		if GenreTerms("movies")[0] != "action" {
			t.Error("GenreTerms should not expose the shared map")
		}
	})
}

func TestEngine_Browse(t *testing.T) {
	ctx := context.Background()

	t.Run("searches every term, deduplicates and limits", func(t *testing.T) {
		catalog := &mockCatalog{pages: map[string][]models.MovieSummary{
			"action":    summaries("tt1", "tt2"),
			"adventure": summaries("tt2", "tt3"),
			"drama":     summaries("tt4", "tt1", "tt5"),
		}}
		engine := NewEngine(catalog).WithPace(0)

		result, err := engine.Browse(ctx, nil, "movies", 4)
		if err != nil {
			t.Fatalf("Browse failed: %v", err)
		}
		if !slices.Equal(catalog.queries, []string{"action", "adventure", "drama"}) {
			t.Errorf("unexpected queries %v", catalog.queries)
		}
		if got := ids(result.Items); !slices.Equal(got, []string{"tt1", "tt2", "tt3", "tt4"}) {
			t.Errorf("unexpected items %v", got)
		}
	})

	t.Run("default limit", func(t *testing.T) {
		many := make([]string, 15)
		for i := range many {
			many[i] = "tt" + string(rune('a'+i))
		}
		catalog := &mockCatalog{pages: map[string][]models.MovieSummary{"western": summaries(many...)}}

		result, err := NewEngine(catalog).WithPace(0).Browse(ctx, nil, "western", 0)
		if err != nil {
			t.Fatalf("Browse failed: %v", err)
		}
		if len(result.Items) != DefaultBrowseLimit {
			t.Errorf("expected %d items, got %d", DefaultBrowseLimit, len(result.Items))
		}
	})

	t.Run("paces searches", func(t *testing.T) {
		catalog := &mockCatalog{}
		pace := 30 * time.Millisecond

		if _, err := NewEngine(catalog).WithPace(pace).Browse(ctx, nil, "series", 10); err != nil {
			t.Fatalf("Browse failed: %v", err)
		}
		if len(catalog.times) != 2 {
			t.Fatalf("expected 2 searches, got %d", len(catalog.times))
		}
		if gap := catalog.times[1].Sub(catalog.times[0]); gap < pace-5*time.Millisecond {
			t.Errorf("expected at least %v between searches, got %v", pace, gap)
		}
	})

	t.Run("skips failing terms", func(t *testing.T) {
		catalog := &mockCatalog{
			pages: map[string][]models.MovieSummary{"scary": summaries("tt9")},
			errs: map[string]error{
				"horror": &services.Error{Message: "Too many results.", Err: shared.ErrNoResults},
				"terror": &services.Error{Message: "Error connecting to the API", Err: shared.ErrAPIRequest},
			},
		}

		result, err := NewEngine(catalog).WithPace(0).Browse(ctx, nil, "terror", 10)
		if err != nil {
			t.Fatalf("Browse failed: %v", err)
		}
		if got := ids(result.Items); !slices.Equal(got, []string{"tt9"}) {
			t.Errorf("unexpected items %v", got)
		}
		if result.Failed["horror"] != "Too many results." {
			t.Errorf("expected failure to be recorded, got %v", result.Failed)
		}
	})

	t.Run("every term failing is an error", func(t *testing.T) {
		apiErr := &services.Error{Message: "Error connecting to the API", Err: shared.ErrAPIRequest}
		catalog := &mockCatalog{errs: map[string]error{"series": apiErr, "tv": apiErr}}

		_, err := NewEngine(catalog).WithPace(0).Browse(ctx, nil, "series", 10)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("no results is not an error", func(t *testing.T) {
		noResults := &services.Error{Message: "Movie not found!", Err: shared.ErrNoResults}
		catalog := &mockCatalog{errs: map[string]error{"zzz": noResults}}

		result, err := NewEngine(catalog).WithPace(0).Browse(ctx, nil, "zzz", 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Items) != 0 {
			t.Errorf("expected no items, got %v", result.Items)
		}
	})

	t.Run("argument errors", func(t *testing.T) {
		if _, err := NewEngine(nil).Browse(ctx, nil, "movies", 1); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if _, err := NewEngine(&mockCatalog{}).Browse(ctx, nil, "  ", 1); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		catalog := &mockCatalog{}
		if _, err := NewEngine(catalog).Browse(cctx, nil, "movies", 1); err == nil {
			t.Error("expected error")
		}
		if len(catalog.queries) != 0 {
			t.Errorf("expected no searches, got %v", catalog.queries)
		}
	})

	t.Run("progress updates", func(t *testing.T) {
		catalog := &mockCatalog{pages: map[string][]models.MovieSummary{"tv": summaries("tt1")}}
		progress := make(chan ProgressUpdate, 16)

		if _, err := NewEngine(catalog).WithPace(0).Browse(ctx, progress, "series", 10); err != nil {
			t.Fatalf("Browse failed: %v", err)
		}
		close(progress)

		var phases []Phase
		for u := range progress {
			phases = append(phases, u.Phase)
		}
		if len(phases) != 5 {
			t.Fatalf("expected 5 updates, got %d", len(phases))
		}
		if phases[len(phases)-1] != CollectResults {
			t.Errorf("expected final update to be %s, got %s", CollectResults, phases[len(phases)-1])
		}
	})
}

func TestProgressUpdate_NonBlocking(t *testing.T) {
	engine := NewEngine(&mockCatalog{})
	progress := make(chan ProgressUpdate)

	done := make(chan struct{})
	go func() {
		engine.sendProgress(progress, ProgressUpdate{Message: "dropped"})
		engine.sendProgress(nil, ProgressUpdate{Message: "ignored"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sendProgress blocked")
	}
}

func TestPhaseString(t *testing.T) {
	for phase, want := range map[Phase]string{
		SearchTerms:    "search_terms",
		CollectResults: "collect_results",
		ExportFormats:  "export_formats",
		WriteManifest:  "write_manifest",
		Phase(99):      "",
	} {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}
}
