// package tasks implements the catalog and watch list operations that span several requests or files.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/services"
	"github.com/desertthunder/freemovies/internal/shared"
)

const (
	// DefaultPace is the minimum gap between searches of one browse.
	DefaultPace = 200 * time.Millisecond
	// DefaultBrowseLimit is used when Browse is called with a limit below one.
	DefaultBrowseLimit = 10
)

var genreTerms = map[string][]string{
	"movies":   {"action", "adventure", "drama"},
	"series":   {"series", "tv"},
	"suspense": {"thriller", "suspense", "mystery"},
	"terror":   {"horror", "terror", "scary"},
}

// Genres returns the genre names with predefined search terms.
func Genres() []string {
	return []string{"movies", "series", "suspense", "terror"}
}

// GenreTerms returns the search terms for genre. Unknown genres search for themselves.
func GenreTerms(genre string) []string {
	genre = strings.TrimSpace(genre)
	if terms, ok := genreTerms[strings.ToLower(genre)]; ok {
		return append([]string(nil), terms...)
	}
	return []string{genre}
}

// BrowseResult is the outcome of [Engine.Browse].
type BrowseResult struct {
	Genre  string                `json:"genre"`
	Terms  []string              `json:"terms"`
	Items  []models.MovieSummary `json:"items"`
	Failed map[string]string     `json:"failed,omitempty"` // term -> error
}

// Engine runs catalog operations that issue several requests.
type Engine struct {
	catalog services.Catalog
	pace    time.Duration
}

// NewEngine creates an Engine that paces requests at [DefaultPace].
func NewEngine(catalog services.Catalog) *Engine {
	return &Engine{catalog: catalog, pace: DefaultPace}
}

// WithPace overrides the gap between searches. Zero disables pacing.
func (e *Engine) WithPace(d time.Duration) *Engine {
	e.pace = d
	return e
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *Engine) limiter() *rate.Limiter {
	if e.pace <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(e.pace), 1)
}

// Browse collects up to limit distinct titles for genre.
//
// Terms that fail or match nothing are skipped. An error is returned only when every term failed
// for a reason other than an empty result, or when ctx ends.
func (e *Engine) Browse(ctx context.Context, progress chan<- ProgressUpdate, genre string, limit int) (*BrowseResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	if strings.TrimSpace(genre) == "" {
		return nil, fmt.Errorf("%w: genre is required", shared.ErrMissingArgument)
	}
	if limit < 1 {
		limit = DefaultBrowseLimit
	}

	terms := GenreTerms(genre)
	result := &BrowseResult{Genre: genre, Terms: terms, Items: []models.MovieSummary{}}
	limiter := e.limiter()

	seen := make(map[string]bool)
	var hardFailures int
	var lastErr error

	for i, term := range terms {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		e.sendProgress(progress, searchTermUpdate(i+1, len(terms), term))

		page, err := e.catalog.Search(ctx, term, 1)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if result.Failed == nil {
				result.Failed = make(map[string]string)
			}
			result.Failed[term] = services.Message(err, err.Error())
			if !errors.Is(err, shared.ErrNoResults) {
				hardFailures++
				lastErr = err
			}
			e.sendProgress(progress, searchTermFailedUpdate(i+1, len(terms), term, err))
			continue
		}

		for _, m := range page.Items {
			if m.ImdbID == "" || seen[m.ImdbID] {
				continue
			}
			seen[m.ImdbID] = true
			result.Items = append(result.Items, m)
		}
		e.sendProgress(progress, searchTermDoneUpdate(i+1, len(terms), term, len(page.Items)))
	}

	if hardFailures == len(terms) {
		return nil, fmt.Errorf("failed to browse %s: %w", genre, lastErr)
	}

	if len(result.Items) > limit {
		result.Items = result.Items[:limit]
	}

	e.sendProgress(progress, collectUpdate(result))
	return result, nil
}
