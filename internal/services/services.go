package services

import (
	"context"
	"errors"

	"github.com/desertthunder/freemovies/internal/models"
)

const (
	msgNoMovies     = "No movies found"
	msgNoSeries     = "No series found"
	msgNotFound     = "Movie not found"
	msgConnectError = "Error connecting to the API"
)

// Catalog is a searchable movie database.
type Catalog interface {
	// Search returns one page of movies matching query. A blank query returns an empty page
	// without contacting the API.
	Search(ctx context.Context, query string, page int) (*models.SearchPage, error)

	// Movie returns the full record for an IMDb id.
	Movie(ctx context.Context, imdbID string) (*models.MovieDetail, error)

	// Series returns up to limit TV series.
	Series(ctx context.Context, limit int) ([]models.MovieSummary, error)
}

// Error is a catalog failure with a message that can be shown to the user.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the display message of err, or fallback when err is not an [*Error].
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
