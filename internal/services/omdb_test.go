package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/desertthunder/freemovies/internal/shared"
	tu "github.com/desertthunder/freemovies/internal/testing"
)

const searchBody = `{
  "Search": [
    {"Title": "Batman Begins", "Year": "2005", "imdbID": "tt0372784", "Type": "movie", "Poster": "https://example.com/a.jpg"},
    {"Title": "The Batman", "Year": "2022", "imdbID": "tt1877830", "Type": "movie", "Poster": "N/A"}
  ],
  "totalResults": "587",
  "Response": "True"
}`

const detailBody = `{
  "Title": "Batman Begins", "Year": "2005", "imdbID": "tt0372784", "Type": "movie",
  "Rated": "PG-13", "Runtime": "140 min", "Genre": "Action, Crime, Drama",
  "Director": "Christopher Nolan", "Plot": "After witnessing his parents' death...",
  "Ratings": [{"Source": "Internet Movie Database", "Value": "8.2/10"}],
  "imdbRating": "8.2", "Response": "True"
}`

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

func newTestOMDb(t *testing.T, handler http.HandlerFunc, cacheSize int) (*OMDbService, *tu.CountingServer) {
	t.Helper()
	server := tu.NewCountingServer(t, handler)
	return NewOMDbService(OMDbOptions{BaseURL: server.URL, APIKey: "test-key", CacheSize: cacheSize}), server
}

func TestOMDbSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("blank query makes no request", func(t *testing.T) {
		srv, server := newTestOMDb(t, respond(searchBody), 0)

		for _, q := range []string{"", "   ", "\t"} {
			page, err := srv.Search(ctx, q, 1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(page.Items) != 0 || page.TotalResults != 0 {
				t.Errorf("expected empty page, got %+v", page)
			}
		}
		if server.Count() != 0 {
			t.Errorf("expected 0 requests, got %d", server.Count())
		}
	})

	t.Run("requests the given page", func(t *testing.T) {
		srv, server := newTestOMDb(t, respond(searchBody), 0)

		page, err := srv.Search(ctx, "batman", 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if server.Count() != 1 {
			t.Fatalf("expected 1 request, got %d", server.Count())
		}

		q := server.Queries()[0]
		want := map[string]string{"apikey": "test-key", "s": "batman", "page": "2", "type": "movie"}
		for k, v := range want {
			if q.Get(k) != v {
				t.Errorf("expected %s=%s, got %q", k, v, q.Get(k))
			}
		}

		if page.Page != 2 || page.Query != "batman" {
			t.Errorf("unexpected page metadata %+v", page)
		}
		if page.TotalResults != 587 {
			t.Errorf("expected 587 total results, got %d", page.TotalResults)
		}
		if len(page.Items) != 2 || page.Items[0].ImdbID != "tt0372784" {
			t.Errorf("unexpected items %+v", page.Items)
		}
	})

	t.Run("page below one", func(t *testing.T) {
		srv, server := newTestOMDb(t, respond(searchBody), 0)
		if _, err := srv.Search(ctx, "batman", 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := server.Queries()[0].Get("page"); got != "1" {
			t.Errorf("expected page=1, got %s", got)
		}
	})

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		message  string
		sentinel error
	}{
		{
			name:     "api error message",
			handler:  respond(`{"Response":"False","Error":"Too many results."}`),
			message:  "Too many results.",
			sentinel: shared.ErrNoResults,
		},
		{
			name:     "default message",
			handler:  respond(`{"Response":"False"}`),
			message:  msgNoMovies,
			sentinel: shared.ErrNoResults,
		},
		{
			name:     "malformed body",
			handler:  respond(`<html>`),
			message:  msgConnectError,
			sentinel: shared.ErrAPIRequest,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			message:  msgConnectError,
			sentinel: shared.ErrAPIRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestOMDb(t, tt.handler, 0)
			_, err := srv.Search(ctx, "batman", 1)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := Message(err, "fallback"); got != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, got)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("expected %v, got %v", tt.sentinel, err)
			}
		})
	}
}

func TestOMDbMovie(t *testing.T) {
	ctx := context.Background()

	t.Run("full plot detail", func(t *testing.T) {
		srv, server := newTestOMDb(t, respond(detailBody), 0)

		movie, err := srv.Movie(ctx, "tt0372784")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		q := server.Queries()[0]
		if q.Get("i") != "tt0372784" || q.Get("plot") != "full" {
			t.Errorf("unexpected query %v", q)
		}
		if movie.Title != "Batman Begins" || movie.Director != "Christopher Nolan" {
			t.Errorf("unexpected movie %+v", movie)
		}
		if len(movie.Ratings) != 1 || movie.ImdbRating != "8.2" {
			t.Errorf("unexpected ratings %+v", movie.Ratings)
		}
	})

	t.Run("cached", func(t *testing.T) {
		srv, server := newTestOMDb(t, respond(detailBody), 8)

		first, err := srv.Movie(ctx, "tt0372784")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		first.Title = "mutated"

		second, err := srv.Movie(ctx, "tt0372784")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if server.Count() != 1 {
			t.Errorf("expected 1 request, got %d", server.Count())
		}
		if second.Title != "Batman Begins" {
			t.Errorf("cache entry should not share memory with callers, got %q", second.Title)
		}
	})

	t.Run("not found", func(t *testing.T) {
		srv, _ := newTestOMDb(t, respond(`{"Response":"False","Error":"Incorrect IMDb ID."}`), 8)

		_, err := srv.Movie(ctx, "tt0000000")
		if !errors.Is(err, shared.ErrMovieNotFound) {
			t.Fatalf("expected ErrMovieNotFound, got %v", err)
		}
		if Message(err, "") != "Incorrect IMDb ID." {
			t.Errorf("unexpected message %q", Message(err, ""))
		}
		if !IsNotFound(err) {
			t.Error("IsNotFound should be true")
		}
	})

	t.Run("empty id", func(t *testing.T) {
		srv, server := newTestOMDb(t, respond(detailBody), 0)
		if _, err := srv.Movie(ctx, " "); err == nil {
			t.Error("expected error")
		}
		if server.Count() != 0 {
			t.Errorf("expected no request, got %d", server.Count())
		}
	})
}

func TestOMDbSeries(t *testing.T) {
	ctx := context.Background()

	srv, server := newTestOMDb(t, respond(searchBody), 0)
	items, err := srv.Series(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected limit to apply, got %d items", len(items))
	}

	q := server.Queries()[0]
	if q.Get("s") != "series" || q.Get("type") != "series" || q.Get("page") != "1" {
		t.Errorf("unexpected query %v", q)
	}
}

func TestMessage(t *testing.T) {
	if got := Message(errors.New("plain"), "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
	wrapped := fmt.Errorf("outer: %w", &Error{Message: "inner"})
	if got := Message(wrapped, "fallback"); got != "inner" {
		t.Errorf("expected inner, got %q", got)
	}
}
