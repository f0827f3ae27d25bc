package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/services"
	"github.com/desertthunder/freemovies/internal/shared"
	tu "github.com/desertthunder/freemovies/internal/testing"
)

var batman = models.MovieSummary{Title: "Batman Begins", Year: "2005", ImdbID: "tt0372784", Type: "movie", Poster: "N/A"}

type fakeCatalog struct{}

func (fakeCatalog) Search(ctx context.Context, query string, page int) (*models.SearchPage, error) {
	if query == "nothing" {
		return nil, &services.Error{Message: "Movie not found!", Err: shared.ErrNoResults}
	}
	return &models.SearchPage{Query: query, Page: page, Items: []models.MovieSummary{batman}, TotalResults: 1}, nil
}

func (fakeCatalog) Movie(ctx context.Context, imdbID string) (*models.MovieDetail, error) {
	if imdbID != batman.ImdbID {
		return nil, &services.Error{Message: "Incorrect IMDb ID.", Err: shared.ErrMovieNotFound}
	}
	return &models.MovieDetail{MovieSummary: batman, Director: "Christopher Nolan", Plot: "A vigilante begins."}, nil
}

func (fakeCatalog) Series(ctx context.Context, limit int) ([]models.MovieSummary, error) {
	return []models.MovieSummary{{Title: "Breaking Bad", Year: "2008", ImdbID: "tt0903747", Type: "series"}}, nil
}

// testConfig keeps every file of a run inside dir, uses the shortest guard timeout and disables Google sign-in.
func testConfig(dir string) *shared.Config {
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(dir, "freemovies.db")
	config.Auth.SessionFile = filepath.Join(dir, "session.json")
	config.Auth.GuardTimeoutSeconds = shared.MinGuardTimeoutSeconds
	config.Auth.Google.ClientID = ""
	config.Auth.Google.ClientSecret = ""
	return config
}

// run executes args against a fresh runner, like a separate process sharing dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	r := NewRunner(RunnerOpts{
		Config:  testConfig(dir),
		Catalog: fakeCatalog{},
		Output:  out,
	})

	app := &cli.Command{Name: "freemovies", Commands: r.register()}
	err := app.Run(context.Background(), append([]string{"freemovies"}, args...))
	return out.String(), err
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			api := services.NewAPIService("", "key", nil)
			catalog := fakeCatalog{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Catalog:    catalog,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.engine == nil {
				t.Error("expected browse engine to be built")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected stdout output")
			}
			if _, ok := runner.catalog.(*services.OMDbService); !ok {
				t.Errorf("expected OMDb catalog, got %T", runner.catalog)
			}
			if runner.api == nil {
				t.Error("expected raw API client")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "{\n  \"key\": \"value\"\n}\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "{\"key\":\"value\"}\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			w := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &w})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("Hello %s, count: %d\n", "World", 42); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "Hello World, count: 42\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writePlain("test"); err == nil {
				t.Error("expected write error")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "auth", "movies", "list", "api", "serve", "tui"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil || cmd.Name != want[i] {
				t.Errorf("command %d: expected %q, got %+v", i, want[i], cmd)
			}
		}
	})
}

func TestMoviesCommands(t *testing.T) {
	dir := t.TempDir()

	t.Run("search prints results", func(t *testing.T) {
		out, err := run(t, dir, "movies", "search", "batman")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "1. Batman Begins (2005)") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("search without a query", func(t *testing.T) {
		_, err := run(t, dir, "movies", "search")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("search with no results", func(t *testing.T) {
		_, err := run(t, dir, "movies", "search", "nothing")
		if !errors.Is(err, shared.ErrNoResults) {
			t.Errorf("expected ErrNoResults, got %v", err)
		}
	})

	t.Run("show prints the record", func(t *testing.T) {
		out, err := run(t, dir, "movies", "show", batman.ImdbID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"Batman Begins (2005)", "Director: Christopher Nolan", "A vigilante begins."} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("show unknown id", func(t *testing.T) {
		_, err := run(t, dir, "movies", "show", "tt0")
		if !services.IsNotFound(err) {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("genre de-duplicates across terms", func(t *testing.T) {
		out, err := run(t, dir, "movies", "genre", "terror")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(out, "Batman Begins") != 1 {
			t.Errorf("expected one Batman Begins entry:\n%s", out)
		}
	})

	t.Run("series as JSON", func(t *testing.T) {
		out, err := run(t, dir, "movies", "series", "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, `"imdbID": "tt0903747"`) {
			t.Errorf("unexpected output:\n%s", out)
		}
	})
}

func TestAPIGet(t *testing.T) {
	cs := tu.NewCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Response":"True","Title":"Batman Begins"}`))
	})

	out := &bytes.Buffer{}
	config := testConfig(t.TempDir())
	config.OMDb.BaseURL = cs.URL
	config.OMDb.APIKey = "secret"
	r := NewRunner(RunnerOpts{Config: config, Output: out})

	app := &cli.Command{Name: "freemovies", Commands: r.register()}
	if err := app.Run(context.Background(), []string{"freemovies", "api", "get", "?i=tt0372784&apikey=leak"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cs.Count() != 1 {
		t.Fatalf("expected one request, got %d", cs.Count())
	}
	q := cs.Queries()[0]
	if q.Get("i") != "tt0372784" || q.Get("apikey") != "secret" {
		t.Errorf("unexpected query %v", q)
	}
	if !strings.Contains(out.String(), `"Title": "Batman Begins"`) {
		t.Errorf("unexpected output %q", out.String())
	}

	t.Run("empty query", func(t *testing.T) {
		app := &cli.Command{Name: "freemovies", Commands: r.register()}
		err := app.Run(context.Background(), []string{"freemovies", "api", "get"})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestAccountAndListCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "auth", "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "Not signed in") {
		t.Errorf("expected anonymous status, got %q", out)
	}

	if _, err := run(t, dir, "list", "show"); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("expected guarded list, got %v", err)
	}

	if _, err := run(t, dir, "auth", "register", "-e", "ada@example.com", "-p", "short", "-n", "Ada"); !errors.Is(err, shared.ErrAuthFailed) {
		t.Errorf("expected short password to fail, got %v", err)
	}

	out, err = run(t, dir, "auth", "register", "-e", "ada@example.com", "-p", "secret123", "-n", "Ada")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !strings.Contains(out, "Signed in as Ada") {
		t.Errorf("unexpected register output %q", out)
	}

	// a new process restores the session from the session file
	out, err = run(t, dir, "auth", "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "Signed in as Ada") || !strings.Contains(out, "ada@example.com") {
		t.Errorf("expected restored session, got %q", out)
	}

	if out, err = run(t, dir, "list", "add", batman.ImdbID); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !strings.Contains(out, "Added Batman Begins (2005)") {
		t.Errorf("unexpected add output %q", out)
	}

	if _, err := run(t, dir, "list", "add", batman.ImdbID); err == nil || !strings.Contains(err.Error(), "Item already in your list") {
		t.Errorf("expected duplicate add to fail, got %v", err)
	}

	out, err = run(t, dir, "list", "show")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "My List (1)") || !strings.Contains(out, batman.ImdbID) {
		t.Errorf("unexpected list output %q", out)
	}

	exportDir := filepath.Join(dir, "export")
	if _, err := run(t, dir, "list", "export", "-f", "json,csv", "-o", exportDir); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	tu.AssertFileExists(t, filepath.Join(exportDir, "mylist.json"))
	tu.AssertFileExists(t, filepath.Join(exportDir, "mylist.csv"))
	tu.AssertFileExists(t, filepath.Join(exportDir, "export_manifest.json"))
	if !strings.Contains(tu.MustReadFile(t, filepath.Join(exportDir, "mylist.csv")), "Batman Begins") {
		t.Error("expected title in CSV export")
	}

	if _, err := run(t, dir, "list", "remove", batman.ImdbID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if out, _ = run(t, dir, "list", "show"); !strings.Contains(out, "Your list is empty") {
		t.Errorf("expected empty list, got %q", out)
	}

	out, err = run(t, dir, "auth", "logout")
	if err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if !strings.Contains(out, "Not signed in") {
		t.Errorf("unexpected logout output %q", out)
	}

	out, err = run(t, dir, "auth", "login", "-e", "ada@example.com", "-p", "secret123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !strings.Contains(out, "Signed in as Ada") {
		t.Errorf("unexpected login output %q", out)
	}

	if _, err := run(t, dir, "auth", "google"); !errors.Is(err, shared.ErrAuthFailed) {
		t.Errorf("expected google sign-in to be unavailable, got %v", err)
	}
}

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	configPath := filepath.Join(dir, "config.toml")

	r := NewRunner(RunnerOpts{Config: testConfig(dir), Catalog: fakeCatalog{}, Output: &bytes.Buffer{}})
	app := &cli.Command{
		Name:     "freemovies",
		Flags:    []cli.Flag{&cli.StringFlag{Name: "config", Value: "config.toml"}},
		Commands: r.register(),
	}

	if err := app.Run(context.Background(), []string{"freemovies", "--config", configPath, "setup"}); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	tu.AssertFileExists(t, configPath)
}

func TestServeShutsDown(t *testing.T) {
	dir := t.TempDir()
	config := testConfig(dir)

	r := NewRunner(RunnerOpts{Config: config, Catalog: fakeCatalog{}, Output: &bytes.Buffer{}})
	app := &cli.Command{Name: "freemovies", Commands: r.register()}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := app.Run(ctx, []string{"freemovies", "serve", "--addr", "127.0.0.1:0"}); err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
}

func TestDefaultConfigDisablesGoogle(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")

	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.ApplyEnv()
	config.Database.Path = filepath.Join(dir, "freemovies.db")
	config.Auth.SessionFile = filepath.Join(dir, "session.json")

	r := NewRunner(RunnerOpts{Config: config, Catalog: fakeCatalog{}, Output: &bytes.Buffer{}})
	ctx := context.Background()
	s, err := r.newStack(ctx)
	if err != nil {
		t.Fatalf("failed to build stack: %v", err)
	}
	defer s.Close()
	s.ready(ctx, config.Auth.GuardTimeout())

	res := s.coord.LoginWithGoogle(ctx)
	if res.Success || res.Error != "Authentication is not available" {
		t.Errorf("expected google sign-in to be unavailable, got %+v", res)
	}
}
