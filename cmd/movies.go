package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/shared"
	"github.com/desertthunder/freemovies/internal/tasks"
)

// MoviesSearch searches the catalog for movies matching the query argument.
func (r *Runner) MoviesSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	page := int(cmd.Int("page"))

	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: query is required", shared.ErrMissingArgument)
	}

	r.logger.Info("searching movies", "query", query, "page", page)

	result, err := r.catalog.Search(ctx, query, page)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	pages := (result.TotalResults + 9) / 10
	r.writePlain("Found %d results for %q (page %d of %d):\n\n", result.TotalResults, result.Query, result.Page, max(pages, 1))
	r.printSummaries(result.Items)
	return nil
}

// MoviesShow prints the full record of one title.
func (r *Runner) MoviesShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: imdb id is required", shared.ErrMissingArgument)
	}

	movie, err := r.catalog.Movie(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(movie, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s (%s)", movie.Title, movie.Year))
	for _, row := range [][2]string{
		{"Type", movie.Type},
		{"Rated", movie.Rated},
		{"Released", movie.Released},
		{"Runtime", movie.Runtime},
		{"Genre", movie.Genre},
		{"Director", movie.Director},
		{"Writer", movie.Writer},
		{"Actors", movie.Actors},
		{"Language", movie.Language},
		{"Country", movie.Country},
		{"Awards", movie.Awards},
		{"IMDb", movie.ImdbRating},
	} {
		if row[1] == "" || row[1] == "N/A" {
			continue
		}
		r.writePlain("%-9s %s\n", row[0]+":", row[1])
	}
	for _, rating := range movie.Ratings {
		r.writePlain("  %s: %s\n", rating.Source, rating.Value)
	}
	if movie.Plot != "" && movie.Plot != "N/A" {
		r.writePlain("\n%s\n", movie.Plot)
	}
	return nil
}

// MoviesGenre browses a genre by running one search per genre term.
func (r *Runner) MoviesGenre(ctx context.Context, cmd *cli.Command) error {
	genre := cmd.StringArg("genre")
	limit := int(cmd.Int("limit"))

	if genre == "" {
		return fmt.Errorf("%w: genre is required (one of %s)", shared.ErrMissingArgument, strings.Join(tasks.Genres(), ", "))
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	quiet := cmd.Bool("json")
	go func() {
		defer close(done)
		for update := range progress {
			if quiet {
				continue
			}
			switch update.Phase {
			case tasks.SearchTerms:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.CollectResults:
				r.writePlain("📥 %s\n\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Browse(ctx, progress, genre, limit)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	if quiet {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.printSummaries(result.Items)
	for term, msg := range result.Failed {
		r.logger.Warn("term failed", "term", term, "error", msg)
	}
	return nil
}

// MoviesSeries lists popular series.
func (r *Runner) MoviesSeries(ctx context.Context, cmd *cli.Command) error {
	items, err := r.catalog.Series(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, cmd.Bool("pretty"))
	}
	r.printSummaries(items)
	return nil
}

func (r *Runner) printSummaries(items []models.MovieSummary) {
	for i, m := range items {
		r.writePlain("%d. %s (%s)\n", i+1, m.Title, m.Year)
		r.writePlain("   ID: %s\n", m.ImdbID)
		r.writePlain("   Type: %s\n\n", m.Type)
	}
}
