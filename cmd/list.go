package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/freemovies/internal/formatter"
	"github.com/desertthunder/freemovies/internal/shared"
	"github.com/desertthunder/freemovies/internal/tasks"
)

// signedIn opens the stack and runs the route guard; anonymous users get [shared.ErrNotAuthenticated].
func (r *Runner) signedIn(ctx context.Context) (*stack, error) {
	s, err := r.openStack(ctx)
	if err != nil {
		return nil, err
	}

	s.ready(ctx, r.config.Auth.GuardTimeout())
	if d := s.guard.Check(ctx); !d.Allowed {
		s.Close()
		return nil, fmt.Errorf("%w: run 'freemovies auth login' first", shared.ErrNotAuthenticated)
	}
	if msg := s.list.Err(); msg != "" {
		s.Close()
		return nil, fmt.Errorf("%w: %s", shared.ErrServiceUnavailable, msg)
	}
	return s, nil
}

// ListShow prints the signed-in user's watch list.
func (r *Runner) ListShow(ctx context.Context, cmd *cli.Command) error {
	s, err := r.signedIn(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	items := s.list.Items()
	if cmd.Bool("json") {
		return r.writeJSON(items, cmd.Bool("pretty"))
	}

	if len(items) == 0 {
		return r.writePlain("Your list is empty\n")
	}

	r.writePlain("My List (%d):\n\n", len(items))
	for i, it := range items {
		r.writePlain("%d. %s (%s)\n", i+1, it.Title, it.Year)
		r.writePlain("   ID: %s\n", it.ImdbID)
		r.writePlain("   Added: %s\n\n", it.AddedAt.Local().Format(time.DateTime))
	}
	return nil
}

// ListAdd looks a title up and adds it to the watch list.
func (r *Runner) ListAdd(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: imdb id is required", shared.ErrMissingArgument)
	}

	s, err := r.signedIn(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	movie, err := r.catalog.Movie(ctx, id)
	if err != nil {
		return err
	}

	if res := s.list.Add(ctx, movie.MovieSummary); !res.Success {
		return fmt.Errorf("%w: %s", shared.ErrInvalidInput, res.Error)
	}

	r.logger.Info("added to list", "imdbID", id)
	return r.writePlain("✓ Added %s (%s) to your list\n", movie.Title, movie.Year)
}

// ListRemove removes a title from the watch list.
func (r *Runner) ListRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: imdb id is required", shared.ErrMissingArgument)
	}

	s, err := r.signedIn(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if res := s.list.Remove(ctx, id); !res.Success {
		return fmt.Errorf("%w: %s", shared.ErrInvalidInput, res.Error)
	}

	r.logger.Info("removed from list", "imdbID", id)
	return r.writePlain("✓ Removed %s from your list\n", id)
}

// ListExport writes the watch list in one or more formats.
func (r *Runner) ListExport(ctx context.Context, cmd *cli.Command) error {
	s, err := r.signedIn(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	sess := s.coord.Current()
	list := &formatter.WatchList{
		Owner:      sess.Name,
		ExportedAt: time.Now().UTC(),
		Items:      s.list.Items(),
	}

	var formats []string
	for _, f := range strings.Split(cmd.String("format"), ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	result, err := r.engine.Export(ctx, progress, list, tasks.ExportOpts{
		Formats:    formats,
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		Posters:    cmd.Bool("posters"),
		Client:     r.httpClient,
	})
	close(progress)
	<-done

	if err != nil {
		return err
	}

	r.writePlainHeader("Export Complete")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Titles: %d\n", result.Items)
	r.writePlain("Formats: %d succeeded, %d failed\n\n", result.Successful, result.Failed)
	for _, fr := range result.Results {
		if fr.Success {
			r.writePlain("✓ %s: %s\n", fr.Format, strings.Join(fr.Files, ", "))
		} else {
			r.writePlain("✗ %s: %s\n", fr.Format, fr.Error)
		}
	}
	if result.ManifestPath != "" {
		r.writePlain("\nManifest: %s\n", result.ManifestPath)
	}
	return nil
}
