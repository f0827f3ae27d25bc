package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/freemovies/internal/web"
)

// Serve runs the browser front end on the configured address until ctx ends.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openStack(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	app, err := web.New(web.Options{
		Sessions: s.coord,
		Access:   s.guard.Access,
		Catalog:  r.catalog,
		Browser:  r.engine,
		List:     s.list,
		Logger:   r.logger,
		Settle:   settleTimeout,
	})
	if err != nil {
		return err
	}

	addr := r.config.Server.Addr()
	if a := cmd.String("addr"); a != "" {
		addr = a
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("serving freemovies at http://%v", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	r.writePlain("→ Open http://%s in your browser (Ctrl+C to stop)\n", addr)

	select {
	case err, ok := <-serverErrors:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}
	return nil
}
