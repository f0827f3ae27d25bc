package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/freemovies/internal/identity"
	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/mylist"
	"github.com/desertthunder/freemovies/internal/repositories"
	"github.com/desertthunder/freemovies/internal/session"
	"github.com/desertthunder/freemovies/internal/shared"
)

// settleTimeout bounds how long commands wait for the session to reflect an account action.
const settleTimeout = 5 * time.Second

// stack is the session-owning part of the application: storage, identity, coordinator, guard and list.
type stack struct {
	coord *session.Coordinator
	guard *session.Guard
	list  *mylist.Store

	logger  *log.Logger
	closers []func()
}

func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// newStack opens storage for the configured driver and starts the session coordinator.
//
// Accounts always live in SQL (sqlite unless the driver is postgres); with the firestore driver,
// profiles and watch lists go to Firestore.
func (r *Runner) newStack(ctx context.Context) (*stack, error) {
	cfg := r.config
	s := &stack{logger: r.logger}

	dbCfg := cfg.Database
	if dbCfg.Driver == shared.DriverFirestore {
		dbCfg.Driver = shared.DriverSQLite
		dbCfg.DSN = ""
	}

	db, err := shared.OpenDatabase(dbCfg)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func() { db.Close() })

	if err := shared.RunMigrations(db, dbCfg.Driver); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	profiles, list, err := r.documentStores(ctx, s, db, dbCfg.Driver)
	if err != nil {
		s.Close()
		return nil, err
	}

	provider, err := r.identityProvider(repositories.NewAccountRepository(db, dbCfg.Driver))
	if err != nil {
		s.Close()
		return nil, err
	}

	s.coord = session.NewCoordinator(session.Options{
		Provider:          provider,
		Profiles:          profiles,
		MinPasswordLength: cfg.Auth.MinPasswordLength,
		Logger:            r.logger,
	})
	s.closers = append(s.closers, s.coord.Close)

	s.guard = session.NewGuard(s.coord, cfg.Auth.GuardTimeout())

	s.list = mylist.NewStore(list, s.coord, r.logger)
	s.list.Start(ctx)
	s.closers = append(s.closers, s.list.Close)

	if err := s.coord.Initialize(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (r *Runner) documentStores(ctx context.Context, s *stack, db *sql.DB, driver string) (models.ProfileRepository, models.ListRepository, error) {
	if r.config.Database.Driver != shared.DriverFirestore {
		return repositories.NewProfileRepository(db, driver), repositories.NewListRepository(db, driver), nil
	}

	client, err := repositories.NewFirestoreClient(ctx, r.config.Firestore)
	if err != nil {
		return nil, nil, err
	}
	s.closers = append(s.closers, func() { client.Close() })
	return repositories.NewFirestoreProfileRepository(client), repositories.NewFirestoreListRepository(client), nil
}

func (r *Runner) identityProvider(accounts models.AccountRepository) (*identity.LocalProvider, error) {
	path, err := r.config.Auth.SessionPath()
	if err != nil {
		return nil, err
	}

	var federator identity.Federator
	g, err := identity.NewGoogleFederator(identity.GoogleOptions{
		Config: r.config.Auth.Google,
		Notify: func(url string) {
			r.writePlain("Open this URL in your browser to continue:\n%s\n\n", url)
		},
		Logger: r.logger,
	})
	switch {
	case err == nil:
		federator = g
	case errors.Is(err, shared.ErrMissingCredentials):
		r.logger.Debug("google sign-in disabled", "reason", err)
	default:
		return nil, err
	}

	return identity.NewLocalProvider(identity.LocalOptions{
		Accounts:          accounts,
		Session:           identity.NewSessionFile(path),
		Tokens:            identity.NewTokenIssuer(r.config.Auth.TokenSecret, r.config.Auth.TokenTTL()),
		Federator:         federator,
		MinPasswordLength: r.config.Auth.MinPasswordLength,
		Logger:            r.logger,
	}), nil
}

// ready waits for the restored session and the matching watch list.
func (s *stack) ready(ctx context.Context, timeout time.Duration) models.Session {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.coord.Ready():
	case <-timer.C:
	case <-ctx.Done():
	}

	sess := s.coord.Current()
	s.list.OnSession(ctx, sess)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.list.Wait(waitCtx); err != nil {
		s.logger.Warn("watch list still loading", "error", err)
	}
	return sess
}

// await waits until the session's Authenticated flag equals want or the timeout passes.
func (s *stack) await(ctx context.Context, want bool, timeout time.Duration) (models.Session, bool) {
	ch, stop := s.coord.Watch()
	defer stop()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case sess, ok := <-ch:
			if !ok {
				return s.coord.Current(), false
			}
			if !sess.Loading && sess.Authenticated == want {
				return sess, true
			}
		case <-timer.C:
			return s.coord.Current(), false
		case <-ctx.Done():
			return s.coord.Current(), false
		}
	}
}
