package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/session"
	"github.com/desertthunder/freemovies/internal/shared"
)

// AuthRegister creates an email/password account and signs it in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	return r.withAccountAction(ctx, true, func(s *stack) session.Result {
		return s.coord.Register(ctx, cmd.String("email"), cmd.String("password"), cmd.String("name"))
	})
}

// AuthLogin signs in with email and password.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	return r.withAccountAction(ctx, true, func(s *stack) session.Result {
		return s.coord.Login(ctx, cmd.String("email"), cmd.String("password"))
	})
}

// AuthGoogle signs in with Google through the system browser.
func (r *Runner) AuthGoogle(ctx context.Context, cmd *cli.Command) error {
	r.writePlain("→ Opening browser for Google sign-in...\n")
	return r.withAccountAction(ctx, true, func(s *stack) session.Result {
		return s.coord.LoginWithGoogle(ctx)
	})
}

// AuthLogout signs out and clears the persisted session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	return r.withAccountAction(ctx, false, func(s *stack) session.Result {
		return s.coord.Logout(ctx)
	})
}

// AuthStatus prints the restored session.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openStack(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	sess := s.ready(ctx, r.config.Auth.GuardTimeout())
	if cmd.Bool("json") {
		return r.writeJSON(sess, true)
	}
	return r.printSession(sess)
}

// withAccountAction runs action against a fresh stack and waits for the session to converge.
func (r *Runner) withAccountAction(ctx context.Context, wantSignedIn bool, action func(*stack) session.Result) error {
	s, err := r.openStack(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	s.ready(ctx, r.config.Auth.GuardTimeout())

	res := action(s)
	if !res.Success {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, res.Error)
	}

	sess, ok := s.await(ctx, wantSignedIn, settleTimeout)
	if !ok {
		r.logger.Warn("session did not settle", "authenticated", wantSignedIn)
	}
	return r.printSession(sess)
}

func (r *Runner) printSession(sess models.Session) error {
	if !sess.Authenticated {
		return r.writePlain("✗ Not signed in\n")
	}

	r.writePlain("✓ Signed in as %s\n", sess.Name)
	r.writePlain("  Email: %s\n", sess.Email)
	r.writePlain("  User ID: %s\n", sess.UserID)
	return nil
}
