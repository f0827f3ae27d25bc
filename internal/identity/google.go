package identity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/desertthunder/freemovies/internal/server"
	"github.com/desertthunder/freemovies/internal/shared"
)

const googleIssuer = "https://accounts.google.com"

// GoogleOptions configures a [GoogleFederator].
type GoogleOptions struct {
	Config shared.GoogleConfig
	// OpenBrowser shows the consent page. Defaults to [shared.OpenBrowser].
	OpenBrowser func(url string) error
	// Notify is told the consent URL when the browser cannot be opened.
	Notify func(url string)
	Logger *log.Logger
}

// GoogleFederator signs users in with Google through the system browser and a local callback server.
//
// The returned ID token is verified against the issuer's published keys before any claim is trusted.
type GoogleFederator struct {
	cfg      shared.GoogleConfig
	redirect *url.URL
	timeout  time.Duration
	open     func(string) error
	notify   func(string)
	logger   *log.Logger
}

func NewGoogleFederator(opts GoogleOptions) (*GoogleFederator, error) {
	cfg := opts.Config
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: google client id and secret are required", shared.ErrMissingCredentials)
	}
	if cfg.Issuer == "" {
		cfg.Issuer = googleIssuer
	}

	redirect, err := url.Parse(cfg.RedirectURI)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("%w: invalid google redirect uri %q", shared.ErrInvalidConfig, cfg.RedirectURI)
	}
	if redirect.Path == "" {
		redirect.Path = "/callback"
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.Notify == nil {
		opts.Notify = func(string) {}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &GoogleFederator{
		cfg:      cfg,
		redirect: redirect,
		timeout:  timeout,
		open:     opts.OpenBrowser,
		notify:   opts.Notify,
		logger:   shared.WithLogger(opts.Logger, "component", "google"),
	}, nil
}

// Authenticate opens the consent page and waits for the callback, the timeout, or ctx.
//
// A timeout is reported as [shared.ErrTimeout]; a declined consent as [server.ErrAuthorizationDenied].
func (g *GoogleFederator) Authenticate(ctx context.Context) (*FederatedClaims, error) {
	provider, err := oidc.NewProvider(ctx, g.cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover %s: %w", g.cfg.Issuer, err)
	}

	endpoint := provider.Endpoint()
	if g.cfg.Issuer == googleIssuer {
		endpoint = google.Endpoint
	}

	conf := &oauth2.Config{
		ClientID:     g.cfg.ClientID,
		ClientSecret: g.cfg.ClientSecret,
		RedirectURL:  g.redirect.String(),
		Endpoint:     endpoint,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}
	nonce, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	handler := server.NewOAuthHandler(conf, state).WithPath(g.redirect.Path)
	router := server.NewBasicRouter()
	router.Handler(handler)

	listener, err := net.Listen("tcp", g.redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", g.redirect.Host, err)
	}

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		g.logger.Debug("callback server listening", "addr", listener.Addr().String())
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			g.logger.Warn("error shutting down callback server", "error", err)
		}
	}()

	authURL := conf.AuthCodeURL(state, oidc.Nonce(nonce))
	if err := g.open(authURL); err != nil {
		g.logger.Warn("failed to open browser automatically", "error", err)
		g.notify(authURL)
	}

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("callback server error: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("%w: no authorization after %s", shared.ErrTimeout, g.timeout)
	}

	if result.Error() != nil {
		return nil, result.Error()
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	rawID, ok := result.Token.Extra("id_token").(string)
	if !ok || rawID == "" {
		return nil, fmt.Errorf("%w: token response has no id_token", shared.ErrAuthFailed)
	}

	idToken, err := provider.Verifier(&oidc.Config{ClientID: g.cfg.ClientID}).Verify(ctx, rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	if idToken.Nonce != nonce {
		return nil, fmt.Errorf("%w: nonce mismatch", shared.ErrAuthFailed)
	}

	var claims struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode id token claims: %w", err)
	}

	return &FederatedClaims{
		Provider: "google",
		Subject:  idToken.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
		Picture:  claims.Picture,
	}, nil
}

var _ Federator = (*GoogleFederator)(nil)
