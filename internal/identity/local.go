package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/server"
	"github.com/desertthunder/freemovies/internal/shared"
)

// FederatedClaims are the verified claims returned by a [Federator].
type FederatedClaims struct {
	Provider string
	Subject  string
	Email    string
	Name     string
	Picture  string
}

// Federator runs an external sign-in flow.
type Federator interface {
	Authenticate(ctx context.Context) (*FederatedClaims, error)
}

// LocalOptions configures a [LocalProvider].
type LocalOptions struct {
	Accounts          models.AccountRepository
	Session           *SessionFile
	Tokens            *TokenIssuer
	Federator         Federator // nil disables federated sign-in
	MinPasswordLength int       // default 6
	HashCost          int       // default bcrypt.DefaultCost
	Logger            *log.Logger
}

// LocalProvider implements [Provider] on top of an accounts repository and a session file.
type LocalProvider struct {
	accounts    models.AccountRepository
	session     *SessionFile
	tokens      *TokenIssuer
	federator   Federator
	minPassword int
	hashCost    int
	logger      *log.Logger
	validate    *validator.Validate

	hub         *Hub
	restoreOnce sync.Once
	federating  atomic.Bool
}

func NewLocalProvider(opts LocalOptions) *LocalProvider {
	if opts.MinPasswordLength <= 0 {
		opts.MinPasswordLength = 6
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &LocalProvider{
		accounts:    opts.Accounts,
		session:     opts.Session,
		tokens:      opts.Tokens,
		federator:   opts.Federator,
		minPassword: opts.MinPasswordLength,
		hashCost:    opts.HashCost,
		logger:      shared.WithLogger(opts.Logger, "component", "identity"),
		validate:    validator.New(),
		hub:         NewHub(),
	}
}

// SignUp creates a password account and signs it in.
func (p *LocalProvider) SignUp(ctx context.Context, email, password, displayName string) (*Identity, error) {
	email = normalizeEmail(email)
	if err := p.validate.Var(email, "required,email"); err != nil {
		return nil, newError(CodeInvalidEmail, err)
	}
	if len(password) < p.minPassword {
		return nil, newError(CodeWeakPassword, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.hashCost)
	if err != nil {
		return nil, newError(CodeInternal, err)
	}

	acct := &models.Account{Email: email, PasswordHash: string(hash), DisplayName: strings.TrimSpace(displayName)}
	if err := p.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, shared.ErrDuplicateItem) {
			return nil, newError(CodeEmailInUse, err)
		}
		return nil, newError(CodeInternal, err)
	}

	p.logger.Info("account created", "uid", acct.ID)
	return p.establish(identityFromAccount(acct))
}

// SignIn verifies email and password.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	email = normalizeEmail(email)
	if err := p.validate.Var(email, "required,email"); err != nil {
		return nil, newError(CodeInvalidEmail, err)
	}

	acct, err := p.accounts.GetByEmail(ctx, email)
	if errors.Is(err, shared.ErrRecordNotFound) {
		return nil, newError(CodeUserNotFound, err)
	}
	if err != nil {
		return nil, newError(CodeInternal, err)
	}

	if acct.PasswordHash == "" {
		return nil, newError(CodeInvalidCredential, nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, newError(CodeWrongPassword, nil)
	}

	return p.establish(identityFromAccount(acct))
}

// SignInFederated runs the configured [Federator] and signs the resulting account in.
//
// Only one federated flow may run at a time; a second concurrent call fails with [CodePopupCancelled].
func (p *LocalProvider) SignInFederated(ctx context.Context) (*Identity, error) {
	if p.federator == nil {
		return nil, newError(CodeNotAllowed, errors.New("federated sign-in is not configured"))
	}
	if !p.federating.CompareAndSwap(false, true) {
		return nil, newError(CodePopupCancelled, nil)
	}
	defer p.federating.Store(false)

	claims, err := p.federator.Authenticate(ctx)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrTimeout),
			errors.Is(err, context.Canceled),
			errors.Is(err, context.DeadlineExceeded),
			errors.Is(err, server.ErrAuthorizationDenied):
			return nil, newError(CodePopupClosed, err)
		default:
			return nil, newError(CodeInternal, err)
		}
	}

	acct, err := p.federatedAccount(ctx, claims)
	if err != nil {
		return nil, newError(CodeInternal, err)
	}
	return p.establish(identityFromAccount(acct))
}

// federatedAccount finds the account for claims by subject, then by email, and creates it when absent.
func (p *LocalProvider) federatedAccount(ctx context.Context, claims *FederatedClaims) (*models.Account, error) {
	acct, err := p.accounts.GetBySubject(ctx, claims.Provider, claims.Subject)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, shared.ErrRecordNotFound) {
		return nil, err
	}

	email := normalizeEmail(claims.Email)
	acct, err = p.accounts.GetByEmail(ctx, email)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, shared.ErrRecordNotFound) {
		return nil, err
	}

	acct = &models.Account{
		Email:       email,
		DisplayName: claims.Name,
		PhotoURL:    claims.Picture,
		Provider:    claims.Provider,
		Subject:     claims.Subject,
	}
	if err := p.accounts.Create(ctx, acct); err != nil {
		return nil, err
	}
	p.logger.Info("federated account created", "uid", acct.ID, "provider", claims.Provider)
	return acct, nil
}

// SignOut clears the persisted session and publishes the signed-out state.
func (p *LocalProvider) SignOut(ctx context.Context) error {
	p.restoreOnce.Do(func() {})

	if err := p.session.Clear(); err != nil {
		return newError(CodeInternal, err)
	}
	p.hub.Publish(nil)
	return nil
}

// Subscribe returns a stream starting with the current identity.
//
// The first call restores the identity from the session file when its token still verifies.
func (p *LocalProvider) Subscribe(ctx context.Context) (*Subscription, error) {
	p.restoreOnce.Do(func() { p.restore(ctx) })
	return p.hub.Subscribe(), nil
}

// Current returns the signed-in identity, or nil.
func (p *LocalProvider) Current() *Identity {
	return p.hub.Current()
}

// establish persists a session for id and publishes it.
func (p *LocalProvider) establish(id *Identity) (*Identity, error) {
	p.restoreOnce.Do(func() {})

	token, err := p.tokens.Issue(id)
	if err != nil {
		return nil, newError(CodeInternal, err)
	}

	if err := p.session.Save(&SessionState{Authenticated: true, User: id, Token: token}); err != nil {
		p.logger.Warn("failed to persist session", "error", err)
	}

	p.hub.Publish(id)
	return copyIdentity(id), nil
}

func (p *LocalProvider) restore(ctx context.Context) {
	state, err := p.session.Load()
	if err != nil {
		p.logger.Warn("discarding unreadable session", "error", err)
		p.clearSession()
		return
	}
	if !state.Authenticated || state.Token == "" {
		return
	}

	claims, err := p.tokens.Verify(state.Token)
	if err != nil {
		p.logger.Info("stored session rejected", "error", err)
		p.clearSession()
		return
	}

	acct, err := p.accounts.Get(ctx, claims.Subject)
	switch {
	case errors.Is(err, shared.ErrRecordNotFound):
		p.logger.Info("stored session refers to a deleted account", "uid", claims.Subject)
		p.clearSession()
	case err != nil:
		if state.User == nil || state.User.ID != claims.Subject {
			p.logger.Warn("could not confirm stored session", "error", err)
			return
		}
		p.logger.Warn("using cached identity", "uid", claims.Subject, "error", err)
		p.hub.Publish(state.User)
	default:
		p.logger.Debug("session restored", "uid", acct.ID)
		p.hub.Publish(identityFromAccount(acct))
	}
}

func (p *LocalProvider) clearSession() {
	if err := p.session.Clear(); err != nil {
		p.logger.Warn("failed to clear session", "error", err)
	}
}

func identityFromAccount(a *models.Account) *Identity {
	return &Identity{ID: a.ID, Email: a.Email, DisplayName: a.DisplayName, PhotoURL: a.PhotoURL}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ Provider = (*LocalProvider)(nil)
