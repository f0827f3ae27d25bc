package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/desertthunder/freemovies/internal/identity"
	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/shared"
)

// State is the coordinator's initialization state.
type State int

const (
	Uninitialized State = iota
	Subscribing
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Subscribing:
		return "subscribing"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is what account actions report to their caller.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func succeeded() Result { return Result{Success: true} }
func failed(msg string) Result { return Result{Error: msg} }

// Options configures a [Coordinator].
type Options struct {
	Provider          identity.Provider
	Profiles          models.ProfileRepository
	MinPasswordLength int // default 6
	Logger            *log.Logger
}

type registration struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
	Name     string `validate:"required"`
}

// Coordinator owns the process session.
type Coordinator struct {
	provider    identity.Provider
	profiles    models.ProfileRepository
	minPassword int
	logger      *log.Logger
	validate    *validator.Validate

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	state    State
	session  models.Session
	sub      *identity.Subscription
	consumed chan struct{}
	watchers map[int]chan models.Session
	nextID   int
	closed   bool

	ready     chan struct{}
	readyOnce sync.Once
}

func NewCoordinator(opts Options) *Coordinator {
	if opts.MinPasswordLength <= 0 {
		opts.MinPasswordLength = 6
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		provider:    opts.Provider,
		profiles:    opts.Profiles,
		minPassword: opts.MinPasswordLength,
		logger:      shared.WithLogger(opts.Logger, "component", "session"),
		validate:    validator.New(),
		ctx:         ctx,
		cancel:      cancel,
		session:     models.AnonymousSession(true),
		watchers:    make(map[int]chan models.Session),
		ready:       make(chan struct{}),
	}
}

// Initialize subscribes to identity changes. Only the first call has any effect.
func (c *Coordinator) Initialize(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Uninitialized || c.closed {
		c.mu.Unlock()
		return nil
	}
	c.state = Subscribing
	c.setLocked(models.AnonymousSession(true))
	c.mu.Unlock()

	sub, err := c.provider.Subscribe(ctx)
	if err != nil {
		c.logger.Error("failed to subscribe to identity changes", "error", err)
		c.mu.Lock()
		c.state = Ready
		c.setLocked(models.AnonymousSession(false))
		c.mu.Unlock()
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	c.mu.Lock()
	c.sub = sub
	c.state = Ready
	c.consumed = make(chan struct{})
	closed := c.closed
	c.mu.Unlock()

	if closed {
		sub.Unsubscribe()
	}
	go c.consume(sub, c.consumed)
	return nil
}

// consume applies notifications in order. It is the only writer of the session after Initialize.
func (c *Coordinator) consume(sub *identity.Subscription, done chan struct{}) {
	defer close(done)
	for id := range sub.Events() {
		c.apply(id)
	}
}

func (c *Coordinator) apply(id *identity.Identity) {
	if id == nil {
		c.set(models.AnonymousSession(false))
		return
	}

	profile, err := c.profiles.Ensure(c.ctx, &models.Profile{
		UID:         id.ID,
		Email:       id.Email,
		Name:        models.DeriveName("", id.DisplayName, id.Email),
		DisplayName: id.DisplayName,
		PhotoURL:    id.PhotoURL,
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Error("failed to load profile", "uid", id.ID, "error", err)
		}
		c.set(models.AnonymousSession(false))
		return
	}

	displayName := id.DisplayName
	if displayName == "" {
		displayName = profile.DisplayName
	}
	c.set(models.Session{
		UserID:        id.ID,
		Email:         id.Email,
		DisplayName:   displayName,
		PhotoURL:      id.PhotoURL,
		Name:          profile.Name,
		Authenticated: true,
	})
}

func (c *Coordinator) set(s models.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(s)
}

// setLocked stores s and fans it out. Callers hold c.mu.
func (c *Coordinator) setLocked(s models.Session) {
	s.Authenticated = s.UserID != ""
	c.session = s

	for _, ch := range c.watchers {
		offer(ch, s)
	}

	if !s.Loading && c.state == Ready {
		c.readyOnce.Do(func() { close(c.ready) })
	}
}

// offer replaces whatever ch holds with s. ch has capacity one and c.mu is held, so the send cannot block.
func offer(ch chan models.Session, s models.Session) {
	select {
	case <-ch:
	default:
	}
	ch <- s
}

// Current returns a snapshot of the session.
func (c *Coordinator) Current() models.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// State returns the initialization state.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Ready is closed once the first notification has been applied.
func (c *Coordinator) Ready() <-chan struct{} {
	return c.ready
}

// Watch returns a channel holding the latest session, starting with the current one.
// Intermediate values may be skipped. The channel is closed by stop or by [Coordinator.Close].
func (c *Coordinator) Watch() (<-chan models.Session, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan models.Session, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextID
	c.nextID++
	c.watchers[id] = ch
	ch <- c.session

	var once sync.Once
	stop := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.watchers[id]; ok {
				delete(c.watchers, id)
				close(ch)
			}
		})
	}
	return ch, stop
}

// Close unsubscribes, waits for the consumer to finish and closes every watcher.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	sub, consumed := c.sub, c.consumed
	c.mu.Unlock()

	c.cancel()
	if sub != nil {
		sub.Unsubscribe()
		<-consumed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.watchers {
		delete(c.watchers, id)
		close(ch)
	}
}

// Register validates input, creates the account and its profile.
func (c *Coordinator) Register(ctx context.Context, email, password, name string) Result {
	in := registration{Email: strings.TrimSpace(email), Password: password, Name: strings.TrimSpace(name)}
	if err := c.validate.Struct(in); err != nil {
		return failed(msgFieldsRequired)
	}
	if len(password) < c.minPassword {
		return failed(fmt.Sprintf(msgPasswordLength, c.minPassword))
	}

	id, err := c.provider.SignUp(ctx, in.Email, password, in.Name)
	if err != nil {
		c.logger.Warn("registration failed", "error", err)
		return failed(translate(err, registerMessages, msgRegisterFailed))
	}

	if _, err := c.profiles.Ensure(ctx, &models.Profile{
		UID:         id.ID,
		Email:       id.Email,
		Name:        models.DeriveName(in.Name, id.DisplayName, id.Email),
		DisplayName: id.DisplayName,
		PhotoURL:    id.PhotoURL,
	}); err != nil {
		c.logger.Error("failed to create profile", "uid", id.ID, "error", err)
		return failed(msgRegisterFailed)
	}
	return succeeded()
}

// Login signs in with email and password.
func (c *Coordinator) Login(ctx context.Context, email, password string) Result {
	if strings.TrimSpace(email) == "" || password == "" {
		return failed(msgFieldsRequired)
	}

	if _, err := c.provider.SignIn(ctx, strings.TrimSpace(email), password); err != nil {
		c.logger.Warn("sign in failed", "error", err)
		return failed(translate(err, loginMessages, msgLoginFailed))
	}
	return succeeded()
}

// LoginWithGoogle runs the federated flow and makes sure the profile exists.
func (c *Coordinator) LoginWithGoogle(ctx context.Context) Result {
	id, err := c.provider.SignInFederated(ctx)
	if err != nil {
		c.logger.Warn("google sign in failed", "error", err)
		if identity.Code(err) == identity.CodeNotAllowed {
			return failed(msgNotReady)
		}
		return failed(translate(err, googleMessages, msgGoogleFailed))
	}

	if _, err := c.profiles.Ensure(ctx, &models.Profile{
		UID:         id.ID,
		Email:       id.Email,
		Name:        models.DeriveName("", id.DisplayName, id.Email),
		DisplayName: id.DisplayName,
		PhotoURL:    id.PhotoURL,
	}); err != nil {
		c.logger.Error("failed to create profile", "uid", id.ID, "error", err)
		return failed(msgGoogleFailed)
	}
	return succeeded()
}

// Logout signs out. The session resets when the provider's notification arrives.
func (c *Coordinator) Logout(ctx context.Context) Result {
	if err := c.provider.SignOut(ctx); err != nil {
		c.logger.Warn("sign out failed", "error", err)
		return failed(msgLogoutFailed)
	}
	return succeeded()
}
