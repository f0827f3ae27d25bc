// Package mylist keeps the signed-in user's watch list in memory and in the list repository.
//
// The [Store] follows the session: whenever the signed-in identity changes it drops the cached
// list and reloads it once for the new user (or leaves it empty when nobody is signed in).
package mylist

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/session"
	"github.com/desertthunder/freemovies/internal/shared"
)

const (
	msgAddSignedOut    = "You must be logged in to add items to your list"
	msgRemoveSignedOut = "You must be logged in to remove items from your list"
	msgAlreadyListed   = "Item already in your list"
	msgAddFailed       = "Error adding item to your list"
	msgRemoveFailed    = "Error removing item from your list"
	msgLoadFailed      = "Error loading your list"
)

// SessionSource is the part of the session coordinator the store depends on.
type SessionSource interface {
	Current() models.Session
	Watch() (<-chan models.Session, func())
}

// Store is the watch list of the current user.
type Store struct {
	repo     models.ListRepository
	sessions SessionSource
	logger   *log.Logger

	mu      sync.RWMutex
	synced  bool
	userID  string
	items   []models.ListItem
	loading bool
	lastErr string
	loaded  chan struct{} // closed once the load for userID has finished

	stop func()
	done chan struct{}
}

func NewStore(repo models.ListRepository, sessions SessionSource, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{
		repo:     repo,
		sessions: sessions,
		logger:   shared.WithLogger(logger, "component", "mylist"),
	}
}

// Start follows session changes until ctx is done or [Store.Close] is called.
func (s *Store) Start(ctx context.Context) {
	ch, stop := s.sessions.Watch()

	s.mu.Lock()
	s.stop = stop
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case sess, ok := <-ch:
				if !ok {
					return
				}
				s.OnSession(ctx, sess)
			case <-ctx.Done():
				stop()
				return
			}
		}
	}()
}

// Close stops following the session.
func (s *Store) Close() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop = nil
	s.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
}

// OnSession reacts to a session value. A change of user clears the cache and reloads it once.
func (s *Store) OnSession(ctx context.Context, sess models.Session) {
	if sess.Loading {
		return
	}

	s.mu.Lock()
	if s.synced && s.userID == sess.UserID {
		s.mu.Unlock()
		return
	}
	s.synced = true
	s.userID = sess.UserID
	s.items = nil
	s.lastErr = ""
	loaded := make(chan struct{})
	s.loaded = loaded
	s.mu.Unlock()
	defer close(loaded)

	if sess.UserID == "" {
		return
	}
	if err := s.Load(ctx); err != nil {
		s.logger.Error("failed to load list", "uid", sess.UserID, "error", err)
	}
}

// Wait blocks until the list of the last synced user has finished loading, whichever goroutine
// started the load. It returns at once when no session has been seen yet.
func (s *Store) Wait(ctx context.Context) error {
	for {
		s.mu.RLock()
		loaded := s.loaded
		s.mu.RUnlock()
		if loaded == nil {
			return nil
		}

		select {
		case <-loaded:
		case <-ctx.Done():
			return ctx.Err()
		}

		s.mu.RLock()
		current := s.loaded == loaded
		s.mu.RUnlock()
		if current {
			return nil
		}
	}
}

// Load replaces the cache with the repository's copy of the current user's list.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	uid := s.userID
	if uid == "" {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()

	items, err := s.repo.ListByUser(ctx, uid)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if s.userID != uid {
		return nil
	}
	if err != nil {
		s.lastErr = msgLoadFailed
		return err
	}

	s.items = make([]models.ListItem, 0, len(items))
	for _, item := range items {
		s.items = append(s.items, *item)
	}
	return nil
}

// Add stores m in the current user's list.
func (s *Store) Add(ctx context.Context, m models.MovieSummary) session.Result {
	sess := s.sessions.Current()
	if !sess.Authenticated {
		return s.fail(msgAddSignedOut)
	}
	if s.Contains(m.ImdbID) {
		return session.Result{Error: msgAlreadyListed}
	}

	item := models.NewListItem(sess.UserID, m)
	s.setLoading(true)
	err := s.repo.Put(ctx, item)
	s.setLoading(false)

	if errors.Is(err, shared.ErrDuplicateItem) {
		return session.Result{Error: msgAlreadyListed}
	}
	if err != nil {
		s.logger.Error("failed to add list item", "imdbID", m.ImdbID, "error", err)
		return s.fail(msgAddFailed)
	}

	s.mu.Lock()
	if s.userID == sess.UserID && !s.containsLocked(item.ImdbID) {
		s.items = append(s.items, *item)
	}
	s.mu.Unlock()
	return session.Result{Success: true}
}

// Remove deletes imdbID from the current user's list.
func (s *Store) Remove(ctx context.Context, imdbID string) session.Result {
	sess := s.sessions.Current()
	if !sess.Authenticated {
		return s.fail(msgRemoveSignedOut)
	}

	s.setLoading(true)
	err := s.repo.Delete(ctx, sess.UserID, imdbID)
	s.setLoading(false)

	if err != nil {
		s.logger.Error("failed to remove list item", "imdbID", imdbID, "error", err)
		return s.fail(msgRemoveFailed)
	}

	s.mu.Lock()
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ImdbID != imdbID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.mu.Unlock()
	return session.Result{Success: true}
}

// Contains reports whether imdbID is in the cached list. It is always false when signed out.
func (s *Store) Contains(imdbID string) bool {
	sess := s.sessions.Current()
	if imdbID == "" || !sess.Authenticated {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID == sess.UserID && s.containsLocked(imdbID)
}

func (s *Store) containsLocked(imdbID string) bool {
	for _, item := range s.items {
		if item.ImdbID == imdbID {
			return true
		}
	}
	return false
}

// Items returns a copy of the cached list.
func (s *Store) Items() []models.ListItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ListItem(nil), s.items...)
}

// Loading reports whether a repository call is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the message of the last failed operation, or "".
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	if v {
		s.lastErr = ""
	}
	s.mu.Unlock()
}

func (s *Store) fail(msg string) session.Result {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
	return session.Result{Error: msg}
}
