package testing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/shared"
)

// MemoryProfiles is an in-memory [models.ProfileRepository].
type MemoryProfiles struct {
	mu       sync.Mutex
	profiles map[string]models.Profile
	now      func() time.Time

	Err         error
	EnsureCalls atomic.Int32
	Created     atomic.Int32
}

// NewMemoryProfiles returns a repository whose clock advances one second per write.
func NewMemoryProfiles() *MemoryProfiles {
	var mu sync.Mutex
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &MemoryProfiles{
		profiles: make(map[string]models.Profile),
		now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			current = current.Add(time.Second)
			return current
		},
	}
}

func (m *MemoryProfiles) Get(ctx context.Context, uid string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[uid]
	if !ok {
		return nil, fmt.Errorf("%w: profile %s", shared.ErrRecordNotFound, uid)
	}
	return &p, nil
}

func (m *MemoryProfiles) Ensure(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	m.EnsureCalls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	stored, ok := m.profiles[p.UID]
	if !ok {
		stored = *p
		stored.CreatedAt = now
		m.Created.Add(1)
	}
	stored.UpdatedAt = now
	m.profiles[p.UID] = stored

	out := stored
	return &out, nil
}

// MemoryList is an in-memory [models.ListRepository] that counts loads per user.
type MemoryList struct {
	mu    sync.Mutex
	items map[string]models.ListItem
	loads map[string]int

	Err       error
	PutErr    error
	DeleteErr error
}

func NewMemoryList() *MemoryList {
	return &MemoryList{items: make(map[string]models.ListItem), loads: make(map[string]int)}
}

// Loads returns how many times ListByUser ran for userID.
func (m *MemoryList) Loads(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads[userID]
}

// TotalLoads returns how many times ListByUser ran for any user.
func (m *MemoryList) TotalLoads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.loads {
		n += c
	}
	return n
}

func (m *MemoryList) ListByUser(ctx context.Context, userID string) ([]*models.ListItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loads[userID]++
	if m.Err != nil {
		return nil, m.Err
	}

	items := []*models.ListItem{}
	for _, item := range m.items {
		if item.UserID == userID {
			c := item
			items = append(items, &c)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].AddedAt.Before(items[j].AddedAt) })
	return items, nil
}

func (m *MemoryList) Put(ctx context.Context, item *models.ListItem) error {
	if m.PutErr != nil {
		return m.PutErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[item.Key()]; ok {
		return fmt.Errorf("%w: %s", shared.ErrDuplicateItem, item.Key())
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now()
	}
	m.items[item.Key()] = *item
	return nil
}

func (m *MemoryList) Delete(ctx context.Context, userID, imdbID string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, models.ListItemKey(userID, imdbID))
	return nil
}

// Seed stores items directly.
func (m *MemoryList) Seed(items ...models.ListItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		m.items[item.Key()] = item
	}
}

var (
	_ models.ProfileRepository = (*MemoryProfiles)(nil)
	_ models.ListRepository    = (*MemoryList)(nil)
)
