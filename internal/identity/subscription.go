package identity

import "sync"

// Subscription is a cancellable stream of identity changes.
//
// Events are delivered in publish order and never dropped. The channel closes after Unsubscribe.
type Subscription struct {
	events chan *Identity
	wake   chan struct{}
	done   chan struct{}

	mu    sync.Mutex
	queue []*Identity

	once    sync.Once
	release func()
}

func newSubscription(release func()) *Subscription {
	s := &Subscription{
		events:  make(chan *Identity),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		release: release,
	}
	go s.pump()
	return s
}

// Events returns the change stream. A nil value means signed out.
func (s *Subscription) Events() <-chan *Identity {
	return s.events
}

// Unsubscribe stops delivery and closes the events channel. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		if s.release != nil {
			s.release()
		}
	})
}

func (s *Subscription) push(id *Identity) {
	s.mu.Lock()
	s.queue = append(s.queue, id)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.events)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.events <- next:
		case <-s.done:
			return
		}
	}
}

// Hub fans identity changes out to subscribers and remembers the latest one.
type Hub struct {
	mu      sync.Mutex
	current *Identity
	subs    map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a subscriber and queues the current identity as its first event.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	var s *Subscription
	s = newSubscription(func() {
		h.mu.Lock()
		delete(h.subs, s)
		h.mu.Unlock()
	})
	h.subs[s] = struct{}{}
	s.push(copyIdentity(h.current))
	return s
}

// Publish records id as current and delivers it to every subscriber.
func (h *Hub) Publish(id *Identity) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.current = copyIdentity(id)
	for s := range h.subs {
		s.push(copyIdentity(id))
	}
}

// Current returns the latest published identity.
func (h *Hub) Current() *Identity {
	h.mu.Lock()
	defer h.mu.Unlock()
	return copyIdentity(h.current)
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func copyIdentity(id *Identity) *Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
