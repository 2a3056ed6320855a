package store

import "sync"

// Hub fans change notifications out to live subscriptions. Each
// subscriber owns a serial goroutine that re-runs its query and pushes
// the fresh snapshot, so a single subscription never observes a stale
// snapshot after a fresher one. Bursts of notifications between pushes
// collapse into one re-query.
type Hub[T any] struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription[T]]struct{}
}

// Subscription is a live query handle. Events delivers full-result-set
// snapshots until Unsubscribe, which is idempotent.
type Subscription[T any] struct {
	ch    chan T
	dirty chan struct{}
	stop  chan struct{}
	once  sync.Once
	query func() T
	done  func(*Subscription[T])
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[string]map[*Subscription[T]]struct{})}
}

// Subscribe registers a live query under key. The query function is
// invoked once immediately (asynchronously) and again after every
// Notify(key); it must be safe to call from the subscription goroutine.
func (h *Hub[T]) Subscribe(key string, query func() T) *Subscription[T] {
	s := &Subscription[T]{
		ch:    make(chan T, 1),
		dirty: make(chan struct{}, 1),
		stop:  make(chan struct{}),
		query: query,
	}
	s.done = func(sub *Subscription[T]) { h.remove(key, sub) }

	h.mu.Lock()
	set, ok := h.subs[key]
	if !ok {
		set = make(map[*Subscription[T]]struct{})
		h.subs[key] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	s.dirty <- struct{}{} // initial snapshot
	go s.run()
	return s
}

// Notify wakes every subscription registered under key.
func (h *Hub[T]) Notify(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[key] {
		select {
		case s.dirty <- struct{}{}:
		default: // already pending; the re-query will see this change too
		}
	}
}

// Close tears down every subscription.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	all := make([]*Subscription[T], 0)
	for _, set := range h.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	h.mu.Unlock()
	for _, s := range all {
		s.Unsubscribe()
	}
}

func (h *Hub[T]) remove(key string, s *Subscription[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[key]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, key)
		}
	}
}

// Events yields snapshots in delivery order.
func (s *Subscription[T]) Events() <-chan T {
	return s.ch
}

// Unsubscribe stops delivery and releases the subscription. Safe to
// call multiple times and from any goroutine.
func (s *Subscription[T]) Unsubscribe() {
	s.once.Do(func() {
		close(s.stop)
		if s.done != nil {
			s.done(s)
		}
	})
}

func (s *Subscription[T]) run() {
	defer close(s.ch)
	for {
		select {
		case <-s.stop:
			return
		case <-s.dirty:
			ev := s.query()
			select {
			case s.ch <- ev:
			case <-s.stop:
				return
			}
		}
	}
}
