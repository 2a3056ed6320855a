// Package memory is an in-process store backend. It keeps every
// partition in maps and replays the full query result to subscribers on
// each mutation, which makes it the reference implementation for the
// snapshot-replacement contract and the backend used in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"cash/internal/core"
	"cash/internal/store"
)

type Store struct {
	mu      sync.Mutex
	records map[string][]core.Record // key: principal + "/" + collection
	goals   map[string][]core.Goal   // key: principal

	recordHub *store.Hub[store.RecordEvent]
	goalHub   *store.Hub[store.GoalEvent]
}

var _ store.Interface = (*Store)(nil)

func New() *Store {
	return &Store{
		records:   make(map[string][]core.Record),
		goals:     make(map[string][]core.Goal),
		recordHub: store.NewHub[store.RecordEvent](),
		goalHub:   store.NewHub[store.GoalEvent](),
	}
}

func recordKey(principal string, col store.Collection) string {
	return principal + "/" + string(col)
}

// SubscribeRecords implements store.Interface.
func (s *Store) SubscribeRecords(_ context.Context, principal string, col store.Collection, window core.Window) (*store.RecordSubscription, error) {
	key := recordKey(principal, col)
	sub := s.recordHub.Subscribe(key, func() store.RecordEvent {
		return store.RecordEvent{Records: s.queryRecords(key, window)}
	})
	return sub, nil
}

// SubscribeGoals implements store.Interface.
func (s *Store) SubscribeGoals(_ context.Context, principal string) (*store.GoalSubscription, error) {
	sub := s.goalHub.Subscribe(principal, func() store.GoalEvent {
		return store.GoalEvent{Goals: s.queryGoals(principal)}
	})
	return sub, nil
}

// AppendRecord implements store.Interface. The store assigns the id.
func (s *Store) AppendRecord(_ context.Context, principal string, col store.Collection, r core.Record) (string, error) {
	key := recordKey(principal, col)
	r.ID = uuid.NewString()
	r.Category = col.Category()

	s.mu.Lock()
	s.records[key] = append(s.records[key], r)
	s.mu.Unlock()

	s.recordHub.Notify(key)
	return r.ID, nil
}

// AppendGoal implements store.Interface.
func (s *Store) AppendGoal(_ context.Context, principal string, g core.Goal) (string, error) {
	g.ID = uuid.NewString()

	s.mu.Lock()
	s.goals[principal] = append(s.goals[principal], g)
	s.mu.Unlock()

	s.goalHub.Notify(principal)
	return g.ID, nil
}

// GetGoal implements store.Interface.
func (s *Store) GetGoal(_ context.Context, principal string, id string) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.goals[principal] {
		if g.ID == id {
			return g, nil
		}
	}
	return core.Goal{}, store.ErrNotFound
}

// UpdateGoal implements store.Interface.
func (s *Store) UpdateGoal(_ context.Context, principal string, g core.Goal) error {
	s.mu.Lock()
	updated := false
	list := s.goals[principal]
	for i := range list {
		if list[i].ID == g.ID {
			list[i] = g
			updated = true
			break
		}
	}
	s.mu.Unlock()

	if !updated {
		return store.ErrNotFound
	}
	s.goalHub.Notify(principal)
	return nil
}

// DeleteGoal implements store.Interface.
func (s *Store) DeleteGoal(_ context.Context, principal string, id string) error {
	s.mu.Lock()
	list := s.goals[principal]
	idx := -1
	for i := range list {
		if list[i].ID == id {
			idx = i
			break
		}
	}
	if idx >= 0 {
		s.goals[principal] = append(list[:idx], list[idx+1:]...)
	}
	s.mu.Unlock()

	if idx < 0 {
		return store.ErrNotFound
	}
	s.goalHub.Notify(principal)
	return nil
}

func (s *Store) Close() error {
	s.recordHub.Close()
	s.goalHub.Close()
	return nil
}

func (s *Store) queryRecords(key string, window core.Window) []core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Record, 0, len(s.records[key]))
	for _, r := range s.records[key] {
		if window.IsZero() || window.Contains(r.OccurredAt) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	return out
}

func (s *Store) queryGoals(principal string) []core.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Goal, len(s.goals[principal]))
	copy(out, s.goals[principal])
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
