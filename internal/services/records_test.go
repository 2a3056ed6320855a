package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cash/internal/core"
	"cash/internal/log"
	"cash/internal/session"
	"cash/internal/store"
)

// fakeStore lets tests slow down or fail individual writes.
type fakeStore struct {
	mu      sync.Mutex
	records []core.Record
	goals   map[string]core.Goal

	writeDelay time.Duration
	writeErr   error
	written    chan struct{} // receives after each completed write
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		goals:   make(map[string]core.Goal),
		written: make(chan struct{}, 16),
	}
}

func (f *fakeStore) SubscribeRecords(context.Context, string, store.Collection, core.Window) (*store.RecordSubscription, error) {
	panic("not used")
}

func (f *fakeStore) SubscribeGoals(context.Context, string) (*store.GoalSubscription, error) {
	panic("not used")
}

func (f *fakeStore) AppendRecord(ctx context.Context, principal string, col store.Collection, r core.Record) (string, error) {
	time.Sleep(f.writeDelay)
	if f.writeErr != nil {
		f.written <- struct{}{}
		return "", f.writeErr
	}
	f.mu.Lock()
	r.ID = "rec-1"
	f.records = append(f.records, r)
	f.mu.Unlock()
	f.written <- struct{}{}
	return r.ID, nil
}

func (f *fakeStore) AppendGoal(ctx context.Context, principal string, g core.Goal) (string, error) {
	time.Sleep(f.writeDelay)
	if f.writeErr != nil {
		f.written <- struct{}{}
		return "", f.writeErr
	}
	f.mu.Lock()
	g.ID = "goal-1"
	f.goals[g.ID] = g
	f.mu.Unlock()
	f.written <- struct{}{}
	return g.ID, nil
}

func (f *fakeStore) GetGoal(ctx context.Context, principal, id string) (core.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.goals[id]
	if !ok {
		return core.Goal{}, store.ErrNotFound
	}
	return g, nil
}

func (f *fakeStore) UpdateGoal(ctx context.Context, principal string, g core.Goal) error {
	time.Sleep(f.writeDelay)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.goals[g.ID]; !ok {
		return store.ErrNotFound
	}
	f.goals[g.ID] = g
	return nil
}

func (f *fakeStore) DeleteGoal(ctx context.Context, principal, id string) error {
	time.Sleep(f.writeDelay)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.goals[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.goals, id)
	return nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) recordCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func signedInSession(principal string) *session.Session {
	s := session.New()
	s.SetPrincipal(principal)
	return s
}

func testLogger() *log.Logger {
	return log.New(log.DefaultConfig())
}

func TestSubmitRecord(t *testing.T) {
	f := newFakeStore()
	svc := NewRecords(f, signedInSession("alice"), testLogger(), time.Second)

	id, err := svc.Submit(context.Background(), RecordInput{
		Category:    core.Expense,
		Description: "  groceries  ",
		Amount:      "45,90",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id != "rec-1" {
		t.Fatalf("expected store id, got %q", id)
	}

	f.mu.Lock()
	rec := f.records[0]
	f.mu.Unlock()
	if rec.Description != "groceries" || rec.Amount.Cents != 4590 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.OccurredAt.IsZero() {
		t.Fatalf("record timestamp not set")
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFakeStore()
	svc := NewRecords(f, signedInSession("alice"), testLogger(), time.Second)
	ctx := context.Background()

	cases := []struct {
		in   RecordInput
		want error
	}{
		{RecordInput{Category: core.Expense, Description: "   ", Amount: "1"}, core.ErrEmptyDescription},
		{RecordInput{Category: core.Expense, Description: "x", Amount: "0"}, core.ErrInvalidAmount},
		{RecordInput{Category: core.Expense, Description: "x", Amount: "-5"}, core.ErrInvalidAmount},
		{RecordInput{Category: core.Expense, Description: "x", Amount: "abc"}, core.ErrInvalidAmount},
		{RecordInput{Category: core.GoalContribution, Description: "x", Amount: "1"}, store.ErrUnknownCollection},
	}
	for i, tc := range cases {
		if _, err := svc.Submit(ctx, tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, err)
		}
	}
	// Rejected submissions never reach the store.
	if f.recordCount() != 0 {
		t.Fatalf("store received %d writes", f.recordCount())
	}
}

func TestSubmitRequiresPrincipal(t *testing.T) {
	f := newFakeStore()
	svc := NewRecords(f, session.New(), testLogger(), time.Second)

	_, err := svc.Submit(context.Background(), RecordInput{
		Category: core.Expense, Description: "x", Amount: "1",
	})
	if !errors.Is(err, core.ErrNoPrincipal) {
		t.Fatalf("expected ErrNoPrincipal, got %v", err)
	}
	if f.recordCount() != 0 {
		t.Fatalf("store should not have been called")
	}
}

func TestSubmitAmbiguousTimeout(t *testing.T) {
	f := newFakeStore()
	f.writeDelay = 200 * time.Millisecond
	svc := NewRecords(f, signedInSession("alice"), testLogger(), 20*time.Millisecond)

	_, err := svc.Submit(context.Background(), RecordInput{
		Category: core.Expense, Description: "slow", Amount: "1",
	})
	if !errors.Is(err, core.ErrAmbiguousOutcome) {
		t.Fatalf("expected ErrAmbiguousOutcome, got %v", err)
	}

	// The in-flight write keeps running and still lands.
	select {
	case <-f.written:
	case <-time.After(time.Second):
		t.Fatalf("detached write never completed")
	}
	if f.recordCount() != 1 {
		t.Fatalf("expected the late write to land, got %d records", f.recordCount())
	}
}

func TestSubmitStoreError(t *testing.T) {
	f := newFakeStore()
	f.writeErr = errors.New("backend down")
	svc := NewRecords(f, signedInSession("alice"), testLogger(), time.Second)

	_, err := svc.Submit(context.Background(), RecordInput{
		Category: core.Expense, Description: "x", Amount: "1",
	})
	if err == nil || errors.Is(err, core.ErrAmbiguousOutcome) {
		t.Fatalf("expected a definite failure, got %v", err)
	}
}
