package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"cash/internal/core"
	"cash/internal/store"
)

func recordEvent(t *testing.T, sub *store.RecordSubscription) store.RecordEvent {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if !ok {
			t.Fatalf("subscription closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatalf("no snapshot within deadline")
	}
	return store.RecordEvent{}
}

func goalEvent(t *testing.T, sub *store.GoalSubscription) store.GoalEvent {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if !ok {
			t.Fatalf("subscription closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatalf("no snapshot within deadline")
	}
	return store.GoalEvent{}
}

// waitForRecords drains snapshots until one has n records.
func waitForRecords(t *testing.T, sub *store.RecordSubscription, n int) []core.Record {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		ev := recordEvent(t, sub)
		if len(ev.Records) == n {
			return ev.Records
		}
		if time.Now().After(deadline) {
			t.Fatalf("never saw %d records, last snapshot had %d", n, len(ev.Records))
		}
	}
}

func TestAppendRecordPushesSnapshot(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()
	window := core.MonthWindow(time.Now())

	sub, err := s.SubscribeRecords(ctx, "alice", store.Expenses, window)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	if ev := recordEvent(t, sub); len(ev.Records) != 0 {
		t.Fatalf("initial snapshot should be empty, got %d", len(ev.Records))
	}

	id, err := s.AppendRecord(ctx, "alice", store.Expenses, core.Record{
		Amount:      core.Money{Cents: 500},
		Description: "coffee",
		OccurredAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if id == "" {
		t.Fatalf("expected store-assigned id")
	}

	records := waitForRecords(t, sub, 1)
	if records[0].ID != id || records[0].Category != core.Expense {
		t.Fatalf("unexpected record %+v", records[0])
	}
}

func TestWindowFiltersRecords(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	window := core.MonthWindow(now)

	in := core.Record{Amount: core.Money{Cents: 100}, Description: "in", OccurredAt: now}
	out := core.Record{Amount: core.Money{Cents: 200}, Description: "out", OccurredAt: now.AddDate(0, -1, 0)}
	if _, err := s.AppendRecord(ctx, "alice", store.Incomes, in); err != nil {
		t.Fatalf("append in: %v", err)
	}
	if _, err := s.AppendRecord(ctx, "alice", store.Incomes, out); err != nil {
		t.Fatalf("append out: %v", err)
	}

	sub, err := s.SubscribeRecords(ctx, "alice", store.Incomes, window)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	records := waitForRecords(t, sub, 1)
	if records[0].Description != "in" {
		t.Fatalf("expected only the in-window record, got %+v", records[0])
	}
}

func TestPrincipalIsolation(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()
	window := core.Window{}

	if _, err := s.AppendRecord(ctx, "alice", store.Expenses, core.Record{
		Amount: core.Money{Cents: 100}, OccurredAt: time.Now(),
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	sub, err := s.SubscribeRecords(ctx, "bob", store.Expenses, window)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	if ev := recordEvent(t, sub); len(ev.Records) != 0 {
		t.Fatalf("bob must not see alice's records, got %d", len(ev.Records))
	}
}

func TestGoalLifecycle(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	sub, err := s.SubscribeGoals(ctx, "alice")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()
	goalEvent(t, sub) // initial empty snapshot

	goal := core.Goal{
		Name:         "Vacation",
		TargetAmount: core.Money{Cents: 100000},
		Deadline:     time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:    time.Now(),
	}
	id, err := s.AppendGoal(ctx, "alice", goal)
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.GetGoal(ctx, "alice", id)
	if err != nil || got.Name != "Vacation" {
		t.Fatalf("get: %+v, %v", got, err)
	}

	got.CurrentContribution = core.Money{Cents: 5000}
	if err := s.UpdateGoal(ctx, "alice", got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = s.GetGoal(ctx, "alice", id)
	if err != nil || got.CurrentContribution.Cents != 5000 {
		t.Fatalf("after update: %+v, %v", got, err)
	}

	if err := s.DeleteGoal(ctx, "alice", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetGoal(ctx, "alice", id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteGoal(ctx, "alice", id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete expected ErrNotFound, got %v", err)
	}
}

func TestGetGoalWrongPrincipal(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	id, err := s.AppendGoal(ctx, "alice", core.Goal{
		Name:         "Vacation",
		TargetAmount: core.Money{Cents: 1000},
		Deadline:     time.Now().AddDate(1, 0, 0),
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.GetGoal(ctx, "bob", id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign principal, got %v", err)
	}
}
