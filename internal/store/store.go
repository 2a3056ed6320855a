// Package store defines the document-store contract the aggregation
// engine is built against: append-style writes and live subscriptions
// that deliver the full current result set on every change.
package store

import (
	"context"
	"errors"

	"cash/internal/core"
)

// Collection names a per-principal record partition.
type Collection string

const (
	Incomes  Collection = "income"
	Expenses Collection = "expenses"
	Goals    Collection = "goals"
)

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrNotFound          = errors.New("document not found")
)

// CollectionFor maps a record category to its backing collection.
func CollectionFor(c core.Category) (Collection, error) {
	switch c {
	case core.Income:
		return Incomes, nil
	case core.Expense:
		return Expenses, nil
	default:
		return "", ErrUnknownCollection
	}
}

// Category returns the record category stored in this collection.
func (c Collection) Category() core.Category {
	switch c {
	case Incomes:
		return core.Income
	case Expenses:
		return core.Expense
	default:
		return core.GoalContribution
	}
}

// RecordEvent is one push from a record subscription: either a full
// replacement snapshot of the query's result set, or a stream error.
// A snapshot always replaces the previous one, never patches it.
type RecordEvent struct {
	Records []core.Record
	Err     error
}

// GoalEvent is the goal-collection equivalent of RecordEvent.
type GoalEvent struct {
	Goals []core.Goal
	Err   error
}

type (
	RecordSubscription = Subscription[RecordEvent]
	GoalSubscription   = Subscription[GoalEvent]
)

// Interface is the remote-store client contract. Implementations must
// deliver monotonically fresher snapshots within a single subscription;
// no ordering is guaranteed across subscriptions. Writes are atomic per
// document only.
type Interface interface {
	// SubscribeRecords opens a live query over one collection scoped to
	// the principal and, when window is non-zero, to [Start, End].
	// The first snapshot is delivered asynchronously after return.
	SubscribeRecords(ctx context.Context, principal string, col Collection, window core.Window) (*RecordSubscription, error)

	// SubscribeGoals opens a live query over the principal's goals.
	SubscribeGoals(ctx context.Context, principal string) (*GoalSubscription, error)

	// AppendRecord stores a new record and returns its assigned id.
	AppendRecord(ctx context.Context, principal string, col Collection, r core.Record) (string, error)

	AppendGoal(ctx context.Context, principal string, g core.Goal) (string, error)
	GetGoal(ctx context.Context, principal string, id string) (core.Goal, error)
	UpdateGoal(ctx context.Context, principal string, g core.Goal) error
	DeleteGoal(ctx context.Context, principal string, id string) error

	Close() error
}
