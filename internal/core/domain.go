package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income           Category = "income"
	Expense          Category = "expense"
	GoalContribution Category = "goal"
)

type (
	// Category tags a financial record with its stream of origin.
	Category string

	Money struct {
		Cents int64
	}

	// Record is a single category-tagged financial entry. ID is assigned
	// by the store on write and is unique within a category's result set.
	Record struct {
		ID          string
		Category    Category
		Amount      Money
		Description string
		OccurredAt  time.Time
		// GoalName is set only for GoalContribution records and is
		// folded into the display description as "Goal: <name>".
		GoalName string
	}

	// Goal is a savings target. It is not itself a feed record but the
	// source of goal-contribution totals.
	Goal struct {
		ID                  string
		Name                string
		TargetAmount        Money
		CurrentContribution Money
		Deadline            time.Time
		Completed           bool
		CreatedAt           time.Time
	}
)

var (
	ErrInvalidAmount             = errors.New("invalid amount")
	ErrEmptyDescription          = errors.New("empty description")
	ErrInvalidCategory           = errors.New("invalid category")
	ErrEmptyName                 = errors.New("empty name")
	ErrInvalidTarget             = errors.New("target amount must be positive")
	ErrContributionNegative      = errors.New("contribution cannot be negative")
	ErrContributionExceedsTarget = errors.New("contribution exceeds target amount")
	ErrInvalidDeadline           = errors.New("invalid deadline")
	ErrZeroTimestamp             = errors.New("timestamp cannot be zero")

	// ErrNoPrincipal is returned when an operation that requires an
	// authenticated principal is invoked with none present.
	ErrNoPrincipal = errors.New("no authenticated principal")

	// ErrAmbiguousOutcome means a write timed out while still in flight:
	// it may have succeeded server-side, so retrying can duplicate data.
	ErrAmbiguousOutcome = errors.New("operation timed out; it may still have succeeded")
)

func (c Category) Validate() error {
	switch c {
	case Income, Expense, GoalContribution:
		return nil
	default:
		return ErrInvalidCategory
	}
}

// Sign returns the display sign for amounts of this category.
func (c Category) Sign() string {
	switch c {
	case Income:
		return "+"
	case Expense:
		return "-"
	default:
		return ""
	}
}

// DefaultDescription is the label used when a record was saved without one.
func (c Category) DefaultDescription() string {
	switch c {
	case Income:
		return "Income"
	case Expense:
		return "Expense"
	case GoalContribution:
		return "Goal contribution"
	default:
		return "Entry"
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (r Record) Validate() error {
	if err := r.Category.Validate(); err != nil {
		return err
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if r.OccurredAt.IsZero() {
		return ErrZeroTimestamp
	}
	if len(r.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

// DisplayDescription returns the search- and render-ready label: the
// goal name for contributions, the raw description otherwise, falling
// back to the category default when the description is blank.
func (r Record) DisplayDescription() string {
	if r.Category == GoalContribution && strings.TrimSpace(r.GoalName) != "" {
		return "Goal: " + strings.TrimSpace(r.GoalName)
	}
	if d := strings.TrimSpace(r.Description); d != "" {
		return d
	}
	return r.Category.DefaultDescription()
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if len(g.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if g.TargetAmount.Cents <= 0 {
		return ErrInvalidTarget
	}
	if g.CurrentContribution.Cents < 0 {
		return ErrContributionNegative
	}
	if g.CurrentContribution.Cents > g.TargetAmount.Cents {
		return ErrContributionExceedsTarget
	}
	if g.Deadline.IsZero() {
		return ErrInvalidDeadline
	}
	return nil
}
