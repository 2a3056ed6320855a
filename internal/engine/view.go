package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cash/internal/core"
	"cash/internal/log"
	"cash/internal/store"
)

// Slot indexes are fixed: each source writes only its own slot.
const (
	slotIncome = iota
	slotExpense
	slotSavings
)

// View owns the live subscriptions behind the history feed and the
// dashboard breakdown for one signed-in principal: month-scoped income
// and expense record streams plus the all-time goal stream, merged
// into one slot tuple.
//
// Start tears down existing subscriptions before opening new ones, so
// switching principals can never leak or merge a prior principal's
// data. Accessors re-anchor the month window first, so a session that
// lives across a month boundary picks up the new month on its next
// call.
type View struct {
	st     store.Interface
	logger *log.Logger
	now    func() time.Time

	mu        sync.Mutex
	ctx       context.Context
	principal string
	window    core.Window
	merge     *Merge
	cancels   []func()
}

func NewView(st store.Interface, logger *log.Logger) *View {
	return &View{
		st:     st,
		logger: logger.WithComponent(log.ComponentEngine),
		now:    time.Now,
		merge:  newViewMerge(),
	}
}

func newViewMerge() *Merge {
	return NewMerge(
		SourceSpec{Label: "Income", Category: core.Income},
		SourceSpec{Label: "Expenses", Category: core.Expense},
		SourceSpec{Label: "Savings", Category: core.GoalContribution},
	)
}

// Start switches the view to principal, replacing any previous
// subscriptions first. An empty principal leaves the view signed out
// with no live streams.
func (v *View) Start(ctx context.Context, principal string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.startLocked(ctx, principal)
}

// Stop tears down every subscription.
func (v *View) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopLocked()
	v.principal = ""
	v.merge = newViewMerge()
}

// Feed returns the merged history entries filtered by query.
func (v *View) Feed(query string) []FeedEntry {
	m := v.currentMerge()
	return Filter(m.Feed(), query)
}

// Breakdown returns the dashboard chart segments.
func (v *View) Breakdown() []Segment {
	return v.currentMerge().Breakdown()
}

// Ready reports whether every source has delivered at least once.
func (v *View) Ready() bool {
	return v.currentMerge().Ready()
}

// Errors returns the currently-errored sources' errors.
func (v *View) Errors() []error {
	return v.currentMerge().Errors()
}

func (v *View) startLocked(ctx context.Context, principal string) error {
	// Stale streams must be gone before a different principal's open.
	v.stopLocked()
	v.ctx = ctx
	v.principal = principal
	v.merge = newViewMerge()
	if principal == "" {
		return nil
	}

	v.window = core.MonthWindow(v.now())
	merge := v.merge

	incomeSub, err := v.st.SubscribeRecords(ctx, principal, store.Incomes, v.window)
	if err != nil {
		return fmt.Errorf("subscribe income: %w", err)
	}
	expenseSub, err := v.st.SubscribeRecords(ctx, principal, store.Expenses, v.window)
	if err != nil {
		incomeSub.Unsubscribe()
		return fmt.Errorf("subscribe expenses: %w", err)
	}
	goalSub, err := v.st.SubscribeGoals(ctx, principal)
	if err != nil {
		incomeSub.Unsubscribe()
		expenseSub.Unsubscribe()
		return fmt.Errorf("subscribe goals: %w", err)
	}

	v.cancels = []func(){incomeSub.Unsubscribe, expenseSub.Unsubscribe, goalSub.Unsubscribe}

	go pumpRecords(incomeSub, merge, slotIncome, v.logger)
	go pumpRecords(expenseSub, merge, slotExpense, v.logger)
	go pumpGoals(goalSub, merge, slotSavings, v.logger)

	v.logger.Info("View subscriptions started",
		log.FieldPrincipal, principal,
		"window_start", v.window.Start,
		"window_end", v.window.End)
	return nil
}

func (v *View) stopLocked() {
	for _, cancel := range v.cancels {
		cancel()
	}
	v.cancels = nil
}

// currentMerge returns the live merge, restarting the subscriptions
// when the calendar month has rolled over since they were opened.
func (v *View) currentMerge() *Merge {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.principal != "" && !v.window.Contains(v.now()) {
		if err := v.startLocked(v.ctx, v.principal); err != nil {
			v.logger.Error("Month rollover resubscribe failed",
				log.FieldPrincipal, v.principal, log.FieldError, err)
		}
	}
	return v.merge
}
