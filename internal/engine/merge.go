// Package engine implements the multi-stream aggregation engine: one
// aggregator per category consuming live full-result-set snapshots, a
// merge stage combining the latest snapshot of every source into a
// single time-ordered feed or chart breakdown, and a synchronous
// search/filter stage over the merged feed.
package engine

import (
	"sort"
	"sync"
	"time"

	"cash/internal/core"
)

// SlotStatus tags the reporting state of one merge source.
type SlotStatus int

const (
	NotYetReported SlotStatus = iota
	Reported
	Errored
)

// FeedEntry is one display-ready row of the merged history feed.
type FeedEntry struct {
	ID               string
	Category         core.Category
	Amount           core.Money
	SignedDisplay    string
	Description      string
	Timestamp        time.Time
	DisplayTimestamp string
}

// Segment is one slice of the dashboard breakdown.
type Segment struct {
	Label    string
	Category core.Category
	Total    core.Money
}

type slot struct {
	label    string
	category core.Category
	status   SlotStatus
	err      error
	entries  []FeedEntry
	total    core.Money
}

// Merge combines N independently-updating sources. Each source owns
// exactly one slot and is that slot's only writer; every update
// re-derives the merged feed from scratch inside the same critical
// section, so the output is always consistent with the last-seen
// snapshot of every source no matter the arrival order across sources.
type Merge struct {
	mu    sync.Mutex
	slots []slot
	feed  []FeedEntry
}

// NewMerge creates a merge stage with one slot per (label, category)
// source, all in NotYetReported state.
func NewMerge(sources ...SourceSpec) *Merge {
	m := &Merge{slots: make([]slot, len(sources))}
	for i, src := range sources {
		m.slots[i] = slot{label: src.Label, category: src.Category}
	}
	return m
}

// SourceSpec names one merge input.
type SourceSpec struct {
	Label    string
	Category core.Category
}

// Report replaces slot i's snapshot with records and total, then
// recomputes the merged feed. Records need not be pre-sorted.
func (m *Merge) Report(i int, records []core.Record, total core.Money) {
	entries := make([]FeedEntry, len(records))
	for j, r := range records {
		entries[j] = entryFrom(r)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[i].status = Reported
	m.slots[i].err = nil
	m.slots[i].entries = entries
	m.slots[i].total = total
	m.recompute()
}

// ReportError marks slot i errored: its contribution reverts to empty
// rather than stale, and the slot still counts as reported so the
// readiness gate cannot deadlock on a broken source.
func (m *Merge) ReportError(i int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[i].status = Errored
	m.slots[i].err = err
	m.slots[i].entries = nil
	m.slots[i].total = core.Money{}
	m.recompute()
}

// Ready reports whether every source has reported at least once,
// errors included. Until then the presentation layer shows a loading
// state instead of a misleading "no data".
func (m *Merge) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.slots {
		if m.slots[i].status == NotYetReported {
			return false
		}
	}
	return true
}

// Feed returns the merged entries, strictly descending by timestamp.
// Ties keep slot order then within-snapshot order, stable across
// unrelated recomputes.
func (m *Merge) Feed() []FeedEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]FeedEntry, len(m.feed))
	copy(out, m.feed)
	return out
}

// Breakdown returns one segment per source with a non-zero total.
// A zero-valued pie segment is meaningless and must not render.
func (m *Merge) Breakdown() []Segment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Segment, 0, len(m.slots))
	for i := range m.slots {
		if m.slots[i].total.Cents == 0 {
			continue
		}
		out = append(out, Segment{
			Label:    m.slots[i].label,
			Category: m.slots[i].category,
			Total:    m.slots[i].total,
		})
	}
	return out
}

// Errors returns the current error of every errored slot, for the
// presentation layer's retryable notices.
func (m *Merge) Errors() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for i := range m.slots {
		if m.slots[i].status == Errored && m.slots[i].err != nil {
			errs = append(errs, m.slots[i].err)
		}
	}
	return errs
}

// recompute rebuilds the merged feed from the slot tuple. Caller holds
// the lock. O(n log n) per update is fine: volumes are bounded by the
// monthly window.
func (m *Merge) recompute() {
	var total int
	for i := range m.slots {
		total += len(m.slots[i].entries)
	}
	feed := make([]FeedEntry, 0, total)
	for i := range m.slots {
		feed = append(feed, m.slots[i].entries...)
	}
	sort.SliceStable(feed, func(a, b int) bool {
		return feed[a].Timestamp.After(feed[b].Timestamp)
	})
	m.feed = feed
}

func entryFrom(r core.Record) FeedEntry {
	return FeedEntry{
		ID:               r.ID,
		Category:         r.Category,
		Amount:           r.Amount,
		SignedDisplay:    r.Amount.SignedString(r.Category),
		Description:      r.DisplayDescription(),
		Timestamp:        r.OccurredAt,
		DisplayTimestamp: r.OccurredAt.Format("02/01/2006"),
	}
}
