package engine

import (
	"sort"

	"cash/internal/core"
	"cash/internal/log"
	"cash/internal/store"
)

// pumpRecords consumes one record subscription and reports every
// snapshot into merge slot i. The whole result set is replaced each
// time and the total recomputed from scratch, so the slot never
// depends on a previous snapshot even when deliveries burst or other
// sources lag. Returns when the subscription channel closes.
func pumpRecords(sub *store.RecordSubscription, m *Merge, i int, logger *log.Logger) {
	for ev := range sub.Events() {
		if ev.Err != nil {
			logger.Error("Record stream failed", log.FieldSlot, i, log.FieldError, ev.Err)
			m.ReportError(i, ev.Err)
			continue
		}
		m.Report(i, sortDesc(ev.Records), sumAmounts(ev.Records))
	}
}

// pumpGoals consumes a goal subscription and reports the goals as
// contribution entries. The slot total is the all-time contribution
// sum across every goal, while income/expense slots carry month-scoped
// totals; the asymmetry is deliberate and mirrors the dashboard's
// original behavior.
func pumpGoals(sub *store.GoalSubscription, m *Merge, i int, logger *log.Logger) {
	for ev := range sub.Events() {
		if ev.Err != nil {
			logger.Error("Goal stream failed", log.FieldSlot, i, log.FieldError, ev.Err)
			m.ReportError(i, ev.Err)
			continue
		}
		records := goalRecords(ev.Goals)
		m.Report(i, records, sumContributions(ev.Goals))
	}
}

func sortDesc(records []core.Record) []core.Record {
	out := make([]core.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].OccurredAt.After(out[b].OccurredAt)
	})
	return out
}

func sumAmounts(records []core.Record) core.Money {
	var cents int64
	for _, r := range records {
		cents += r.Amount.Cents
	}
	return core.Money{Cents: cents}
}

func sumContributions(goals []core.Goal) core.Money {
	var cents int64
	for _, g := range goals {
		cents += g.CurrentContribution.Cents
	}
	return core.Money{Cents: cents}
}

// goalRecords projects goals into feed records: one contribution entry
// per goal, timestamped by the goal's creation and labeled by name.
func goalRecords(goals []core.Goal) []core.Record {
	out := make([]core.Record, len(goals))
	for i, g := range goals {
		out[i] = core.Record{
			ID:         g.ID,
			Category:   core.GoalContribution,
			Amount:     g.CurrentContribution,
			GoalName:   g.Name,
			OccurredAt: g.CreatedAt,
		}
	}
	return sortDesc(out)
}
