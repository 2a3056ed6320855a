// Package sqlite persists records and goals in a local SQLite database
// while serving the same live-subscription contract as the remote
// store: every committed write re-runs the affected queries and pushes
// fresh snapshots to in-process subscribers. Committed writes are also
// announced on an optional change bus so the export worker can pick
// them up.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"cash/internal/core"
	"cash/internal/store"
)

// ChangePublisher announces committed writes to external consumers.
// Publishing failures are logged, never surfaced to the writer: the
// local commit already succeeded.
type ChangePublisher interface {
	PublishChange(ctx context.Context, principal, collection, id, op string) error
}

type Store struct {
	db        *sql.DB
	publisher ChangePublisher

	recordHub *store.Hub[store.RecordEvent]
	goalHub   *store.Hub[store.GoalEvent]
}

var _ store.Interface = (*Store)(nil)

// New opens (creating if needed) the database at dbPath and runs the
// embedded migrations. publisher may be nil.
func New(dbPath string, publisher ChangePublisher) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		db:        db,
		publisher: publisher,
		recordHub: store.NewHub[store.RecordEvent](),
		goalHub:   store.NewHub[store.GoalEvent](),
	}, nil
}

func (s *Store) Close() error {
	s.recordHub.Close()
	s.goalHub.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func recordKey(principal string, col store.Collection) string {
	return principal + "/" + string(col)
}

// SubscribeRecords implements store.Interface.
func (s *Store) SubscribeRecords(ctx context.Context, principal string, col store.Collection, window core.Window) (*store.RecordSubscription, error) {
	key := recordKey(principal, col)
	sub := s.recordHub.Subscribe(key, func() store.RecordEvent {
		records, err := s.queryRecords(context.Background(), principal, col, window)
		if err != nil {
			return store.RecordEvent{Err: fmt.Errorf("query %s: %w", col, err)}
		}
		return store.RecordEvent{Records: records}
	})
	return sub, nil
}

// SubscribeGoals implements store.Interface.
func (s *Store) SubscribeGoals(ctx context.Context, principal string) (*store.GoalSubscription, error) {
	sub := s.goalHub.Subscribe(principal, func() store.GoalEvent {
		goals, err := s.queryGoals(context.Background(), principal)
		if err != nil {
			return store.GoalEvent{Err: fmt.Errorf("query goals: %w", err)}
		}
		return store.GoalEvent{Goals: goals}
	})
	return sub, nil
}

// AppendRecord implements store.Interface.
func (s *Store) AppendRecord(ctx context.Context, principal string, col store.Collection, r core.Record) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (id, principal, collection, amount_cents, description, occurred_at_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, principal, string(col), r.Amount.Cents, r.Description, r.OccurredAt.UnixMilli())
	if err != nil {
		return "", fmt.Errorf("insert record: %w", err)
	}

	s.recordHub.Notify(recordKey(principal, col))
	s.publish(ctx, principal, string(col), id, "append")
	return id, nil
}

// AppendGoal implements store.Interface.
func (s *Store) AppendGoal(ctx context.Context, principal string, g core.Goal) (string, error) {
	id := uuid.NewString()
	createdAt := g.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (id, principal, name, target_cents, contribution_cents, deadline_ms, completed, created_at_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, principal, g.Name, g.TargetAmount.Cents, g.CurrentContribution.Cents,
		g.Deadline.UnixMilli(), boolToInt(g.Completed), createdAt.UnixMilli())
	if err != nil {
		return "", fmt.Errorf("insert goal: %w", err)
	}

	s.goalHub.Notify(principal)
	s.publish(ctx, principal, string(store.Goals), id, "append")
	return id, nil
}

// GetGoal implements store.Interface.
func (s *Store) GetGoal(ctx context.Context, principal string, id string) (core.Goal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, target_cents, contribution_cents, deadline_ms, completed, created_at_ms
		 FROM goals WHERE id = ? AND principal = ?`, id, principal)

	var (
		g          core.Goal
		deadlineMs int64
		createdMs  int64
		completed  int
	)
	if err := row.Scan(&g.ID, &g.Name, &g.TargetAmount.Cents, &g.CurrentContribution.Cents,
		&deadlineMs, &completed, &createdMs); err != nil {
		if err == sql.ErrNoRows {
			return core.Goal{}, store.ErrNotFound
		}
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	g.Deadline = time.UnixMilli(deadlineMs)
	g.CreatedAt = time.UnixMilli(createdMs)
	g.Completed = completed != 0
	return g, nil
}

// UpdateGoal implements store.Interface.
func (s *Store) UpdateGoal(ctx context.Context, principal string, g core.Goal) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE goals SET name = ?, target_cents = ?, contribution_cents = ?, deadline_ms = ?, completed = ?
		 WHERE id = ? AND principal = ?`,
		g.Name, g.TargetAmount.Cents, g.CurrentContribution.Cents, g.Deadline.UnixMilli(),
		boolToInt(g.Completed), g.ID, principal)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}

	s.goalHub.Notify(principal)
	s.publish(ctx, principal, string(store.Goals), g.ID, "update")
	return nil
}

// DeleteGoal implements store.Interface.
func (s *Store) DeleteGoal(ctx context.Context, principal string, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND principal = ?`, id, principal)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}

	s.goalHub.Notify(principal)
	s.publish(ctx, principal, string(store.Goals), id, "delete")
	return nil
}

// GetRecord loads one record by id; the export worker uses it to
// resolve change messages into row data.
func (s *Store) GetRecord(ctx context.Context, principal, id string) (core.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, collection, amount_cents, description, occurred_at_ms
		 FROM records WHERE id = ? AND principal = ?`, id, principal)

	var (
		r          core.Record
		collection string
		occurredMs int64
	)
	if err := row.Scan(&r.ID, &collection, &r.Amount.Cents, &r.Description, &occurredMs); err != nil {
		if err == sql.ErrNoRows {
			return core.Record{}, store.ErrNotFound
		}
		return core.Record{}, fmt.Errorf("get record: %w", err)
	}
	r.Category = store.Collection(collection).Category()
	r.OccurredAt = time.UnixMilli(occurredMs)
	return r, nil
}

func (s *Store) queryRecords(ctx context.Context, principal string, col store.Collection, window core.Window) ([]core.Record, error) {
	q := `SELECT id, amount_cents, description, occurred_at_ms
	      FROM records WHERE principal = ? AND collection = ?`
	args := []any{principal, string(col)}
	if !window.IsZero() {
		q += ` AND occurred_at_ms BETWEEN ? AND ?`
		args = append(args, window.Start.UnixMilli(), window.End.UnixMilli())
	}
	q += ` ORDER BY occurred_at_ms DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	category := col.Category()
	var out []core.Record
	for rows.Next() {
		var (
			r          core.Record
			occurredMs int64
		)
		if err := rows.Scan(&r.ID, &r.Amount.Cents, &r.Description, &occurredMs); err != nil {
			return nil, err
		}
		r.Category = category
		r.OccurredAt = time.UnixMilli(occurredMs)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) queryGoals(ctx context.Context, principal string) ([]core.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, target_cents, contribution_cents, deadline_ms, completed, created_at_ms
		 FROM goals WHERE principal = ? ORDER BY created_at_ms DESC`, principal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		var (
			g          core.Goal
			deadlineMs int64
			createdMs  int64
			completed  int
		)
		if err := rows.Scan(&g.ID, &g.Name, &g.TargetAmount.Cents, &g.CurrentContribution.Cents,
			&deadlineMs, &completed, &createdMs); err != nil {
			return nil, err
		}
		g.Deadline = time.UnixMilli(deadlineMs)
		g.CreatedAt = time.UnixMilli(createdMs)
		g.Completed = completed != 0
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) publish(ctx context.Context, principal, collection, id, op string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishChange(ctx, principal, collection, id, op); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"collection", collection, "id", id, "op", op, "error", err)
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
