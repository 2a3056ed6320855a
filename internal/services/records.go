package services

import (
	"context"
	"strings"
	"time"

	"cash/internal/core"
	"cash/internal/log"
	"cash/internal/session"
	"cash/internal/store"
)

// Records is the write path for income and expense entries.
type Records struct {
	st      store.Interface
	sess    *session.Session
	logger  *log.Logger
	timeout time.Duration
	now     func() time.Time
}

// RecordInput carries raw user input; validation happens here, before
// any store call, so a rejected submission never leaves the process.
type RecordInput struct {
	Category    core.Category
	Description string
	Amount      string
}

func NewRecords(st store.Interface, sess *session.Session, logger *log.Logger, timeout time.Duration) *Records {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	return &Records{
		st:      st,
		sess:    sess,
		logger:  logger.WithComponent(log.ComponentRecords),
		timeout: timeout,
		now:     time.Now,
	}
}

// Submit validates and persists one record. Validation failures and
// the missing-principal case return before any network call, so the
// caller can keep its form state. A timeout returns
// core.ErrAmbiguousOutcome: the write may still have succeeded and
// retrying could duplicate the record.
func (s *Records) Submit(ctx context.Context, in RecordInput) (string, error) {
	principal, ok := s.sess.Principal()
	if !ok {
		return "", core.ErrNoPrincipal
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		return "", core.ErrEmptyDescription
	}
	cents, err := core.ParseDecimalToCents(in.Amount)
	if err != nil {
		return "", err
	}
	col, err := store.CollectionFor(in.Category)
	if err != nil {
		return "", err
	}

	rec := core.Record{
		Category:    in.Category,
		Amount:      core.Money{Cents: cents},
		Description: description,
		OccurredAt:  s.now(),
	}
	if err := rec.Validate(); err != nil {
		return "", err
	}

	id, err := raceWrite(ctx, s.timeout, s.logger, "append record", func(writeCtx context.Context) (string, error) {
		return s.st.AppendRecord(writeCtx, principal, col, rec)
	})
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "Record submitted",
		log.FieldRecordID, id,
		log.FieldCategory, string(in.Category),
		log.FieldAmountCents, cents,
		log.FieldPrincipal, principal)
	return id, nil
}
