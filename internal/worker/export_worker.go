// Package worker turns record-change messages into statement exports.
package worker

import (
	"context"
	"errors"
	"fmt"

	"cash/internal/amqp"
	"cash/internal/core"
	"cash/internal/log"
	"cash/internal/store"
)

// RecordAppender is the export target. *export.Client satisfies it.
type RecordAppender interface {
	AppendRecord(ctx context.Context, principal string, r core.Record) error
}

// RecordGetter resolves a change message to the current record.
// *sqlite.Store satisfies it.
type RecordGetter interface {
	GetRecord(ctx context.Context, principal, id string) (core.Record, error)
}

// ExportWorker resolves change messages against the store and appends
// income/expense rows to the statement. Goal changes and deletions are
// acknowledged without export: the statement is an append-only record
// feed.
type ExportWorker struct {
	st       RecordGetter
	appender RecordAppender
	logger   *log.Logger
}

func NewExportWorker(st RecordGetter, appender RecordAppender, logger *log.Logger) *ExportWorker {
	return &ExportWorker{
		st:       st,
		appender: appender,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleChange processes one change message. Returning an error
// requeues the message.
func (w *ExportWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	if msg.Op != "append" {
		w.logger.InfoContext(ctx, "Skipping non-append change",
			log.FieldCollection, msg.Collection, log.FieldRecordID, msg.ID, "op", msg.Op)
		return nil
	}
	if msg.Collection != string(store.Incomes) && msg.Collection != string(store.Expenses) {
		return nil
	}

	rec, err := w.st.GetRecord(ctx, msg.Principal, msg.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Deleted between publish and consume; nothing to export.
			w.logger.WarnContext(ctx, "Record vanished before export",
				log.FieldRecordID, msg.ID, log.FieldCollection, msg.Collection)
			return nil
		}
		return fmt.Errorf("load record for export: %w", err)
	}

	if err := w.appender.AppendRecord(ctx, msg.Principal, rec); err != nil {
		return fmt.Errorf("export record: %w", err)
	}

	w.logger.InfoContext(ctx, "Record exported",
		log.FieldRecordID, rec.ID,
		log.FieldCategory, string(rec.Category),
		log.FieldAmountCents, rec.Amount.Cents)
	return nil
}
