// Package services implements the write path: validated record
// submission and goal mutation against the store, with every write
// raced against a deadline that turns a slow round-trip into an
// explicitly ambiguous outcome instead of a false failure.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cash/internal/core"
	"cash/internal/log"
)

// DefaultWriteTimeout bounds how long a caller waits on a store write.
const DefaultWriteTimeout = 15 * time.Second

// ErrConfirmationRequired gates destructive goal operations behind an
// explicit user confirmation step.
var ErrConfirmationRequired = errors.New("confirmation required")

// raceWrite runs fn against the timeout. On expiry the caller gets
// core.ErrAmbiguousOutcome while fn keeps running on a detached
// context: the write may still land server-side, so it is never
// cancelled and never reported to the caller a second time. The
// eventual outcome is only logged.
func raceWrite(ctx context.Context, timeout time.Duration, logger *log.Logger, op string, fn func(context.Context) (string, error)) (string, error) {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}

	type result struct {
		id  string
		err error
	}
	done := make(chan result, 1)
	writeCtx := context.WithoutCancel(ctx)
	go func() {
		id, err := fn(writeCtx)
		done <- result{id: id, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("%s: %w", op, res.err)
		}
		return res.id, nil
	case <-timer.C:
		go func() {
			res := <-done
			if res.err != nil {
				logger.Warn("Write failed after ambiguous timeout",
					log.FieldOperation, op, log.FieldError, res.err)
			} else {
				logger.Info("Write completed after ambiguous timeout",
					log.FieldOperation, op, log.FieldRecordID, res.id)
			}
		}()
		return "", fmt.Errorf("%s: %w", op, core.ErrAmbiguousOutcome)
	}
}
