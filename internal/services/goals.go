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

// Goals is the write path for savings goals: create, edit, delete and
// the completed toggle. Delete and toggle are destructive or
// cumulative state changes, so both demand an explicit confirmation
// flag before any store call goes out.
type Goals struct {
	st      store.Interface
	sess    *session.Session
	logger  *log.Logger
	timeout time.Duration
	now     func() time.Time
}

// GoalInput carries raw user input for create and edit.
type GoalInput struct {
	Name         string
	TargetAmount string
	Contribution string // empty means 0 on create, unchanged on edit
	Deadline     time.Time
}

func NewGoals(st store.Interface, sess *session.Session, logger *log.Logger, timeout time.Duration) *Goals {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	return &Goals{
		st:      st,
		sess:    sess,
		logger:  logger.WithComponent(log.ComponentGoals),
		timeout: timeout,
		now:     time.Now,
	}
}

// Create validates and persists a new goal.
func (s *Goals) Create(ctx context.Context, in GoalInput) (string, error) {
	principal, ok := s.sess.Principal()
	if !ok {
		return "", core.ErrNoPrincipal
	}

	goal := core.Goal{
		Name:      strings.TrimSpace(in.Name),
		Deadline:  in.Deadline,
		CreatedAt: s.now(),
	}
	targetCents, err := core.ParseDecimalToCents(in.TargetAmount)
	if err != nil {
		return "", core.ErrInvalidTarget
	}
	goal.TargetAmount = core.Money{Cents: targetCents}

	if strings.TrimSpace(in.Contribution) != "" {
		contributionCents, err := core.ParseCents(in.Contribution)
		if err != nil {
			return "", err
		}
		goal.CurrentContribution = core.Money{Cents: contributionCents}
	}
	if err := goal.Validate(); err != nil {
		return "", err
	}

	id, err := raceWrite(ctx, s.timeout, s.logger, "append goal", func(writeCtx context.Context) (string, error) {
		return s.st.AppendGoal(writeCtx, principal, goal)
	})
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "Goal created",
		log.FieldGoalID, id,
		log.FieldAmountCents, targetCents,
		log.FieldPrincipal, principal)
	return id, nil
}

// Update applies edited fields to an existing goal. Blank inputs keep
// the stored value; the contribution-versus-target invariant is
// re-checked against the merged result.
func (s *Goals) Update(ctx context.Context, id string, in GoalInput) error {
	principal, ok := s.sess.Principal()
	if !ok {
		return core.ErrNoPrincipal
	}

	goal, err := s.st.GetGoal(ctx, principal, id)
	if err != nil {
		return err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		goal.Name = name
	}
	if strings.TrimSpace(in.TargetAmount) != "" {
		targetCents, err := core.ParseDecimalToCents(in.TargetAmount)
		if err != nil {
			return core.ErrInvalidTarget
		}
		goal.TargetAmount = core.Money{Cents: targetCents}
	}
	if strings.TrimSpace(in.Contribution) != "" {
		// Contribution adjustments may go back down to zero.
		contributionCents, err := core.ParseCents(in.Contribution)
		if err != nil {
			return err
		}
		goal.CurrentContribution = core.Money{Cents: contributionCents}
	}
	if !in.Deadline.IsZero() {
		goal.Deadline = in.Deadline
	}
	if err := goal.Validate(); err != nil {
		return err
	}

	_, err = raceWrite(ctx, s.timeout, s.logger, "update goal", func(writeCtx context.Context) (string, error) {
		return id, s.st.UpdateGoal(writeCtx, principal, goal)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Goal updated", log.FieldGoalID, id, log.FieldPrincipal, principal)
	return nil
}

// Delete removes a goal. confirmed must be true; the caller is
// expected to have walked the user through an explicit confirmation.
func (s *Goals) Delete(ctx context.Context, id string, confirmed bool) error {
	principal, ok := s.sess.Principal()
	if !ok {
		return core.ErrNoPrincipal
	}
	if !confirmed {
		return ErrConfirmationRequired
	}

	_, err := raceWrite(ctx, s.timeout, s.logger, "delete goal", func(writeCtx context.Context) (string, error) {
		return id, s.st.DeleteGoal(writeCtx, principal, id)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Goal deleted", log.FieldGoalID, id, log.FieldPrincipal, principal)
	return nil
}

// ToggleCompleted flips the goal's completed flag, also behind an
// explicit confirmation.
func (s *Goals) ToggleCompleted(ctx context.Context, id string, confirmed bool) error {
	principal, ok := s.sess.Principal()
	if !ok {
		return core.ErrNoPrincipal
	}
	if !confirmed {
		return ErrConfirmationRequired
	}

	goal, err := s.st.GetGoal(ctx, principal, id)
	if err != nil {
		return err
	}
	goal.Completed = !goal.Completed

	_, err = raceWrite(ctx, s.timeout, s.logger, "toggle goal", func(writeCtx context.Context) (string, error) {
		return id, s.st.UpdateGoal(writeCtx, principal, goal)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Goal completion toggled",
		log.FieldGoalID, id, "completed", goal.Completed, log.FieldPrincipal, principal)
	return nil
}
