package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"cash/internal/core"
	"cash/internal/services"
)

type feedEntryJSON struct {
	ID               string `json:"id"`
	Category         string `json:"category"`
	AmountCents      int64  `json:"amount_cents"`
	DisplayAmount    string `json:"display_amount"`
	Description      string `json:"description"`
	Timestamp        string `json:"timestamp"`
	DisplayTimestamp string `json:"display_timestamp"`
}

type segmentJSON struct {
	Label        string `json:"label"`
	Category     string `json:"category"`
	TotalCents   int64  `json:"total_cents"`
	DisplayTotal string `json:"display_total"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).String(),
	})
}

// handleHistory serves the merged, filtered feed. Until every source
// has reported, ready is false and clients show a loading state
// instead of "no data".
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sess.Principal(); !ok {
		writeError(w, core.ErrNoPrincipal)
		return
	}

	query := r.URL.Query().Get("q")
	entries := s.view.Feed(query)

	out := make([]feedEntryJSON, len(entries))
	for i, e := range entries {
		out[i] = feedEntryJSON{
			ID:               e.ID,
			Category:         string(e.Category),
			AmountCents:      e.Amount.Cents,
			DisplayAmount:    e.SignedDisplay,
			Description:      e.Description,
			Timestamp:        e.Timestamp.Format(time.RFC3339Nano),
			DisplayTimestamp: e.DisplayTimestamp,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ready":   s.view.Ready(),
		"entries": out,
		"notices": noticeStrings(s.view.Errors()),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sess.Principal(); !ok {
		writeError(w, core.ErrNoPrincipal)
		return
	}

	segments := s.view.Breakdown()
	out := make([]segmentJSON, len(segments))
	for i, seg := range segments {
		out[i] = segmentJSON{
			Label:        seg.Label,
			Category:     string(seg.Category),
			TotalCents:   seg.Total.Cents,
			DisplayTotal: seg.Total.String(),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ready":    s.view.Ready(),
		"segments": out,
		"notices":  noticeStrings(s.view.Errors()),
	})
}

type submitRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

func (s *Server) handleSubmitIncome(w http.ResponseWriter, r *http.Request) {
	s.submitRecord(w, r, core.Income)
}

func (s *Server) handleSubmitExpense(w http.ResponseWriter, r *http.Request) {
	s.submitRecord(w, r, core.Expense)
}

func (s *Server) submitRecord(w http.ResponseWriter, r *http.Request, category core.Category) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body", Code: "bad_request"})
		return
	}

	id, err := s.records.Submit(r.Context(), services.RecordInput{
		Category:    category,
		Description: req.Description,
		Amount:      req.Amount,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type goalJSON struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	TargetCents       int64  `json:"target_cents"`
	ContributionCents int64  `json:"contribution_cents"`
	Deadline          string `json:"deadline"`
	Completed         bool   `json:"completed"`
	CreatedAt         string `json:"created_at"`
}

// handleListGoals answers a one-shot query by taking the first
// snapshot of a fresh goal subscription and tearing it down.
func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.sess.Principal()
	if !ok {
		writeError(w, core.ErrNoPrincipal)
		return
	}

	sub, err := s.st.SubscribeGoals(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}
	defer sub.Unsubscribe()

	select {
	case ev := <-sub.Events():
		if ev.Err != nil {
			writeError(w, ev.Err)
			return
		}
		out := make([]goalJSON, len(ev.Goals))
		for i, g := range ev.Goals {
			out[i] = goalJSON{
				ID:                g.ID,
				Name:              g.Name,
				TargetCents:       g.TargetAmount.Cents,
				ContributionCents: g.CurrentContribution.Cents,
				Deadline:          g.Deadline.Format("2006-01-02"),
				Completed:         g.Completed,
				CreatedAt:         g.CreatedAt.Format(time.RFC3339Nano),
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"goals": out})
	case <-r.Context().Done():
		writeJSON(w, http.StatusGatewayTimeout, errorBody{Error: "goal query timed out", Code: "store"})
	}
}

type goalRequest struct {
	Name         string `json:"name"`
	TargetAmount string `json:"target_amount"`
	Contribution string `json:"contribution"`
	Deadline     string `json:"deadline"` // YYYY-MM-DD
}

func (g goalRequest) toInput() (services.GoalInput, error) {
	in := services.GoalInput{
		Name:         g.Name,
		TargetAmount: g.TargetAmount,
		Contribution: g.Contribution,
	}
	if strings.TrimSpace(g.Deadline) != "" {
		deadline, err := parseDate(g.Deadline)
		if err != nil {
			return services.GoalInput{}, core.ErrInvalidDeadline
		}
		in.Deadline = deadline
	}
	return in, nil
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body", Code: "bad_request"})
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := s.goals.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body", Code: "bad_request"})
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.goals.Update(r.Context(), r.PathValue("id"), in); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	confirmed := r.URL.Query().Get("confirm") == "true"
	if err := s.goals.Delete(r.Context(), r.PathValue("id"), confirmed); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleGoal(w http.ResponseWriter, r *http.Request) {
	confirmed := r.URL.Query().Get("confirm") == "true"
	if err := s.goals.ToggleCompleted(r.Context(), r.PathValue("id"), confirmed); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionRequest struct {
	Principal string `json:"principal"`
}

// handleSignIn switches the session principal. The registered session
// watcher restarts the engine view, tearing old subscriptions down
// before the new principal's are opened.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body", Code: "bad_request"})
		return
	}
	principal := strings.TrimSpace(req.Principal)
	if principal == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "principal is required", Code: "validation"})
		return
	}

	s.sess.SetPrincipal(principal)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	s.sess.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func noticeStrings(errs []error) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
