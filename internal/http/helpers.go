package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cash/internal/core"
	"cash/internal/services"
	"cash/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses. The ambiguous
// timeout gets its own code so clients can tell "might have succeeded,
// check before retrying" apart from a definite failure.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNoPrincipal):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error(), Code: "no_principal"})
	case errors.Is(err, core.ErrAmbiguousOutcome):
		writeJSON(w, http.StatusGatewayTimeout, errorBody{
			Error: "the operation might have succeeded; check before retrying",
			Code:  "ambiguous_outcome",
		})
	case errors.Is(err, services.ErrConfirmationRequired):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Code: "confirmation_required"})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error(), Code: "not_found"})
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: "validation"})
	default:
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error(), Code: "store"})
	}
}

func isValidationError(err error) bool {
	for _, v := range []error{
		core.ErrInvalidAmount,
		core.ErrEmptyDescription,
		core.ErrInvalidCategory,
		core.ErrEmptyName,
		core.ErrInvalidTarget,
		core.ErrContributionNegative,
		core.ErrContributionExceedsTarget,
		core.ErrInvalidDeadline,
		core.ErrZeroTimestamp,
		store.ErrUnknownCollection,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(dateStr string) (time.Time, error) {
	return time.Parse("2006-01-02", dateStr)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
