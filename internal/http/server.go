// Package http exposes the engine to the presentation layer as a JSON
// API: the merged history feed with search, the dashboard breakdown,
// record submission, goal mutation, and session switching.
package http

import (
	"net/http"
	"time"

	"cash/internal/engine"
	"cash/internal/log"
	"cash/internal/services"
	"cash/internal/session"
	"cash/internal/store"
)

type Server struct {
	st      store.Interface
	sess    *session.Session
	view    *engine.View
	records *services.Records
	goals   *services.Goals
	logger  *log.Logger
	started time.Time
}

// NewServer wires the handlers and returns a configured *http.Server.
func NewServer(addr string, st store.Interface, sess *session.Session, view *engine.View,
	records *services.Records, goals *services.Goals, logger *log.Logger) *http.Server {

	s := &Server{
		st:      st,
		sess:    sess,
		view:    view,
		records: records,
		goals:   goals,
		logger:  logger.WithComponent(log.ComponentHTTP),
		started: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	mux.HandleFunc("POST /api/income", s.handleSubmitIncome)
	mux.HandleFunc("POST /api/expenses", s.handleSubmitExpense)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("PUT /api/goals/{id}", s.handleUpdateGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)
	mux.HandleFunc("POST /api/goals/{id}/toggle", s.handleToggleGoal)

	mux.HandleFunc("POST /api/session", s.handleSignIn)
	mux.HandleFunc("DELETE /api/session", s.handleSignOut)

	return &http.Server{
		Addr:    addr,
		Handler: s.traceMiddleware(mux),
	}
}

// traceMiddleware tags every request with an id and logs start/finish.
func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()
		w.Header().Set("X-Request-ID", requestID)

		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.logger.Info("HTTP request",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.status,
			log.FieldDuration, time.Since(start).Milliseconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
