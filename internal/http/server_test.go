package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cash/internal/engine"
	"cash/internal/log"
	"cash/internal/services"
	"cash/internal/session"
	"cash/internal/store/memory"
)

type testServer struct {
	handler http.Handler
	sess    *session.Session
	view    *engine.View
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := memory.New()
	t.Cleanup(func() { st.Close() })

	logger := log.New(log.DefaultConfig())
	sess := session.New()
	view := engine.NewView(st, logger)
	t.Cleanup(view.Stop)

	ctx := context.Background()
	unwatch := sess.Watch(func(principal string) {
		if err := view.Start(ctx, principal); err != nil {
			t.Errorf("view start: %v", err)
		}
	})
	t.Cleanup(unwatch)

	records := services.NewRecords(st, sess, logger, time.Second)
	goals := services.NewGoals(st, sess, logger, time.Second)
	srv := NewServer(":0", st, sess, view, records, goals, logger)

	return &testServer{handler: srv.Handler, sess: sess, view: view}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func (ts *testServer) waitForEntries(t *testing.T, query string, n int) map[string]any {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		w := ts.do(t, "GET", "/api/history?q="+query, "")
		if w.Code != http.StatusOK {
			t.Fatalf("history status %d: %s", w.Code, w.Body.String())
		}
		body := decodeBody(t, w)
		entries, _ := body["entries"].([]any)
		if ready, _ := body["ready"].(bool); ready && len(entries) == n {
			return body
		}
		if time.Now().After(deadline) {
			t.Fatalf("never saw %d entries, last body: %v", n, body)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, "GET", "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
}

func TestRequiresSession(t *testing.T) {
	ts := newTestServer(t)
	for _, tc := range []struct{ method, path, body string }{
		{"GET", "/api/history", ""},
		{"GET", "/api/dashboard", ""},
		{"GET", "/api/goals", ""},
		{"POST", "/api/expenses", `{"description":"x","amount":"1"}`},
		{"POST", "/api/goals", `{"name":"x","target_amount":"1","deadline":"2027-01-01"}`},
	} {
		w := ts.do(t, tc.method, tc.path, tc.body)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, w.Code)
		}
		if decodeBody(t, w)["code"] != "no_principal" {
			t.Fatalf("%s %s: expected no_principal code", tc.method, tc.path)
		}
	}
}

func TestSubmitAndHistoryFlow(t *testing.T) {
	ts := newTestServer(t)

	if w := ts.do(t, "POST", "/api/session", `{"principal":"alice"}`); w.Code != http.StatusNoContent {
		t.Fatalf("sign in: %d", w.Code)
	}

	w := ts.do(t, "POST", "/api/expenses", `{"description":"groceries","amount":"45,90"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit expense: %d %s", w.Code, w.Body.String())
	}
	if decodeBody(t, w)["id"] == "" {
		t.Fatalf("expected an id in the response")
	}
	if w := ts.do(t, "POST", "/api/income", `{"description":"salary","amount":"3000"}`); w.Code != http.StatusCreated {
		t.Fatalf("submit income: %d %s", w.Code, w.Body.String())
	}

	body := ts.waitForEntries(t, "", 2)
	entries := body["entries"].([]any)
	first := entries[0].(map[string]any)
	if first["display_amount"] == "" || first["display_timestamp"] == "" {
		t.Fatalf("entry missing display fields: %v", first)
	}

	// Search narrows the feed without touching the subscriptions.
	filtered := ts.waitForEntries(t, "groceries", 1)
	entry := filtered["entries"].([]any)[0].(map[string]any)
	if entry["description"] != "groceries" {
		t.Fatalf("unexpected filtered entry %v", entry)
	}

	w = ts.do(t, "GET", "/api/dashboard", "")
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard: %d", w.Code)
	}
	segments := decodeBody(t, w)["segments"].([]any)
	if len(segments) != 2 {
		t.Fatalf("expected income and expense segments, got %v", segments)
	}
}

func TestSubmitValidationErrors(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, "POST", "/api/session", `{"principal":"alice"}`)

	cases := []struct{ body string }{
		{`{"description":"","amount":"1"}`},
		{`{"description":"x","amount":"0"}`},
		{`{"description":"x","amount":"abc"}`},
	}
	for i, tc := range cases {
		w := ts.do(t, "POST", "/api/expenses", tc.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d", i, w.Code)
		}
		if decodeBody(t, w)["code"] != "validation" {
			t.Fatalf("case %d: expected validation code", i)
		}
	}
}

func TestGoalEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, "POST", "/api/session", `{"principal":"alice"}`)

	w := ts.do(t, "POST", "/api/goals", `{"name":"Vacation","target_amount":"1000","contribution":"250","deadline":"2027-06-01"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create goal: %d %s", w.Code, w.Body.String())
	}
	id := decodeBody(t, w)["id"].(string)

	w = ts.do(t, "GET", "/api/goals", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list goals: %d", w.Code)
	}
	goals := decodeBody(t, w)["goals"].([]any)
	if len(goals) != 1 {
		t.Fatalf("expected one goal, got %v", goals)
	}
	goal := goals[0].(map[string]any)
	if goal["name"] != "Vacation" || goal["target_cents"] != float64(100000) {
		t.Fatalf("unexpected goal %v", goal)
	}

	// Delete and toggle refuse to run without explicit confirmation.
	if w := ts.do(t, "DELETE", "/api/goals/"+id, ""); w.Code != http.StatusConflict {
		t.Fatalf("unconfirmed delete: expected 409, got %d", w.Code)
	}
	if w := ts.do(t, "POST", "/api/goals/"+id+"/toggle", ""); w.Code != http.StatusConflict {
		t.Fatalf("unconfirmed toggle: expected 409, got %d", w.Code)
	}

	if w := ts.do(t, "POST", "/api/goals/"+id+"/toggle?confirm=true", ""); w.Code != http.StatusNoContent {
		t.Fatalf("confirmed toggle: %d", w.Code)
	}
	if w := ts.do(t, "PUT", "/api/goals/"+id, `{"contribution":"500"}`); w.Code != http.StatusNoContent {
		t.Fatalf("update: %d", w.Code)
	}
	if w := ts.do(t, "DELETE", "/api/goals/"+id+"?confirm=true", ""); w.Code != http.StatusNoContent {
		t.Fatalf("confirmed delete: %d", w.Code)
	}
	if w := ts.do(t, "DELETE", "/api/goals/"+id+"?confirm=true", ""); w.Code != http.StatusNotFound {
		t.Fatalf("delete missing goal: expected 404, got %d", w.Code)
	}
}

func TestSignOutClearsView(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, "POST", "/api/session", `{"principal":"alice"}`)
	ts.do(t, "POST", "/api/expenses", `{"description":"x","amount":"1"}`)
	ts.waitForEntries(t, "", 1)

	if w := ts.do(t, "DELETE", "/api/session", ""); w.Code != http.StatusNoContent {
		t.Fatalf("sign out: %d", w.Code)
	}
	if w := ts.do(t, "GET", "/api/history", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("history after sign-out: expected 401, got %d", w.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, "GET", "/healthz", "")
	if got := w.Header().Get("X-Request-ID"); !strings.HasPrefix(got, "req_") {
		t.Fatalf("expected request id header, got %q", got)
	}
}
