package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	Healthz("cardio-api")(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["service"] != "cardio-api" || body["status"] != "healthy" {
		t.Errorf("body = %v", body)
	}
}

func TestReadyzWithChecks(t *testing.T) {
	ok := ReadinessCheck{Name: "model", Check: func(context.Context) error { return nil }}
	bad := ReadinessCheck{Name: "database", Check: func(context.Context) error { return errors.New("down") }}

	rec := httptest.NewRecorder()
	ReadyzWithChecks("svc", ok)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("all checks pass: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	ReadyzWithChecks("svc", ok, bad)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("failing check: status = %d, want 503", rec.Code)
	}

	var body struct {
		Status string `json:"status"`
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"checks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "not_ready" || len(body.Checks) != 2 {
		t.Errorf("body = %+v", body)
	}
	if body.Checks[1].Status != "fail" || body.Checks[1].Error != "down" {
		t.Errorf("failing check = %+v", body.Checks[1])
	}
}

func TestWrapRequestID(t *testing.T) {
	var seen string
	h := Wrap(testLogger(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" {
		t.Error("no request ID in context")
	}
	if got := rec.Header().Get("X-Request-Id"); got != seen {
		t.Errorf("response header %q, context %q", got, seen)
	}

	// A caller-provided ID is propagated untouched.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "req-123" || rec.Header().Get("X-Request-Id") != "req-123" {
		t.Errorf("caller ID not propagated: context %q, header %q", seen, rec.Header().Get("X-Request-Id"))
	}
}

func TestWrapRecoversPanic(t *testing.T) {
	h := Wrap(testLogger(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "internal_server_error" {
		t.Errorf("body = %v", body)
	}
	if body["request_id"] == "" {
		t.Error("panic envelope missing request_id")
	}
}

func TestRunConfigValidation(t *testing.T) {
	ctx := context.Background()
	if err := Run(ctx, testLogger(), Config{Addr: ":0"}, http.NotFoundHandler()); err == nil {
		t.Error("missing service accepted")
	}
	if err := Run(ctx, testLogger(), Config{Service: "svc"}, http.NotFoundHandler()); err == nil {
		t.Error("missing addr accepted")
	}
}

func TestRunGracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, testLogger(), Config{Service: "svc", Addr: "127.0.0.1:0"}, http.NotFoundHandler())
	}()

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run after cancel = %v, want nil", err)
	}
}
