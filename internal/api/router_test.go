package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cardiod/internal/config"
	"cardiod/internal/models"
	"cardiod/internal/supervisor"
	"cardiod/web"
)

// newTestRouter builds the control surface over a supervisor whose services
// are declared but never launched.
func newTestRouter(t *testing.T) (http.Handler, *supervisor.Supervisor) {
	t.Helper()

	cfg := &config.SupervisorConfig{
		Global: config.GlobalConfig{GracePeriod: config.Duration(time.Second)},
		Programs: []config.ProgramConfig{
			{
				Name:        "cardio-api",
				Command:     "/bin/true",
				StopSignal:  "SIGTERM",
				StopTimeout: config.Duration(time.Second),
				Stdout:      "inherit",
				Stderr:      "inherit",
			},
			{
				Name:        "cardio-ui",
				Command:     "/bin/true",
				StopSignal:  "SIGTERM",
				StopTimeout: config.Duration(time.Second),
				Stdout:      "inherit",
				Stderr:      "inherit",
			},
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sup := supervisor.New(cfg, logger, supervisor.WithOutput(io.Discard, io.Discard))

	r, err := NewRouter(logger, sup, web.TemplatesFS(), web.StaticFS())
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return r, sup
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthAndReady(t *testing.T) {
	r, _ := newTestRouter(t)

	if rec := do(t, r, http.MethodGet, "/health"); rec.Code != http.StatusOK {
		t.Errorf("/health = %d", rec.Code)
	}
	if rec := do(t, r, http.MethodGet, "/ready"); rec.Code != http.StatusOK {
		t.Errorf("/ready = %d", rec.Code)
	}
}

func TestListServices(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/api/services")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var services []models.Process
	if err := json.NewDecoder(rec.Body).Decode(&services); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(services) != 2 {
		t.Fatalf("got %d services, want 2", len(services))
	}
	if services[0].Name != "cardio-api" || services[1].Name != "cardio-ui" {
		t.Errorf("order = %s, %s", services[0].Name, services[1].Name)
	}
	if services[0].State != "not_started" {
		t.Errorf("state = %q", services[0].State)
	}
}

func TestGetService(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/api/services/cardio-ui")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var svc models.Process
	if err := json.NewDecoder(rec.Body).Decode(&svc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if svc.Name != "cardio-ui" {
		t.Errorf("name = %q", svc.Name)
	}

	if rec := do(t, r, http.MethodGet, "/api/services/ghost"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown service = %d, want 404", rec.Code)
	}
}

func TestActionErrors(t *testing.T) {
	r, _ := newTestRouter(t)

	if rec := do(t, r, http.MethodPost, "/api/services/ghost/start"); rec.Code != http.StatusNotFound {
		t.Errorf("start unknown = %d, want 404", rec.Code)
	}
	// Never launched, so stop conflicts.
	rec := do(t, r, http.MethodPost, "/api/services/cardio-api/stop")
	if rec.Code != http.StatusConflict {
		t.Fatalf("stop not-running = %d, want 409", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(body["message"], "cardio-api") {
		t.Errorf("message = %q", body["message"])
	}
}

func TestLogsEndpoints(t *testing.T) {
	r, sup := newTestRouter(t)
	sup.Logs().Add(models.LogEntry{Service: "cardio-api", Message: "listening", Level: "info"})
	sup.Logs().Add(models.LogEntry{Service: "cardio-ui", Message: "form served", Level: "info"})

	rec := do(t, r, http.MethodGet, "/api/logs")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var entries []models.LogEntry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries", len(entries))
	}

	rec = do(t, r, http.MethodGet, "/api/logs/cardio-api?limit=10")
	entries = nil
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "listening" {
		t.Errorf("entries = %+v", entries)
	}

	if rec := do(t, r, http.MethodGet, "/api/logs/ghost"); rec.Code != http.StatusNotFound {
		t.Errorf("logs for unknown service = %d, want 404", rec.Code)
	}
}

func TestDashboardRenders(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	page := rec.Body.String()
	for _, want := range []string{"cardio-api", "cardio-ui", "not_started", "0/2"} {
		if !strings.Contains(page, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestStaticCSSServed(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/static/css/dashboard.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), ".state-running") {
		t.Error("stylesheet content missing")
	}
}
