package handlers

import (
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"cardiod/internal/models"
	"cardiod/internal/supervisor"
)

const dashboardLogLines = 25

type dashboardData struct {
	Title          string
	GeneratedAt    string
	Services       []models.Process
	Running        int
	Total          int
	RunningPercent int
	Logs           []models.LogEntry
}

// DashboardHandler renders the supervisor status page from embedded templates.
type DashboardHandler struct {
	templates *template.Template
	sup       *supervisor.Supervisor
	logger    *slog.Logger
}

func NewDashboardHandler(templatesFS fs.FS, sup *supervisor.Supervisor, logger *slog.Logger) (*DashboardHandler, error) {
	tmpl, err := template.ParseFS(templatesFS, "*.html")
	if err != nil {
		return nil, err
	}
	return &DashboardHandler{templates: tmpl, sup: sup, logger: logger}, nil
}

func (h *DashboardHandler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	services := h.sup.Status()

	running := 0
	for _, svc := range services {
		if svc.State == supervisor.StateRunning.String() || svc.State == supervisor.StateStarting.String() {
			running++
		}
	}
	percent := 0
	if len(services) > 0 {
		percent = (running * 100) / len(services)
	}

	data := dashboardData{
		Title:          "cardiod",
		GeneratedAt:    time.Now().Format(time.RFC3339),
		Services:       services,
		Running:        running,
		Total:          len(services),
		RunningPercent: percent,
		Logs:           h.sup.Logs().Last(dashboardLogLines),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		h.logger.Error("render dashboard", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
