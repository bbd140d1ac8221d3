package api

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"cardiod/internal/handlers"
	"cardiod/internal/httpserver"
	"cardiod/internal/supervisor"
)

// NewRouter builds the supervisor control surface: the HTML dashboard, the
// service action API and the multiplexed log feed.
func NewRouter(logger *slog.Logger, sup *supervisor.Supervisor, templatesFS, staticFS fs.FS) (http.Handler, error) {
	r := mux.NewRouter()

	dash, err := handlers.NewDashboardHandler(templatesFS, sup, logger)
	if err != nil {
		return nil, err
	}
	svc := handlers.NewServiceHandler(sup, logger)

	r.HandleFunc("/health", httpserver.Healthz("cardiod")).Methods(http.MethodGet)
	r.HandleFunc("/ready", httpserver.ReadyzWithChecks("cardiod")).Methods(http.MethodGet)

	r.HandleFunc("/", dash.ServeDashboard).Methods(http.MethodGet)

	staticHandler := http.FileServer(http.FS(staticFS))
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", staticHandler))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/services", svc.ListServices).Methods(http.MethodGet)
	api.HandleFunc("/services/{name}", svc.GetService).Methods(http.MethodGet)
	api.HandleFunc("/services/{name}/start", svc.StartService).Methods(http.MethodPost)
	api.HandleFunc("/services/{name}/stop", svc.StopService).Methods(http.MethodPost)
	api.HandleFunc("/services/{name}/restart", svc.RestartService).Methods(http.MethodPost)
	api.HandleFunc("/logs", svc.GetLogs).Methods(http.MethodGet)
	api.HandleFunc("/logs/{name}", svc.GetServiceLogs).Methods(http.MethodGet)

	return httpserver.Wrap(logger, r), nil
}
