package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"cardiod/internal/httpserver"
	"cardiod/internal/supervisor"
)

const defaultLogLimit = 50

// ServiceHandler exposes the supervisor registry over the control API.
type ServiceHandler struct {
	sup    *supervisor.Supervisor
	logger *slog.Logger
}

func NewServiceHandler(sup *supervisor.Supervisor, logger *slog.Logger) *ServiceHandler {
	return &ServiceHandler{sup: sup, logger: logger}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type ActionResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func (h *ServiceHandler) writeError(w http.ResponseWriter, status int, err error, message string) {
	httpserver.WriteJSON(w, status, ErrorResponse{
		Error:   err.Error(),
		Message: message,
	})
}

func (h *ServiceHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	httpserver.WriteJSON(w, http.StatusOK, h.sup.Status())
}

func (h *ServiceHandler) GetService(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	svc, ok := h.sup.Service(name)
	if !ok {
		h.writeError(w, http.StatusNotFound, supervisor.ErrServiceNotFound, "Unknown service: "+name)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, svc)
}

func (h *ServiceHandler) StartService(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.sup.StartService(name); err != nil {
		switch {
		case errors.Is(err, supervisor.ErrServiceNotFound):
			h.writeError(w, http.StatusNotFound, err, "Unknown service: "+name)
		case errors.Is(err, supervisor.ErrServiceAlreadyRunning):
			h.writeError(w, http.StatusConflict, err, "Service already running: "+name)
		default:
			h.writeError(w, http.StatusInternalServerError, err, "Failed to start service: "+name)
		}
		return
	}

	httpserver.WriteJSON(w, http.StatusOK, ActionResponse{Status: "started", Service: name})
}

func (h *ServiceHandler) StopService(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.sup.StopService(name); err != nil {
		switch {
		case errors.Is(err, supervisor.ErrServiceNotFound):
			h.writeError(w, http.StatusNotFound, err, "Unknown service: "+name)
		case errors.Is(err, supervisor.ErrServiceNotRunning):
			h.writeError(w, http.StatusConflict, err, "Service not running: "+name)
		default:
			h.writeError(w, http.StatusInternalServerError, err, "Failed to stop service: "+name)
		}
		return
	}

	httpserver.WriteJSON(w, http.StatusOK, ActionResponse{Status: "stopped", Service: name})
}

func (h *ServiceHandler) RestartService(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.sup.RestartService(name); err != nil {
		if errors.Is(err, supervisor.ErrServiceNotFound) {
			h.writeError(w, http.StatusNotFound, err, "Unknown service: "+name)
			return
		}
		h.writeError(w, http.StatusInternalServerError, err, "Failed to restart service: "+name)
		return
	}

	httpserver.WriteJSON(w, http.StatusOK, ActionResponse{Status: "restarted", Service: name})
}

func (h *ServiceHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	httpserver.WriteJSON(w, http.StatusOK, h.sup.Logs().Last(logLimit(r)))
}

func (h *ServiceHandler) GetServiceLogs(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if _, ok := h.sup.Service(name); !ok {
		h.writeError(w, http.StatusNotFound, supervisor.ErrServiceNotFound, "Unknown service: "+name)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, h.sup.Logs().LastByService(name, logLimit(r)))
}

func logLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLogLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultLogLimit
	}
	return n
}
