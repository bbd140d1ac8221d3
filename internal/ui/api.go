// Package ui serves the patient data entry form, forwards each submission
// to the Inference Service, and renders the diagnosis. Upstream trouble
// becomes a visible error panel, never a crash.
package ui

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"cardiod/internal/httpserver"

	"github.com/gorilla/mux"
)

// ServiceName is used for server config and request logs.
const ServiceName = "cardio-ui"

//go:embed templates/*.html
var templatesFS embed.FS

// API renders the form and proxies predictions upstream.
type API struct {
	logger    *slog.Logger
	client    *Client
	templates *template.Template
	fields    []FormField
}

func NewAPI(logger *slog.Logger, client *Client) (*API, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &API{
		logger:    logger,
		client:    client,
		templates: tmpl,
		fields:    FormFields(),
	}, nil
}

func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/", a.handleForm).Methods(http.MethodGet)
	r.HandleFunc("/predict", a.handlePredict).Methods(http.MethodPost)
	return r
}

// handleHealth reports liveness for this process alone; upstream
// reachability is deliberately not part of it.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpserver.WriteJSON(w, http.StatusOK, map[string]any{
		"service": ServiceName,
		"status":  "healthy",
		"api_url": a.client.BaseURL(),
	})
}

// pageData feeds the single page template: the form plus, after a
// submission, either a result or an error panel.
type pageData struct {
	Fields    []FormField
	APIURL    string
	Submitted map[string]string

	Result       *PredictionResult
	RiskPercent  string
	ClearPercent string
	Error        string
	ErrorHint    string
}

func (a *API) handleForm(w http.ResponseWriter, r *http.Request) {
	a.render(w, pageData{Fields: a.fields, APIURL: a.client.BaseURL()})
}

func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.render(w, pageData{
			Fields: a.fields,
			APIURL: a.client.BaseURL(),
			Error:  fmt.Sprintf("Could not read the form: %v", err),
		})
		return
	}

	data := pageData{
		Fields:    a.fields,
		APIURL:    a.client.BaseURL(),
		Submitted: flatten(r.PostForm),
	}

	record, err := recordFromForm(r.PostForm)
	if err != nil {
		data.Error = fmt.Sprintf("Invalid input: %v", err)
		a.render(w, data)
		return
	}

	result, err := a.client.PredictSingle(r.Context(), record)
	if err != nil {
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			data.Error = fmt.Sprintf("The prediction service rejected the request: %s", upstream.Detail)
		} else {
			data.Error = fmt.Sprintf("Connection error: %v", err)
			data.ErrorHint = fmt.Sprintf("Make sure the API is running at %s", a.client.BaseURL())
		}
		a.logger.Warn("prediction failed", "error", err)
		a.render(w, data)
		return
	}

	data.Result = result
	data.RiskPercent = fmt.Sprintf("%.1f%%", result.Probability[1]*100)
	data.ClearPercent = fmt.Sprintf("%.1f%%", result.Probability[0]*100)
	a.render(w, data)
}

func (a *API) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		a.logger.Error("template render failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func flatten(form map[string][]string) map[string]string {
	out := make(map[string]string, len(form))
	for k, vs := range form {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}
