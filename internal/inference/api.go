// Package inference is the HTTP surface of the Inference Service: it loads
// the trained model once at startup and scores prediction requests.
package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"cardiod/internal/heart"
	"cardiod/internal/httpserver"
	"cardiod/internal/store"

	"github.com/gorilla/mux"
)

// ServiceName is used for server config and request logs.
const ServiceName = "cardio-api"

// API serves predictions from one immutable model.
type API struct {
	logger        *slog.Logger
	model         *heart.Model
	modelLocation string
	dbInfo        store.Info
}

func NewAPI(logger *slog.Logger, model *heart.Model, modelLocation string, dbInfo store.Info) *API {
	return &API{
		logger:        logger,
		model:         model,
		modelLocation: modelLocation,
		dbInfo:        dbInfo,
	}
}

// Router wires the routes. Liveness must keep succeeding whatever the
// prediction handlers do.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", a.handleInfo).Methods(http.MethodGet)
	r.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/predict", a.handlePredict).Methods(http.MethodPost)
	r.HandleFunc("/predict/single", a.handlePredictSingle).Methods(http.MethodPost)
	return r
}

func (a *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	httpserver.WriteJSON(w, http.StatusOK, map[string]any{
		"name":        "Heart Disease Classification API",
		"version":     "1.0.0",
		"description": "Predicts presence of heart disease based on patient features",
		"endpoints": map[string]string{
			"health":         "/health",
			"predict":        "/predict",
			"predict_single": "/predict/single",
		},
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpserver.WriteJSON(w, http.StatusOK, map[string]any{
		"status":            "healthy",
		"model_loaded":      a.model != nil,
		"model_path":        a.modelLocation,
		"database_type":     a.dbInfo.Type,
		"database_location": a.dbInfo.Location,
	})
}

// predictRequest is the batch body: a non-empty ordered list of instances.
type predictRequest struct {
	Instances []map[string]any `json:"instances"`
}

type predictionResult struct {
	Prediction  int       `json:"prediction"`
	Probability []float64 `json:"probability"`
	Diagnosis   string    `json:"diagnosis"`
}

type predictResponse struct {
	Predictions []predictionResult `json:"predictions"`
	Count       int                `json:"count"`
}

func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if len(req.Instances) == 0 {
		a.writeDetail(w, http.StatusBadRequest, "No instances provided. Please provide at least one instance.")
		return
	}

	if missing := heart.MissingColumns(req.Instances); len(missing) > 0 {
		a.writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Missing required columns: %v", missing))
		return
	}

	vectors := make([][]float64, 0, len(req.Instances))
	for i, inst := range req.Instances {
		vec, err := heart.Vector(inst)
		if err != nil {
			a.writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Instance %d: %v", i, err))
			return
		}
		vectors = append(vectors, vec)
	}

	preds, err := a.model.PredictBatch(vectors)
	if err != nil {
		a.logger.Error("batch prediction failed", "error", err)
		a.writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Model prediction failed: %v", err))
		return
	}

	resp := predictResponse{Predictions: make([]predictionResult, 0, len(preds)), Count: len(preds)}
	for _, p := range preds {
		resp.Predictions = append(resp.Predictions, toResult(p))
	}
	httpserver.WriteJSON(w, http.StatusOK, resp)
}

func (a *API) handlePredictSingle(w http.ResponseWriter, r *http.Request) {
	var record heart.Record
	if err := decodeJSON(r, &record); err != nil {
		a.writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := record.Validate(); err != nil {
		var fieldErr *heart.FieldError
		if errors.As(err, &fieldErr) {
			a.writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Invalid field %s: %s", fieldErr.Field, fieldErr.Message))
			return
		}
		a.writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	vec, err := record.Vector()
	if err != nil {
		a.writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	pred, err := a.model.Predict(vec)
	if err != nil {
		a.logger.Error("prediction failed", "error", err)
		a.writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Model prediction failed: %v", err))
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, toResult(pred))
}

func toResult(p heart.Prediction) predictionResult {
	return predictionResult{
		Prediction:  p.Label,
		Probability: []float64{p.Probability[0], p.Probability[1]},
		Diagnosis:   p.Diagnosis(),
	}
}

// writeDetail is the error envelope every client-facing failure uses.
func (a *API) writeDetail(w http.ResponseWriter, status int, detail string) {
	httpserver.WriteJSON(w, status, map[string]string{"detail": detail})
}

// decodeJSON reads exactly one JSON value from the body.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}
