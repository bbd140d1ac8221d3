package heart

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// ModelSchemaV1 identifies the artifact layout this package reads and writes.
const ModelSchemaV1 = "cardiod.model.logistic.v1"

const (
	DiagnosisPositive = "Heart Disease Detected"
	DiagnosisNegative = "No Heart Disease"
)

// Model is a median-impute, standardize, logistic-regression pipeline with
// the fitted parameters carried in a JSON artifact.
type Model struct {
	Schema        string    `json:"schema"`
	TrainedAt     time.Time `json:"trained_at"`
	RunID         string    `json:"run_id,omitempty"`
	Features      []string  `json:"features"`
	Means         []float64 `json:"means"`
	Stds          []float64 `json:"stds"`
	Medians       []float64 `json:"medians"`
	Weights       []float64 `json:"weights"`
	Bias          float64   `json:"bias"`
	TrainAccuracy float64   `json:"train_accuracy,omitempty"`
}

// Prediction is the outcome for one record.
type Prediction struct {
	Label       int
	Probability [2]float64
}

func (p Prediction) Diagnosis() string {
	if p.Label == 1 {
		return DiagnosisPositive
	}
	return DiagnosisNegative
}

// DecodeModel parses and validates a model artifact.
func DecodeModel(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) Encode() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.MarshalIndent(m, "", "  ")
}

func (m *Model) Validate() error {
	if m.Schema != ModelSchemaV1 {
		return fmt.Errorf("unsupported model schema %q", m.Schema)
	}
	n := len(m.Features)
	if n == 0 {
		return errors.New("model has no features")
	}
	if len(m.Means) != n || len(m.Stds) != n || len(m.Medians) != n || len(m.Weights) != n {
		return errors.New("model parameter lengths do not match feature count")
	}
	for i, s := range m.Stds {
		if s <= 0 || math.IsNaN(s) {
			return fmt.Errorf("model std for %s must be positive", m.Features[i])
		}
	}
	return nil
}

// Predict scores one vector in training column order. NaN entries are imputed
// with the training median.
func (m *Model) Predict(x []float64) (Prediction, error) {
	if len(x) != len(m.Features) {
		return Prediction{}, fmt.Errorf("expected %d features, got %d", len(m.Features), len(x))
	}
	z := m.Bias
	for i, v := range x {
		if math.IsNaN(v) {
			v = m.Medians[i]
		}
		z += m.Weights[i] * (v - m.Means[i]) / m.Stds[i]
	}
	p := sigmoid(z)
	label := 0
	if p >= 0.5 {
		label = 1
	}
	return Prediction{Label: label, Probability: [2]float64{1 - p, p}}, nil
}

// PredictBatch scores vectors in order, one prediction per input.
func (m *Model) PredictBatch(xs [][]float64) ([]Prediction, error) {
	out := make([]Prediction, 0, len(xs))
	for i, x := range xs {
		p, err := m.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("instance %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
