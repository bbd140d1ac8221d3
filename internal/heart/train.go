package heart

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// TrainOptions tune the gradient-descent fit. Zero values fall back to
// defaults that converge comfortably on the ~300-row heart dataset.
type TrainOptions struct {
	LearningRate float64
	Epochs       int
	L2           float64
}

func (o TrainOptions) withDefaults() TrainOptions {
	if o.LearningRate <= 0 {
		o.LearningRate = 0.1
	}
	if o.Epochs <= 0 {
		o.Epochs = 500
	}
	if o.L2 < 0 {
		o.L2 = 0
	}
	return o
}

// Train fits the full pipeline on labeled rows: per-column median imputation
// and standardization fitted from the data, then full-batch gradient-descent
// logistic regression. Deterministic for a given input.
func Train(rows [][]float64, labels []int, opts TrainOptions) (*Model, error) {
	if len(rows) == 0 {
		return nil, errors.New("no training rows")
	}
	if len(rows) != len(labels) {
		return nil, fmt.Errorf("rows (%d) and labels (%d) differ in length", len(rows), len(labels))
	}
	n := len(Features)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), n)
		}
	}
	opts = opts.withDefaults()

	medians := columnMedians(rows)
	imputed := make([][]float64, len(rows))
	for i, row := range rows {
		r := make([]float64, n)
		for j, v := range row {
			if math.IsNaN(v) {
				v = medians[j]
			}
			r[j] = v
		}
		imputed[i] = r
	}

	means, stds := columnMoments(imputed)
	scaled := make([][]float64, len(imputed))
	for i, row := range imputed {
		r := make([]float64, n)
		for j, v := range row {
			r[j] = (v - means[j]) / stds[j]
		}
		scaled[i] = r
	}

	weights := make([]float64, n)
	bias := 0.0
	m := float64(len(scaled))
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		gradW := make([]float64, n)
		gradB := 0.0
		for i, row := range scaled {
			z := bias
			for j, v := range row {
				z += weights[j] * v
			}
			diff := sigmoid(z) - float64(labels[i])
			for j, v := range row {
				gradW[j] += diff * v
			}
			gradB += diff
		}
		for j := range weights {
			weights[j] -= opts.LearningRate * (gradW[j]/m + opts.L2*weights[j])
		}
		bias -= opts.LearningRate * gradB / m
	}

	model := &Model{
		Schema:    ModelSchemaV1,
		TrainedAt: time.Now().UTC(),
		RunID:     uuid.NewString(),
		Features:  FeatureNames(),
		Means:     means,
		Stds:      stds,
		Medians:   medians,
		Weights:   weights,
		Bias:      bias,
	}
	model.TrainAccuracy = accuracy(model, rows, labels)
	return model, nil
}

func accuracy(m *Model, rows [][]float64, labels []int) float64 {
	correct := 0
	for i, row := range rows {
		p, err := m.Predict(row)
		if err != nil {
			continue
		}
		if p.Label == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(rows))
}

func columnMedians(rows [][]float64) []float64 {
	n := len(Features)
	medians := make([]float64, n)
	col := make([]float64, 0, len(rows))
	for j := 0; j < n; j++ {
		col = col[:0]
		for _, row := range rows {
			if !math.IsNaN(row[j]) {
				col = append(col, row[j])
			}
		}
		if len(col) == 0 {
			medians[j] = 0
			continue
		}
		sort.Float64s(col)
		mid := len(col) / 2
		if len(col)%2 == 0 {
			medians[j] = (col[mid-1] + col[mid]) / 2
		} else {
			medians[j] = col[mid]
		}
	}
	return medians
}

func columnMoments(rows [][]float64) (means, stds []float64) {
	n := len(Features)
	means = make([]float64, n)
	stds = make([]float64, n)
	m := float64(len(rows))

	for _, row := range rows {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= m
	}
	for _, row := range rows {
		for j, v := range row {
			d := v - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / m)
		// Constant columns would divide by zero downstream.
		if stds[j] == 0 {
			stds[j] = 1
		}
	}
	return means, stds
}
