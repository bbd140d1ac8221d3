package heart

import (
	"math"
	"testing"
)

// syntheticRows builds a linearly separable dataset: label 1 whenever
// thalach is above 150, everything else held at the column median.
func syntheticRows() (rows [][]float64, labels []int) {
	for i := 0; i < 60; i++ {
		row := make([]float64, len(Features))
		for j, f := range Features {
			row[j] = f.Median
		}
		if i%2 == 0 {
			row[7] = 170 + float64(i%10)
			labels = append(labels, 1)
		} else {
			row[7] = 110 + float64(i%10)
			labels = append(labels, 0)
		}
		rows = append(rows, row)
	}
	return rows, labels
}

func TestTrainSeparableData(t *testing.T) {
	rows, labels := syntheticRows()

	model, err := Train(rows, labels, TrainOptions{})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if model.Schema != ModelSchemaV1 {
		t.Errorf("Schema = %q", model.Schema)
	}
	if model.RunID == "" {
		t.Error("RunID not set")
	}
	if model.TrainAccuracy < 0.95 {
		t.Errorf("TrainAccuracy = %g on separable data", model.TrainAccuracy)
	}

	// The fit must be usable end to end.
	high := make([]float64, len(Features))
	low := make([]float64, len(Features))
	for j, f := range Features {
		high[j], low[j] = f.Median, f.Median
	}
	high[7], low[7] = 180, 100

	if p, _ := model.Predict(high); p.Label != 1 {
		t.Errorf("high thalach predicted %d, want 1", p.Label)
	}
	if p, _ := model.Predict(low); p.Label != 0 {
		t.Errorf("low thalach predicted %d, want 0", p.Label)
	}
}

func TestTrainDeterministic(t *testing.T) {
	rows, labels := syntheticRows()

	a, err := Train(rows, labels, TrainOptions{Epochs: 50})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	b, err := Train(rows, labels, TrainOptions{Epochs: 50})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	for j := range a.Weights {
		if a.Weights[j] != b.Weights[j] {
			t.Fatalf("weights differ at %d: %g vs %g", j, a.Weights[j], b.Weights[j])
		}
	}
	if a.Bias != b.Bias {
		t.Errorf("bias differs: %g vs %g", a.Bias, b.Bias)
	}
}

func TestTrainImputesNaN(t *testing.T) {
	rows, labels := syntheticRows()
	rows[0][4] = math.NaN() // chol missing in one row

	model, err := Train(rows, labels, TrainOptions{Epochs: 50})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if math.IsNaN(model.Means[4]) || math.IsNaN(model.Medians[4]) {
		t.Errorf("NaN leaked into fitted parameters: mean=%g median=%g",
			model.Means[4], model.Medians[4])
	}
	// All other rows hold chol at the median, so that is what gets imputed.
	if model.Medians[4] != Features[4].Median {
		t.Errorf("Medians[4] = %g, want %g", model.Medians[4], Features[4].Median)
	}
}

func TestTrainInputValidation(t *testing.T) {
	if _, err := Train(nil, nil, TrainOptions{}); err == nil {
		t.Error("expected error for empty input")
	}

	rows, labels := syntheticRows()
	if _, err := Train(rows, labels[:10], TrainOptions{}); err == nil {
		t.Error("expected error for length mismatch")
	}

	rows[3] = rows[3][:4]
	if _, err := Train(rows, labels, TrainOptions{}); err == nil {
		t.Error("expected error for ragged rows")
	}
}
