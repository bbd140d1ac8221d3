package heart

import (
	"fmt"
	"sort"
)

// Feature describes one clinical input: API validation bounds plus the
// dataset statistics that seed the UI form.
type Feature struct {
	Name        string
	Description string
	Min         float64
	Max         float64
	Integer     bool

	// Observed range and median in the training dataset.
	DatasetMin float64
	DatasetMax float64
	Median     float64
}

// Features is the model input schema, in training column order.
var Features = []Feature{
	{Name: "age", Description: "Age in years", Min: 1, Max: 120, Integer: true, DatasetMin: 29, DatasetMax: 77, Median: 55},
	{Name: "sex", Description: "Sex (0=female, 1=male)", Min: 0, Max: 1, Integer: true, DatasetMax: 1, Median: 1},
	{Name: "cp", Description: "Chest pain type (0-3)", Min: 0, Max: 3, Integer: true, DatasetMax: 3, Median: 1},
	{Name: "trestbps", Description: "Resting blood pressure (mm Hg)", Min: 50, Max: 250, Integer: true, DatasetMin: 94, DatasetMax: 200, Median: 130},
	{Name: "chol", Description: "Serum cholesterol (mg/dl)", Min: 100, Max: 600, Integer: true, DatasetMin: 126, DatasetMax: 564, Median: 240},
	{Name: "fbs", Description: "Fasting blood sugar > 120 mg/dl", Min: 0, Max: 1, Integer: true, DatasetMax: 1},
	{Name: "restecg", Description: "Resting ECG results (0-2)", Min: 0, Max: 2, Integer: true, DatasetMax: 2, Median: 1},
	{Name: "thalach", Description: "Maximum heart rate achieved", Min: 50, Max: 250, Integer: true, DatasetMin: 71, DatasetMax: 202, Median: 153},
	{Name: "exang", Description: "Exercise induced angina", Min: 0, Max: 1, Integer: true, DatasetMax: 1},
	{Name: "oldpeak", Description: "ST depression induced by exercise", Min: 0, Max: 10, DatasetMax: 6.2, Median: 0.8},
	{Name: "slope", Description: "Slope of peak exercise ST segment (0-2)", Min: 0, Max: 2, Integer: true, DatasetMax: 2, Median: 1},
	{Name: "ca", Description: "Number of major vessels colored by fluoroscopy (0-4)", Min: 0, Max: 4, Integer: true, DatasetMax: 4},
	{Name: "thal", Description: "Thalassemia (0-3)", Min: 0, Max: 3, Integer: true, DatasetMax: 3, Median: 2},
}

// FeatureNames returns the schema column names in training order.
func FeatureNames() []string {
	names := make([]string, len(Features))
	for i, f := range Features {
		names[i] = f.Name
	}
	return names
}

// FieldError reports one invalid or missing input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Vector converts one instance to the model's column order. Missing columns
// are reported collectively, sorted, matching the batch contract; non-numeric
// values fail on the offending field.
func Vector(instance map[string]any) ([]float64, error) {
	if missing := MissingColumns([]map[string]any{instance}); len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %v", missing)
	}

	vec := make([]float64, len(Features))
	for i, f := range Features {
		v, err := toFloat(instance[f.Name])
		if err != nil {
			return nil, &FieldError{Field: f.Name, Message: err.Error()}
		}
		vec[i] = v
	}
	return vec, nil
}

// MissingColumns returns the schema columns absent from every instance,
// sorted. Extra columns are ignored.
func MissingColumns(instances []map[string]any) []string {
	present := make(map[string]struct{})
	for _, inst := range instances {
		for k := range inst {
			present[k] = struct{}{}
		}
	}
	var missing []string
	for _, f := range Features {
		if _, ok := present[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	sort.Strings(missing)
	return missing
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("value %v is not numeric", v)
	}
}
