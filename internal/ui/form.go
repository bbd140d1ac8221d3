package ui

import (
	"fmt"
	"net/url"
	"strconv"

	"cardiod/internal/heart"
)

// FormOption is one choice of a categorical input.
type FormOption struct {
	Value int
	Label string
}

// FormField drives the patient form template: categorical features render as
// selects with their clinical labels, numeric ones as bounded inputs seeded
// with the dataset median.
type FormField struct {
	Name        string
	Label       string
	Help        string
	Select      bool
	Options     []FormOption
	Min         float64
	Max         float64
	Step        string
	Default     float64
	DefaultText string
}

var categoricalLabels = map[string][]string{
	"sex":     {"Female", "Male"},
	"cp":      {"Typical Angina", "Atypical Angina", "Non-anginal Pain", "Asymptomatic"},
	"fbs":     {"No", "Yes"},
	"restecg": {"Normal", "ST-T Wave Abnormality", "Left Ventricular Hypertrophy"},
	"exang":   {"No", "Yes"},
	"slope":   {"Upsloping", "Flat", "Downsloping"},
	"ca":      {"0", "1", "2", "3", "4"},
	"thal":    {"Normal", "Fixed Defect", "Reversible Defect", "Unknown"},
}

var fieldTitles = map[string]string{
	"age":      "Age (years)",
	"sex":      "Sex",
	"cp":       "Chest Pain Type",
	"trestbps": "Resting Blood Pressure (mm Hg)",
	"chol":     "Serum Cholesterol (mg/dl)",
	"fbs":      "Fasting Blood Sugar > 120 mg/dl",
	"restecg":  "Resting ECG Results",
	"thalach":  "Maximum Heart Rate",
	"exang":    "Exercise Induced Angina",
	"oldpeak":  "ST Depression (oldpeak)",
	"slope":    "Slope of Peak Exercise ST",
	"ca":       "Major Vessels Colored by Fluoroscopy",
	"thal":     "Thalassemia",
}

// FormFields builds the form metadata from the model schema.
func FormFields() []FormField {
	fields := make([]FormField, 0, len(heart.Features))
	for _, f := range heart.Features {
		field := FormField{
			Name:    f.Name,
			Label:   fieldTitles[f.Name],
			Help:    f.Description,
			Default: f.Median,
		}
		if labels, ok := categoricalLabels[f.Name]; ok {
			field.Select = true
			for v, label := range labels {
				field.Options = append(field.Options, FormOption{Value: v, Label: label})
			}
			fields = append(fields, field)
			continue
		}

		field.Min = f.DatasetMin
		field.Max = f.DatasetMax
		if f.Integer {
			field.Step = "1"
			field.DefaultText = strconv.Itoa(int(f.Median))
		} else {
			field.Step = "0.1"
			field.DefaultText = strconv.FormatFloat(f.Median, 'f', 1, 64)
		}
		fields = append(fields, field)
	}
	return fields
}

// recordFromForm parses the submitted values. A parse failure names the
// offending field so the page can point at it.
func recordFromForm(form url.Values) (heart.Record, error) {
	var rec heart.Record

	intField := func(name string, dst **int) error {
		raw := form.Get(name)
		if raw == "" {
			return &heart.FieldError{Field: name, Message: "field is required"}
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return &heart.FieldError{Field: name, Message: fmt.Sprintf("%q is not a whole number", raw)}
		}
		*dst = &v
		return nil
	}

	for _, bind := range []struct {
		name string
		dst  **int
	}{
		{"age", &rec.Age}, {"sex", &rec.Sex}, {"cp", &rec.Cp},
		{"trestbps", &rec.Trestbps}, {"chol", &rec.Chol}, {"fbs", &rec.Fbs},
		{"restecg", &rec.Restecg}, {"thalach", &rec.Thalach}, {"exang", &rec.Exang},
		{"slope", &rec.Slope}, {"ca", &rec.Ca}, {"thal", &rec.Thal},
	} {
		if err := intField(bind.name, bind.dst); err != nil {
			return rec, err
		}
	}

	raw := form.Get("oldpeak")
	if raw == "" {
		return rec, &heart.FieldError{Field: "oldpeak", Message: "field is required"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return rec, &heart.FieldError{Field: "oldpeak", Message: fmt.Sprintf("%q is not a number", raw)}
	}
	rec.Oldpeak = &v

	return rec, nil
}
