package heart

import "fmt"

// Record is one validated patient, the /predict/single request body. Pointer
// fields distinguish absent from zero.
type Record struct {
	Age      *int     `json:"age"`
	Sex      *int     `json:"sex"`
	Cp       *int     `json:"cp"`
	Trestbps *int     `json:"trestbps"`
	Chol     *int     `json:"chol"`
	Fbs      *int     `json:"fbs"`
	Restecg  *int     `json:"restecg"`
	Thalach  *int     `json:"thalach"`
	Exang    *int     `json:"exang"`
	Oldpeak  *float64 `json:"oldpeak"`
	Slope    *int     `json:"slope"`
	Ca       *int     `json:"ca"`
	Thal     *int     `json:"thal"`
}

// Validate checks presence and the clinical domain range of every field,
// returning a FieldError naming the first offender.
func (r Record) Validate() error {
	for i, v := range r.values() {
		f := Features[i]
		if v == nil {
			return &FieldError{Field: f.Name, Message: "field is required"}
		}
		if *v < f.Min || *v > f.Max {
			return &FieldError{
				Field:   f.Name,
				Message: fmt.Sprintf("value %g out of range [%g, %g]", *v, f.Min, f.Max),
			}
		}
	}
	return nil
}

// Vector returns the record in training column order. Call Validate first;
// missing fields come back as an error here too.
func (r Record) Vector() ([]float64, error) {
	vec := make([]float64, len(Features))
	for i, v := range r.values() {
		if v == nil {
			return nil, &FieldError{Field: Features[i].Name, Message: "field is required"}
		}
		vec[i] = *v
	}
	return vec, nil
}

func (r Record) values() []*float64 {
	intp := func(p *int) *float64 {
		if p == nil {
			return nil
		}
		v := float64(*p)
		return &v
	}
	return []*float64{
		intp(r.Age), intp(r.Sex), intp(r.Cp), intp(r.Trestbps), intp(r.Chol),
		intp(r.Fbs), intp(r.Restecg), intp(r.Thalach), intp(r.Exang),
		r.Oldpeak, intp(r.Slope), intp(r.Ca), intp(r.Thal),
	}
}
