package ui

import (
	"errors"
	"testing"

	"cardiod/internal/heart"
)

func TestFormFieldsCoverSchema(t *testing.T) {
	fields := FormFields()
	if len(fields) != len(heart.Features) {
		t.Fatalf("got %d fields, want %d", len(fields), len(heart.Features))
	}

	byName := make(map[string]FormField, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	cp, ok := byName["cp"]
	if !ok || !cp.Select || len(cp.Options) != 4 {
		t.Errorf("cp field = %+v", cp)
	}
	if cp.Options[1].Label != "Atypical Angina" {
		t.Errorf("cp option 1 = %+v", cp.Options[1])
	}

	age, ok := byName["age"]
	if !ok || age.Select {
		t.Errorf("age field = %+v", age)
	}
	if age.Min != 29 || age.Max != 77 || age.Step != "1" || age.DefaultText != "55" {
		t.Errorf("age bounds = %+v", age)
	}

	oldpeak := byName["oldpeak"]
	if oldpeak.Step != "0.1" || oldpeak.DefaultText != "0.8" {
		t.Errorf("oldpeak field = %+v", oldpeak)
	}
}

func TestRecordFromForm(t *testing.T) {
	rec, err := recordFromForm(validForm())
	if err != nil {
		t.Fatalf("recordFromForm: %v", err)
	}
	if rec.Age == nil || *rec.Age != 63 {
		t.Errorf("Age = %v", rec.Age)
	}
	if rec.Oldpeak == nil || *rec.Oldpeak != 2.3 {
		t.Errorf("Oldpeak = %v", rec.Oldpeak)
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("parsed record fails validation: %v", err)
	}
}

func TestRecordFromFormErrors(t *testing.T) {
	form := validForm()
	form.Del("chol")
	var fe *heart.FieldError
	if _, err := recordFromForm(form); !errors.As(err, &fe) || fe.Field != "chol" {
		t.Errorf("missing chol: %v", err)
	}

	form = validForm()
	form.Set("thalach", "fast")
	if _, err := recordFromForm(form); !errors.As(err, &fe) || fe.Field != "thalach" {
		t.Errorf("bad thalach: %v", err)
	}

	form = validForm()
	form.Set("oldpeak", "x")
	if _, err := recordFromForm(form); !errors.As(err, &fe) || fe.Field != "oldpeak" {
		t.Errorf("bad oldpeak: %v", err)
	}
}
