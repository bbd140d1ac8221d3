package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"cardiod/internal/heart"
)

// TrainingSet is the labeled feature matrix loaded for training, columns in
// heart.Features order.
type TrainingSet struct {
	Rows   [][]float64
	Labels []int
}

// PatientStore reads the curated training view.
type PatientStore struct {
	db *sql.DB
}

func NewPatientStore(db *sql.DB) *PatientStore {
	return &PatientStore{db: db}
}

// LoadTrainingSet pulls every row of patient_ml_data. NULL feature values
// come back as NaN for the imputation step; NULL targets are rejected.
func (s *PatientStore) LoadTrainingSet(ctx context.Context) (*TrainingSet, error) {
	names := heart.FeatureNames()
	query := fmt.Sprintf("SELECT %s, target FROM patient_ml_data", strings.Join(names, ", "))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query patient_ml_data: %w", err)
	}
	defer rows.Close()

	set := &TrainingSet{}
	for rows.Next() {
		cols := make([]sql.NullFloat64, len(names))
		dest := make([]any, 0, len(names)+1)
		for i := range cols {
			dest = append(dest, &cols[i])
		}
		var target sql.NullInt64
		dest = append(dest, &target)

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan patient row: %w", err)
		}
		if !target.Valid {
			return nil, fmt.Errorf("row %d has NULL target", len(set.Rows))
		}

		vec := make([]float64, len(cols))
		for i, c := range cols {
			if c.Valid {
				vec[i] = c.Float64
			} else {
				vec[i] = math.NaN()
			}
		}
		set.Rows = append(set.Rows, vec)
		set.Labels = append(set.Labels, int(target.Int64))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patient rows: %w", err)
	}
	if len(set.Rows) == 0 {
		return nil, fmt.Errorf("patient_ml_data is empty")
	}
	return set, nil
}

// Count reports the number of patients, used by readiness checks.
func (s *PatientStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM patient_ml_data").Scan(&n); err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return n, nil
}

// ReadTrainingCSV parses a CSV export with a header row containing the 13
// feature columns plus target, for training without a database. Empty cells
// become NaN.
func ReadTrainingCSV(r io.Reader) (*TrainingSet, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}
	names := heart.FeatureNames()
	for _, name := range names {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("csv missing column %q", name)
		}
	}
	targetIdx, ok := index["target"]
	if !ok {
		return nil, fmt.Errorf("csv missing column %q", "target")
	}

	set := &TrainingSet{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		vec := make([]float64, len(names))
		for i, name := range names {
			cell := strings.TrimSpace(record[index[name]])
			if cell == "" || cell == "?" {
				vec[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("csv line %d column %s: %w", line, name, err)
			}
			vec[i] = v
		}
		label, err := strconv.Atoi(strings.TrimSpace(record[targetIdx]))
		if err != nil {
			return nil, fmt.Errorf("csv line %d target: %w", line, err)
		}
		set.Rows = append(set.Rows, vec)
		set.Labels = append(set.Labels, label)
	}
	if len(set.Rows) == 0 {
		return nil, fmt.Errorf("csv has no data rows")
	}
	return set, nil
}
