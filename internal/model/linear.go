package model

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Linear is an ordinary least squares style model: intercept + w·x.
type Linear struct {
	header
	intercept float64
	weights   []float64
}

func newLinear(h header, intercept float64, coef []float64) (*Linear, error) {
	if len(coef) != len(h.features) {
		return nil, fmt.Errorf("model: linear artifact has %d coefficients for %d features", len(coef), len(h.features))
	}
	w := make([]float64, len(coef))
	copy(w, coef)
	return &Linear{header: h, intercept: intercept, weights: w}, nil
}

func (m *Linear) Kind() string { return KindLinear }

func (m *Linear) Predict(row []float64) (float64, error) {
	if err := m.checkRow(row); err != nil {
		return 0, err
	}
	return m.finish(m.intercept + floats.Dot(m.weights, row))
}
