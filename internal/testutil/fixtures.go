// Package testutil builds on-disk fixtures (label mappings, model artifacts,
// player bodies) shared by package tests.
package testutil

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/playervalue/internal/player"
)

// Logger returns a logger that discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// PlayerMap returns a complete, valid attribute map for position code.
func PlayerMap(code int) map[string]any {
	m := make(map[string]any, len(player.Schema))
	for i, f := range player.Schema {
		if f.Kind == player.KindFloat {
			m[f.Name] = 70.0 + float64(i%7)
		} else {
			m[f.Name] = 40 + i
		}
	}
	m[player.PositionField] = code
	m["age"] = 25
	return m
}

// PlayerBody marshals PlayerMap(code) with overrides applied and drop keys
// removed.
func PlayerBody(t *testing.T, code int, overrides map[string]any, drop ...string) []byte {
	t.Helper()
	m := PlayerMap(code)
	for k, v := range overrides {
		m[k] = v
	}
	for _, k := range drop {
		delete(m, k)
	}
	data, err := json.Marshal(m)
	require.NoError(t, err)
	return data
}

// LinearArtifact returns a linear artifact over the full schema whose
// prediction is intercept + ageWeight*age.
func LinearArtifact(t *testing.T, position string, intercept, ageWeight float64) []byte {
	t.Helper()
	coef := make([]float64, len(player.Schema))
	coef[player.Index("age")] = ageWeight
	doc := map[string]any{
		"format_version": 1,
		"kind":           "linear",
		"position":       position,
		"features":       player.FieldNames(),
		"intercept":      intercept,
		"coefficients":   coef,
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

// WriteFile writes data to dir/name and returns the full path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

// Layout is a temporary model directory and label file.
type Layout struct {
	ModelDir   string
	LabelsDir  string
	LabelsFile string
}

// NewLayout creates a model directory and writes labels.json containing
// mappingJSON. Artifacts for positions are written as linear models with
// intercept 1000.123 and age weight 10.
func NewLayout(t *testing.T, mappingJSON string, positions ...string) Layout {
	t.Helper()
	root := t.TempDir()
	l := Layout{
		ModelDir:  filepath.Join(root, "saved_models"),
		LabelsDir: filepath.Join(root, "api"),
	}
	require.NoError(t, os.MkdirAll(l.ModelDir, 0o755))
	l.LabelsFile = WriteFile(t, l.LabelsDir, "labels.json", []byte(mappingJSON))
	for _, pos := range positions {
		WriteFile(t, l.ModelDir, pos+"_model.json", LinearArtifact(t, pos, 1000.123, 10))
	}
	return l
}
