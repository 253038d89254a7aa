package model

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Linear(t *testing.T) {
	art, err := Decode(strings.NewReader(`{
		"format_version": 1, "kind": "linear", "position": "ST",
		"features": ["a", "b"], "intercept": 10, "coefficients": [2, -1]
	}`))
	require.NoError(t, err)
	assert.Equal(t, KindLinear, art.Kind())
	assert.Equal(t, "ST", art.Position())
	assert.Equal(t, []string{"a", "b"}, art.Features())

	v, err := art.Predict([]float64{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 12.0, v, 1e-12)

	_, err = art.Predict([]float64{1})
	assert.ErrorContains(t, err, "shape mismatch")
}

func TestDecode_Log1pTransform(t *testing.T) {
	art, err := Decode(strings.NewReader(`{
		"format_version": 1, "kind": "linear", "target_transform": "log1p",
		"features": ["a"], "intercept": 0, "coefficients": [1]
	}`))
	require.NoError(t, err)
	v, err := art.Predict([]float64{math.Log1p(1500000)})
	require.NoError(t, err)
	assert.InDelta(t, 1500000, v, 1e-4)
}

const treeDoc2 = `{
	"format_version": 1, "kind": "tree_ensemble", "features": ["a", "b"],
	"base_score": 100, "aggregation": %q,
	"trees": [
		{"nodes": [
			{"feature": 0, "threshold": 5, "left": 1, "right": 2},
			{"leaf": true, "value": 10},
			{"feature": 1, "threshold": 0, "left": 3, "right": 4},
			{"leaf": true, "value": 20},
			{"leaf": true, "value": 30}
		]},
		{"nodes": [{"leaf": true, "value": 2}]}
	]
}`

func decodeTrees(t *testing.T, agg string) Artifact {
	t.Helper()
	doc := strings.Replace(treeDoc2, "%q", `"`+agg+`"`, 1)
	art, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	return art
}

func TestDecode_TreeEnsemble(t *testing.T) {
	art := decodeTrees(t, "sum")
	assert.Equal(t, KindTreeEnsemble, art.Kind())

	tests := []struct {
		row  []float64
		want float64
	}{
		{[]float64{5, 9}, 100 + 10 + 2},
		{[]float64{6, 0}, 100 + 20 + 2},
		{[]float64{6, 0.5}, 100 + 30 + 2},
	}
	for _, tt := range tests {
		got, err := art.Predict(tt.row)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "row %v", tt.row)
	}

	mean := decodeTrees(t, "mean")
	got, err := mean.Predict([]float64{5, 9})
	require.NoError(t, err)
	assert.Equal(t, 100+(10+2)/2.0, got)
}

func TestDecode_Rejects(t *testing.T) {
	docs := map[string]string{
		"garbage":         `not json`,
		"unknown field":   `{"format_version": 1, "kind": "linear", "features": ["a"], "coefficients": [1], "pickle": true}`,
		"wrong version":   `{"format_version": 2, "kind": "linear", "features": ["a"], "coefficients": [1]}`,
		"unknown kind":    `{"format_version": 1, "kind": "svm", "features": ["a"]}`,
		"no features":     `{"format_version": 1, "kind": "linear", "features": [], "coefficients": []}`,
		"coef mismatch":   `{"format_version": 1, "kind": "linear", "features": ["a", "b"], "coefficients": [1]}`,
		"bad transform":   `{"format_version": 1, "kind": "linear", "features": ["a"], "coefficients": [1], "target_transform": "sqrt"}`,
		"no trees":        `{"format_version": 1, "kind": "tree_ensemble", "features": ["a"], "trees": []}`,
		"empty tree":      `{"format_version": 1, "kind": "tree_ensemble", "features": ["a"], "trees": [{"nodes": []}]}`,
		"bad feature":     `{"format_version": 1, "kind": "tree_ensemble", "features": ["a"], "trees": [{"nodes": [{"feature": 3, "left": 1, "right": 2}, {"leaf": true}, {"leaf": true}]}]}`,
		"cycle":           `{"format_version": 1, "kind": "tree_ensemble", "features": ["a"], "trees": [{"nodes": [{"feature": 0, "left": 0, "right": 1}, {"leaf": true}]}]}`,
		"child past end":  `{"format_version": 1, "kind": "tree_ensemble", "features": ["a"], "trees": [{"nodes": [{"feature": 0, "left": 1, "right": 5}, {"leaf": true}]}]}`,
		"bad aggregation": `{"format_version": 1, "kind": "tree_ensemble", "features": ["a"], "aggregation": "max", "trees": [{"nodes": [{"leaf": true}]}]}`,
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestPredict_NonFinite(t *testing.T) {
	art, err := Decode(strings.NewReader(`{
		"format_version": 1, "kind": "linear", "target_transform": "log1p",
		"features": ["a"], "intercept": 0, "coefficients": [1]
	}`))
	require.NoError(t, err)
	_, err = art.Predict([]float64{1e6})
	assert.ErrorContains(t, err, "non-finite")
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1250.12, Round2(1250.123))
	assert.Equal(t, 1250.13, Round2(1250.125))
	assert.Equal(t, -3.46, Round2(-3.455))
	assert.Equal(t, 7.0, Round2(7))
}

func TestArtifactKey(t *testing.T) {
	assert.Equal(t, "ST_model.json", ArtifactKey("ST", ""))
	assert.Equal(t, "CB_model.bin", ArtifactKey("CB", "bin"))
}
