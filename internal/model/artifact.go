// Package model decodes position-specific regression artifacts, selects the
// artifact for a resolved position and runs inference on a validated record.
//
// Artifacts are JSON documents produced by the offline training job:
//
//	{
//	  "format_version": 1,
//	  "kind": "linear" | "tree_ensemble",
//	  "position": "ST",
//	  "features": ["player_positions", "age", ...],
//	  "target_transform": "none" | "log1p",
//	  "intercept": 0, "coefficients": [...],               // linear
//	  "base_score": 0, "aggregation": "sum" | "mean",      // tree_ensemble
//	  "trees": [{"nodes": [{"feature": 3, "threshold": 70.5, "left": 1, "right": 2}, {"leaf": true, "value": 1.5}, ...]}]
//	}
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// FormatVersion is the only artifact layout this build understands.
const FormatVersion = 1

const (
	KindLinear       = "linear"
	KindTreeEnsemble = "tree_ensemble"
)

const (
	TransformNone  = "none"
	TransformLog1p = "log1p"
)

// DefaultExtension is the artifact file extension when none is configured.
const DefaultExtension = "json"

// Artifact is a decoded regression model.
type Artifact interface {
	// Kind names the model family.
	Kind() string
	// Position is the position the artifact was trained for, if recorded.
	Position() string
	// Features lists the input columns in the order Predict expects.
	Features() []string
	// Predict evaluates one row and returns the estimate in EUR.
	Predict(row []float64) (float64, error)
}

// ArtifactKey returns the storage key of the artifact for position.
func ArtifactKey(position, ext string) string {
	if ext == "" {
		ext = DefaultExtension
	}
	return position + "_model." + ext
}

type document struct {
	FormatVersion   int       `json:"format_version"`
	Kind            string    `json:"kind"`
	Position        string    `json:"position"`
	Features        []string  `json:"features"`
	TargetTransform string    `json:"target_transform"`
	Intercept       float64   `json:"intercept"`
	Coefficients    []float64 `json:"coefficients"`
	BaseScore       float64   `json:"base_score"`
	Aggregation     string    `json:"aggregation"`
	Trees           []treeDoc `json:"trees"`
}

type treeDoc struct {
	Nodes []nodeDoc `json:"nodes"`
}

type nodeDoc struct {
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value"`
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
}

// header holds what every artifact kind shares.
type header struct {
	position  string
	features  []string
	transform string
}

func (h header) Position() string { return h.position }

func (h header) Features() []string {
	out := make([]string, len(h.features))
	copy(out, h.features)
	return out
}

func (h header) checkRow(row []float64) error {
	if len(row) != len(h.features) {
		return fmt.Errorf("shape mismatch: model expects %d features, got %d", len(h.features), len(row))
	}
	return nil
}

func (h header) finish(raw float64) (float64, error) {
	if h.transform == TransformLog1p {
		raw = math.Expm1(raw)
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, errors.New("model produced a non-finite value")
	}
	return raw, nil
}

// Decode reads one artifact document from r.
func Decode(r io.Reader) (Artifact, error) {
	var doc document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("model: decode artifact: %w", err)
	}

	if doc.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("model: unsupported format_version %d (want %d)", doc.FormatVersion, FormatVersion)
	}
	if len(doc.Features) == 0 {
		return nil, errors.New("model: artifact declares no features")
	}
	switch doc.TargetTransform {
	case "", TransformNone:
		doc.TargetTransform = TransformNone
	case TransformLog1p:
	default:
		return nil, fmt.Errorf("model: unsupported target_transform %q", doc.TargetTransform)
	}

	h := header{
		position:  doc.Position,
		features:  doc.Features,
		transform: doc.TargetTransform,
	}

	switch doc.Kind {
	case KindLinear:
		return newLinear(h, doc.Intercept, doc.Coefficients)
	case KindTreeEnsemble:
		return newTreeEnsemble(h, doc.BaseScore, doc.Aggregation, doc.Trees)
	default:
		return nil, fmt.Errorf("model: unsupported kind %q", doc.Kind)
	}
}
