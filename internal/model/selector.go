package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/alanyoungcy/playervalue/internal/domain"
	"github.com/alanyoungcy/playervalue/internal/player"
)

// Cache holds decoded artifacts keyed by storage key. version identifies the
// stored object; a cached entry with a different version must be reloaded.
type Cache interface {
	Get(ctx context.Context, key, version string, load func(context.Context) (Artifact, error)) (Artifact, bool, error)
}

// Selection is an artifact chosen for a position.
type Selection struct {
	Position string
	Key      string
	Path     string
	Artifact Artifact
	Cached   bool
}

// Selector maps positions to artifacts in a blob store.
type Selector struct {
	store  domain.BlobReader
	ext    string
	cache  Cache
	logger *slog.Logger
}

// NewSelector creates a Selector. cache may be nil, in which case every call
// loads the artifact from storage.
func NewSelector(store domain.BlobReader, ext string, cache Cache, logger *slog.Logger) *Selector {
	if ext == "" {
		ext = DefaultExtension
	}
	return &Selector{
		store:  store,
		ext:    strings.TrimPrefix(ext, "."),
		cache:  cache,
		logger: logger.With(slog.String("component", "model_selector")),
	}
}

// Extension returns the artifact file extension.
func (s *Selector) Extension() string { return s.ext }

func (s *Selector) suffix() string { return "_model." + s.ext }

// Select locates, loads and decodes the artifact for position.
func (s *Selector) Select(ctx context.Context, position string) (Selection, error) {
	key := ArtifactKey(position, s.ext)
	path := s.store.Location(key)

	s.logger.DebugContext(ctx, "looking for model", slog.String("path", path))

	info, err := s.store.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			available, _ := s.Available(ctx)
			return Selection{}, &domain.Error{
				Kind:            domain.KindModelNotFound,
				Message:         fmt.Sprintf("Model for position '%s' not found at %s. Available models: %s", position, path, formatList(available)),
				Path:            path,
				AvailableModels: available,
			}
		}
		return Selection{}, domain.ConfigError(fmt.Sprintf("model storage is unreadable at %s", path), err)
	}

	load := func(ctx context.Context) (Artifact, error) {
		return s.load(ctx, key)
	}

	var (
		art    Artifact
		cached bool
	)
	if s.cache != nil {
		art, cached, err = s.cache.Get(ctx, key, info.Version(), load)
	} else {
		art, err = load(ctx)
	}
	if err != nil {
		if de, ok := domain.AsError(err); ok {
			// Cached loads hand one error to every waiting caller.
			cp := *de
			return Selection{}, &cp
		}
		return Selection{}, domain.InferenceError(fmt.Sprintf("failed to load model artifact %s", path), err)
	}

	return Selection{
		Position: position,
		Key:      key,
		Path:     path,
		Artifact: art,
		Cached:   cached,
	}, nil
}

func (s *Selector) load(ctx context.Context, key string) (Artifact, error) {
	rc, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Removed between Stat and Get.
			return nil, &domain.Error{
				Kind:    domain.KindModelNotFound,
				Message: fmt.Sprintf("Model artifact disappeared from %s", s.store.Location(key)),
				Path:    s.store.Location(key),
			}
		}
		return nil, domain.ConfigError(fmt.Sprintf("model artifact %s is unreadable", s.store.Location(key)), err)
	}
	defer rc.Close()
	return Decode(rc)
}

// Predict runs art on rec. The artifact must declare exactly the schema
// columns in schema order. The result is rounded to two decimals.
func Predict(art Artifact, rec player.Record) (float64, error) {
	if want, got := player.FieldNames(), art.Features(); !slices.Equal(want, got) {
		return 0, domain.InferenceError("model input shape mismatch", featureMismatch(want, got))
	}
	v, err := art.Predict(rec.Row())
	if err != nil {
		return 0, domain.InferenceError("model evaluation failed", err)
	}
	return Round2(v), nil
}

func featureMismatch(want, got []string) error {
	if len(want) != len(got) {
		return fmt.Errorf("model expects %d features, record has %d", len(got), len(want))
	}
	for i := range want {
		if want[i] != got[i] {
			return fmt.Errorf("column %d is %q in the model but %q in the record", i, got[i], want[i])
		}
	}
	return nil
}

// Available returns the positions that have an artifact in the store, sorted.
func (s *Selector) Available(ctx context.Context) ([]string, error) {
	infos, err := s.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, info := range infos {
		name := baseName(info.Path)
		if pos, ok := strings.CutSuffix(name, s.suffix()); ok && pos != "" {
			out = append(out, pos)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Files returns the names of every object carrying the artifact extension.
func (s *Selector) Files(ctx context.Context) ([]string, error) {
	infos, err := s.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, info := range infos {
		name := baseName(info.Path)
		if strings.HasSuffix(name, "."+s.ext) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Root reports the model store location and whether it is reachable.
func (s *Selector) Root(ctx context.Context) (string, bool) {
	return s.store.Root(ctx)
}

// Check is the outcome of verifying one artifact.
type Check struct {
	Position string `json:"position"`
	Path     string `json:"path"`
	Kind     string `json:"kind,omitempty"`
	Error    string `json:"error,omitempty"`
}

// OK reports whether the artifact passed.
func (c Check) OK() bool { return c.Error == "" }

// Verify decodes every available artifact and compares its feature list with
// the record schema so that drift surfaces at startup instead of at request
// time.
func (s *Selector) Verify(ctx context.Context) ([]Check, error) {
	positions, err := s.Available(ctx)
	if err != nil {
		return nil, err
	}
	want := player.FieldNames()
	checks := make([]Check, 0, len(positions))
	for _, pos := range positions {
		key := ArtifactKey(pos, s.ext)
		c := Check{Position: pos, Path: s.store.Location(key)}
		art, err := s.load(ctx, key)
		switch {
		case err != nil:
			c.Error = err.Error()
		case !slices.Equal(want, art.Features()):
			c.Kind = art.Kind()
			c.Error = featureMismatch(want, art.Features()).Error()
		case art.Position() != "" && art.Position() != pos:
			c.Kind = art.Kind()
			c.Error = fmt.Sprintf("artifact was trained for position %q", art.Position())
		default:
			c.Kind = art.Kind()
		}
		checks = append(checks, c)
	}
	return checks, nil
}

func baseName(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

func formatList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = "'" + it + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
