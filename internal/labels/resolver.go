package labels

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alanyoungcy/playervalue/internal/domain"
)

// Resolver loads the label mapping from storage on every call and resolves
// codes against it. It holds no mutable state.
type Resolver struct {
	store  domain.BlobReader
	key    string
	format Format
	logger *slog.Logger
}

// NewResolver creates a Resolver reading the mapping at key from store.
func NewResolver(store domain.BlobReader, key string, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:  store,
		key:    key,
		format: FormatFor(key),
		logger: logger.With(slog.String("component", "labels")),
	}
}

// Location returns the operator-facing path of the mapping file.
func (r *Resolver) Location() string {
	return r.store.Location(r.key)
}

// Exists reports whether the mapping file is present.
func (r *Resolver) Exists(ctx context.Context) (bool, error) {
	return r.store.Exists(ctx, r.key)
}

// Load reads and parses the mapping file.
func (r *Resolver) Load(ctx context.Context) (Mapping, error) {
	rc, err := r.store.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Mapping{}, domain.ConfigError(fmt.Sprintf("labels file not found at %s", r.Location()), err)
		}
		return Mapping{}, domain.ConfigError(fmt.Sprintf("labels file at %s is unreadable", r.Location()), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return Mapping{}, domain.ConfigError(fmt.Sprintf("labels file at %s is unreadable", r.Location()), err)
	}
	return Parse(data, r.format)
}

// Resolve maps code to its position string.
func (r *Resolver) Resolve(ctx context.Context, code int) (string, error) {
	m, err := r.Load(ctx)
	if err != nil {
		return "", err
	}
	rev, err := m.Reverse()
	if err != nil {
		r.logger.ErrorContext(ctx, "label mapping failed integrity check",
			slog.String("path", r.Location()),
			slog.String("error", err.Error()),
		)
		return "", err
	}

	pos, ok := rev[code]
	if !ok {
		c := code
		valid := m.Codes()
		return "", &domain.Error{
			Kind:       domain.KindUnknownPositionCode,
			Message:    fmt.Sprintf("Invalid player_positions code: %d. Valid codes: %s", code, formatCodes(valid)),
			Code:       &c,
			ValidCodes: valid,
		}
	}
	return pos, nil
}

func formatCodes(codes []int) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(c)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
