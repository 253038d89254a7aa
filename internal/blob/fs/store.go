// Package fsblob implements domain.BlobReader over a local directory.
package fsblob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alanyoungcy/playervalue/internal/domain"
)

// Store reads objects from files under a root directory. Keys are slash
// separated paths relative to the root.
type Store struct {
	root string
}

// New creates a Store rooted at dir. The directory does not need to exist
// yet; lookups against a missing root report domain.ErrNotFound.
func New(dir string) *Store {
	return &Store{root: filepath.Clean(dir)}
}

func (s *Store) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("fsblob: key %q escapes root %s", key, s.root)
	}
	return filepath.Join(s.root, clean), nil
}

// Get opens the file at key. The caller closes the returned reader.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("fsblob: get %s: %w", p, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("fsblob: get %s: %w", p, err)
	}
	return f, nil
}

// Stat returns size and modification time of the file at key.
func (s *Store) Stat(ctx context.Context, key string) (domain.BlobInfo, error) {
	p, err := s.path(key)
	if err != nil {
		return domain.BlobInfo{}, err
	}
	fi, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.BlobInfo{}, fmt.Errorf("fsblob: stat %s: %w", p, domain.ErrNotFound)
		}
		return domain.BlobInfo{}, fmt.Errorf("fsblob: stat %s: %w", p, err)
	}
	if fi.IsDir() {
		return domain.BlobInfo{}, fmt.Errorf("fsblob: stat %s: is a directory: %w", p, domain.ErrNotFound)
	}
	return domain.BlobInfo{
		Path:         key,
		Size:         fi.Size(),
		LastModified: fi.ModTime(),
	}, nil
}

// Exists reports whether a regular file exists at key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Stat(ctx, key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// List returns the regular files directly under the root whose names start
// with prefix, sorted by name. A missing root yields domain.ErrNotFound.
func (s *Store) List(ctx context.Context, prefix string) ([]domain.BlobInfo, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("fsblob: list %s: %w", s.root, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("fsblob: list %s: %w", s.root, err)
	}

	var infos []domain.BlobInfo
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, domain.BlobInfo{
			Path:         e.Name(),
			Size:         fi.Size(),
			LastModified: fi.ModTime(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos, nil
}

// Location returns the filesystem path for key.
func (s *Store) Location(key string) string {
	if p, err := s.path(key); err == nil {
		return p
	}
	return filepath.Join(s.root, key)
}

// Root returns the root directory and whether it exists.
func (s *Store) Root(ctx context.Context) (string, bool) {
	fi, err := os.Stat(s.root)
	return s.root, err == nil && fi.IsDir()
}

// Compile-time interface check.
var _ domain.BlobReader = (*Store)(nil)
