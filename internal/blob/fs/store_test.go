package fsblob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/playervalue/internal/domain"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ST_model.json"), []byte("st"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CB_model.json"), []byte("cb"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	s := New(dir)

	rc, err := s.Get(ctx, "ST_model.json")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "st", string(data))

	_, err = s.Get(ctx, "GK_model.json")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ok, err := s.Exists(ctx, "CB_model.json")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Exists(ctx, "sub")
	require.NoError(t, err)
	assert.False(t, ok)

	info, err := s.Stat(ctx, "CB_model.json")
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.Size)
	assert.NotEmpty(t, info.Version())

	list, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "CB_model.json", list[0].Path)
	assert.Equal(t, "ST_model.json", list[1].Path)

	assert.Equal(t, filepath.Join(dir, "ST_model.json"), s.Location("ST_model.json"))
	root, exists := s.Root(ctx)
	assert.Equal(t, filepath.Clean(dir), root)
	assert.True(t, exists)
}

func TestStore_RejectsEscapingKeys(t *testing.T) {
	s := New(t.TempDir())
	for _, key := range []string{"../etc/passwd", "/abs", "..", "."} {
		_, err := s.Get(context.Background(), key)
		require.Error(t, err, key)
		assert.NotErrorIs(t, err, domain.ErrNotFound, key)
	}
}

func TestStore_MissingRoot(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing"))
	_, err := s.List(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, exists := s.Root(context.Background())
	assert.False(t, exists)
}
