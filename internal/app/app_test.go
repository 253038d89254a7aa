package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/playervalue/internal/config"
	"github.com/alanyoungcy/playervalue/internal/domain"
	"github.com/alanyoungcy/playervalue/internal/testutil"
)

func testConfig(t *testing.T, layout testutil.Layout) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Models.Dir = layout.ModelDir
	cfg.Labels.Path = layout.LabelsFile
	require.NoError(t, cfg.Validate())
	return &cfg
}

func TestApp_Predict(t *testing.T) {
	layout := testutil.NewLayout(t, `{"player_positions": {"ST": 14, "CB": 1}}`, "ST")
	a := New(testConfig(t, layout), testutil.Logger())
	defer a.Close()

	pred, err := a.Predict(context.Background(), testutil.PlayerBody(t, 14, nil))
	require.NoError(t, err)
	assert.Equal(t, 1250.12, pred.ValueEUR)
	assert.Equal(t, filepath.Join(layout.ModelDir, "ST_model.json"), pred.ModelPath)

	_, err = a.Predict(context.Background(), testutil.PlayerBody(t, 1, nil))
	assert.True(t, domain.IsKind(err, domain.KindModelNotFound))
}

func TestApp_PredictWithCache(t *testing.T) {
	layout := testutil.NewLayout(t, `{"player_positions": {"ST": 14}}`, "ST")
	cfg := testConfig(t, layout)
	cfg.Cache.Enabled = true
	a := New(cfg, testutil.Logger())
	defer a.Close()

	for i := 0; i < 3; i++ {
		_, err := a.Predict(context.Background(), testutil.PlayerBody(t, 14, nil))
		require.NoError(t, err)
	}
	require.NotNil(t, a.deps.ModelCache)
	assert.Equal(t, 1, a.deps.ModelCache.Len())
}

func TestApp_Models(t *testing.T) {
	layout := testutil.NewLayout(t, `{"player_positions": {"ST": 14}}`, "ST")
	testutil.WriteFile(t, layout.ModelDir, "CB_model.json", []byte(`{"format_version": 1}`))
	a := New(testConfig(t, layout), testutil.Logger())
	defer a.Close()

	r, err := a.Models(context.Background())
	require.NoError(t, err)
	assert.True(t, r.ModelDirectoryExists)
	assert.Equal(t, []string{"CB_model.json", "ST_model.json"}, r.AvailableModels)
	require.Len(t, r.Checks, 2)
	assert.Equal(t, "CB", r.Checks[0].Position)
	assert.False(t, r.Checks[0].OK())
	assert.True(t, r.Checks[1].OK())
}

func TestSplitLabelPath(t *testing.T) {
	dir, key := splitLabelPath("s3", "/config/labels.yaml")
	assert.Equal(t, "config", dir)
	assert.Equal(t, "labels.yaml", key)

	dir, key = splitLabelPath("s3", "labels.json")
	assert.Equal(t, "", dir)
	assert.Equal(t, "labels.json", key)

	dir, key = splitLabelPath("fs", filepath.Join("api", "labels.json"))
	assert.Equal(t, "api", dir)
	assert.Equal(t, "labels.json", key)
}
