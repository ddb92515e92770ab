package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nomadcxx/vidmeta/internal/config"
	"github.com/Nomadcxx/vidmeta/internal/database"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "catalog.db")
	return cfg
}

func TestInitAI_DisabledReturnsNil(t *testing.T) {
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	client, err := InitAI(testConfig(t), db, nil)
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestInitAI_EnabledCreatesClient(t *testing.T) {
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	cfg := testConfig(t)
	cfg.AI.Enabled = true

	client, err := InitAI(cfg, db, nil)
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, "llama3", client.GetConfig().Model)
}

func TestInitWebSearch(t *testing.T) {
	cfg := testConfig(t)
	assert.Nil(t, InitWebSearch(cfg))

	cfg.WebSearch.Enabled = true
	assert.NotNil(t, InitWebSearch(cfg))
}

func TestOpen_ProcessesWithoutAI(t *testing.T) {
	cfg := testConfig(t)
	cfg.AI.Enabled = true

	a, err := Open(cfg, nil, Options{DisableAI: true})
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.AI)
	assert.FileExists(t, cfg.Database.Path)

	path := filepath.Join(t.TempDir(), "[ABC-1] Some Title.mp4")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	res, err := a.Processor.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Positive(t, res.VideoID)

	rec, err := a.DB.GetVideoByPath(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "ABC-1", rec.Code)

	require.NotNil(t, a.Activity)
	assert.Equal(t, filepath.Join(filepath.Dir(cfg.Database.Path), "activity"), a.Activity.GetLogDir())
	entries, err := a.Activity.GetRecentEntries(5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.RunID, entries[0].RunID)
	assert.True(t, entries[0].Success)
}

func TestInitActivity_Disabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Activity.Enabled = false
	trail, err := InitActivity(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, trail)
}

func TestOpen_DryRun(t *testing.T) {
	cfg := testConfig(t)
	a, err := Open(cfg, nil, Options{DryRun: true})
	require.NoError(t, err)
	defer a.Close()

	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	res, err := a.Processor.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Zero(t, res.VideoID)
}
