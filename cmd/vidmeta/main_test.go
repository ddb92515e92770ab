package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nomadcxx/vidmeta/internal/activity"
	"github.com/Nomadcxx/vidmeta/internal/consolidate"
	"github.com/Nomadcxx/vidmeta/internal/naming"
	"github.com/Nomadcxx/vidmeta/internal/paths"
	"github.com/Nomadcxx/vidmeta/internal/ui"
)

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(paths.HomeEnv, home)
	t.Setenv("VIDMETA_LOGGING_LEVEL", "error")
	ui.DisableColors()
	t.Cleanup(ui.EnableColors)
	return home
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseCmd_JSON(t *testing.T) {
	setupHome(t)
	out, err := run(t, "parse", "--json", "[ABC-123] My Title - Actor A, Actor B.mp4")
	require.NoError(t, err)

	var results []naming.ParsedFilename
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "ABC-123", results[0].Code)
	assert.Equal(t, []string{"Actor A", "Actor B"}, results[0].Actors)
}

func TestParseCmd_Text(t *testing.T) {
	setupHome(t)
	out, err := run(t, "parse", "[XYZ-1] Clip Name.mkv", ".mp4")
	require.NoError(t, err)
	assert.Contains(t, out, "XYZ-1")
	assert.Contains(t, out, "(nothing recognized)")
}

func TestConfigCmds(t *testing.T) {
	home := setupHome(t)

	out, err := run(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.toml"), strings.TrimSpace(out))

	_, err = run(t, "config", "init")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(home, "config.toml"))

	_, err = run(t, "config", "init")
	assert.Error(t, err)

	out, err = run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "[processing]")
}

func TestDatabaseAndActorCmds(t *testing.T) {
	home := setupHome(t)

	out, err := run(t, "db", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "catalog.db"), strings.TrimSpace(out))

	out, err = run(t, "db", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "schema v2")

	_, err = run(t, "db", "seed")
	require.NoError(t, err)

	out, err = run(t, "actor", "add", "Ann Lee")
	require.NoError(t, err)
	assert.Contains(t, out, `"Ann Lee" has id 3`)

	_, err = run(t, "actor", "alias", "3", "A. Lee")
	require.NoError(t, err)

	_, err = run(t, "actor", "alias", "1", "A. Lee")
	assert.ErrorContains(t, err, "already belongs")

	_, err = run(t, "actor", "alias", "x", "Y")
	assert.Error(t, err)

	out, err = run(t, "actor", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "A. Lee")
	assert.Contains(t, out, "Johnny D")
}

func TestProcessAndVideosCmds(t *testing.T) {
	setupHome(t)
	_, err := run(t, "db", "seed")
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"[ABC-123] Great Day - Johnny D.mp4", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	out, err := run(t, "process", "--no-ai", dir)
	require.NoError(t, err)

	var metas []consolidate.Metadata
	require.NoError(t, json.Unmarshal([]byte(out), &metas))
	require.Len(t, metas, 1)
	assert.Equal(t, "[ABC-123] Great Day - John Doe.mp4", metas[0].StandardizedFilename)

	out, err = run(t, "videos")
	require.NoError(t, err)
	assert.Contains(t, out, "ABC-123")

	out, err = run(t, "videos", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"code": "ABC-123"`)
}

func TestProcessCmd_DryRunSummary(t *testing.T) {
	setupHome(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("x"), 0644))

	out, err := run(t, "process", "--no-ai", "--dry-run", "--summary", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Processed:")

	out, err = run(t, "videos")
	require.NoError(t, err)
	assert.Contains(t, out, "No videos recorded")
}

func TestActivityCmd(t *testing.T) {
	setupHome(t)
	out, err := run(t, "activity")
	require.NoError(t, err)
	assert.Contains(t, out, "No activity recorded")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("x"), 0644))
	_, err = run(t, "process", "--no-ai", "--dry-run", "--summary", dir)
	require.NoError(t, err)

	out, err = run(t, "activity")
	require.NoError(t, err)
	assert.Contains(t, out, "clip.mp4")
	assert.Contains(t, out, "dry-run")

	out, err = run(t, "activity", "--json")
	require.NoError(t, err)
	var entries []activity.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, activity.MethodContentAnalysis, entries[0].Method)
	assert.True(t, entries[0].DryRun)
}

func TestAIStatusDisabled(t *testing.T) {
	setupHome(t)
	out, err := run(t, "ai", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "disabled")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "vidmeta dev\n", out)
}
