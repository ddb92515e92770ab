package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) *CatalogDB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := OpenPath(dbPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func TestOpenPath_Migrates(t *testing.T) {
	db := setupTestDB(t)

	v, err := db.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, v)

	for _, table := range []string{"videos", "actors", "actor_aliases", "video_actors", "ai_insight_cache"} {
		var name string
		err := db.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestOpenPath_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")

	db, err := OpenPath(path)
	require.NoError(t, err)
	id, err := db.AddActor(ctx, "John Doe")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenPath(path)
	require.NoError(t, err)
	defer db.Close()

	name, found, err := db.LookupNameByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "John Doe", name)
}

func TestOpenInMemory(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, ":memory:", db.Path())
	_, err = db.AddActor(context.Background(), "Jane Smith")
	assert.NoError(t, err)
}

func TestAddActor(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	id1, err := db.AddActor(ctx, "John Doe")
	require.NoError(t, err)
	assert.Positive(t, id1)

	id2, err := db.AddActor(ctx, "  John Doe ")
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "existing name returns existing id")

	_, err = db.AddActor(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestAddAlias(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	john, err := db.AddActor(ctx, "John Doe")
	require.NoError(t, err)
	jane, err := db.AddActor(ctx, "Jane Smith")
	require.NoError(t, err)

	require.NoError(t, db.AddAlias(ctx, john, "Johnny D"))
	assert.NoError(t, db.AddAlias(ctx, john, "Johnny D"), "re-adding for the same actor is a no-op")
	assert.ErrorIs(t, db.AddAlias(ctx, jane, "Johnny D"), ErrAliasTaken)
	assert.ErrorIs(t, db.AddAlias(ctx, 9999, "Nobody"), ErrActorNotFound)
	assert.ErrorIs(t, db.AddAlias(ctx, john, ""), ErrEmptyName)

	aliases, err := db.AliasesForActor(ctx, john)
	require.NoError(t, err)
	assert.Equal(t, []string{"Johnny D"}, aliases)
}

func TestLookupNameOrAlias(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	require.NoError(t, db.SeedSampleData(ctx))

	tests := []struct {
		name          string
		input         string
		wantFound     bool
		wantCanonical string
	}{
		{"canonical name", "John Doe", true, "John Doe"},
		{"alias", "Johnny D", true, "John Doe"},
		{"second alias", "J. Doe", true, "John Doe"},
		{"other actor alias", "J. Smith", true, "Jane Smith"},
		{"unknown", "Nobody Here", false, ""},
		{"case differs", "john doe", false, ""},
		{"blank", "  ", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, canonical, found, err := db.LookupNameOrAlias(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantCanonical, canonical)
			if found {
				assert.Positive(t, id)
			}
		})
	}
}

func TestLookupNameOrAlias_NamePrecedesAlias(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	first, err := db.AddActor(ctx, "Sam")
	require.NoError(t, err)
	second, err := db.AddActor(ctx, "Samantha Lee")
	require.NoError(t, err)
	require.NoError(t, db.AddAlias(ctx, second, "Sam"))

	id, canonical, found, err := db.LookupNameOrAlias(ctx, "Sam")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, first, id)
	assert.Equal(t, "Sam", canonical)
}

func TestLookupNameByID_Missing(t *testing.T) {
	db := setupTestDB(t)
	name, found, err := db.LookupNameByID(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, name)
}

func TestListActorsWithAliases(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	require.NoError(t, db.SeedSampleData(ctx))
	require.NoError(t, db.SeedSampleData(ctx), "seeding twice is harmless")
	_, err := db.AddActor(ctx, "alice Alone")
	require.NoError(t, err)

	actors, err := db.ListActorsWithAliases(ctx)
	require.NoError(t, err)
	require.Len(t, actors, 3)

	assert.Equal(t, "alice Alone", actors[0].Name)
	assert.Empty(t, actors[0].Aliases)
	assert.Equal(t, "Jane Smith", actors[1].Name)
	assert.Equal(t, []string{"J. Smith"}, actors[1].Aliases)
	assert.Equal(t, "John Doe", actors[2].Name)
	assert.Equal(t, []string{"Johnny D", "J. Doe"}, actors[2].Aliases)
}

func TestUpsertVideo(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	require.NoError(t, db.SeedSampleData(ctx))

	john, _, _, err := db.LookupNameOrAlias(ctx, "John Doe")
	require.NoError(t, err)
	jane, _, _, err := db.LookupNameOrAlias(ctx, "Jane Smith")
	require.NoError(t, err)

	rec := VideoRecord{
		Filepath:             "/videos/[ABC-123] Title.mp4",
		Code:                 "ABC-123",
		Title:                "Title",
		StandardizedFilename: "[ABC-123] Title - John Doe.mp4",
		ActorIDs:             []int64{john},
	}
	id, err := db.UpsertVideo(ctx, rec)
	require.NoError(t, err)

	got, err := db.GetVideoByPath(ctx, rec.Filepath)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "ABC-123", got.Code)
	assert.Empty(t, got.Publisher)
	assert.Nil(t, got.DurationSeconds)
	assert.Equal(t, []int64{john}, got.ActorIDs)

	rec.Publisher = "Studio X"
	rec.ActorIDs = []int64{jane}
	id2, err := db.UpsertVideo(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, id, id2, "same filepath updates in place")

	got, err = db.GetVideoByPath(ctx, rec.Filepath)
	require.NoError(t, err)
	assert.Equal(t, "Studio X", got.Publisher)
	assert.Equal(t, []int64{jane}, got.ActorIDs, "actor links are replaced")
}

func TestUpsertVideo_UnknownActorRollsBack(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	_, err := db.UpsertVideo(ctx, VideoRecord{Filepath: "/v/a.mp4", Title: "A", ActorIDs: []int64{77}})
	assert.Error(t, err)

	got, err := db.GetVideoByPath(ctx, "/v/a.mp4")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpsertVideo_EmptyPath(t *testing.T) {
	_, err := setupTestDB(t).UpsertVideo(context.Background(), VideoRecord{})
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestListVideos(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	for _, p := range []string{"/v/1.mp4", "/v/2.mp4", "/v/3.mp4"} {
		_, err := db.UpsertVideo(ctx, VideoRecord{Filepath: p, Title: p})
		require.NoError(t, err)
	}

	all, err := db.ListVideos(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, v := range all {
		assert.NotNil(t, v.ActorIDs)
	}

	some, err := db.ListVideos(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, some, 2)
}

func TestGetVideoByPath_Missing(t *testing.T) {
	got, err := setupTestDB(t).GetVideoByPath(context.Background(), "/nope.mp4")
	require.NoError(t, err)
	assert.Nil(t, got)
}
