package consolidate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nomadcxx/vidmeta/internal/naming"
)

type fakeRegistry struct {
	names   map[string]int64
	aliases map[string]int64
	err     error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		names: map[string]int64{
			"John Doe":   1,
			"Jane Smith": 2,
		},
		aliases: map[string]int64{
			"Johnny D": 1,
			"J. Smith": 2,
		},
	}
}

func (f *fakeRegistry) LookupNameOrAlias(_ context.Context, name string) (int64, string, bool, error) {
	if f.err != nil {
		return 0, "", false, f.err
	}
	if id, ok := f.names[name]; ok {
		return id, name, true, nil
	}
	if id, ok := f.aliases[name]; ok {
		n, _, _ := f.LookupNameByID(context.Background(), id)
		return id, n, true, nil
	}
	return 0, "", false, nil
}

func (f *fakeRegistry) LookupNameByID(_ context.Context, id int64) (string, bool, error) {
	for n, i := range f.names {
		if i == id {
			return n, true, nil
		}
	}
	return "", false, nil
}

func TestConsolidate_SuggestedTitleReplacesMissing(t *testing.T) {
	c := NewConsolidator(newFakeRegistry(), nil)
	parsed := naming.ParsedFilename{OriginalFilename: "[ABC-1].mp4", Code: "ABC-1"}

	meta := c.Consolidate(context.Background(), parsed, &Insight{Title: "Lonely Robot"}, "/v/[ABC-1].mp4")

	assert.Equal(t, "Lonely Robot", meta.Title)
	assert.Equal(t, "Lonely Robot", meta.LLMTitle)
	assert.Equal(t, "[ABC-1] Lonely Robot.mp4", meta.StandardizedFilename)
}

func TestConsolidate_StrongTitleKept(t *testing.T) {
	c := NewConsolidator(newFakeRegistry(), nil)
	parsed := naming.ParsedFilename{OriginalFilename: "[ABC-1] My Great Movie.mp4", Code: "ABC-1", Title: "My Great Movie"}

	meta := c.Consolidate(context.Background(), parsed, &Insight{Title: "Something Else"}, "")
	assert.Equal(t, "My Great Movie", meta.Title)
}

func TestIsWeakTitle(t *testing.T) {
	tests := []struct {
		title    string
		original string
		want     bool
	}{
		{"", "x.mp4", true},
		{"Abcd", "x.mp4", true},
		{"My Untitled Project", "x.mp4", true},
		{"20240101", "x.mp4", true},
		{"some clip", "Some_Clip.mp4", true},
		{"Real Title", "Some_Clip.mp4", false},
		{"Ábcdé", "x.mp4", false},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, isWeakTitle(tt.title, tt.original))
		})
	}
}

func TestConsolidate_TitleFallbacks(t *testing.T) {
	c := NewConsolidator(nil, nil)

	meta := c.Consolidate(context.Background(), naming.ParsedFilename{OriginalFilename: "raw:clip.mov"}, nil, "")
	assert.Equal(t, "raw_clip", meta.Title)

	meta = c.Consolidate(context.Background(), naming.ParsedFilename{OriginalFilename: ".mp4"}, nil, "")
	assert.Equal(t, "Unknown Title", meta.Title)
}

func TestConsolidate_NoAnswerIgnored(t *testing.T) {
	c := NewConsolidator(newFakeRegistry(), nil)
	parsed := naming.ParsedFilename{OriginalFilename: "a.mp4"}

	meta := c.Consolidate(context.Background(), parsed, &Insight{Title: " None ", Publisher: "n/a", Actors: []string{"none", ""}}, "")
	assert.Equal(t, "a", meta.Title)
	assert.Empty(t, meta.Publisher)
	assert.Empty(t, meta.Actors)
}

func TestConsolidate_SameIDMergedOnce(t *testing.T) {
	c := NewConsolidator(newFakeRegistry(), nil)
	parsed := naming.ParseFilename("[ABC-123] Title Here - Johnny D.mp4")

	meta := c.Consolidate(context.Background(), parsed, &Insight{Actors: []string{"John Doe", "johnny d"}}, "")

	require.Len(t, meta.Actors, 2)
	assert.Equal(t, ActorFact{ID: 1, CanonicalName: "John Doe", Source: SourceFilenameDBMatch}, meta.Actors[0])
	assert.Equal(t, ActorFact{CanonicalName: "johnny d", Source: SourceLLMNoDBMatch}, meta.Actors[1])
	assert.Equal(t, []int64{1}, meta.RegisteredActorIDs())
	assert.Equal(t, "[ABC-123] Title Here - John Doe.mp4", meta.StandardizedFilename)
}

func TestConsolidate_ActorPrecedence(t *testing.T) {
	c := NewConsolidator(newFakeRegistry(), nil)
	parsed := naming.ParsedFilename{
		OriginalFilename: "x.mp4",
		Title:            "Some Long Title",
		Actors:           []string{"Unknown Person", "UNKNOWN PERSON", "J. Smith"},
	}

	meta := c.Consolidate(context.Background(), parsed, &Insight{Actors: []string{"unknown person", "Jane Smith", "John Doe"}}, "")

	require.Len(t, meta.Actors, 3)
	assert.Equal(t, ActorFact{CanonicalName: "Unknown Person", Source: SourceFilenameNoDBMatch}, meta.Actors[0])
	assert.Equal(t, ActorFact{ID: 2, CanonicalName: "Jane Smith", Source: SourceFilenameDBMatch}, meta.Actors[1])
	assert.Equal(t, ActorFact{ID: 1, CanonicalName: "John Doe", Source: SourceLLMDBMatch}, meta.Actors[2])
	assert.Equal(t, "Some Long Title - Jane Smith, John Doe.mp4", meta.StandardizedFilename)
}

func TestConsolidate_RegistryErrorIsMiss(t *testing.T) {
	reg := newFakeRegistry()
	reg.err = errors.New("database is locked")
	c := NewConsolidator(reg, nil)

	parsed := naming.ParsedFilename{OriginalFilename: "x.mp4", Title: "Long Enough", Actors: []string{"John Doe"}}
	meta := c.Consolidate(context.Background(), parsed, nil, "")

	require.Len(t, meta.Actors, 1)
	assert.False(t, meta.Actors[0].HasID())
	assert.Equal(t, SourceFilenameNoDBMatch, meta.Actors[0].Source)
}

func TestConsolidate_Publisher(t *testing.T) {
	c := NewConsolidator(nil, nil)
	parsed := naming.ParsedFilename{OriginalFilename: "x.mp4", Title: "Long Title", Publisher: "FromName"}

	meta := c.Consolidate(context.Background(), parsed, &Insight{Publisher: "Big Studio"}, "")
	assert.Equal(t, "Big Studio", meta.Publisher)
	assert.Equal(t, "[Big Studio] Long Title.mp4", meta.StandardizedFilename)

	meta = c.Consolidate(context.Background(), parsed, nil, "")
	assert.Equal(t, "FromName", meta.Publisher)
}

func TestActorSet_InvariantPanics(t *testing.T) {
	s := newActorSet()
	s.put(actorKey{name: "x"}, &ActorFact{ID: 3, CanonicalName: "X"})
	assert.Panics(t, func() { s.list() })

	s = newActorSet()
	s.put(actorKey{id: 4}, &ActorFact{CanonicalName: "Y"})
	assert.Panics(t, func() { s.list() })
}

func TestActorSource_String(t *testing.T) {
	assert.Equal(t, "filename_db_match", SourceFilenameDBMatch.String())
	assert.Equal(t, "llm_no_db_match", SourceLLMNoDBMatch.String())
	assert.Equal(t, "unknown", ActorSource(42).String())
}

func TestActorSource_TextRoundTrip(t *testing.T) {
	for _, src := range []ActorSource{SourceFilenameDBMatch, SourceFilenameNoDBMatch, SourceLLMDBMatch, SourceLLMNoDBMatch} {
		text, err := src.MarshalText()
		require.NoError(t, err)

		var got ActorSource
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, src, got)
	}

	var s ActorSource
	assert.Error(t, s.UnmarshalText([]byte("bogus")))
}

func TestBuildStandardizedName(t *testing.T) {
	tests := []struct {
		name     string
		meta     Metadata
		ext      string
		original string
		want     string
	}{
		{
			name:     "empty metadata falls back to original",
			ext:      ".mp4",
			original: "weird_file.mp4",
			want:     "weird_file.mp4",
		},
		{
			name: "nothing at all",
			want: "Untitled_Video.unknown",
		},
		{
			name:     "unknown title kept with code",
			meta:     Metadata{Code: "ABC-1"},
			ext:      ".mkv",
			original: "whatever.mkv",
			want:     "[ABC-1] Unknown_Title.mkv",
		},
		{
			name: "unsafe characters",
			meta: Metadata{Code: "A/B", Title: `What?  "Now" <1|2>`},
			ext:  ".avi",
			want: `[A_B] What_ _Now_ _1_2_.avi`,
		},
		{
			name: "unregistered actors omitted and registered sorted",
			meta: Metadata{Title: "Clip", Actors: []ActorFact{
				{ID: 9, CanonicalName: "Zed"},
				{CanonicalName: "Nobody"},
				{ID: 3, CanonicalName: "Amy"},
			}},
			ext:  ".mp4",
			want: "Clip - Amy, Zed.mp4",
		},
		{
			name: "extension case kept",
			meta: Metadata{Title: "Clip"},
			ext:  ".Mp4",
			want: "Clip.Mp4",
		},
		{
			name: "bad extension",
			meta: Metadata{Title: "Clip"},
			ext:  "mp4",
			want: "Clip.unknown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildStandardizedName(tt.meta, tt.ext, tt.original))
		})
	}
}

func TestBuildStandardizedName_Truncates(t *testing.T) {
	title := strings.Repeat("a", 198) + " -. more"
	got := BuildStandardizedName(Metadata{Title: title}, ".mp4", "")
	assert.Equal(t, strings.Repeat("a", 198)+".mp4", got)

	long := strings.Repeat("é", 250)
	got = BuildStandardizedName(Metadata{Title: long}, ".mp4", "")
	assert.Equal(t, 204, len([]rune(got)))
}

func TestConsolidate_StandardizedNameReparses(t *testing.T) {
	c := NewConsolidator(newFakeRegistry(), nil)
	parsed := naming.ParseFilename("[ABC-123] My Title - John Doe.mp4")
	meta := c.Consolidate(context.Background(), parsed, nil, "")

	again := naming.ParseFilename(meta.StandardizedFilename)
	assert.Equal(t, meta.Code, again.Code)
	assert.Equal(t, meta.Title, again.Title)
}

func TestConsolidate_KeepsExtensionCase(t *testing.T) {
	c := NewConsolidator(newFakeRegistry(), nil)
	parsed := naming.ParseFilename("[ABC-123] Beach Day - John Doe.MKV")
	meta := c.Consolidate(context.Background(), parsed, nil, "")

	assert.Equal(t, "[ABC-123] Beach Day - John Doe.MKV", meta.StandardizedFilename)
}
