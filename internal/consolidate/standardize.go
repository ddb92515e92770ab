package consolidate

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Nomadcxx/vidmeta/internal/naming"
)

const (
	maxFilenameRunes = 200
	unknownTitlePart = "Unknown_Title"
	untitledVideo    = "Untitled_Video"
	unknownExtension = ".unknown"
)

var unsafeFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// SanitizeFilenamePart makes s safe as part of a filename: path and shell
// metacharacters become underscores and whitespace collapses.
func SanitizeFilenamePart(s string) string {
	s = unsafeFilenameChars.ReplaceAllString(s, "_")
	return strings.Join(strings.Fields(s), " ")
}

// BuildStandardizedName renders "[CODE] Title - Actor A, Actor B.ext".
// Only registry-backed actors are listed. original is the source filename
// and serves as the fallback base.
func BuildStandardizedName(meta Metadata, ext, original string) string {
	var parts []string

	if code := SanitizeFilenamePart(meta.Code); code != "" {
		parts = append(parts, "["+code+"]")
	} else if pub := SanitizeFilenamePart(meta.Publisher); pub != "" {
		parts = append(parts, "["+pub+"]")
	}
	bracketed := len(parts) > 0

	title := SanitizeFilenamePart(meta.Title)
	if title == "" {
		title = unknownTitlePart
	}
	parts = append(parts, title)

	var names []string
	for _, a := range meta.Actors {
		if !a.HasID() {
			continue
		}
		if name := SanitizeFilenamePart(a.CanonicalName); name != "" {
			names = append(names, name)
		}
	}
	if len(names) > 0 {
		sort.Strings(names)
		parts = append(parts, "- "+strings.Join(names, ", "))
	}

	base := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	base = truncateRunes(base, maxFilenameRunes)

	if base == "" || (base == unknownTitlePart && !bracketed && len(names) == 0) {
		base = SanitizeFilenamePart(naming.StripExtension(filepath.Base(original)))
		base = truncateRunes(base, maxFilenameRunes)
		if base == "" {
			base = untitledVideo
		}
	}

	if ext == "" || !strings.HasPrefix(ext, ".") {
		ext = unknownExtension
	}
	return base + ext
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimRight(string(r[:limit]), " _-.")
}
