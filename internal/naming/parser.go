// Package naming recovers product codes, titles and performer names from
// video filenames. Everything here is pure and safe for concurrent use.
package naming

import "strings"

// ParseFilename runs the extraction pipeline over a bare filename
// (no directory): extension strip, code, actors, then title.
//
// Hidden files and names with an empty base produce empty facts. When
// nothing at all is recovered the normalized base becomes the title.
func ParseFilename(filename string) ParsedFilename {
	parsed := ParsedFilename{OriginalFilename: filename}
	if filename == "" || strings.HasPrefix(filename, ".") {
		return parsed
	}

	base := StripExtension(filename)
	if strings.TrimSpace(base) == "" {
		return parsed
	}

	code, rest := ExtractCode(base)
	actors, rest := ExtractActors(rest)
	title := NormalizeTitle(rest, code)

	if title == "" && code == "" && len(actors) == 0 {
		title = NormalizeTitle(base, "")
	}

	parsed.Code = code
	parsed.Title = title
	parsed.Actors = actors
	return parsed
}
