package naming

import (
	"regexp"
	"strings"
)

var (
	// bracketCodeRegex matches an identifier wrapped in square brackets.
	bracketCodeRegex = regexp.MustCompile(`\[([\p{L}\p{N}_.-]+)\]`)

	// looseCodeRegex matches a token like ABC-123, Studio_XYZ-001 or AB_12C.
	// The first segment must start uppercase and the tail must hold a digit.
	looseCodeRegex = regexp.MustCompile(`((?:[A-Z][A-Za-z0-9]*_)*[A-Z][A-Za-z0-9]*[-_][A-Za-z0-9]*\d[A-Za-z0-9]*)`)

	// episodeMarkerRegex rejects loose candidates that end in an episode marker.
	episodeMarkerRegex = regexp.MustCompile(`(?i)[_.-](?:ep|episode|part|vol|chapter|sc)[_.-]?\d+$`)
)

// ExtractCode finds a product code in a filename base and returns it along
// with the base minus the matched span, trimmed of surrounding whitespace.
// When no code is found the input is returned unchanged.
func ExtractCode(base string) (code, remainder string) {
	if loc := bracketCodeRegex.FindStringSubmatchIndex(base); loc != nil {
		code = base[loc[2]:loc[3]]
		return code, removeSpan(base, loc[0], loc[1])
	}

	loc := looseCodeRegex.FindStringSubmatchIndex(base)
	if loc == nil {
		return "", base
	}

	candidate := base[loc[2]:loc[3]]
	if episodeMarkerRegex.MatchString(candidate) {
		return "", base
	}

	return candidate, removeSpan(base, loc[0], loc[1])
}

func removeSpan(s string, start, end int) string {
	return strings.TrimSpace(s[:start] + s[end:])
}
