package naming

import "strings"

// ParsedFilename holds the facts recoverable from a filename alone.
// Every field except OriginalFilename may be empty.
type ParsedFilename struct {
	OriginalFilename string   `json:"original_filename"`
	Code             string   `json:"code,omitempty"`
	Title            string   `json:"title,omitempty"`
	Actors           []string `json:"actors,omitempty"`
	// Publisher is never produced by the parser; it exists so callers can
	// treat filename facts and content-analysis answers uniformly.
	Publisher string `json:"publisher,omitempty"`
}

// IsEmpty reports whether no fact was recovered.
func (p ParsedFilename) IsEmpty() bool {
	return p.Code == "" && p.Title == "" && len(p.Actors) == 0 && p.Publisher == ""
}

// IsComplete reports whether title, code and at least one actor are present.
func (p ParsedFilename) IsComplete() bool {
	return p.Title != "" && p.Code != "" && len(p.Actors) > 0
}

// StripExtension removes everything after the last dot.
// A name without a dot is returned unchanged.
func StripExtension(filename string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		return filename[:i]
	}
	return filename
}

// Extension returns the suffix starting at the last dot, case preserved, or "".
func Extension(filename string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		return filename[i:]
	}
	return ""
}
