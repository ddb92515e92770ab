package consolidate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Nomadcxx/vidmeta/internal/ai"
	"github.com/Nomadcxx/vidmeta/internal/naming"
)

const (
	minTitleRunes = 5
	unknownTitle  = "Unknown Title"
)

// isWeakTitle reports whether a parsed title should yield to a suggested one.
func isWeakTitle(title, original string) bool {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) < minTitleRunes {
		return true
	}
	if strings.Contains(strings.ToLower(title), "untitled") {
		return true
	}
	if isAllDigits(title) {
		return true
	}
	base := naming.NormalizeTitle(naming.StripExtension(original), "")
	return base != "" && strings.EqualFold(title, base)
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func chooseTitle(parsed, llm, original string) string {
	title := strings.TrimSpace(parsed)
	if llm = strings.TrimSpace(llm); !ai.IsNoAnswer(llm) && isWeakTitle(title, original) {
		title = llm
	}
	if title != "" {
		return title
	}
	if base := SanitizeFilenamePart(naming.StripExtension(original)); base != "" {
		return base
	}
	return unknownTitle
}

func choosePublisher(parsed, llm string) string {
	if llm = strings.TrimSpace(llm); !ai.IsNoAnswer(llm) {
		return llm
	}
	return strings.TrimSpace(parsed)
}
