package naming

import (
	"regexp"
	"strings"
)

var (
	titleSeparators = strings.NewReplacer(".", " ", "_", " ")
	doubleDashRegex = regexp.MustCompile(`-\s*-`)
)

// NormalizeTitle turns what is left of a filename base into a display
// title. Dots and underscores become spaces, dash runs collapse, whitespace
// collapses and leading or trailing spaces and hyphens go. An empty result,
// or one equal to code ignoring case, yields "".
func NormalizeTitle(remainder, code string) string {
	t := titleSeparators.Replace(remainder)
	t = doubleDashRegex.ReplaceAllString(t, "-")
	t = strings.Join(strings.Fields(t), " ")
	t = strings.Trim(t, " -")

	if t == "" || (code != "" && strings.EqualFold(t, code)) {
		return ""
	}
	return t
}
