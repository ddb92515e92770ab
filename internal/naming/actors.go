package naming

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var (
	// dashActorsRegex matches a trailing " - Name, Name & Name" list.
	dashActorsRegex = regexp.MustCompile(`\s-\s+((?:\p{Lu}[\p{L}\p{N}_\s'.-]+?)(?:\s*[,&]\s*\p{Lu}[\p{L}\p{N}_\s'.-]+?)*)$`)
	actorListSplit  = regexp.MustCompile(`\s*[,&]\s*`)

	// suffixActorsRegex matches one or two capitalised atoms at the very end,
	// introduced by an underscore or whitespace. Groups: candidate, first atom,
	// separator, second atom.
	suffixActorsRegex = regexp.MustCompile(`[_\s]((\p{Lu}[\p{Ll}']+|\p{Lu})(?:([_\s])(\p{Lu}[\p{Ll}']+|\p{Lu}))?)$`)
	atomRegex         = regexp.MustCompile(`^(?:\p{Lu}[\p{Ll}']+|\p{Lu})$`)
	atomSplit         = regexp.MustCompile(`[_\s]+`)
	numberedWordRegex = regexp.MustCompile(`(?i)(?:Part|Ep|Vol|Chapter|Scene|The|An|A)[_\s]?\d+$`)
)

// suffixRejectWords are release descriptors that look like names.
var suffixRejectWords = map[string]bool{
	"final":      true,
	"extended":   true,
	"uncut":      true,
	"remastered": true,
	"official":   true,
	"trailer":    true,
	"movie":      true,
	"film":       true,
	"ost":        true,
	"soundtrack": true,
}

var atomStopwords = map[string]bool{
	"in": true, "on": true, "of": true, "a": true, "an": true, "the": true,
	"is": true, "at": true, "to": true, "and": true, "or": true, "but": true,
	"vs": true, "vs.": true,
}

// ExtractActors pulls performer names off the end of a filename base.
// The explicit " - A, B & C" form wins; otherwise a conservative suffix
// heuristic is tried. The remainder is the base minus the consumed span.
func ExtractActors(base string) (actors []string, remainder string) {
	if loc := dashActorsRegex.FindStringSubmatchIndex(base); loc != nil {
		for _, name := range actorListSplit.Split(base[loc[2]:loc[3]], -1) {
			if name = strings.TrimSpace(strings.ReplaceAll(name, "_", " ")); name != "" {
				actors = append(actors, name)
			}
		}
		return dedupeNames(actors), strings.Trim(base[:loc[0]], " -_.")
	}

	loc := suffixActorsRegex.FindStringSubmatchIndex(base)
	if loc == nil {
		return nil, base
	}

	candidate := base[loc[2]:loc[3]]
	if !acceptSuffixCandidate(candidate) {
		return nil, base
	}

	first := base[loc[4]:loc[5]]
	if loc[8] >= 0 {
		second := base[loc[8]:loc[9]]
		if base[loc[6]:loc[7]] == "_" {
			actors = []string{first, second}
		} else {
			actors = []string{first + " " + second}
		}
	} else {
		actors = []string{first}
	}

	return dedupeNames(actors), strings.Trim(base[:loc[0]], " -_.")
}

func acceptSuffixCandidate(candidate string) bool {
	if numberedWordRegex.MatchString(candidate) {
		return false
	}
	if suffixRejectWords[strings.ToLower(candidate)] {
		return false
	}
	for _, atom := range atomSplit.Split(candidate, -1) {
		if !atomRegex.MatchString(atom) || atomStopwords[strings.ToLower(atom)] {
			return false
		}
	}
	return true
}

// dedupeNames drops case-insensitive repeats, keeping first-seen order.
func dedupeNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	fold := cases.Fold()
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		key := fold.String(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}
