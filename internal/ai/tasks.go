package ai

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// Task is one content-analysis question put to the model
type Task struct {
	Name        string
	Instruction string
}

var (
	TaskTitle = Task{
		Name:        "title",
		Instruction: "Suggest a concise and informative title for a video based on the following description. The title should be suitable for a video platform. Respond with only the title.",
	}
	TaskActors = Task{
		Name:        "actors",
		Instruction: "Extract all actor names from the following text. List each name on a new line. If multiple actors, separate them by newlines. Do not include any other text or explanation.",
	}
	TaskPublisher = Task{
		Name:        "publisher",
		Instruction: "Identify the main publisher or company name from the following text. Respond with only the most prominent publisher name.",
	}
)

// BuildPrompt frames text for a task.
func BuildPrompt(task Task, text string) string {
	return task.Instruction + "\n\n---\nText to analyze:\n\"\"\"" + text + "\n\"\"\"\n\nResponse:"
}

var listMarkerRegex = regexp.MustCompile(`^(?:[-*•]+|\d+[.)])\s*`)

// CleanAnswer strips markdown fences and surrounding quotes and maps
// declined answers ("none", "n/a") to "".
func CleanAnswer(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], " \t") {
			// drop a language tag on the fence line
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	s = strings.TrimSpace(strings.Trim(s, `"'`))
	if IsNoAnswer(s) {
		return ""
	}
	return s
}

// IsNoAnswer reports whether s carries no information.
func IsNoAnswer(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "n/a", "na", "unknown", "null":
		return true
	}
	return false
}

// SplitActorNames turns a one-name-per-line answer into a list. Commas also
// separate names; list markers and declined entries are dropped.
func SplitActorNames(answer string) []string {
	fold := cases.Fold()
	seen := make(map[string]bool)
	var names []string

	for _, line := range strings.Split(answer, "\n") {
		for _, part := range strings.Split(line, ",") {
			name := strings.TrimSpace(part)
			name = listMarkerRegex.ReplaceAllString(name, "")
			name = strings.TrimSpace(strings.Trim(name, `"'`))
			if IsNoAnswer(name) {
				continue
			}
			key := fold.String(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			names = append(names, name)
		}
	}
	return names
}
