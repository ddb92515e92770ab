package consolidate

import (
	"context"
	"fmt"

	"github.com/Nomadcxx/vidmeta/internal/websearch"
)

// ActorSource records where an actor fact came from. Diagnostics only.
type ActorSource int

const (
	SourceFilenameDBMatch ActorSource = iota
	SourceFilenameNoDBMatch
	SourceLLMDBMatch
	SourceLLMNoDBMatch
)

func (s ActorSource) String() string {
	switch s {
	case SourceFilenameDBMatch:
		return "filename_db_match"
	case SourceFilenameNoDBMatch:
		return "filename_no_db_match"
	case SourceLLMDBMatch:
		return "llm_db_match"
	case SourceLLMNoDBMatch:
		return "llm_no_db_match"
	default:
		return "unknown"
	}
}

// MarshalText lets sources serialize by name.
func (s ActorSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ActorSource) UnmarshalText(text []byte) error {
	for _, src := range []ActorSource{SourceFilenameDBMatch, SourceFilenameNoDBMatch, SourceLLMDBMatch, SourceLLMNoDBMatch} {
		if string(text) == src.String() {
			*s = src
			return nil
		}
	}
	return fmt.Errorf("unknown actor source %q", text)
}

// ActorFact is one performer in a consolidated result.
type ActorFact struct {
	// ID is the registry id; 0 means unregistered.
	ID            int64       `json:"id,omitempty"`
	CanonicalName string      `json:"name"`
	Source        ActorSource `json:"source"`
}

// HasID reports whether the actor is known to the registry.
func (a ActorFact) HasID() bool {
	return a.ID != 0
}

// Insight holds content-analysis answers. Empty fields were not provided.
type Insight struct {
	Title     string
	Actors    []string
	Publisher string
}

// NameRegistry resolves performer names to registry ids.
type NameRegistry interface {
	LookupNameOrAlias(ctx context.Context, name string) (id int64, canonical string, found bool, err error)
}

// Metadata is the consolidated description of one video file.
type Metadata struct {
	Code                 string      `json:"code,omitempty"`
	Title                string      `json:"title"`
	Actors               []ActorFact `json:"actors"`
	Publisher            string      `json:"publisher,omitempty"`
	Filepath             string      `json:"filepath"`
	StandardizedFilename string      `json:"standardized_filename"`

	LLMTitle                 string                        `json:"llm_title,omitempty"`
	LLMActors                []string                      `json:"llm_actors,omitempty"`
	LLMPublisher             string                        `json:"llm_publisher,omitempty"`
	WebActorResults          map[string][]websearch.Result `json:"web_actor_results,omitempty"`
	WebPublisherResults      []websearch.Result            `json:"web_publisher_results,omitempty"`
	ContentAnalysisTriggered bool                          `json:"content_analysis_triggered"`
}

// RegisteredActorIDs returns ids of actors known to the registry, in order.
func (m Metadata) RegisteredActorIDs() []int64 {
	var ids []int64
	for _, a := range m.Actors {
		if a.HasID() {
			ids = append(ids, a.ID)
		}
	}
	return ids
}
