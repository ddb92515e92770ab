// Package consolidate merges filename facts, content-analysis answers and
// the performer registry into one Metadata record per video file.
package consolidate

import (
	"context"
	"path/filepath"

	"github.com/Nomadcxx/vidmeta/internal/logging"
	"github.com/Nomadcxx/vidmeta/internal/naming"
)

// Consolidator applies the precedence rules. It holds no per-file state and
// is safe for concurrent use when its registry is.
type Consolidator struct {
	registry NameRegistry
	logger   *logging.Logger
}

// NewConsolidator creates a consolidator. A nil registry treats every
// actor as unregistered; a nil logger discards output.
func NewConsolidator(registry NameRegistry, logger *logging.Logger) *Consolidator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Consolidator{registry: registry, logger: logger}
}

// Consolidate produces the final metadata for one file. insight may be nil
// when content analysis did not run. The result always has a title.
func (c *Consolidator) Consolidate(ctx context.Context, parsed naming.ParsedFilename, insight *Insight, path string) Metadata {
	var in Insight
	if insight != nil {
		in = *insight
	}

	original := parsed.OriginalFilename
	if original == "" && path != "" {
		original = filepath.Base(path)
	}

	meta := Metadata{
		Code:         parsed.Code,
		Title:        chooseTitle(parsed.Title, in.Title, original),
		Actors:       c.mergeActors(ctx, parsed.Actors, in.Actors),
		Publisher:    choosePublisher(parsed.Publisher, in.Publisher),
		Filepath:     path,
		LLMTitle:     in.Title,
		LLMActors:    in.Actors,
		LLMPublisher: in.Publisher,
	}
	meta.StandardizedFilename = BuildStandardizedName(meta, naming.Extension(original), original)
	return meta
}
