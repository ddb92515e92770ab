package consolidate

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/Nomadcxx/vidmeta/internal/ai"
	"github.com/Nomadcxx/vidmeta/internal/logging"
)

// actorKey identifies an entry in an actorSet. Exactly one field is set:
// id for registry matches, name (case folded) otherwise.
type actorKey struct {
	id   int64
	name string
}

// actorSet keeps at most one fact per registry id and one per folded name
// among unregistered actors, in insertion order.
type actorSet struct {
	facts map[actorKey]*ActorFact
	order []actorKey
	fold  cases.Caser
}

func newActorSet() *actorSet {
	return &actorSet{
		facts: make(map[actorKey]*ActorFact),
		fold:  cases.Fold(),
	}
}

func (s *actorSet) get(k actorKey) (*ActorFact, bool) {
	f, ok := s.facts[k]
	return f, ok
}

func (s *actorSet) put(k actorKey, f *ActorFact) {
	if _, ok := s.facts[k]; !ok {
		s.order = append(s.order, k)
	}
	s.facts[k] = f
}

func (s *actorSet) nameKey(name string) actorKey {
	return actorKey{name: s.fold.String(name)}
}

// list returns the facts in insertion order. A key whose kind disagrees
// with its fact is a programming error.
func (s *actorSet) list() []ActorFact {
	out := make([]ActorFact, 0, len(s.order))
	for _, k := range s.order {
		f := s.facts[k]
		switch {
		case k.id != 0 && k.name != "":
			panic(fmt.Sprintf("consolidate: actor key %+v sets both id and name", k))
		case k.id != 0 && f.ID != k.id:
			panic(fmt.Sprintf("consolidate: id-keyed actor %q has id %d, want %d", f.CanonicalName, f.ID, k.id))
		case k.id == 0 && f.ID != 0:
			panic(fmt.Sprintf("consolidate: name-keyed actor %q carries id %d", f.CanonicalName, f.ID))
		}
		out = append(out, *f)
	}
	return out
}

type lookupResult struct {
	id        int64
	canonical string
	found     bool
}

func (c *Consolidator) lookup(ctx context.Context, name string) lookupResult {
	if c.registry == nil {
		return lookupResult{}
	}
	id, canonical, found, err := c.registry.LookupNameOrAlias(ctx, name)
	if err != nil {
		c.logger.Warn("consolidate", "Actor lookup failed, treating as unregistered",
			logging.F("name", name), logging.F("error", err.Error()))
		return lookupResult{}
	}
	if !found || id == 0 {
		return lookupResult{}
	}
	if canonical == "" {
		canonical = name
	}
	return lookupResult{id: id, canonical: canonical, found: true}
}

// mergeActors combines filename actors with content-analysis actors.
// Filename actors go first; LLM registry hits refresh the canonical name of
// an existing id entry, LLM misses only fill gaps.
func (c *Consolidator) mergeActors(ctx context.Context, parsed, llm []string) []ActorFact {
	set := newActorSet()

	for _, name := range parsed {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if r := c.lookup(ctx, name); r.found {
			k := actorKey{id: r.id}
			if _, ok := set.get(k); !ok {
				set.put(k, &ActorFact{ID: r.id, CanonicalName: r.canonical, Source: SourceFilenameDBMatch})
			}
			continue
		}
		k := set.nameKey(name)
		if _, ok := set.get(k); !ok {
			set.put(k, &ActorFact{CanonicalName: name, Source: SourceFilenameNoDBMatch})
		}
	}

	for _, name := range llm {
		name = strings.TrimSpace(name)
		if ai.IsNoAnswer(name) {
			continue
		}
		if r := c.lookup(ctx, name); r.found {
			k := actorKey{id: r.id}
			if f, ok := set.get(k); ok {
				f.CanonicalName = r.canonical
			} else {
				set.put(k, &ActorFact{ID: r.id, CanonicalName: r.canonical, Source: SourceLLMDBMatch})
			}
			continue
		}
		k := set.nameKey(name)
		if _, ok := set.get(k); !ok {
			set.put(k, &ActorFact{CanonicalName: name, Source: SourceLLMNoDBMatch})
		}
	}

	return set.list()
}
