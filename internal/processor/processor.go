// Package processor runs the full pipeline for one video file: parse the
// name, ask content analysis when the name is incomplete, consolidate the
// facts and persist the record.
package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/Nomadcxx/vidmeta/internal/activity"
	"github.com/Nomadcxx/vidmeta/internal/ai"
	"github.com/Nomadcxx/vidmeta/internal/consolidate"
	"github.com/Nomadcxx/vidmeta/internal/database"
	"github.com/Nomadcxx/vidmeta/internal/logging"
	"github.com/Nomadcxx/vidmeta/internal/metrics"
	"github.com/Nomadcxx/vidmeta/internal/naming"
	"github.com/Nomadcxx/vidmeta/internal/websearch"
)

// ErrNotFound is returned when the path does not name a regular file.
var ErrNotFound = errors.New("processor: file not found")

// TextInsight answers questions about free text. A false result means the
// field was not provided.
type TextInsight interface {
	SuggestTitle(ctx context.Context, text string) (string, bool)
	SuggestPublisher(ctx context.Context, text string) (string, bool)
	ExtractActorNames(ctx context.Context, text string) ([]string, bool)
}

// WebLookup searches the web for supporting evidence.
type WebLookup interface {
	Search(ctx context.Context, query string, limit int) ([]websearch.Result, error)
}

// RecordStore persists consolidated records.
type RecordStore interface {
	UpsertVideo(ctx context.Context, rec database.VideoRecord) (int64, error)
}

// ActorRegistrar adds performers to the registry.
type ActorRegistrar interface {
	AddActor(ctx context.Context, name string) (int64, error)
}

// ActivityRecorder receives one entry per processed file.
type ActivityRecorder interface {
	Log(entry activity.Entry) error
}

// Result is the outcome of processing one file.
type Result struct {
	RunID            string                `json:"run_id"`
	Path             string                `json:"path"`
	Parsed           naming.ParsedFilename `json:"parsed"`
	AnalysisTrigger  bool                  `json:"content_analysis_triggered"`
	Insight          *consolidate.Insight  `json:"insight,omitempty"`
	Metadata         consolidate.Metadata  `json:"metadata"`
	VideoID          int64                 `json:"video_id,omitempty"`
	RegisteredActors []string              `json:"registered_actors,omitempty"`
}

// Processor is safe for concurrent use when its collaborators are.
type Processor struct {
	registry     consolidate.NameRegistry
	consolidator *consolidate.Consolidator
	insight      TextInsight
	web          WebLookup
	webLimit     int
	store        RecordStore
	registrar    ActorRegistrar
	activity     ActivityRecorder
	dryRun       bool
	logger       *logging.Logger
}

// Option configures a Processor
type Option func(*Processor)

// WithInsight enables content analysis.
func WithInsight(insight TextInsight) Option {
	return func(p *Processor) { p.insight = insight }
}

// WithWebLookup enables web searches for suggested actors and publishers.
func WithWebLookup(web WebLookup, limit int) Option {
	return func(p *Processor) {
		p.web = web
		p.webLimit = limit
	}
}

// WithStore persists each result.
func WithStore(store RecordStore) Option {
	return func(p *Processor) { p.store = store }
}

// WithAutoRegister adds performers named by content analysis but unknown to
// the registry before consolidation.
func WithAutoRegister(registrar ActorRegistrar) Option {
	return func(p *Processor) { p.registrar = registrar }
}

// WithActivity records every run except for missing files.
func WithActivity(rec ActivityRecorder) Option {
	return func(p *Processor) { p.activity = rec }
}

// WithDryRun skips every write.
func WithDryRun(dryRun bool) Option {
	return func(p *Processor) { p.dryRun = dryRun }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a processor resolving actors through registry, which may be nil.
func New(registry consolidate.NameRegistry, opts ...Option) *Processor {
	p := &Processor{
		registry: registry,
		webLimit: websearch.DefaultMaxResults,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.consolidator = consolidate.NewConsolidator(registry, p.logger)
	return p
}

// ProcessFile processes the file at path. A store failure still returns the
// result alongside the error.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	res, err := p.process(ctx, path)
	if errors.Is(err, ErrNotFound) {
		return res, err
	}

	elapsed := time.Since(start)
	method := string(activity.MethodFilename)
	if res != nil && res.AnalysisTrigger {
		method = string(activity.MethodContentAnalysis)
	}
	status := metrics.StatusOK
	switch {
	case err != nil:
		status = metrics.StatusFailed
	case p.dryRun:
		status = metrics.StatusDryRun
	}
	metrics.RecordFileProcessed(method, status, elapsed)

	if p.activity != nil {
		p.record(path, res, err, elapsed)
	}
	return res, err
}

func (p *Processor) record(path string, res *Result, procErr error, elapsed time.Duration) {
	entry := activity.Entry{
		Path:       path,
		Method:     activity.MethodFilename,
		DryRun:     p.dryRun,
		Success:    procErr == nil,
		DurationMs: elapsed.Milliseconds(),
	}
	if procErr != nil {
		entry.Error = procErr.Error()
	}
	if res != nil {
		entry.RunID = res.RunID
		if res.AnalysisTrigger {
			entry.Method = activity.MethodContentAnalysis
		}
		entry.Code = res.Metadata.Code
		entry.Title = res.Metadata.Title
		entry.Publisher = res.Metadata.Publisher
		entry.StandardizedName = res.Metadata.StandardizedFilename
		entry.VideoID = res.VideoID
		for _, a := range res.Metadata.Actors {
			entry.Actors = append(entry.Actors, a.CanonicalName)
		}
	}
	if err := p.activity.Log(entry); err != nil {
		p.logger.Warn("processor", "Failed to record activity", logging.F("path", path), logging.F("error", err.Error()))
	}
}

func (p *Processor) process(ctx context.Context, path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}

	runID := uuid.NewString()
	filename := filepath.Base(path)
	parsed := naming.ParseFilename(filename)

	res := &Result{
		RunID:           runID,
		Path:            path,
		Parsed:          parsed,
		AnalysisTrigger: !parsed.IsComplete(),
	}

	p.logger.Debug("processor", "Parsed filename",
		logging.F("run_id", runID),
		logging.F("file", filename),
		logging.F("code", parsed.Code),
		logging.F("title", parsed.Title),
		logging.F("actors", parsed.Actors))

	if res.AnalysisTrigger && p.insight != nil {
		res.Insight = p.analyze(ctx, analysisText(parsed, p.canonicalNames(ctx, parsed.Actors)))
		res.RegisteredActors = p.autoRegister(ctx, res.Insight.Actors)
	}

	meta := p.consolidator.Consolidate(ctx, parsed, res.Insight, path)
	meta.ContentAnalysisTriggered = res.AnalysisTrigger
	if res.Insight != nil {
		meta.WebActorResults, meta.WebPublisherResults = p.lookupWeb(ctx, res.Insight)
	}
	res.Metadata = meta
	for _, a := range meta.Actors {
		metrics.RecordActorSource(a.Source.String())
	}

	if p.store == nil || p.dryRun {
		return res, nil
	}

	id, err := p.store.UpsertVideo(ctx, database.VideoRecord{
		Filepath:             path,
		Code:                 meta.Code,
		Title:                meta.Title,
		Publisher:            meta.Publisher,
		StandardizedFilename: meta.StandardizedFilename,
		ActorIDs:             meta.RegisteredActorIDs(),
	})
	if err != nil {
		p.logger.Error("processor", "Failed to store video record", err,
			logging.F("run_id", runID), logging.F("path", path))
		return res, fmt.Errorf("failed to store %s: %w", path, err)
	}
	res.VideoID = id

	p.logger.Info("processor", "Processed video",
		logging.F("run_id", runID),
		logging.F("path", path),
		logging.F("standardized", meta.StandardizedFilename),
		logging.F("video_id", id))
	return res, nil
}

func (p *Processor) analyze(ctx context.Context, text string) *consolidate.Insight {
	in := &consolidate.Insight{}
	if title, ok := p.insight.SuggestTitle(ctx, text); ok && !ai.IsNoAnswer(title) {
		in.Title = title
	}
	if names, ok := p.insight.ExtractActorNames(ctx, text); ok {
		for _, n := range names {
			if !ai.IsNoAnswer(n) {
				in.Actors = append(in.Actors, strings.TrimSpace(n))
			}
		}
	}
	if pub, ok := p.insight.SuggestPublisher(ctx, text); ok && !ai.IsNoAnswer(pub) {
		in.Publisher = pub
	}
	return in
}

// autoRegister adds suggested names missing from the registry and returns
// the names it added.
func (p *Processor) autoRegister(ctx context.Context, names []string) []string {
	if p.registrar == nil || p.registry == nil || p.dryRun {
		return nil
	}
	var added []string
	for _, name := range names {
		_, _, found, err := p.registry.LookupNameOrAlias(ctx, name)
		if err != nil {
			p.logger.Warn("processor", "Actor lookup failed", logging.F("name", name), logging.F("error", err.Error()))
			continue
		}
		if found {
			continue
		}
		if _, err := p.registrar.AddActor(ctx, name); err != nil {
			p.logger.Warn("processor", "Failed to register actor", logging.F("name", name), logging.F("error", err.Error()))
			continue
		}
		p.logger.Info("processor", "Registered actor from content analysis", logging.F("name", name))
		metrics.ActorsRegistered.Inc()
		added = append(added, name)
	}
	return added
}

func (p *Processor) lookupWeb(ctx context.Context, in *consolidate.Insight) (map[string][]websearch.Result, []websearch.Result) {
	if p.web == nil {
		return nil, nil
	}

	var actors map[string][]websearch.Result
	for _, name := range in.Actors {
		results, err := p.web.Search(ctx, name+" actor", p.webLimit)
		metrics.RecordWebLookup("actor", err)
		if err != nil {
			p.logger.Warn("processor", "Web lookup failed", logging.F("query", name+" actor"), logging.F("error", err.Error()))
			continue
		}
		if actors == nil {
			actors = make(map[string][]websearch.Result)
		}
		actors[name] = results
	}

	var publisher []websearch.Result
	if in.Publisher != "" {
		results, err := p.web.Search(ctx, in.Publisher+" studio", p.webLimit)
		metrics.RecordWebLookup("publisher", err)
		if err != nil {
			p.logger.Warn("processor", "Web lookup failed", logging.F("query", in.Publisher+" studio"), logging.F("error", err.Error()))
		} else {
			publisher = results
		}
	}
	return actors, publisher
}

// canonicalNames maps filename actors to their registry spelling where
// known, dropping case-insensitive repeats. Lookup failures keep the name.
func (p *Processor) canonicalNames(ctx context.Context, names []string) []string {
	if p.registry == nil || len(names) == 0 {
		return names
	}
	fold := cases.Fold()
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, canonical, found, err := p.registry.LookupNameOrAlias(ctx, name); err == nil && found && canonical != "" {
			name = canonical
		}
		if key := fold.String(name); !seen[key] {
			seen[key] = true
			out = append(out, name)
		}
	}
	return out
}

var analysisSeparators = regexp.MustCompile(`[_.\-]+`)

// analysisText is what content analysis sees: the parsed title and actor
// names when available, else the raw filename.
func analysisText(parsed naming.ParsedFilename, actors []string) string {
	text := parsed.OriginalFilename
	if parsed.Title != "" {
		text = parsed.Title
		if len(actors) > 0 {
			text += " starring " + strings.Join(actors, ", ")
		}
	}
	text = analysisSeparators.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}
