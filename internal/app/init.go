// Package app assembles the catalog, content analysis and processor from
// configuration. It is shared by every command that processes files.
package app

import (
	"fmt"
	"time"

	"github.com/Nomadcxx/vidmeta/internal/activity"
	"github.com/Nomadcxx/vidmeta/internal/ai"
	"github.com/Nomadcxx/vidmeta/internal/config"
	"github.com/Nomadcxx/vidmeta/internal/database"
	"github.com/Nomadcxx/vidmeta/internal/logging"
	"github.com/Nomadcxx/vidmeta/internal/processor"
	"github.com/Nomadcxx/vidmeta/internal/websearch"
)

// InitAI creates the insight client. It returns nil when content analysis
// is disabled. The answer cache lives in db when enabled.
func InitAI(cfg *config.Config, db *database.CatalogDB, logger *logging.Logger) (*ai.Client, error) {
	if !cfg.AI.Enabled {
		return nil, nil
	}

	opts := []ai.Option{ai.WithLogger(logger)}
	if cfg.AI.CacheEnabled && db != nil {
		opts = append(opts, ai.WithCache(ai.NewCache(db.DB())))
	}

	client, err := ai.NewClient(cfg.AI, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}
	return client, nil
}

// InitWebSearch creates the web lookup client, or nil when disabled.
func InitWebSearch(cfg *config.Config) *websearch.Client {
	if !cfg.WebSearch.Enabled {
		return nil
	}
	return websearch.New(websearch.Options{
		BaseURL:           cfg.WebSearch.BaseURL,
		MaxResults:        cfg.WebSearch.MaxResults,
		RequestsPerSecond: cfg.WebSearch.RequestsPerSecond,
		Timeout:           time.Duration(cfg.WebSearch.TimeoutSeconds) * time.Second,
	})
}

// InitActivity opens the activity trail and prunes expired days. It returns
// nil when the trail is disabled.
func InitActivity(cfg *config.Config, logger *logging.Logger) (*activity.Logger, error) {
	if !cfg.Activity.Enabled {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Nop()
	}
	dir, err := cfg.ActivityDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve activity dir: %w", err)
	}
	trail, err := activity.NewLogger(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open activity log: %w", err)
	}
	if cfg.Activity.RetentionDays > 0 {
		if removed, err := trail.PruneOld(cfg.Activity.RetentionDays); err != nil {
			logger.Warn("app", "Failed to prune activity logs", logging.F("error", err.Error()))
		} else if removed > 0 {
			logger.Debug("app", "Pruned activity logs", logging.F("removed", removed))
		}
	}
	return trail, nil
}

// Options adjusts how the application is assembled
type Options struct {
	// DisableAI skips content analysis regardless of configuration.
	DisableAI bool
	// DryRun overrides processing.dry_run when true.
	DryRun bool
}

// App holds the long-lived collaborators
type App struct {
	Config    *config.Config
	Logger    *logging.Logger
	DB        *database.CatalogDB
	AI        *ai.Client
	Web       *websearch.Client
	Activity  *activity.Logger
	Processor *processor.Processor
}

// Open opens the catalog and wires the processor.
func Open(cfg *config.Config, logger *logging.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}
	db, err := database.OpenPath(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, DB: db}

	if !opts.DisableAI {
		a.AI, err = InitAI(cfg, db, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	a.Web = InitWebSearch(cfg)

	a.Activity, err = InitActivity(cfg, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	procOpts := []processor.Option{
		processor.WithStore(db),
		processor.WithLogger(logger),
		processor.WithDryRun(opts.DryRun || cfg.Processing.DryRun),
	}
	if a.AI != nil {
		procOpts = append(procOpts, processor.WithInsight(ai.NewInsight(a.AI, logger)))
	}
	if a.Web != nil {
		procOpts = append(procOpts, processor.WithWebLookup(a.Web, cfg.WebSearch.MaxResults))
	}
	if a.Activity != nil {
		procOpts = append(procOpts, processor.WithActivity(a.Activity))
	}
	if cfg.Processing.AutoRegisterLLMActors {
		procOpts = append(procOpts, processor.WithAutoRegister(db))
	}
	a.Processor = processor.New(db, procOpts...)

	logger.Debug("app", "Application initialized",
		logging.F("database", dbPath),
		logging.F("ai", a.AI != nil),
		logging.F("websearch", a.Web != nil),
		logging.F("activity", a.Activity != nil))
	return a, nil
}

// Close releases the catalog and the activity trail.
func (a *App) Close() error {
	if a.Activity != nil {
		a.Activity.Close()
	}
	return a.DB.Close()
}
