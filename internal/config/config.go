package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nomadcxx/vidmeta/internal/logging"
	"github.com/Nomadcxx/vidmeta/internal/paths"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to upper-cased keys, e.g. VIDMETA_AI_ENABLED.
const EnvPrefix = "VIDMETA"

type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	AI         AIConfig         `mapstructure:"ai"`
	WebSearch  WebSearchConfig  `mapstructure:"websearch"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Logging    logging.Config   `mapstructure:"logging"`
	Activity   ActivityConfig   `mapstructure:"activity"`
	Server     ServerConfig     `mapstructure:"server"`
}

// DatabaseConfig locates the catalog. An empty path means the default
// location under the app directory.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type CircuitBreakerConfig struct {
	FailureThreshold     int `mapstructure:"failure_threshold" validate:"gte=1"`
	FailureWindowSeconds int `mapstructure:"failure_window_seconds" validate:"gte=0"`
	CooldownSeconds      int `mapstructure:"cooldown_seconds" validate:"gte=1"`
}

// AIConfig configures the Ollama-backed text insight service
type AIConfig struct {
	Enabled        bool                 `mapstructure:"enabled"`
	OllamaEndpoint string               `mapstructure:"ollama_endpoint" validate:"omitempty,url"`
	Model          string               `mapstructure:"model"`
	TimeoutSeconds int                  `mapstructure:"timeout_seconds" validate:"gte=1,lte=600"`
	CacheEnabled   bool                 `mapstructure:"cache_enabled"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// WebSearchConfig configures the optional web lookup used for diagnostics
type WebSearchConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	BaseURL           string  `mapstructure:"base_url" validate:"omitempty,url"`
	MaxResults        int     `mapstructure:"max_results" validate:"gte=1,lte=25"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gt=0"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"gte=1"`
}

// ProcessingConfig controls directory processing
type ProcessingConfig struct {
	Workers               int      `mapstructure:"workers" validate:"gte=1,lte=64"`
	Extensions            []string `mapstructure:"extensions" validate:"min=1,dive,startswith=."`
	Recursive             bool     `mapstructure:"recursive"`
	AutoRegisterLLMActors bool     `mapstructure:"auto_register_llm_actors"`
	DryRun                bool     `mapstructure:"dry_run"`
}

// ActivityConfig controls the per-file JSONL trail. An empty dir means the
// directory holding the catalog.
type ActivityConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Dir           string `mapstructure:"dir"`
	RetentionDays int    `mapstructure:"retention_days" validate:"gte=0"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`
}

// DefaultExtensions are the file suffixes treated as videos.
var DefaultExtensions = []string{".mp4", ".avi", ".mkv", ".mov", ".webm"}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		AI: DefaultAIConfig(),
		WebSearch: WebSearchConfig{
			Enabled:           false,
			BaseURL:           "https://html.duckduckgo.com",
			MaxResults:        5,
			RequestsPerSecond: 1,
			TimeoutSeconds:    10,
		},
		Processing: ProcessingConfig{
			Workers:    4,
			Extensions: append([]string(nil), DefaultExtensions...),
		},
		Logging: logging.DefaultConfig(),
		Activity: ActivityConfig{
			Enabled:       true,
			RetentionDays: 30,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8687",
		},
	}
}

// DefaultAIConfig returns default AI configuration
func DefaultAIConfig() AIConfig {
	return AIConfig{
		Enabled:        false,
		OllamaEndpoint: "http://localhost:11434",
		Model:          "llama3",
		TimeoutSeconds: 60,
		CacheEnabled:   true,
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold:     5,
			FailureWindowSeconds: 120,
			CooldownSeconds:      30,
		},
	}
}

// Load reads configuration from path, or from the default location when
// path is empty. A missing file yields defaults. VIDMETA_* environment
// variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		p, err := paths.ConfigPath()
		if err != nil {
			return nil, fmt.Errorf("unable to get config path: %w", err)
		}
		path = p
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	cfg := DefaultConfig()
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	// Unmarshal merges into a pre-filled slice; SetDefault carries the default.
	cfg.Processing.Extensions = nil
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the file.
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("database.path", c.Database.Path)

	v.SetDefault("ai.enabled", c.AI.Enabled)
	v.SetDefault("ai.ollama_endpoint", c.AI.OllamaEndpoint)
	v.SetDefault("ai.model", c.AI.Model)
	v.SetDefault("ai.timeout_seconds", c.AI.TimeoutSeconds)
	v.SetDefault("ai.cache_enabled", c.AI.CacheEnabled)
	v.SetDefault("ai.circuit_breaker.failure_threshold", c.AI.CircuitBreaker.FailureThreshold)
	v.SetDefault("ai.circuit_breaker.failure_window_seconds", c.AI.CircuitBreaker.FailureWindowSeconds)
	v.SetDefault("ai.circuit_breaker.cooldown_seconds", c.AI.CircuitBreaker.CooldownSeconds)

	v.SetDefault("websearch.enabled", c.WebSearch.Enabled)
	v.SetDefault("websearch.base_url", c.WebSearch.BaseURL)
	v.SetDefault("websearch.max_results", c.WebSearch.MaxResults)
	v.SetDefault("websearch.requests_per_second", c.WebSearch.RequestsPerSecond)
	v.SetDefault("websearch.timeout_seconds", c.WebSearch.TimeoutSeconds)

	v.SetDefault("processing.workers", c.Processing.Workers)
	v.SetDefault("processing.extensions", c.Processing.Extensions)
	v.SetDefault("processing.recursive", c.Processing.Recursive)
	v.SetDefault("processing.auto_register_llm_actors", c.Processing.AutoRegisterLLMActors)
	v.SetDefault("processing.dry_run", c.Processing.DryRun)

	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.format", c.Logging.Format)
	v.SetDefault("logging.file", c.Logging.File)
	v.SetDefault("logging.max_size_mb", c.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", c.Logging.MaxBackups)

	v.SetDefault("activity.enabled", c.Activity.Enabled)
	v.SetDefault("activity.dir", c.Activity.Dir)
	v.SetDefault("activity.retention_days", c.Activity.RetentionDays)

	v.SetDefault("server.addr", c.Server.Addr)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.AI.Enabled {
		if c.AI.OllamaEndpoint == "" {
			return fmt.Errorf("invalid config: ai.ollama_endpoint is required when ai is enabled")
		}
		if strings.TrimSpace(c.AI.Model) == "" {
			return fmt.Errorf("invalid config: ai.model is required when ai is enabled")
		}
	}
	if c.WebSearch.Enabled && c.WebSearch.BaseURL == "" {
		return fmt.Errorf("invalid config: websearch.base_url is required when websearch is enabled")
	}
	return nil
}

// DatabasePath resolves the configured catalog path.
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}
	return paths.DatabasePath()
}

// ActivityDir resolves the directory that holds the activity trail.
func (c *Config) ActivityDir() (string, error) {
	if c.Activity.Dir != "" {
		return c.Activity.Dir, nil
	}
	dbPath, err := c.DatabasePath()
	if err != nil {
		return "", err
	}
	return filepath.Dir(dbPath), nil
}

// WatchLockPath is the lock file that keeps one watcher per catalog.
func (c *Config) WatchLockPath() (string, error) {
	dbPath, err := c.DatabasePath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(dbPath), "watch.lock"), nil
}

// Save writes the configuration to path, or the default location when empty.
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create config dir: %w", err)
	}

	return os.WriteFile(path, []byte(c.ToTOML()), 0644)
}

func ConfigPath() (string, error) {
	return paths.ConfigPath()
}

func ConfigExists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

func (c *Config) ToTOML() string {
	return fmt.Sprintf(`# vidmeta configuration
# Generated by: vidmeta config init

# ============================================================================
# DATABASE
# Catalog of videos, actors and aliases (empty = ~/.config/vidmeta/catalog.db)
# ============================================================================
[database]
path = %q

# ============================================================================
# CONTENT ANALYSIS
# Optional: ask a local Ollama model for title, actors and publisher
# ============================================================================
[ai]
enabled = %v
ollama_endpoint = %q
model = %q
timeout_seconds = %d
cache_enabled = %v

[ai.circuit_breaker]
failure_threshold = %d
failure_window_seconds = %d
cooldown_seconds = %d

# ============================================================================
# WEB LOOKUP
# Optional: search snippets for actors and publishers named by the model
# ============================================================================
[websearch]
enabled = %v
base_url = %q
max_results = %d
requests_per_second = %g
timeout_seconds = %d

# ============================================================================
# PROCESSING
# ============================================================================
[processing]
workers = %d
extensions = %s
recursive = %v
# Register actors named only by the model so their ids reach the catalog
auto_register_llm_actors = %v
# Parse and consolidate without writing records
dry_run = %v

# ============================================================================
# LOGGING
# ============================================================================
[logging]
level = %q
format = %q
file = %q
max_size_mb = %d
max_backups = %d

# ============================================================================
# ACTIVITY
# One JSONL line per processed file, rotated daily (empty dir = next to the catalog)
# ============================================================================
[activity]
enabled = %v
dir = %q
retention_days = %d

# ============================================================================
# API SERVER
# ============================================================================
[server]
addr = %q
`,
		c.Database.Path,
		c.AI.Enabled,
		c.AI.OllamaEndpoint,
		c.AI.Model,
		c.AI.TimeoutSeconds,
		c.AI.CacheEnabled,
		c.AI.CircuitBreaker.FailureThreshold,
		c.AI.CircuitBreaker.FailureWindowSeconds,
		c.AI.CircuitBreaker.CooldownSeconds,
		c.WebSearch.Enabled,
		c.WebSearch.BaseURL,
		c.WebSearch.MaxResults,
		c.WebSearch.RequestsPerSecond,
		c.WebSearch.TimeoutSeconds,
		c.Processing.Workers,
		formatStringSlice(c.Processing.Extensions),
		c.Processing.Recursive,
		c.Processing.AutoRegisterLLMActors,
		c.Processing.DryRun,
		c.Logging.Level,
		c.Logging.Format,
		c.Logging.File,
		c.Logging.MaxSizeMB,
		c.Logging.MaxBackups,
		c.Activity.Enabled,
		c.Activity.Dir,
		c.Activity.RetentionDays,
		c.Server.Addr,
	)
}

func formatStringSlice(s []string) string {
	if len(s) == 0 {
		return "[]"
	}
	quoted := make([]string, len(s))
	for i, v := range s {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
