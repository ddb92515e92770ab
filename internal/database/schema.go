package database

import "database/sql"

// Schema version for migrations
const currentSchemaVersion = 2

// SQL migration scripts
var migrations = []migration{
	{
		version: 1,
		up: []string{
			`CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,

			`CREATE TABLE videos (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				code TEXT,
				title TEXT,
				publisher TEXT,
				duration_seconds INTEGER,
				filepath TEXT NOT NULL UNIQUE,
				standardized_filename TEXT,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX idx_videos_code ON videos(code)`,

			`CREATE TABLE actors (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL UNIQUE,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,

			// An alias names exactly one actor.
			`CREATE TABLE actor_aliases (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				alias_name TEXT NOT NULL UNIQUE,
				actor_id INTEGER NOT NULL REFERENCES actors(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX idx_actor_aliases_actor ON actor_aliases(actor_id)`,

			`CREATE TABLE video_actors (
				video_id INTEGER NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
				actor_id INTEGER NOT NULL REFERENCES actors(id) ON DELETE CASCADE,
				PRIMARY KEY (video_id, actor_id)
			)`,
			`CREATE INDEX idx_video_actors_actor ON video_actors(actor_id)`,

			`INSERT INTO schema_version (version) VALUES (1)`,
		},
	},
	{
		version: 2,
		up: []string{
			// Content analysis answers keyed by normalized text, task and model.
			`CREATE TABLE ai_insight_cache (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				input_normalized TEXT NOT NULL,
				task TEXT NOT NULL,
				model TEXT NOT NULL,
				answer TEXT NOT NULL,
				latency_ms INTEGER,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				last_used_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				usage_count INTEGER DEFAULT 1,
				UNIQUE(input_normalized, task, model)
			)`,
			`CREATE INDEX idx_ai_insight_cache_last_used ON ai_insight_cache(last_used_at)`,
			`INSERT INTO schema_version (version) VALUES (2)`,
		},
	},
}

type migration struct {
	version int
	up      []string
}

// applyMigrations applies any pending schema migrations
func applyMigrations(db *sql.DB) error {
	var currentVersion int
	err := db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&currentVersion)
	if err != nil {
		// schema_version doesn't exist yet - this is a fresh database
		currentVersion = 0
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}

		for _, stmt := range m.up {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return err
			}
		}

		// each migration records its own version row
		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}
