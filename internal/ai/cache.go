package ai

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Cache stores model answers in the ai_insight_cache table
type Cache struct {
	db *sql.DB
}

// NewCache creates a cache over a migrated catalog database
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db}
}

// Get returns the cached answer for normalized text, task and model.
func (c *Cache) Get(ctx context.Context, inputNormalized, task, model string) (string, bool, error) {
	var (
		id     int64
		answer string
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT id, answer FROM ai_insight_cache
		WHERE input_normalized = ? AND task = ? AND model = ?
	`, inputNormalized, task, model).Scan(&id, &answer)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query cache: %w", err)
	}

	if _, err := c.db.ExecContext(ctx, `
		UPDATE ai_insight_cache
		SET last_used_at = CURRENT_TIMESTAMP, usage_count = usage_count + 1
		WHERE id = ?
	`, id); err != nil {
		return answer, true, fmt.Errorf("failed to update cache usage: %w", err)
	}
	return answer, true, nil
}

// Put stores an answer, replacing any previous one for the same key
func (c *Cache) Put(ctx context.Context, inputNormalized, task, model, answer string, latency time.Duration) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO ai_insight_cache (
			input_normalized, task, model, answer, latency_ms,
			created_at, last_used_at, usage_count
		) VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP, 1)
		ON CONFLICT(input_normalized, task, model)
		DO UPDATE SET
			answer = excluded.answer,
			latency_ms = excluded.latency_ms,
			last_used_at = CURRENT_TIMESTAMP,
			usage_count = usage_count + 1
	`, inputNormalized, task, model, answer, latency.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Cleanup removes entries unused for 90 days with low usage
func (c *Cache) Cleanup(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM ai_insight_cache
		WHERE last_used_at < datetime('now', '-90 days')
		  AND usage_count < 5
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup cache: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the number of cached answers
func (c *Cache) Count(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ai_insight_cache`).Scan(&n)
	return n, err
}

var separatorPattern = regexp.MustCompile(`[._-]+`)

// NormalizeForCache folds case and separator variants so equivalent texts
// share a cache entry.
func NormalizeForCache(text string) string {
	s := strings.ToLower(text)
	s = separatorPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
