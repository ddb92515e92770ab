package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// VideoRecord is one consolidated video as stored in the catalog
type VideoRecord struct {
	ID                   int64     `json:"id"`
	Filepath             string    `json:"filepath"`
	Code                 string    `json:"code,omitempty"`
	Title                string    `json:"title,omitempty"`
	Publisher            string    `json:"publisher,omitempty"`
	DurationSeconds      *int      `json:"duration_seconds,omitempty"`
	StandardizedFilename string    `json:"standardized_filename,omitempty"`
	ActorIDs             []int64   `json:"actor_ids"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// UpsertVideo inserts or updates the record keyed by filepath and replaces
// its actor links, all in one transaction. It returns the video id.
func (c *CatalogDB) UpsertVideo(ctx context.Context, rec VideoRecord) (int64, error) {
	if strings.TrimSpace(rec.Filepath) == "" {
		return 0, fmt.Errorf("video filepath: %w", ErrEmptyName)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO videos (code, title, publisher, duration_seconds, filepath, standardized_filename)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(filepath) DO UPDATE SET
			code = excluded.code,
			title = excluded.title,
			publisher = excluded.publisher,
			duration_seconds = excluded.duration_seconds,
			standardized_filename = excluded.standardized_filename,
			updated_at = CURRENT_TIMESTAMP
	`, nullString(rec.Code), nullString(rec.Title), nullString(rec.Publisher),
		nullInt(rec.DurationSeconds), rec.Filepath, nullString(rec.StandardizedFilename))
	if err != nil {
		return 0, fmt.Errorf("failed to upsert video: %w", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM videos WHERE filepath = ?`, rec.Filepath).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read video id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM video_actors WHERE video_id = ?`, id); err != nil {
		return 0, fmt.Errorf("failed to clear actor links: %w", err)
	}
	for _, actorID := range rec.ActorIDs {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO video_actors (video_id, actor_id) VALUES (?, ?)`, id, actorID); err != nil {
			return 0, fmt.Errorf("failed to link actor %d: %w", actorID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetVideoByPath returns the record for filepath, or nil if none exists.
func (c *CatalogDB) GetVideoByPath(ctx context.Context, filepath string) (*VideoRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	row := c.db.QueryRowContext(ctx, selectVideoColumns+` WHERE filepath = ?`, filepath)
	rec, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query video: %w", err)
	}

	ids, err := c.actorIDsFor(ctx, []int64{rec.ID})
	if err != nil {
		return nil, err
	}
	rec.ActorIDs = ids[rec.ID]
	return rec, nil
}

// ListVideos returns the most recently updated records first. A limit of
// zero or less returns every record.
func (c *CatalogDB) ListVideos(ctx context.Context, limit int) ([]VideoRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	query := selectVideoColumns + ` ORDER BY updated_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var (
		videos []VideoRecord
		ids    []int64
	)
	for rows.Next() {
		rec, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *rec)
		ids = append(ids, rec.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	links, err := c.actorIDsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range videos {
		videos[i].ActorIDs = links[videos[i].ID]
	}
	return videos, nil
}

const selectVideoColumns = `
	SELECT id, filepath, code, title, publisher, duration_seconds,
	       standardized_filename, created_at, updated_at
	FROM videos`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVideo(row rowScanner) (*VideoRecord, error) {
	var (
		rec                             VideoRecord
		code, title, publisher, stdName sql.NullString
		duration                        sql.NullInt64
	)
	err := row.Scan(&rec.ID, &rec.Filepath, &code, &title, &publisher, &duration,
		&stdName, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.Code = code.String
	rec.Title = title.String
	rec.Publisher = publisher.String
	rec.StandardizedFilename = stdName.String
	if duration.Valid {
		d := int(duration.Int64)
		rec.DurationSeconds = &d
	}
	rec.ActorIDs = []int64{}
	return &rec, nil
}

// actorIDsFor loads actor links for the given videos. Caller holds the read lock.
func (c *CatalogDB) actorIDsFor(ctx context.Context, videoIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(videoIDs))
	if len(videoIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(videoIDs)), ",")
	args := make([]interface{}, len(videoIDs))
	for i, id := range videoIDs {
		args[i] = id
		out[id] = []int64{}
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT video_id, actor_id FROM video_actors WHERE video_id IN (`+placeholders+`) ORDER BY video_id, actor_id`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query actor links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var videoID, actorID int64
		if err := rows.Scan(&videoID, &actorID); err != nil {
			return nil, err
		}
		out[videoID] = append(out[videoID], actorID)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
