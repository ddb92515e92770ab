package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Actor is a registered performer with the aliases that resolve to it
type Actor struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Aliases   []string  `json:"aliases"`
	CreatedAt time.Time `json:"created_at"`
}

// AddActor registers a canonical name and returns its id. Registering an
// existing name returns the existing id.
func (c *CatalogDB) AddActor(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrEmptyName
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.ExecContext(ctx, `INSERT OR IGNORE INTO actors (name) VALUES (?)`, name); err != nil {
		return 0, fmt.Errorf("failed to insert actor: %w", err)
	}

	var id int64
	if err := c.db.QueryRowContext(ctx, `SELECT id FROM actors WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read actor id: %w", err)
	}
	return id, nil
}

// AddAlias attaches an alternative spelling to an actor. Re-adding an alias
// the actor already owns is a no-op.
func (c *CatalogDB) AddAlias(ctx context.Context, actorID int64, alias string) error {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return ErrEmptyName
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM actors WHERE id = ?`, actorID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrActorNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check actor: %w", err)
	}

	var owner int64
	err = tx.QueryRowContext(ctx, `SELECT actor_id FROM actor_aliases WHERE alias_name = ?`, alias).Scan(&owner)
	switch {
	case err == nil && owner == actorID:
		return nil
	case err == nil:
		return ErrAliasTaken
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to check alias: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO actor_aliases (alias_name, actor_id) VALUES (?, ?)`, alias, actorID); err != nil {
		return fmt.Errorf("failed to insert alias: %w", err)
	}
	return tx.Commit()
}

// LookupNameOrAlias resolves a name to an actor id and canonical name.
// Canonical names are checked before aliases; both comparisons are exact.
func (c *CatalogDB) LookupNameOrAlias(ctx context.Context, name string) (int64, string, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, "", false, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var (
		id        int64
		canonical string
	)
	err := c.db.QueryRowContext(ctx, `SELECT id, name FROM actors WHERE name = ?`, name).Scan(&id, &canonical)
	if err == nil {
		return id, canonical, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, "", false, fmt.Errorf("failed to query actor: %w", err)
	}

	err = c.db.QueryRowContext(ctx, `
		SELECT a.id, a.name
		FROM actor_aliases al
		JOIN actors a ON a.id = al.actor_id
		WHERE al.alias_name = ?
	`, name).Scan(&id, &canonical)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", false, nil
	}
	if err != nil {
		return 0, "", false, fmt.Errorf("failed to query alias: %w", err)
	}
	return id, canonical, true, nil
}

// LookupNameByID returns the canonical name for id.
func (c *CatalogDB) LookupNameByID(ctx context.Context, id int64) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var name string
	err := c.db.QueryRowContext(ctx, `SELECT name FROM actors WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query actor: %w", err)
	}
	return name, true, nil
}

// AliasesForActor lists an actor's aliases in insertion order.
func (c *CatalogDB) AliasesForActor(ctx context.Context, actorID int64) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows, err := c.db.QueryContext(ctx, `SELECT alias_name FROM actor_aliases WHERE actor_id = ? ORDER BY id`, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query aliases: %w", err)
	}
	defer rows.Close()

	var aliases []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}

// ListActorsWithAliases returns every actor sorted by name, case-insensitively.
func (c *CatalogDB) ListActorsWithAliases(ctx context.Context) ([]Actor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows, err := c.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.created_at, al.alias_name
		FROM actors a
		LEFT JOIN actor_aliases al ON al.actor_id = a.id
		ORDER BY a.name COLLATE NOCASE, a.id, al.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list actors: %w", err)
	}
	defer rows.Close()

	var actors []Actor
	for rows.Next() {
		var (
			id        int64
			name      string
			createdAt time.Time
			alias     sql.NullString
		)
		if err := rows.Scan(&id, &name, &createdAt, &alias); err != nil {
			return nil, err
		}
		if len(actors) == 0 || actors[len(actors)-1].ID != id {
			actors = append(actors, Actor{ID: id, Name: name, CreatedAt: createdAt, Aliases: []string{}})
		}
		if alias.Valid {
			last := &actors[len(actors)-1]
			last.Aliases = append(last.Aliases, alias.String)
		}
	}
	return actors, rows.Err()
}

// SeedSampleData registers a few actors and aliases for demos and tests.
// Running it twice leaves the same data.
func (c *CatalogDB) SeedSampleData(ctx context.Context) error {
	samples := []struct {
		name    string
		aliases []string
	}{
		{"John Doe", []string{"Johnny D", "J. Doe"}},
		{"Jane Smith", []string{"J. Smith"}},
	}

	for _, s := range samples {
		id, err := c.AddActor(ctx, s.name)
		if err != nil {
			return fmt.Errorf("seed actor %q: %w", s.name, err)
		}
		for _, alias := range s.aliases {
			if err := c.AddAlias(ctx, id, alias); err != nil {
				return fmt.Errorf("seed alias %q: %w", alias, err)
			}
		}
	}
	return nil
}
