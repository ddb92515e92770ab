// Package database persists the actor registry and consolidated video
// records in SQLite.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

var (
	// ErrEmptyName is returned when an actor name or alias is blank.
	ErrEmptyName = errors.New("name must not be empty")
	// ErrActorNotFound is returned when an operation references an unknown actor id.
	ErrActorNotFound = errors.New("actor not found")
	// ErrAliasTaken is returned when an alias already belongs to another actor.
	ErrAliasTaken = errors.New("alias already assigned to another actor")
)

// dsnPragmas apply to every pooled connection.
const dsnPragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// CatalogDB is the database handle for the actor registry and video records
type CatalogDB struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// OpenPath opens or creates the database at a specific path
func OpenPath(path string) (*CatalogDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?"+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return newCatalog(db, path)
}

// OpenInMemory opens an in-memory database for testing
func OpenInMemory() (*CatalogDB, error) {
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// every new connection would get its own empty database
	db.SetMaxOpenConns(1)

	return newCatalog(db, ":memory:")
}

func newCatalog(db *sql.DB, path string) (*CatalogDB, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	c := &CatalogDB{db: db, path: path}
	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return c, nil
}

// Close closes the database connection
func (c *CatalogDB) Close() error {
	return c.db.Close()
}

// Path returns the filesystem path to the database file
func (c *CatalogDB) Path() string {
	return c.path
}

// DB returns the underlying sql.DB for components that own their own tables
func (c *CatalogDB) DB() *sql.DB {
	return c.db
}

// SchemaVersion reports the highest applied migration.
func (c *CatalogDB) SchemaVersion() (int, error) {
	var v int
	err := c.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v)
	return v, err
}
