// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry persists provider connections in SQLite. The registry
// is owned by the connection-management surface (the CLI); the search
// engine only reads snapshots of it and never mutates connection state.
// See docs/ARCHITECTURE.md § Connection Registry.
package registry

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/unisearch/pkg/types"
)

// Reader is the engine-facing view of the registry.
type Reader interface {
	// ListConnected returns the providers currently in connected status.
	ListConnected() ([]types.Provider, error)
}

// Store manages the connection registry database. Every mutation bumps a
// version counter so readers can detect staleness; snapshot reads are
// eventually consistent by design.
type Store struct {
	db *sql.DB
}

// Open opens or creates the registry database at path and ensures the
// schema exists.
func Open(cfg types.RegistryConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = "unisearch.db"
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening registry database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating registry schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS connections (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			token TEXT,
			email TEXT,
			base_url TEXT,
			capabilities TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_connections_status ON connections(status)`,
		`CREATE TABLE IF NOT EXISTS registry_meta (
			key TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		)`,
		`INSERT OR IGNORE INTO registry_meta (key, value) VALUES ('version', 0)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Add registers a connection. The caller provides the ID; status starts as
// given (typically connecting until the credential is verified).
func (s *Store) Add(p types.Provider) error {
	if !types.IsAppProvider(p.Type) {
		return fmt.Errorf("cannot register provider type %q", p.Type)
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO connections (id, type, name, status, token, email, base_url, capabilities, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, string(p.Type), p.Name, string(p.Status),
		p.Credential.Token, p.Credential.Email, p.Credential.BaseURL,
		strings.Join(p.Capabilities, ","), createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting connection %s: %w", p.ID, err)
	}
	return s.bumpVersion()
}

// Remove deletes a connection by ID.
func (s *Store) Remove(id string) error {
	res, err := s.db.Exec(`DELETE FROM connections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting connection %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("connection %s not found", id)
	}
	return s.bumpVersion()
}

// UpdateStatus transitions a connection's lifecycle state.
func (s *Store) UpdateStatus(id string, status types.ConnectionStatus) error {
	res, err := s.db.Exec(`UPDATE connections SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("updating connection %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("connection %s not found", id)
	}
	return s.bumpVersion()
}

// Snapshot returns the registry version and all connections.
func (s *Store) Snapshot() (int64, []types.Provider, error) {
	var version int64
	if err := s.db.QueryRow(`SELECT value FROM registry_meta WHERE key = 'version'`).Scan(&version); err != nil {
		return 0, nil, fmt.Errorf("reading registry version: %w", err)
	}

	providers, err := s.query(`SELECT id, type, name, status, token, email, base_url, capabilities, created_at
		FROM connections ORDER BY created_at`)
	if err != nil {
		return 0, nil, err
	}
	return version, providers, nil
}

// ListConnected returns providers in connected status.
func (s *Store) ListConnected() ([]types.Provider, error) {
	return s.query(`SELECT id, type, name, status, token, email, base_url, capabilities, created_at
		FROM connections WHERE status = 'connected' ORDER BY created_at`)
}

func (s *Store) query(q string, args ...any) ([]types.Provider, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying connections: %w", err)
	}
	defer rows.Close()

	var providers []types.Provider
	for rows.Next() {
		var p types.Provider
		var ptype, status, caps, createdAt string
		if err := rows.Scan(&p.ID, &ptype, &p.Name, &status,
			&p.Credential.Token, &p.Credential.Email, &p.Credential.BaseURL,
			&caps, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning connection row: %w", err)
		}
		p.Type = types.ProviderType(ptype)
		p.Status = types.ConnectionStatus(status)
		if caps != "" {
			p.Capabilities = strings.Split(caps, ",")
		}
		if t, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
			p.CreatedAt = t
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

func (s *Store) bumpVersion() error {
	if _, err := s.db.Exec(`UPDATE registry_meta SET value = value + 1 WHERE key = 'version'`); err != nil {
		return fmt.Errorf("bumping registry version: %w", err)
	}
	return nil
}
