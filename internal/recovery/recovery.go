// Package recovery implements the §4.5.5 side-channel: a durable record of
// rehearsal runs that finished but could not be persisted back into their
// own table after a retried storage fault.
package recovery

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/studyfrog/core/internal/key"
	"github.com/studyfrog/core/internal/model"
)

// Store is a tiny append-only log backed by SQLite, kept deliberately
// separate from the main on-disk tables so a termination-time fault in one
// never blocks the other.
type Store struct {
	db *sql.DB
}

// Open creates (or reuses) the recovery database under dataDir.
func Open(dataDir string) (*Store, error) {
	path := filepath.Join(dataDir, "recovery.sqlite")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("recovery: opening %s: %w", path, err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS unpersisted_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		run_key TEXT NOT NULL,
		recorded_at TIMESTAMP NOT NULL,
		payload TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("recovery: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// WriteUnpersisted records run's full contents for later manual recovery.
func (s *Store) WriteUnpersisted(run model.Record) error {
	payload, err := json.Marshal(struct {
		Metadata model.Metadata `json:"metadata"`
		Data     map[string]any `json:"data"`
	}{run.Metadata, run.Data})
	if err != nil {
		return fmt.Errorf("recovery: marshaling run %s: %w", run.Metadata.Key, err)
	}

	_, err = s.db.Exec(
		`INSERT INTO unpersisted_runs (run_id, run_key, recorded_at, payload) VALUES (?, ?, ?, ?)`,
		run.Metadata.ID, run.Metadata.Key, key.Now(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("recovery: inserting run %s: %w", run.Metadata.Key, err)
	}
	return nil
}

// Pending returns every recorded run key still awaiting manual recovery.
func (s *Store) Pending() ([]string, error) {
	rows, err := s.db.Query(`SELECT run_key FROM unpersisted_runs ORDER BY recorded_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("recovery: querying pending: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("recovery: scanning row: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
