// Package store provides a SQLite-backed document store for the planning
// collections. Each record is kept as its JSON body, keyed by collection and
// id, with the period and one reference column pulled out for queries.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Store is an open document database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at the given path and applies
// migrations.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	// One connection keeps writers serialized.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Document is one record ready to be written. Body is marshalled to JSON.
type Document struct {
	Collection string
	ID         string
	Period     string
	Ref        string
	Body       any
}

// ErrNotFound is returned by single-document reads.
var ErrNotFound = errors.New("store: document not found")

// Put upserts documents in one transaction.
func (s *Store) Put(docs ...Document) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := putTx(tx, "", docs); err != nil {
		return err
	}
	return tx.Commit()
}

func putTx(tx *sql.Tx, sourceFile string, docs []Document) error {
	stmt, err := tx.Prepare(`INSERT INTO documents
		(collection, id, period, ref, source_file, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			period = excluded.period,
			ref = excluded.ref,
			source_file = CASE WHEN excluded.source_file = '' THEN documents.source_file ELSE excluded.source_file END,
			body = excluded.body,
			updated_at = excluded.updated_at`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, d := range docs {
		if d.Collection == "" || d.ID == "" {
			return fmt.Errorf("document without collection or id")
		}
		body, err := json.Marshal(d.Body)
		if err != nil {
			return fmt.Errorf("encoding %s/%s: %w", d.Collection, d.ID, err)
		}
		if _, err := stmt.Exec(d.Collection, d.ID, d.Period, d.Ref, sourceFile, string(body), now); err != nil {
			return fmt.Errorf("writing %s/%s: %w", d.Collection, d.ID, err)
		}
	}
	return nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *Store) Delete(collection, id string) error {
	_, err := s.db.Exec("DELETE FROM documents WHERE collection = ? AND id = ?", collection, id)
	return err
}

// Get decodes one document into v.
func (s *Store) Get(collection, id string, v any) error {
	var body string
	err := s.db.QueryRow("SELECT body FROM documents WHERE collection = ? AND id = ?", collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(body), v)
}

// Query selects the bodies of a collection in insertion order. Empty
// period or ref match everything.
func (s *Store) Query(collection, period, ref string, fn func(body []byte) error) error {
	q := "SELECT body FROM documents WHERE collection = ?"
	args := []any{collection}
	if period != "" {
		q += " AND period = ?"
		args = append(args, period)
	}
	if ref != "" {
		q += " AND ref = ?"
		args = append(args, ref)
	}
	q += " ORDER BY rowid"

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return err
		}
		if err := fn(body); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the number of documents matching collection and ref.
func (s *Store) Count(collection, ref string) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM documents WHERE collection = ? AND (? = '' OR ref = ?)",
		collection, ref, ref).Scan(&n)
	return n, err
}

// Counts returns the document count per collection.
func (s *Store) Counts() (map[string]int, error) {
	rows, err := s.db.Query("SELECT collection, COUNT(*) FROM documents GROUP BY collection")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]int)
	for rows.Next() {
		var c string
		var n int
		if err := rows.Scan(&c, &n); err != nil {
			return nil, err
		}
		out[c] = n
	}
	return out, rows.Err()
}

// Periods lists the distinct non-empty periods of a collection, sorted.
func (s *Store) Periods(collection string) ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT period FROM documents WHERE collection = ? AND period != '' ORDER BY period", collection)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
