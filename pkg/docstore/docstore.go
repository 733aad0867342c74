// Package docstore stores loosely typed JSON documents grouped in named collections on top of a
// PostgreSQL JSONB table.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrNotFound is returned when no document exists for the requested key.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrExists is returned by Create when the key is already taken.
	ErrExists = errors.New("docstore: document already exists")
)

// Document is one raw row of a collection.
type Document struct {
	Collection string    `db:"collection"`
	ID         string    `db:"id"`
	Data       []byte    `db:"data"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Decode unmarshals the document body into dest.
func (d Document) Decode(dest interface{}) error {
	if err := json.Unmarshal(d.Data, dest); err != nil {
		return fmt.Errorf("decode %s/%s: %w", d.Collection, d.ID, err)
	}
	return nil
}

// Observer receives the duration of every statement, labelled by operation.
type Observer func(label string, duration time.Duration)

// Option customises a Store.
type Option func(*Store)

// WithObserver registers a statement timing observer.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observe = o }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store reads and writes documents.
type Store struct {
	db      *sqlx.DB
	observe Observer
	now     func() time.Time
}

// New constructs a Store.
func New(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const selectColumns = `SELECT collection, id, data, created_at, updated_at FROM documents`

// Get loads a single document and decodes it into dest.
func (s *Store) Get(ctx context.Context, collection, id string, dest interface{}) error {
	defer s.track("get", time.Now())
	var doc Document
	err := s.db.GetContext(ctx, &doc, selectColumns+` WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return doc.Decode(dest)
}

// Exists reports whether a document is stored under the key.
func (s *Store) Exists(ctx context.Context, collection, id string) (bool, error) {
	defer s.track("exists", time.Now())
	var exists int
	err := s.db.GetContext(ctx, &exists, `SELECT 1 FROM documents WHERE collection = $1 AND id = $2 LIMIT 1`, collection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check %s/%s: %w", collection, id, err)
	}
	return true, nil
}

// Create inserts value under the key only when the key is free. A taken key yields ErrExists.
func (s *Store) Create(ctx context.Context, collection, id string, value interface{}) error {
	defer s.track("create", time.Now())
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	const query = `INSERT INTO documents (collection, id, data, created_at, updated_at)
        VALUES ($1, $2, $3::jsonb, $4, $4)
        ON CONFLICT (collection, id) DO NOTHING`
	res, err := s.db.ExecContext(ctx, query, collection, id, string(payload), s.now())
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", collection, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", collection, id, err)
	}
	if affected == 0 {
		return ErrExists
	}
	return nil
}

// Put inserts or replaces the document stored under the key.
func (s *Store) Put(ctx context.Context, collection, id string, value interface{}) error {
	defer s.track("put", time.Now())
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	const query = `INSERT INTO documents (collection, id, data, created_at, updated_at)
        VALUES ($1, $2, $3::jsonb, $4, $4)
        ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	if _, err := s.db.ExecContext(ctx, query, collection, id, string(payload), s.now()); err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete removes a document. Deleting a missing key yields ErrNotFound.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	defer s.track("delete", time.Now())
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMany removes every listed key inside one transaction and returns the number removed.
func (s *Store) DeleteMany(ctx context.Context, collection string, ids []string) (int64, error) {
	defer s.track("delete_many", time.Now())
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete %s: %w", collection, err)
	}
	var total int64
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("delete %s/%s: %w", collection, id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("delete %s/%s: %w", collection, id, err)
		}
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete %s: %w", collection, err)
	}
	return total, nil
}

// List returns every document of a collection ordered by id.
func (s *Store) List(ctx context.Context, collection string) ([]Document, error) {
	defer s.track("list", time.Now())
	var docs []Document
	if err := s.db.SelectContext(ctx, &docs, selectColumns+` WHERE collection = $1 ORDER BY id`, collection); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return docs, nil
}

// ListContaining returns the documents whose body contains the given JSON fragment
// (PostgreSQL @> semantics, so {"oficinas": ["Violão"]} matches array membership).
func (s *Store) ListContaining(ctx context.Context, collection string, fragment interface{}) ([]Document, error) {
	defer s.track("list_containing", time.Now())
	payload, err := json.Marshal(fragment)
	if err != nil {
		return nil, fmt.Errorf("encode filter for %s: %w", collection, err)
	}
	var docs []Document
	query := selectColumns + ` WHERE collection = $1 AND data @> $2::jsonb ORDER BY id`
	if err := s.db.SelectContext(ctx, &docs, query, collection, string(payload)); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return docs, nil
}

func (s *Store) track(label string, start time.Time) {
	if s.observe != nil {
		s.observe("docstore_"+label, time.Since(start))
	}
}
