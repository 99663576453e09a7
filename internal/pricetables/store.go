// Package pricetables stores price table revisions. The newest revision is
// the one loaded at startup; stored documents are never edited in place.
package pricetables

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/hagaki/internal/pricing"
)

// ErrNotFound is returned when no revision has been stored yet.
var ErrNotFound = errors.New("price table revision not found")

// Revision is one stored price table document.
type Revision struct {
	ID        int64
	Document  string
	Note      string
	CreatedAt string
}

// Store persists revisions in the price_tables table.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Import validates document as a price table and stores it as the newest revision.
func (s *Store) Import(ctx context.Context, document []byte, note string) (int64, error) {
	if _, err := pricing.ParseTable(document); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO price_tables (document, note)
		VALUES (?, ?)
	`, string(document), note)
	if err != nil {
		return 0, fmt.Errorf("insert price table revision: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read price table revision id: %w", err)
	}
	return id, nil
}

// Latest returns the newest revision.
func (s *Store) Latest(ctx context.Context) (Revision, error) {
	var rev Revision
	err := s.db.QueryRowContext(ctx, `
		SELECT id, document, note, created_at
		FROM price_tables
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&rev.ID, &rev.Document, &rev.Note, &rev.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Revision{}, ErrNotFound
		}
		return Revision{}, fmt.Errorf("query latest price table: %w", err)
	}
	return rev, nil
}

// List returns every revision, newest first, without documents.
func (s *Store) List(ctx context.Context) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, note, created_at
		FROM price_tables
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query price tables: %w", err)
	}
	defer rows.Close()

	revisions := make([]Revision, 0)
	for rows.Next() {
		var rev Revision
		if err := rows.Scan(&rev.ID, &rev.Note, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan price table: %w", err)
		}
		revisions = append(revisions, rev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price tables: %w", err)
	}

	return revisions, nil
}

// LoadTable parses the newest revision into a price table.
func (s *Store) LoadTable(ctx context.Context) (*pricing.Table, Revision, error) {
	rev, err := s.Latest(ctx)
	if err != nil {
		return nil, Revision{}, err
	}
	table, err := pricing.ParseTable([]byte(rev.Document))
	if err != nil {
		return nil, Revision{}, fmt.Errorf("price table revision %d: %w", rev.ID, err)
	}
	return table, rev, nil
}
