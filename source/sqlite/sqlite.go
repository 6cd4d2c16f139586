// Package sqlite reads documents from a SQLite table using the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"regexp"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"github.com/hupe1980/ragindex/model"
)

// DefaultTable is the table read when Options.Table is empty.
const DefaultTable = "documents"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Options configures a Source.
type Options struct {
	// Table holds the documents. It needs the columns id, content and meta,
	// where meta is a JSON object of strings or NULL.
	Table string
}

// Source yields one document per row, ordered by id.
type Source struct {
	db    *sql.DB
	query string
	owned bool
}

// Open opens a SQLite database using the modernc.org/sqlite driver.
func Open(dsn string, optFns ...func(o *Options)) (*Source, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	s, err := New(db, optFns...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// New creates a Source over an existing database handle.
func New(db *sql.DB, optFns ...func(o *Options)) (*Source, error) {
	opts := Options{Table: DefaultTable}
	for _, fn := range optFns {
		fn(&opts)
	}
	if !identifier.MatchString(opts.Table) {
		return nil, fmt.Errorf("sqlite: invalid table name %q", opts.Table)
	}

	return &Source{
		db:    db,
		query: fmt.Sprintf("SELECT id, content, meta FROM %s ORDER BY id", opts.Table),
	}, nil
}

// Close closes the database if Open created it.
func (s *Source) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// LoadDocuments implements source.Source. A row with malformed metadata
// yields an error and the sequence continues.
func (s *Source) LoadDocuments(ctx context.Context) iter.Seq2[model.Document, error] {
	return func(yield func(model.Document, error) bool) {
		rows, err := s.db.QueryContext(ctx, s.query)
		if err != nil {
			yield(model.Document{}, fmt.Errorf("sqlite: query: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				doc  model.Document
				meta sql.NullString
			)
			if err := rows.Scan(&doc.ID, &doc.Text, &meta); err != nil {
				if !yield(model.Document{}, fmt.Errorf("sqlite: scan: %w", err)) {
					return
				}
				continue
			}

			if meta.Valid && meta.String != "" {
				if err := json.Unmarshal([]byte(meta.String), &doc.Metadata); err != nil {
					if !yield(model.Document{}, fmt.Errorf("sqlite: metadata of %s: %w", doc.ID, err)) {
						return
					}
					continue
				}
			}

			if !yield(doc, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(model.Document{}, fmt.Errorf("sqlite: rows: %w", err))
		}
	}
}
