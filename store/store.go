// Package store persists a crawl session's frontier, pages, links, and
// domain policy in SQLite, plus a disk-backed bloom filter that
// pre-filters the seen-check before it ever hits the database.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store is a single-writer handle onto one SQLite database file, shared
// across every session it contains.
type Store struct {
	db   *sql.DB
	seen *seenCache
}

// Open opens (creating if absent) the SQLite database at path, applies
// pending migrations, and wires up the bloom pre-filter cache.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// SQLite is single-writer; one connection avoids SQLITE_BUSY under
	// the engine's own serialized write discipline.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	seen, err := newSeenCache()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init seen cache: %w", err)
	}

	return &Store{db: db, seen: seen}, nil
}

// Close releases the database handle and the bloom filter's mmap.
func (s *Store) Close() error {
	var errs []error
	if err := s.seen.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close store: %v", errs)
	}
	return nil
}
