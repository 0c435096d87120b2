package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jwulff/romakan/internal/config"
	"github.com/jwulff/romakan/internal/dict"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed dictionary.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	return filepath.Join(config.Dir(), "dictionary.sqlite")
}

// Open opens an existing store in read-only mode with WAL.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Create opens path for writing, creating the file and schema as needed.
func Create(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Import replaces the store's content with entries in one transaction and
// records where they came from.
func (s *Store) Import(ctx context.Context, entries []dict.Entry, source string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM candidates`); err != nil {
		return fmt.Errorf("clear candidates: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}

	insEntry, err := tx.PrepareContext(ctx, `INSERT INTO entries (reading) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer insEntry.Close()

	insCand, err := tx.PrepareContext(ctx, `INSERT INTO candidates (reading, rank, candidate) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare candidate insert: %w", err)
	}
	defer insCand.Close()

	for _, e := range entries {
		if e.Reading == "" || len(e.Candidates) == 0 {
			continue
		}
		if _, err := insEntry.ExecContext(ctx, e.Reading); err != nil {
			return fmt.Errorf("insert entry %q: %w", e.Reading, err)
		}
		for rank, c := range e.Candidates {
			if _, err := insCand.ExecContext(ctx, e.Reading, rank, c); err != nil {
				return fmt.Errorf("insert candidate %q: %w", c, err)
			}
		}
	}

	meta := map[string]string{
		"source":      source,
		"imported_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, v); err != nil {
			return fmt.Errorf("write meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// Dictionary loads the whole store into memory.
func (s *Store) Dictionary(ctx context.Context) (*dict.Dictionary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT reading, candidate
		FROM candidates
		ORDER BY reading ASC, rank ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var entries []dict.Entry
	for rows.Next() {
		var reading, candidate string
		if err := rows.Scan(&reading, &candidate); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if n := len(entries); n > 0 && entries[n-1].Reading == reading {
			entries[n-1].Candidates = append(entries[n-1].Candidates, candidate)
			continue
		}
		entries = append(entries, dict.Entry{Reading: reading, Candidates: []string{candidate}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}
	return dict.New(entries), nil
}

// Count returns the number of readings in the store.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Info reports the import source, import time and entry count. A store that
// was never imported into has an empty source and zero time.
func (s *Store) Info(ctx context.Context) (DictionaryInfo, error) {
	var info DictionaryInfo

	source, err := s.meta(ctx, "source")
	if err != nil {
		return info, err
	}
	info.Source = source

	stamp, err := s.meta(ctx, "imported_at")
	if err != nil {
		return info, err
	}
	if stamp != "" {
		if t, err := time.Parse(time.RFC3339, stamp); err == nil {
			info.ImportedAt = t
		}
	}

	info.Entries, err = s.Count(ctx)
	return info, err
}

func (s *Store) meta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read meta %s: %w", key, err)
	}
	return value, nil
}
