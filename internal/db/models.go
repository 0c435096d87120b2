// Package db stores conversion dictionaries in SQLite.
package db

import "time"

// DictionaryInfo describes the content of a store.
type DictionaryInfo struct {
	Source     string
	ImportedAt time.Time
	Entries    int
}

// Schema creates the dictionary tables.
const Schema = `
	CREATE TABLE IF NOT EXISTS entries (
		reading TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS candidates (
		reading TEXT NOT NULL REFERENCES entries(reading) ON DELETE CASCADE,
		rank INTEGER NOT NULL,
		candidate TEXT NOT NULL,
		PRIMARY KEY (reading, rank)
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
`
