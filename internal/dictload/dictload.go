// Package dictload turns the [dictionary] config section into a lazy
// dictionary loader for the kanji converter.
package dictload

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jwulff/romakan/internal/config"
	"github.com/jwulff/romakan/internal/db"
	"github.com/jwulff/romakan/internal/dict"
	"github.com/jwulff/romakan/internal/kanji"
)

// ErrNoDictionary is returned by auto mode when neither file exists.
var ErrNoDictionary = errors.New("no dictionary found")

// Loader returns a loader for the configured source.
func Loader(cfg config.DictionaryConfig) kanji.Loader {
	return func() (*dict.Dictionary, error) {
		return Load(context.Background(), cfg)
	}
}

// Load reads the configured dictionary now.
func Load(ctx context.Context, cfg config.DictionaryConfig) (*dict.Dictionary, error) {
	switch Resolve(cfg) {
	case config.SourceSQLite:
		return FromSQLite(ctx, cfg.Database)
	case config.SourceTSV:
		return FromTSV(cfg.Path)
	}
	return nil, fmt.Errorf("%w: tried %s and %s", ErrNoDictionary, cfg.Database, cfg.Path)
}

// Resolve reports which source Load will read. In auto mode that is the
// SQLite store when its file exists, then the TSV file, else "".
func Resolve(cfg config.DictionaryConfig) string {
	switch cfg.Source {
	case config.SourceTSV, config.SourceSQLite:
		return cfg.Source
	}
	if exists(cfg.Database) {
		return config.SourceSQLite
	}
	if exists(cfg.Path) {
		return config.SourceTSV
	}
	return ""
}

// FromTSV loads a "reading<TAB>cand1,cand2" file.
func FromTSV(path string) (*dict.Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()
	return dict.Load(f)
}

// FromSQLite loads a store written by "romakan import".
func FromSQLite(ctx context.Context, path string) (*dict.Dictionary, error) {
	store, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Dictionary(ctx)
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
