// Package memory provides a persistent translation memory: a SQLite-backed
// store of (default text, language) -> translation pairs accumulated across
// extract runs and offered as an extra mapping source at inject time. An
// in-memory map sits in front of the database.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"svgtranslate/internal/mapping"
	"svgtranslate/internal/titles"
)

const schema = `
CREATE TABLE IF NOT EXISTS translations (
	source     TEXT NOT NULL,
	lang       TEXT NOT NULL,
	translated TEXT NOT NULL,
	PRIMARY KEY (source, lang)
);`

// Memory is a translation memory backed by a SQLite file.
type Memory struct {
	db     *sql.DB
	mu     sync.RWMutex
	mem    map[string]map[string]string // source -> lang -> translated
	loaded bool
}

// Open opens (creating if needed) the translation memory at path.
func Open(path string) (*Memory, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open translation memory: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init translation memory schema: %w", err)
	}
	return &Memory{db: db, mem: make(map[string]map[string]string)}, nil
}

// Close releases the underlying database.
func (m *Memory) Close() error {
	return m.db.Close()
}

// Preload loads all stored pairs into the in-memory map.
func (m *Memory) Preload(ctx context.Context) error {
	rows, err := m.db.QueryContext(ctx, `SELECT source, lang, translated FROM translations`)
	if err != nil {
		return fmt.Errorf("preload translation memory: %w", err)
	}
	defer rows.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for rows.Next() {
		var source, lang, translated string
		if err := rows.Scan(&source, &lang, &translated); err != nil {
			return fmt.Errorf("scan translation memory row: %w", err)
		}
		langs, ok := m.mem[source]
		if !ok {
			langs = make(map[string]string)
			m.mem[source] = langs
		}
		langs[lang] = translated
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate translation memory: %w", err)
	}
	m.loaded = true

	log.Info().Int("count", count).Msg("Preloaded translation memory")
	return nil
}

// Get returns the stored translation for (source, lang), if any. The first
// lookup preloads the whole store; later lookups, hits and misses alike, are
// answered from the in-memory map without touching the database.
func (m *Memory) Get(ctx context.Context, source, lang string) (string, bool) {
	if err := m.ensureLoaded(ctx); err != nil {
		log.Warn().Err(err).Msg("Translation memory unavailable")
		return "", false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if langs, ok := m.mem[source]; ok {
		if v, ok := langs[lang]; ok {
			return v, true
		}
	}
	return "", false
}

func (m *Memory) ensureLoaded(ctx context.Context) error {
	m.mu.RLock()
	loaded := m.loaded
	m.mu.RUnlock()
	if loaded {
		return nil
	}
	return m.Preload(ctx)
}

// Store persists every pair in tr. Existing (source, lang) pairs are kept
// untouched, matching the first-seen-wins mapping merge policy.
func (m *Memory) Store(ctx context.Context, tr mapping.Translations) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin translation memory store: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO translations (source, lang, translated) VALUES (?, ?, ?)
		 ON CONFLICT (source, lang) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare translation memory store: %w", err)
	}
	defer stmt.Close()

	for source, langs := range tr {
		for lang, translated := range langs {
			if translated == "" {
				continue
			}
			if _, err := stmt.ExecContext(ctx, source, lang, translated); err != nil {
				return fmt.Errorf("store translation: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit translation memory store: %w", err)
	}

	m.mu.Lock()
	for source, langs := range tr {
		dst, ok := m.mem[source]
		if !ok {
			dst = make(map[string]string)
			m.mem[source] = dst
		}
		for lang, translated := range langs {
			if translated == "" {
				continue
			}
			if _, exists := dst[lang]; !exists {
				dst[lang] = translated
			}
		}
	}
	m.mu.Unlock()
	return nil
}

// Mapping exports the whole translation memory as a mapping source, with
// the year-generalized title table derived on the fly.
func (m *Memory) Mapping(ctx context.Context) (*mapping.Mapping, error) {
	if err := m.Preload(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := mapping.New()
	for source, langs := range m.mem {
		dst := out.New.Ensure(source)
		for lang, translated := range langs {
			dst[lang] = translated
		}
	}
	out.Title = titles.Lift(out.New)
	return out, nil
}
