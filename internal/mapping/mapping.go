// Package mapping defines the translation mapping exchanged at the tool
// boundary: nested defaultText -> language -> translatedText tables under
// the top-level "new" and "title" keys, persisted as JSON.
package mapping

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Translations maps a default-language text to its per-language variants.
type Translations map[string]map[string]string

// Lookup resolves key exactly, then case-folded. Returns nil when absent.
func (t Translations) Lookup(key string) map[string]string {
	if v, ok := t[key]; ok {
		return v
	}
	if v, ok := t[strings.ToLower(key)]; ok {
		return v
	}
	return nil
}

// Ensure returns the per-language table for key, creating it if needed.
func (t Translations) Ensure(key string) map[string]string {
	v, ok := t[key]
	if !ok {
		v = make(map[string]string)
		t[key] = v
	}
	return v
}

// merge adds other's entries; the receiver's existing (key, lang) pairs win.
func (t Translations) merge(other Translations) {
	for key, langs := range other {
		dst := t.Ensure(key)
		for lang, text := range langs {
			if _, ok := dst[lang]; !ok {
				dst[lang] = text
			}
		}
	}
}

// Languages returns the set of languages appearing anywhere in t.
func (t Translations) Languages() map[string]bool {
	out := make(map[string]bool)
	for _, langs := range t {
		for lang := range langs {
			out[lang] = true
		}
	}
	return out
}

// Mapping is the on-disk translation mapping: direct text translations plus
// the year-generalized title table derived from them.
type Mapping struct {
	New   Translations `json:"new,omitempty"`
	Title Translations `json:"title,omitempty"`
}

// New creates an empty mapping.
func New() *Mapping {
	return &Mapping{New: make(Translations), Title: make(Translations)}
}

// Empty reports whether the mapping holds no entries at all.
func (m *Mapping) Empty() bool {
	return len(m.New) == 0 && len(m.Title) == 0
}

// Merge folds other into m additively. Merging is first-seen-wins per
// (default text, language): later sources only add missing languages and
// missing keys, never replace existing translations.
func (m *Mapping) Merge(other *Mapping) {
	if other == nil {
		return
	}
	if m.New == nil {
		m.New = make(Translations)
	}
	if m.Title == nil {
		m.Title = make(Translations)
	}
	m.New.merge(other.New)
	m.Title.merge(other.Title)
}

// Load reads a mapping source from path. A missing or malformed source is
// absorbed into an empty mapping rather than propagated; batch callers must
// keep going without one broken source.
func Load(path string) *Mapping {
	m := New()
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Mapping source unreadable, using empty mapping")
		return m
	}
	if err := json.Unmarshal(raw, m); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Mapping source malformed, using empty mapping")
		return New()
	}
	if m.New == nil {
		m.New = make(Translations)
	}
	if m.Title == nil {
		m.Title = make(Translations)
	}
	return m
}

// LoadAll loads and merges several mapping sources in order. The first
// source to define a (text, language) pair wins.
func LoadAll(paths []string) *Mapping {
	merged := New()
	for _, p := range paths {
		merged.Merge(Load(p))
	}
	return merged
}

// Save writes the mapping to path as indented JSON with sorted keys.
func (m *Mapping) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
