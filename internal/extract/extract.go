// Package extract walks a normalized SVG document and builds the
// translation mapping: for every <switch>, the untagged fallback's spans
// anchor the default texts, and each tagged sibling contributes per-language
// translations resolved through the <fallbackSpanId>[-suffix] id convention.
package extract

import (
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/rs/zerolog/log"

	"svgtranslate/internal/mapping"
	"svgtranslate/internal/svg"
	"svgtranslate/internal/textutil"
	"svgtranslate/internal/titles"
)

// Options controls extraction behavior.
type Options struct {
	// CaseSensitive disables the default case folding of mapping keys.
	CaseSensitive bool
}

// Extract builds a translation mapping from a normalized document. Switches
// without an untagged fallback are skipped: there is nothing to anchor
// translations to. Spans whose id does not resolve to a fallback span are
// skipped likewise.
func Extract(doc *svg.Document, opts Options) *mapping.Mapping {
	m := mapping.New()
	processed := 0

	for _, sw := range doc.Find("switch") {
		texts := svg.ChildElements(sw, "text")
		fallback := findFallback(texts)
		if fallback == nil {
			continue
		}

		// Table of fallback span id -> normalized default text, with a
		// lowercased shadow for case-insensitive id resolution.
		byID := make(map[string]string)
		byLowerID := make(map[string]string)
		for _, span := range svg.ChildElements(fallback, "tspan") {
			text := textutil.Normalize(svg.Text(span))
			if text == "" {
				continue
			}
			if id := svg.Attr(span, "id"); id != "" {
				byID[id] = text
				lower := strings.ToLower(id)
				if prev, ok := byLowerID[lower]; ok && prev != text {
					log.Debug().Str("id", id).Msg("Case-colliding span ids in fallback, last one wins")
				}
				byLowerID[lower] = text
			}
			// Default texts appear in the mapping even before any
			// translation exists for them.
			m.New.Ensure(foldKey(text, opts))
		}

		found := false
		for _, text := range texts {
			lang := svg.Attr(text, "systemLanguage")
			if lang == "" {
				continue
			}
			for _, span := range svg.ChildElements(text, "tspan") {
				source, ok := resolveSource(svg.Attr(span, "id"), byID, byLowerID)
				if !ok {
					continue
				}
				translated := textutil.Normalize(svg.Text(span))
				m.New.Ensure(foldKey(source, opts))[lang] = translated
				found = true
			}
		}
		if found {
			processed++
		}
	}

	m.Title = titles.Lift(m.New)

	log.Debug().
		Int("switches", processed).
		Int("texts", len(m.New)).
		Int("titles", len(m.Title)).
		Msg("Extraction complete")
	return m
}

// findFallback returns the first <text> without a systemLanguage tag.
func findFallback(texts []*xmlquery.Node) *xmlquery.Node {
	for _, t := range texts {
		if svg.Attr(t, "systemLanguage") == "" {
			return t
		}
	}
	return nil
}

// resolveSource maps a translated span's id back to its fallback span text
// via the id convention <fallbackSpanId>[-suffix]: split on the first '-',
// look the prefix up exactly, then case-insensitively.
func resolveSource(id string, byID, byLowerID map[string]string) (string, bool) {
	prefix := strings.TrimSpace(strings.SplitN(id, "-", 2)[0])
	if prefix == "" {
		return "", false
	}
	if text, ok := byID[prefix]; ok {
		return text, true
	}
	if text, ok := byLowerID[strings.ToLower(prefix)]; ok {
		return text, true
	}
	return "", false
}

func foldKey(text string, opts Options) string {
	return textutil.Fold(text, !opts.CaseSensitive)
}
