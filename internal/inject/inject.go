// Package inject merges a translation mapping into a normalized SVG
// document, creating or updating tagged <text> variants next to each
// switch's untagged fallback.
package inject

import (
	"sort"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/rs/zerolog/log"

	"svgtranslate/internal/mapping"
	"svgtranslate/internal/prepare"
	"svgtranslate/internal/svg"
	"svgtranslate/internal/textutil"
	"svgtranslate/internal/titles"
)

// Options controls injection behavior.
type Options struct {
	// Overwrite replaces existing translations in place. When false an
	// existing tagged sibling is left untouched and counted as skipped.
	Overwrite bool
	// CaseSensitive must match the mode the mapping was extracted with.
	CaseSensitive bool
}

// Stats counts what one injection pass did to a document.
type Stats struct {
	ProcessedSwitches   int `json:"processed_switches"`
	NewTranslations     int `json:"new_translations"`
	UpdatedTranslations int `json:"updated_translations"`
	SkippedTranslations int `json:"skipped_translations"`
	NewLanguages        int `json:"new_languages"`
	StructureErrors     int `json:"structure_errors"`
}

// Add folds other into s. Addition is commutative, so batch workers can
// aggregate per-document stats in any order.
func (s *Stats) Add(other Stats) {
	s.ProcessedSwitches += other.ProcessedSwitches
	s.NewTranslations += other.NewTranslations
	s.UpdatedTranslations += other.UpdatedTranslations
	s.SkippedTranslations += other.SkippedTranslations
	s.NewLanguages += other.NewLanguages
	s.StructureErrors += other.StructureErrors
}

// Changed reports whether the pass altered the document.
func (s Stats) Changed() bool {
	return s.NewTranslations > 0 || s.UpdatedTranslations > 0
}

// Inject merges m into doc in place and returns per-document statistics.
// doc must already be normalized; on a malformed switch Inject returns the
// same structural errors the normalizer would, before mutating anything.
func Inject(doc *svg.Document, m *mapping.Mapping, opts Options) (*Stats, error) {
	stats := &Stats{}
	switches := doc.Find("switch")

	// Validate every switch up front so a structural error never leaves the
	// document partially mutated.
	for _, sw := range switches {
		if err := validateSwitch(sw); err != nil {
			stats.StructureErrors++
			return stats, err
		}
	}

	usedIDs := collectIDs(doc)
	docLangs := collectLanguages(doc)

	for _, sw := range switches {
		texts := svg.ChildElements(sw, "text")
		fallback := findFallback(texts)
		if fallback == nil {
			continue
		}
		spans := svg.ChildElements(fallback, "tspan")
		if len(spans) == 0 {
			continue
		}

		// Per-span translation tables, primary mapping first, then the
		// year-generalized title table.
		perSpan := make([]map[string]string, len(spans))
		langSet := make(map[string]bool)
		for i, span := range spans {
			source := textutil.Normalize(svg.Text(span))
			key := textutil.Fold(source, !opts.CaseSensitive)
			translations := m.New.Lookup(key)
			if len(translations) == 0 {
				translations = titles.Expand(m.Title, []string{source})[source]
			}
			perSpan[i] = translations
			for lang := range translations {
				langSet[lang] = true
			}
		}
		if len(langSet) == 0 {
			// No translation found for this switch: normal, not an error.
			continue
		}
		stats.ProcessedSwitches++

		existing := make(map[string]*xmlquery.Node)
		for _, t := range texts {
			if lang := svg.Attr(t, "systemLanguage"); lang != "" {
				existing[lang] = t
			}
		}

		for _, lang := range sortedKeys(langSet) {
			if sibling, ok := existing[lang]; ok {
				if !opts.Overwrite {
					stats.SkippedTranslations++
					continue
				}
				overwriteSpans(sibling, perSpan, lang)
				stats.UpdatedTranslations++
				continue
			}

			clone := cloneFallback(fallback, lang, perSpan, usedIDs)
			svg.AppendChild(sw, clone)
			stats.NewTranslations++
			if !docLangs[lang] {
				docLangs[lang] = true
				stats.NewLanguages++
			}
		}

		prepare.ReorderSwitch(sw)
	}

	log.Debug().
		Int("switches", stats.ProcessedSwitches).
		Int("new", stats.NewTranslations).
		Int("updated", stats.UpdatedTranslations).
		Int("skipped", stats.SkippedTranslations).
		Msg("Injection complete")
	return stats, nil
}

// cloneFallback structurally clones the fallback <text> for one language:
// same span layout, ids suffixed with the language tag (de-duplicated
// against every id in the document), span texts replaced where the mapping
// has a translation for that span.
func cloneFallback(fallback *xmlquery.Node, lang string, perSpan []map[string]string, usedIDs map[string]bool) *xmlquery.Node {
	clone := svg.CloneNode(fallback)
	svg.SetAttr(clone, "systemLanguage", lang)
	if id := svg.Attr(clone, "id"); id != "" {
		svg.SetAttr(clone, "id", uniqueID(id+"-"+lang, usedIDs))
	}
	for i, span := range svg.ChildElements(clone, "tspan") {
		if id := svg.Attr(span, "id"); id != "" {
			svg.SetAttr(span, "id", uniqueID(id+"-"+lang, usedIDs))
		}
		if i < len(perSpan) {
			if text, ok := perSpan[i][lang]; ok {
				svg.SetText(span, text)
			}
		}
	}
	return clone
}

// overwriteSpans replaces an existing variant's span texts in place, by
// positional correspondence with the fallback's spans. Spans without a
// translation for lang keep their current text.
func overwriteSpans(sibling *xmlquery.Node, perSpan []map[string]string, lang string) {
	for i, span := range svg.ChildElements(sibling, "tspan") {
		if i >= len(perSpan) {
			break
		}
		if text, ok := perSpan[i][lang]; ok {
			svg.SetText(span, text)
		}
	}
}

// uniqueID returns base, or base with "-2", "-3", … appended until the id is
// unused anywhere in the document, and marks the result as used.
func uniqueID(base string, used map[string]bool) string {
	id := base
	for n := 2; used[id]; n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	used[id] = true
	return id
}

// validateSwitch re-checks the structural prerequisites the normalizer
// guarantees, so injecting an unnormalized document fails cleanly instead of
// corrupting output.
func validateSwitch(sw *xmlquery.Node) error {
	seen := make(map[string]bool)
	for _, c := range svg.Children(sw) {
		switch c.Type {
		case xmlquery.ElementNode:
			if c.Data != "text" {
				return &prepare.StructureError{Code: prepare.ErrSwitchChildNotText, Node: c, Extra: c.Data}
			}
			tag := svg.Attr(c, "systemLanguage")
			if tag == "" {
				tag = "fallback"
			}
			if seen[tag] {
				return &prepare.StructureError{Code: prepare.ErrMultipleTextSameLang, Node: sw, Extra: tag}
			}
			seen[tag] = true
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if strings.TrimSpace(c.Data) != "" {
				return &prepare.StructureError{Code: prepare.ErrSwitchTextOutside, Node: c, Extra: ""}
			}
		}
	}
	return nil
}

func findFallback(texts []*xmlquery.Node) *xmlquery.Node {
	for _, t := range texts {
		if svg.Attr(t, "systemLanguage") == "" {
			return t
		}
	}
	return nil
}

// collectIDs gathers every id attribute in the document.
func collectIDs(doc *svg.Document) map[string]bool {
	used := make(map[string]bool)
	var walk func(n *xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		if n.Type == xmlquery.ElementNode {
			if id := svg.Attr(n, "id"); id != "" {
				used[id] = true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root := doc.Root(); root != nil {
		walk(root)
	}
	return used
}

// collectLanguages gathers every systemLanguage tag in the document.
func collectLanguages(doc *svg.Document) map[string]bool {
	langs := make(map[string]bool)
	for _, t := range doc.Find("text") {
		if lang := svg.Attr(t, "systemLanguage"); lang != "" {
			langs[lang] = true
		}
	}
	return langs
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
