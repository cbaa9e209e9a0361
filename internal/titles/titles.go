// Package titles implements year generalization: folding entries whose
// default text and every translation end in the same 4-digit year into one
// year-agnostic template, and expanding such templates back for concrete
// year-suffixed texts. One generic translation ("Population") then serves
// indefinitely many year labels ("Population 1950", "Population 2024", …).
package titles

import (
	"strings"

	"svgtranslate/internal/mapping"
	"svgtranslate/internal/textutil"
)

// Lift derives the year-agnostic title table from a translation table. An
// entry qualifies when its key ends in exactly four decimal digits (and is
// not only the year) and every per-language value ends in that same year.
func Lift(new mapping.Translations) mapping.Translations {
	out := make(mapping.Translations)
	for key, langs := range new {
		year, ok := yearSuffix(key)
		if !ok || key == year {
			continue
		}
		qualifies := true
		for _, text := range langs {
			if suffix, ok := yearSuffix(text); !ok || suffix != year {
				qualifies = false
				break
			}
		}
		if !qualifies {
			continue
		}
		stripped := make(map[string]string, len(langs))
		for lang, text := range langs {
			stripped[lang] = strings.TrimSpace(text[:len(text)-4])
		}
		out[strings.TrimSpace(key[:len(key)-4])] = stripped
	}
	return out
}

// Expand produces concrete translations for the candidate texts that end in
// a 4-digit year and whose year-stripped prefix is present in the title
// table. The prefix is resolved exactly, then trimmed, then case-folded, so
// a table with folded keys still serves capitalized labels. Each produced
// value is the stored translation plus " <year>".
func Expand(title mapping.Translations, candidates []string) mapping.Translations {
	out := make(mapping.Translations)
	for _, text := range candidates {
		year, ok := yearSuffix(text)
		if !ok {
			continue
		}
		prefix := text[:len(text)-4]
		langs, ok := title[prefix]
		if !ok {
			langs, ok = title[strings.TrimSpace(prefix)]
		}
		if !ok {
			langs, ok = title[strings.ToLower(strings.TrimSpace(prefix))]
		}
		if !ok || len(langs) == 0 {
			continue
		}
		expanded := make(map[string]string, len(langs))
		for lang, stored := range langs {
			expanded[lang] = stored + " " + year
		}
		out[text] = expanded
	}
	return out
}

// yearSuffix returns the trailing 4-digit year of s, if it has one.
func yearSuffix(s string) (string, bool) {
	if len(s) < 4 {
		return "", false
	}
	year := s[len(s)-4:]
	if !textutil.IsDigits(year) {
		return "", false
	}
	return year, true
}
