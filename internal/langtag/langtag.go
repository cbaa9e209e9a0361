// Package langtag canonicalizes language tags into a simple IETF-like form.
// This is a lightweight normalizer, not a full BCP 47 parser.
package langtag

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	sepRe  = regexp.MustCompile(`[-_\s]+`)
	listRe = regexp.MustCompile(`,\s*`)

	titler = cases.Title(language.Und)
)

// Normalize canonicalizes a single language tag:
//
//	"en_us" -> "en-US"
//	"EN"    -> "en"
//	"pt-br" -> "pt-BR"
//	"zh_hans" -> "zh-Hans"
//
// The empty tag passes through unchanged. Normalize is idempotent.
func Normalize(tag string) string {
	if tag == "" {
		return tag
	}
	pieces := sepRe.Split(strings.TrimSpace(tag), -1)
	primary := strings.ToLower(pieces[0])
	if len(pieces) == 1 {
		return primary
	}
	rest := make([]string, 0, len(pieces)-1)
	for _, p := range pieces[1:] {
		if len(p) == 2 {
			// Two-letter subtags follow the region convention.
			rest = append(rest, strings.ToUpper(p))
		} else {
			// Script and variant subtags are title-cased.
			rest = append(rest, titler.String(p))
		}
	}
	return primary + "-" + strings.Join(rest, "-")
}

// NormalizeList canonicalizes a comma-separated tag list attribute value,
// normalizing each tag independently.
func NormalizeList(attr string) string {
	parts := SplitList(attr)
	for i, p := range parts {
		parts[i] = Normalize(p)
	}
	return strings.Join(parts, ",")
}

// SplitList splits a comma-separated tag list attribute value.
func SplitList(attr string) []string {
	return listRe.Split(attr, -1)
}
