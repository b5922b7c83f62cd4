package shared

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var searchNormalizer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeSearch lowercases a term and strips diacritics so that
// "Árbol" matches "arbol". Returns the input unchanged if the
// transformation fails.
func NormalizeSearch(term string) string {
	lowered := strings.ToLower(strings.TrimSpace(term))
	normalized, _, err := transform.String(searchNormalizer, lowered)
	if err != nil {
		return lowered
	}
	return normalized
}
