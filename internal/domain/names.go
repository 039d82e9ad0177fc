package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// nameConnectors stay lowercase inside a normalized display name.
var nameConnectors = map[string]bool{
	"de": true, "da": true, "do": true, "dos": true, "das": true, "e": true,
}

// NormalizeName trims the name, collapses internal whitespace and title-cases
// every word except the Portuguese connector words.
func NormalizeName(name string) string {
	// Casers keep state and must not be shared between goroutines.
	lower := cases.Lower(language.BrazilianPortuguese)
	title := cases.Title(language.BrazilianPortuguese)

	words := strings.Fields(lower.String(name))
	for i, w := range words {
		if nameConnectors[w] {
			continue
		}
		words[i] = title.String(w)
	}
	return strings.Join(words, " ")
}
