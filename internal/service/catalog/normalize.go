// Package catalog maps the loose service names customers use onto the salon's catalog categories.
package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize folds a free-text service phrase into a canonical category tag when an alias
// matches, or into its cleaned form otherwise. Blank input and input made only of stopwords
// are returned unchanged.
func Normalize(term string) string {
	if strings.TrimSpace(term) == "" {
		return term
	}

	tokens := tokenize(term)
	kept := tokens[:0]
	for _, tok := range tokens {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) == 0 {
		return term
	}

	phrase := strings.Join(kept, " ")
	if canonical, ok := serviceAliases[phrase]; ok {
		return canonical
	}
	return phrase
}

func tokenize(term string) []string {
	folded, _, err := transform.String(foldAccents, strings.ToLower(term))
	if err != nil {
		folded = strings.ToLower(term)
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)

	return strings.Fields(cleaned)
}
