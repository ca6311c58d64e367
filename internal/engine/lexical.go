package engine

import (
	"strings"
	"unicode"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// TextSimilarity computes a lexical similarity in [0,1] between two strings.
// It is case-insensitive and symmetric. Empty input on either side scores 0,
// an exact match scores 1, and containment scores a flat 0.7. Everything
// else is a weighted blend of character ratio, partial ratio and
// token-sort ratio.
func TextSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.7
	}

	// The ratio blend works on alphanumeric content. Strings that carry
	// none (pure punctuation or symbols) degrade to word-set overlap.
	if !hasAlphanumeric(a) || !hasAlphanumeric(b) {
		return JaccardSimilarity(a, b)
	}

	ratio := float64(fuzzy.Ratio(a, b)) / 100.0
	partialRatio := float64(fuzzy.PartialRatio(a, b)) / 100.0
	tokenSortRatio := float64(fuzzy.TokenSortRatio(a, b)) / 100.0

	return 0.3*ratio + 0.4*partialRatio + 0.3*tokenSortRatio
}

// JaccardSimilarity is the degraded lexical measure: word-set overlap over
// whitespace-tokenized input.
func JaccardSimilarity(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	intersection := 0
	for word := range wordsA {
		if _, ok := wordsB[word]; ok {
			intersection++
		}
	}

	union := len(wordsA) + len(wordsB) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(s)) {
		set[word] = struct{}{}
	}
	return set
}

func hasAlphanumeric(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
