package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMinimumMatches is the number of distinct keywords a post needs by default.
const DefaultMinimumMatches = 3

type MatchResult struct {
	Found   []string
	Count   int
	Matches bool
}

// Match counts the distinct keywords contained in text. Matching ignores case
// and diacritics. An empty keyword list never matches.
func Match(text string, keywords []string, minimum int) MatchResult {
	if minimum <= 0 {
		minimum = DefaultMinimumMatches
	}

	normalized := normalizeText(text)
	seen := make(map[string]bool, len(keywords))
	var result MatchResult
	for _, keyword := range keywords {
		k := normalizeText(strings.TrimSpace(keyword))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		if strings.Contains(normalized, k) {
			result.Found = append(result.Found, strings.TrimSpace(keyword))
		}
	}
	result.Count = len(result.Found)
	result.Matches = len(seen) > 0 && result.Count >= minimum
	return result
}

func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, str)
	return strings.ToLower(result)
}
