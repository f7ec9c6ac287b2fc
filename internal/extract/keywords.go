package extract

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultKeywordCount is the top-N cut applied to the frequency ranking.
const DefaultKeywordCount = 10

var keywordToken = regexp.MustCompile(`\b[a-z]{3,}\b`)

var keywordStopwords = map[string]struct{}{
	"the": {}, "and": {}, "but": {}, "for": {}, "with": {}, "from": {},
	"was": {}, "are": {}, "were": {}, "been": {}, "have": {}, "has": {},
	"had": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "must": {}, "can": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "you": {}, "she": {}, "they": {},
	"what": {}, "which": {}, "who": {}, "when": {}, "where": {}, "why": {},
	"how": {}, "said": {}, "say": {}, "says": {}, "not": {}, "all": {},
	"its": {}, "his": {}, "her": {}, "their": {}, "our": {}, "out": {},
	"about": {}, "into": {}, "over": {}, "after": {}, "more": {}, "new": {},
}

// ExtractKeywords lowercase-tokenizes alphabetic words of length >= 3,
// drops stopwords, and returns the topN most frequent. Rank ties break by
// first occurrence in the text, so the result is a pure function of the
// input.
func ExtractKeywords(text string, topN int) []string {
	if text == "" || topN <= 0 {
		return nil
	}

	tokens := keywordToken.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return nil
	}

	counts := make(map[string]int, len(tokens))
	firstSeen := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		if _, stop := keywordStopwords[tok]; stop {
			continue
		}
		if _, ok := firstSeen[tok]; !ok {
			firstSeen[tok] = i
		}
		counts[tok]++
	}
	if len(counts) == 0 {
		return nil
	}

	ranked := make([]string, 0, len(counts))
	for tok := range counts {
		ranked = append(ranked, tok)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return firstSeen[ranked[i]] < firstSeen[ranked[j]]
	})

	if topN > len(ranked) {
		topN = len(ranked)
	}
	return ranked[:topN]
}
