package similarity

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

// maxVocabularySize caps the pairwise vocabulary the same way a bounded
// vectorizer would; beyond this the extra terms are noise for a two-document
// comparison.
const maxVocabularySize = 1000

var errDegenerateInput = errors.New("degenerate input for tfidf vectorization")

var lexicalToken = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

var lexicalStopwords = buildStopwordSet([]string{
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to",
	"of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were",
	"be", "been", "being", "it", "this", "that", "these", "those", "from",
	"up", "down", "over", "under", "again", "further", "than", "so", "such",
	"into", "about", "between", "through", "during", "before", "after",
	"above", "below", "out", "off", "own", "same", "too", "very", "can",
	"will", "just", "should", "now",
})

func buildStopwordSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// cosineTFIDF vectorizes the two documents over a shared unigram+bigram
// vocabulary with smoothed IDF and L2 normalization, then returns the cosine
// of the two vectors. Degenerate input (either document tokenizes to
// nothing) is an error so the caller can fall back to set overlap.
func cosineTFIDF(textA, textB string) (float64, error) {
	termsA := ngramTerms(textA)
	termsB := ngramTerms(textB)
	if len(termsA) == 0 || len(termsB) == 0 {
		return 0, errDegenerateInput
	}

	countsA := termCounts(termsA)
	countsB := termCounts(termsB)

	vocabulary := buildVocabulary(countsA, countsB)
	idf := make([]float64, len(vocabulary))
	for i, term := range vocabulary {
		df := 0
		if countsA[term] > 0 {
			df++
		}
		if countsB[term] > 0 {
			df++
		}
		// Smoothed IDF over the two-document corpus.
		idf[i] = math.Log(3.0/(1.0+float64(df))) + 1.0
	}

	vecA := tfidfVector(countsA, len(termsA), vocabulary, idf)
	vecB := tfidfVector(countsB, len(termsB), vocabulary, idf)

	dot := 0.0
	for i := range vecA {
		dot += vecA[i] * vecB[i]
	}
	if dot < 0 {
		return 0, nil
	}
	if dot > 1 {
		return 1, nil
	}
	return dot, nil
}

// ngramTerms tokenizes, drops stopwords, and emits unigrams plus adjacent
// bigrams.
func ngramTerms(text string) []string {
	raw := lexicalToken.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if _, stop := lexicalStopwords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	if len(tokens) == 0 {
		return nil
	}

	terms := make([]string, 0, 2*len(tokens))
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

func termCounts(terms []string) map[string]int {
	counts := make(map[string]int, len(terms))
	for _, term := range terms {
		counts[term]++
	}
	return counts
}

// buildVocabulary merges both documents' terms and, when over the cap, keeps
// the most frequent terms with an alphabetical tie-break for determinism.
func buildVocabulary(countsA, countsB map[string]int) []string {
	total := make(map[string]int, len(countsA)+len(countsB))
	for term, n := range countsA {
		total[term] += n
	}
	for term, n := range countsB {
		total[term] += n
	}

	vocabulary := make([]string, 0, len(total))
	for term := range total {
		vocabulary = append(vocabulary, term)
	}
	sort.Slice(vocabulary, func(i, j int) bool {
		if total[vocabulary[i]] != total[vocabulary[j]] {
			return total[vocabulary[i]] > total[vocabulary[j]]
		}
		return vocabulary[i] < vocabulary[j]
	})

	if len(vocabulary) > maxVocabularySize {
		vocabulary = vocabulary[:maxVocabularySize]
	}
	sort.Strings(vocabulary)
	return vocabulary
}

func tfidfVector(counts map[string]int, totalTerms int, vocabulary []string, idf []float64) []float64 {
	vec := make([]float64, len(vocabulary))
	for i, term := range vocabulary {
		if n := counts[term]; n > 0 {
			tf := float64(n) / float64(totalTerms)
			vec[i] = tf * idf[i]
		}
	}

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
