// Package similarity scores how likely two stories describe the same
// underlying event. All component signals and the final score live in [0,1].
package similarity

import (
	"regexp"
	"strings"
	"time"

	"horse.fit/mosaic/internal/extract"
)

// LexicalStrategy selects how the lexical component is computed.
type LexicalStrategy string

const (
	// LexicalVectorized uses TF-IDF cosine, falling back to set overlap
	// only on degenerate input.
	LexicalVectorized LexicalStrategy = "vectorized"
	// LexicalSetOverlap always uses word-set Jaccard. Cheaper, used when
	// vectorization is not wanted.
	LexicalSetOverlap LexicalStrategy = "set_overlap"
)

// Weights blend the four component signals of the weighted mode.
type Weights struct {
	Lexical  float64
	Entity   float64
	Keyword  float64
	Temporal float64
}

// DefaultWeights favors full-text agreement, then entity agreement.
var DefaultWeights = Weights{Lexical: 0.4, Entity: 0.3, Keyword: 0.2, Temporal: 0.1}

// Entity-mode constants. A single shared generic entity (one country, one
// vendor) is common across unrelated stories; the gate demands either a
// second aligned dimension or near-identical wording.
const (
	coherenceMinDimensions    = 2
	coherenceWordOverlapFloor = 0.5
	entityModeDimensionWeight = 0.7
	entityModeWordWeight      = 0.3
)

var wordToken = regexp.MustCompile(`\w+`)

var overlapStopwords = buildStopwordSet([]string{
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
	"of", "with", "by", "from", "up", "about", "into", "through", "during",
})

// Scorer computes pair similarity over already-extracted features. It is
// stateless and safe for concurrent use.
type Scorer struct {
	weights Weights
	lexical LexicalStrategy
}

// NewScorer builds a scorer. Zero weights select the defaults.
func NewScorer(strategy LexicalStrategy, weights Weights) *Scorer {
	if weights == (Weights{}) {
		weights = DefaultWeights
	}
	if strategy != LexicalSetOverlap {
		strategy = LexicalVectorized
	}
	return &Scorer{weights: weights, lexical: strategy}
}

// Score is the weighted general-purpose mode: lexical, entity, keyword and
// temporal signals blended by the configured weights. Symmetric in its
// arguments.
func (s *Scorer) Score(a, b extract.Features, dateA, dateB time.Time) float64 {
	lexical := s.lexicalSimilarity(a.TextForSimilarity, b.TextForSimilarity)
	entity := entitySimilarity(a, b)
	keyword := keywordSimilarity(a.Keywords, b.Keywords)
	temporal := TemporalProximity(dateA, dateB)

	score := s.weights.Lexical*lexical +
		s.weights.Entity*entity +
		s.weights.Keyword*keyword +
		s.weights.Temporal*temporal
	return clamp01(score)
}

// ScoreEntityMode is the entity/regex-driven mode for headline-only pairs.
// It counts entity dimensions where both stories have members and the
// members overlap, and gates the pair to zero when fewer than two dimensions
// align unless the bag-of-words overlap shows the two headlines share the
// identical specific topic.
func (s *Scorer) ScoreEntityMode(a, b extract.Features) float64 {
	dimensionsMatched := 0
	dimensionScores := make([]float64, 0, len(a.Entities))

	for dimension, setA := range a.Entities {
		setB, ok := b.Entities[dimension]
		if !ok || len(setA) == 0 || len(setB) == 0 {
			continue
		}
		overlap := jaccard(foldSet(setA), foldSet(setB))
		if overlap > 0 {
			dimensionsMatched++
			dimensionScores = append(dimensionScores, overlap)
		}
	}

	wordOverlap := wordSetOverlap(a.TextForSimilarity, b.TextForSimilarity)

	if dimensionsMatched < coherenceMinDimensions && wordOverlap < coherenceWordOverlapFloor {
		return 0
	}

	meanDimension := 0.0
	if len(dimensionScores) > 0 {
		sum := 0.0
		for _, v := range dimensionScores {
			sum += v
		}
		meanDimension = sum / float64(len(dimensionScores))
	}

	return clamp01(entityModeDimensionWeight*meanDimension + entityModeWordWeight*wordOverlap)
}

func (s *Scorer) lexicalSimilarity(textA, textB string) float64 {
	if s.lexical == LexicalVectorized {
		if cos, err := cosineTFIDF(textA, textB); err == nil {
			return cos
		}
	}
	return wordSetJaccard(textA, textB)
}

// entitySimilarity flattens all dimensions into one case-folded set per
// story and takes the Jaccard overlap. Zero when either side extracted
// nothing.
func entitySimilarity(a, b extract.Features) float64 {
	setA := a.FlatEntities()
	setB := b.FlatEntities()
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	return jaccard(setA, setB)
}

func keywordSimilarity(keywordsA, keywordsB []string) float64 {
	if len(keywordsA) == 0 || len(keywordsB) == 0 {
		return 0
	}
	return jaccard(sliceSet(keywordsA), sliceSet(keywordsB))
}

// TemporalProximity is a step function of the absolute publication gap.
func TemporalProximity(dateA, dateB time.Time) float64 {
	diff := dateA.Sub(dateB)
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff < time.Hour:
		return 1.0
	case diff < 24*time.Hour:
		return 0.5
	case diff < 7*24*time.Hour:
		return 0.2
	default:
		return 0.0
	}
}

// wordSetJaccard is the lexical fallback: Jaccard of lowercase alphabetic
// word sets of length >= 3.
func wordSetJaccard(textA, textB string) float64 {
	setA := longWordSet(textA)
	setB := longWordSet(textB)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	return jaccard(setA, setB)
}

// wordSetOverlap is the bag-of-words signal behind the coherence gate:
// every \w+ token counts, minus a short stopword list.
func wordSetOverlap(textA, textB string) float64 {
	setA := overlapWordSet(textA)
	setB := overlapWordSet(textB)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}
	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union < 1 {
		union = 1
	}
	return float64(intersection) / float64(union)
}

func overlapWordSet(text string) map[string]struct{} {
	words := wordToken.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, stop := overlapStopwords[w]; stop {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

var longWord = regexp.MustCompile(`\b[a-z]{3,}\b`)

func longWordSet(text string) map[string]struct{} {
	words := longWord.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func jaccard(setA, setB map[string]struct{}) float64 {
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for v := range setA {
		if _, ok := setB[v]; ok {
			intersection++
		}
	}
	if intersection == 0 {
		return 0
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func foldSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}

func sliceSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
