package extract

import (
	"horse.fit/mosaic/internal/story"
)

// PatternExtractor derives features from the fixed entity catalogue plus
// frequency-ranked keywords. It holds no mutable state and is safe for
// concurrent use across stories.
type PatternExtractor struct {
	catalogue Catalogue
	topN      int
}

// NewPatternExtractor builds the regex/lexicon strategy. A nil catalogue
// selects the default; topN <= 0 selects the default keyword count.
func NewPatternExtractor(catalogue Catalogue, topN int) *PatternExtractor {
	if len(catalogue) == 0 {
		catalogue = DefaultCatalogue()
	}
	if topN <= 0 {
		topN = DefaultKeywordCount
	}
	return &PatternExtractor{catalogue: catalogue, topN: topN}
}

// Extract scans the story's combined text against every catalogue dimension
// and ranks its keywords.
func (e *PatternExtractor) Extract(s story.Story) Features {
	text := s.TextForAnalysis()

	features := Features{
		StoryID:           s.ID,
		Entities:          e.ExtractEntities(text),
		Keywords:          ExtractKeywords(text, e.topN),
		TextForSimilarity: text,
	}
	return features
}

// ExtractEntities matches the catalogue against arbitrary text. Dimensions
// with no matches are omitted from the map.
func (e *PatternExtractor) ExtractEntities(text string) map[string][]string {
	if text == "" {
		return map[string][]string{}
	}

	entities := make(map[string][]string)
	for _, dimension := range e.catalogue {
		matches := dimension.Pattern.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		normalized := make(map[string]struct{}, len(matches))
		for _, match := range matches {
			if canonical := NormalizeEntity(match); canonical != "" {
				normalized[canonical] = struct{}{}
			}
		}
		if len(normalized) > 0 {
			entities[dimension.Name] = sortedSet(normalized)
		}
	}
	return entities
}
