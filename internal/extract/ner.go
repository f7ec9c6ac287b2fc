package extract

import (
	"regexp"
	"strings"

	"horse.fit/mosaic/internal/story"
)

// maxEntitiesPerClass caps what the heuristic keeps per class.
const maxEntitiesPerClass = 10

// Tagger is the capability behind the model-based strategy: a trained
// named-entity model that labels spans of text. It is injected at
// construction so tests can substitute a deterministic fake.
type Tagger interface {
	// Tag returns class -> entity spans, in document order.
	Tag(text string) (map[string][]string, error)
}

// NERExtractor is the model-based strategy. Without a tagger, or when the
// tagger fails, it degrades to a capitalized-token heuristic rather than
// aborting the batch.
type NERExtractor struct {
	tagger       Tagger
	allowClasses map[string]struct{}
	topN         int
}

var (
	capitalizedPhrase = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
	orgSuffixKeywords = []string{"Corp", "Inc", "Ltd", "LLC", "Company", "Group", "Agency", "Ministry", "Department"}
)

// NewNERExtractor builds the model strategy. allowClasses filters the
// tagger's labels; empty means person/organization/place. tagger may be nil.
func NewNERExtractor(tagger Tagger, allowClasses []string, topN int) *NERExtractor {
	if len(allowClasses) == 0 {
		allowClasses = []string{"person", "organization", "place"}
	}
	allow := make(map[string]struct{}, len(allowClasses))
	for _, class := range allowClasses {
		allow[strings.ToLower(strings.TrimSpace(class))] = struct{}{}
	}
	if topN <= 0 {
		topN = DefaultKeywordCount
	}
	return &NERExtractor{tagger: tagger, allowClasses: allow, topN: topN}
}

func (e *NERExtractor) Extract(s story.Story) Features {
	text := s.TextForAnalysis()
	return Features{
		StoryID:           s.ID,
		Entities:          e.extractEntities(text),
		Keywords:          ExtractKeywords(text, e.topN),
		TextForSimilarity: text,
	}
}

func (e *NERExtractor) extractEntities(text string) map[string][]string {
	if text == "" {
		return map[string][]string{}
	}

	if e.tagger != nil {
		if tagged, err := e.tagger.Tag(text); err == nil {
			return e.filterTagged(tagged)
		}
	}
	return heuristicEntities(text)
}

func (e *NERExtractor) filterTagged(tagged map[string][]string) map[string][]string {
	entities := make(map[string][]string, len(tagged))
	for class, spans := range tagged {
		key := strings.ToLower(strings.TrimSpace(class))
		if _, ok := e.allowClasses[key]; !ok {
			continue
		}
		if unique := dedupePreservingOrder(spans, maxEntitiesPerClass); len(unique) > 0 {
			entities[key] = unique
		}
	}
	return entities
}

// heuristicEntities classifies capitalized phrases: a phrase containing an
// organization-suffix keyword is an organization, any other phrase of at
// most three words is treated as a person name.
func heuristicEntities(text string) map[string][]string {
	phrases := capitalizedPhrase.FindAllString(text, -1)
	if len(phrases) == 0 {
		return map[string][]string{}
	}

	var orgs, persons []string
	for _, phrase := range phrases {
		if containsOrgSuffix(phrase) {
			orgs = append(orgs, phrase)
			continue
		}
		if len(strings.Fields(phrase)) <= 3 {
			persons = append(persons, phrase)
		}
	}

	entities := make(map[string][]string, 2)
	if unique := dedupePreservingOrder(orgs, maxEntitiesPerClass); len(unique) > 0 {
		entities["organization"] = unique
	}
	if unique := dedupePreservingOrder(persons, maxEntitiesPerClass); len(unique) > 0 {
		entities["person"] = unique
	}
	return entities
}

func containsOrgSuffix(phrase string) bool {
	for _, kw := range orgSuffixKeywords {
		if strings.Contains(phrase, kw) {
			return true
		}
	}
	return false
}

// dedupePreservingOrder drops case-insensitive repeats, keeps first-seen
// order, and caps the result.
func dedupePreservingOrder(values []string, limit int) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	unique := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, trimmed)
		if len(unique) == limit {
			break
		}
	}
	return unique
}
