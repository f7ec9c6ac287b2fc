// Package extract derives the structured signals the correlation engine
// scores on: per-dimension entity sets, ranked keywords, and the combined
// text used for lexical comparison.
//
// Extraction is a pure function of the story's text fields. The same input
// always yields the same Features, which is what makes clustering runs
// reproducible. Malformed or empty text degrades to empty features, never to
// an error: a story that cannot be analyzed still has to end up in exactly
// one (singleton) cluster downstream.
package extract

import (
	"sort"
	"strings"

	"horse.fit/mosaic/internal/story"
)

// Mode selects the extraction strategy.
type Mode string

const (
	// ModePattern matches the fixed entity-type catalogue with regular
	// expressions. The default, and always available.
	ModePattern Mode = "pattern"
	// ModeModel runs an injected named-entity tagger, falling back to a
	// capitalized-token heuristic when no tagger is wired.
	ModeModel Mode = "model"
)

// Features holds everything the scorer needs about one story. Entity slices
// are sorted so two extractions of the same text compare byte-identical.
type Features struct {
	StoryID           string              `json:"story_id"`
	Entities          map[string][]string `json:"entities"`
	Keywords          []string            `json:"keywords"`
	TextForSimilarity string              `json:"text_for_similarity"`
}

// EntityCount returns the total number of extracted entities across all
// dimensions.
func (f Features) EntityCount() int {
	n := 0
	for _, set := range f.Entities {
		n += len(set)
	}
	return n
}

// FlatEntities returns every entity across all dimensions, case-folded, as
// one set. Used for whole-story entity similarity.
func (f Features) FlatEntities() map[string]struct{} {
	flat := make(map[string]struct{}, f.EntityCount())
	for _, set := range f.Entities {
		for _, entity := range set {
			flat[strings.ToLower(entity)] = struct{}{}
		}
	}
	return flat
}

// Extractor is the contract both strategies implement.
type Extractor interface {
	Extract(s story.Story) Features
}

// sortedSet converts a set to a deterministic sorted slice.
func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
