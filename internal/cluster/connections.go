package cluster

import (
	"horse.fit/mosaic/internal/extract"
	"horse.fit/mosaic/internal/story"
)

// minConnectionStories is how many stories must mention an entity before it
// counts as a connection point.
const minConnectionStories = 2

// ConnectionPoint is one recurring entity: how often it appears and which
// stories mention it.
type ConnectionPoint struct {
	Count   int           `json:"count"`
	Stories []story.Story `json:"stories"`
}

// ConnectionIndex maps entity-type -> entity-name -> connection point. It
// feeds reporting only; clustering never consults it.
type ConnectionIndex map[string]map[string]ConnectionPoint

// TotalPoints counts connection points across all entity types.
func (ci ConnectionIndex) TotalPoints() int {
	total := 0
	for _, entities := range ci {
		total += len(entities)
	}
	return total
}

// BuildConnectionIndex aggregates every extracted entity across the batch
// and keeps those mentioned by at least two stories.
func BuildConnectionIndex(stories []story.Story, features []extract.Features) ConnectionIndex {
	type key struct {
		dimension string
		entity    string
	}
	mentions := make(map[key][]story.Story)

	for i, f := range features {
		for dimension, set := range f.Entities {
			for _, entity := range set {
				k := key{dimension: dimension, entity: entity}
				mentions[k] = append(mentions[k], stories[i])
			}
		}
	}

	index := make(ConnectionIndex)
	for k, mentioned := range mentions {
		if len(mentioned) < minConnectionStories {
			continue
		}
		if index[k.dimension] == nil {
			index[k.dimension] = make(map[string]ConnectionPoint)
		}
		index[k.dimension][k.entity] = ConnectionPoint{
			Count:   len(mentioned),
			Stories: mentioned,
		}
	}
	return index
}
