// Package cluster partitions a scored story batch into mosaic tiles:
// groups of stories that describe the same narrative thread.
package cluster

import (
	"sort"

	"horse.fit/mosaic/internal/extract"
	"horse.fit/mosaic/internal/story"
)

// maxSharedKeywords caps the aggregated keyword list per cluster.
const maxSharedKeywords = 10

// Cluster is one tile: a non-empty story group plus the union of its
// members' extracted signals.
type Cluster struct {
	ID             int                 `json:"cluster_id"`
	Stories        []story.Story       `json:"stories"`
	SharedEntities map[string][]string `json:"shared_entities"`
	SharedKeywords []string            `json:"shared_keywords"`
}

// Size returns the member count.
func (c Cluster) Size() int { return len(c.Stories) }

// Assemble turns an index partition into Cluster values, aggregating shared
// entities (union per dimension, sorted) and shared keywords (union in
// member order, capped). Cluster IDs follow partition order.
func Assemble(partition [][]int, stories []story.Story, features []extract.Features) []Cluster {
	clusters := make([]Cluster, 0, len(partition))
	for id, members := range partition {
		c := Cluster{
			ID:             id,
			Stories:        make([]story.Story, 0, len(members)),
			SharedEntities: make(map[string][]string),
		}

		entityUnion := make(map[string]map[string]struct{})
		keywordSeen := make(map[string]struct{})

		for _, idx := range members {
			c.Stories = append(c.Stories, stories[idx])

			f := features[idx]
			for dimension, set := range f.Entities {
				if entityUnion[dimension] == nil {
					entityUnion[dimension] = make(map[string]struct{})
				}
				for _, entity := range set {
					entityUnion[dimension][entity] = struct{}{}
				}
			}
			for _, keyword := range f.Keywords {
				if _, ok := keywordSeen[keyword]; ok {
					continue
				}
				keywordSeen[keyword] = struct{}{}
				if len(c.SharedKeywords) < maxSharedKeywords {
					c.SharedKeywords = append(c.SharedKeywords, keyword)
				}
			}
		}

		for dimension, set := range entityUnion {
			entities := make([]string, 0, len(set))
			for entity := range set {
				entities = append(entities, entity)
			}
			sort.Strings(entities)
			c.SharedEntities[dimension] = entities
		}

		clusters = append(clusters, c)
	}
	return clusters
}
