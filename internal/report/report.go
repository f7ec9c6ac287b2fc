// Package report turns a correlation result into the JSON and HTML
// deliverables. Everything here is a projection of correlate.Result; no
// scoring or clustering happens at this layer.
package report

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"horse.fit/mosaic/internal/cluster"
	"horse.fit/mosaic/internal/correlate"
	"horse.fit/mosaic/internal/globaltime"
	"horse.fit/mosaic/internal/story"
)

const (
	maxReportClusters     = 20
	maxTopThemes          = 10
	maxConnectionsPerType = 10
	maxConnectionTitles   = 5
	maxTimelineEntries    = 50
)

// Report is the full run deliverable.
type Report struct {
	GeneratedAt time.Time                   `json:"generated_at"`
	Summary     Summary                     `json:"summary"`
	Clusters    []ClusterView               `json:"clusters"`
	Connections map[string][]ConnectionView `json:"connections"`
	Timeline    []TimelineEntry             `json:"timeline"`
	Graph       Graph                       `json:"graph"`
}

// Summary is the headline block of the report.
type Summary struct {
	TotalStories     int     `json:"total_stories"`
	StoryClusters    int     `json:"story_clusters"`
	Singletons       int     `json:"singletons"`
	TopThemes        []Theme `json:"top_themes"`
	ConnectionPoints int     `json:"connection_points"`
}

// Theme is one source or category with its story count.
type Theme struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ClusterView is one cluster prepared for display.
type ClusterView struct {
	ID             int                 `json:"cluster_id"`
	Size           int                 `json:"size"`
	SharedEntities map[string][]string `json:"shared_entities,omitempty"`
	SharedKeywords []string            `json:"shared_keywords,omitempty"`
	Members        []MemberView        `json:"members"`
}

// MemberView is the subset of story fields shown per cluster member.
type MemberView struct {
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Source        string    `json:"source"`
	PublishedDate time.Time `json:"published_date"`
}

// ConnectionView is one recurring entity with a sample of mentioning titles.
type ConnectionView struct {
	Entity      string   `json:"entity"`
	Count       int      `json:"count"`
	StoryTitles []string `json:"story_titles"`
}

// TimelineEntry is one story on the newest-first timeline.
type TimelineEntry struct {
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Source        string    `json:"source"`
	PublishedDate time.Time `json:"published_date"`
}

// Graph is the node/edge export for visualization.
type Graph struct {
	Nodes []Node      `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Node is one story in the graph export. Cluster is the display cluster ID.
type Node struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Source  string `json:"source"`
	Cluster int    `json:"cluster"`
}

// GraphEdge links two story node IDs with the pair similarity.
type GraphEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// Build projects a correlation result into a report. Deterministic for a
// given result and clock.
func Build(result *correlate.Result) Report {
	return Report{
		GeneratedAt: globaltime.UTC(),
		Summary:     buildSummary(result),
		Clusters:    buildClusterViews(result.Clusters),
		Connections: buildConnectionViews(result.Connections),
		Timeline:    buildTimeline(result.Stories),
		Graph:       buildGraph(result),
	}
}

// WriteJSON writes the report as indented JSON.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func buildSummary(result *correlate.Result) Summary {
	storyClusters := 0
	singletons := 0
	for _, c := range result.Clusters {
		if c.Size() >= 2 {
			storyClusters++
		} else {
			singletons++
		}
	}
	return Summary{
		TotalStories:     len(result.Stories),
		StoryClusters:    storyClusters,
		Singletons:       singletons,
		TopThemes:        topThemes(result.Stories),
		ConnectionPoints: result.Connections.TotalPoints(),
	}
}

// topThemes counts stories per category, falling back to the source name
// when a collector attached no category.
func topThemes(stories []story.Story) []Theme {
	counts := make(map[string]int)
	for _, s := range stories {
		name := s.Metadata["category"]
		if name == "" {
			name = s.Source
		}
		if name == "" {
			continue
		}
		counts[name]++
	}

	themes := make([]Theme, 0, len(counts))
	for name, count := range counts {
		themes = append(themes, Theme{Name: name, Count: count})
	}
	sort.Slice(themes, func(i, j int) bool {
		if themes[i].Count != themes[j].Count {
			return themes[i].Count > themes[j].Count
		}
		return themes[i].Name < themes[j].Name
	})
	if len(themes) > maxTopThemes {
		themes = themes[:maxTopThemes]
	}
	return themes
}

func buildClusterViews(clusters []cluster.Cluster) []ClusterView {
	views := make([]ClusterView, 0, len(clusters))
	for _, c := range clusters {
		if len(views) >= maxReportClusters {
			break
		}
		members := make([]MemberView, 0, len(c.Stories))
		for _, s := range c.Stories {
			members = append(members, MemberView{
				Title:         s.Title,
				URL:           s.URL,
				Source:        s.Source,
				PublishedDate: s.PublishedDate,
			})
		}
		views = append(views, ClusterView{
			ID:             c.ID,
			Size:           c.Size(),
			SharedEntities: c.SharedEntities,
			SharedKeywords: c.SharedKeywords,
			Members:        members,
		})
	}
	return views
}

func buildConnectionViews(index cluster.ConnectionIndex) map[string][]ConnectionView {
	views := make(map[string][]ConnectionView, len(index))
	for dimension, entities := range index {
		list := make([]ConnectionView, 0, len(entities))
		for entity, point := range entities {
			titles := make([]string, 0, maxConnectionTitles)
			for _, s := range point.Stories {
				if len(titles) >= maxConnectionTitles {
					break
				}
				titles = append(titles, s.Title)
			}
			list = append(list, ConnectionView{Entity: entity, Count: point.Count, StoryTitles: titles})
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Count != list[j].Count {
				return list[i].Count > list[j].Count
			}
			return list[i].Entity < list[j].Entity
		})
		if len(list) > maxConnectionsPerType {
			list = list[:maxConnectionsPerType]
		}
		views[dimension] = list
	}
	return views
}

func buildTimeline(stories []story.Story) []TimelineEntry {
	sorted := story.SortByPublishedDesc(stories)
	if len(sorted) > maxTimelineEntries {
		sorted = sorted[:maxTimelineEntries]
	}
	entries := make([]TimelineEntry, 0, len(sorted))
	for _, s := range sorted {
		entries = append(entries, TimelineEntry{
			Title:         s.Title,
			URL:           s.URL,
			Source:        s.Source,
			PublishedDate: s.PublishedDate,
		})
	}
	return entries
}

func buildGraph(result *correlate.Result) Graph {
	clusterOf := make(map[string]int, len(result.Stories))
	for _, c := range result.Clusters {
		for _, s := range c.Stories {
			clusterOf[s.ID] = c.ID
		}
	}

	nodes := make([]Node, 0, len(result.Stories))
	for _, s := range result.Stories {
		nodes = append(nodes, Node{
			ID:      s.ID,
			Title:   s.Title,
			Source:  s.Source,
			Cluster: clusterOf[s.ID],
		})
	}

	edges := make([]GraphEdge, 0, len(result.Edges))
	for _, e := range result.Edges {
		edges = append(edges, GraphEdge{
			Source: result.Stories[e.From].ID,
			Target: result.Stories[e.To].ID,
			Weight: e.Weight,
		})
	}
	return Graph{Nodes: nodes, Edges: edges}
}
