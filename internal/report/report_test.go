package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"horse.fit/mosaic/internal/cluster"
	"horse.fit/mosaic/internal/correlate"
	"horse.fit/mosaic/internal/extract"
	"horse.fit/mosaic/internal/globaltime"
	"horse.fit/mosaic/internal/story"
)

func sampleResult() *correlate.Result {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	stories := make([]story.Story, 0, 3)
	for i, title := range []string{
		"Salt Typhoon phishing campaign hits US telecom networks",
		"US telecom operators breached by Salt Typhoon phishing",
		"Local bakery wins regional sourdough contest",
	} {
		s := story.New(title, fmt.Sprintf("https://example.com/story-%d", i), "Test Wire", base.Add(time.Duration(i)*time.Hour))
		if i == 2 {
			s.Metadata = map[string]string{"category": "culture"}
		} else {
			s.Metadata = map[string]string{"category": "cyber"}
		}
		stories = append(stories, s)
	}

	features := []extract.Features{
		{StoryID: stories[0].ID, Entities: map[string][]string{"threat_actors": {"SALT TYPHOON"}}},
		{StoryID: stories[1].ID, Entities: map[string][]string{"threat_actors": {"SALT TYPHOON"}}},
		{StoryID: stories[2].ID},
	}

	return &correlate.Result{
		Stories:     stories,
		Features:    features,
		Clusters:    cluster.Assemble([][]int{{0, 1}, {2}}, stories, features),
		Connections: cluster.BuildConnectionIndex(stories, features),
		Edges:       []correlate.Edge{{From: 0, To: 1, Weight: 0.82}},
	}
}

func TestBuild_Summary(t *testing.T) {
	globaltime.SetMockTime(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	defer globaltime.ResetTime()

	r := Build(sampleResult())

	if !r.GeneratedAt.Equal(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("GeneratedAt = %v, want mocked clock", r.GeneratedAt)
	}
	if r.Summary.TotalStories != 3 {
		t.Fatalf("TotalStories = %d, want 3", r.Summary.TotalStories)
	}
	if r.Summary.StoryClusters != 1 {
		t.Fatalf("StoryClusters = %d, want 1", r.Summary.StoryClusters)
	}
	if r.Summary.Singletons != 1 {
		t.Fatalf("Singletons = %d, want 1", r.Summary.Singletons)
	}
	if r.Summary.ConnectionPoints != 1 {
		t.Fatalf("ConnectionPoints = %d, want 1", r.Summary.ConnectionPoints)
	}

	if len(r.Summary.TopThemes) != 2 {
		t.Fatalf("TopThemes = %v, want two themes", r.Summary.TopThemes)
	}
	if r.Summary.TopThemes[0].Name != "cyber" || r.Summary.TopThemes[0].Count != 2 {
		t.Fatalf("top theme = %+v, want cyber with count 2", r.Summary.TopThemes[0])
	}
}

func TestBuild_ClustersAndGraph(t *testing.T) {
	t.Parallel()

	result := sampleResult()
	r := Build(result)

	if len(r.Clusters) != 2 {
		t.Fatalf("clusters = %d, want 2", len(r.Clusters))
	}
	if r.Clusters[0].Size != 2 || len(r.Clusters[0].Members) != 2 {
		t.Fatalf("first cluster = %+v, want two members", r.Clusters[0])
	}
	if r.Clusters[0].Members[0].Title != result.Stories[0].Title {
		t.Fatalf("member title = %q", r.Clusters[0].Members[0].Title)
	}

	if len(r.Graph.Nodes) != 3 {
		t.Fatalf("graph nodes = %d, want 3", len(r.Graph.Nodes))
	}
	if r.Graph.Nodes[0].Cluster != 0 || r.Graph.Nodes[2].Cluster != 1 {
		t.Fatalf("node cluster assignment wrong: %+v", r.Graph.Nodes)
	}
	if len(r.Graph.Edges) != 1 {
		t.Fatalf("graph edges = %d, want 1", len(r.Graph.Edges))
	}
	edge := r.Graph.Edges[0]
	if edge.Source != result.Stories[0].ID || edge.Target != result.Stories[1].ID {
		t.Fatalf("edge endpoints = %+v", edge)
	}
	if edge.Weight != 0.82 {
		t.Fatalf("edge weight = %v, want 0.82", edge.Weight)
	}
}

func TestBuild_ConnectionsAndTimeline(t *testing.T) {
	t.Parallel()

	r := Build(sampleResult())

	points, ok := r.Connections["threat_actors"]
	if !ok || len(points) != 1 {
		t.Fatalf("connections = %+v, want one threat_actors point", r.Connections)
	}
	if points[0].Entity != "SALT TYPHOON" || points[0].Count != 2 {
		t.Fatalf("connection = %+v", points[0])
	}
	if len(points[0].StoryTitles) != 2 {
		t.Fatalf("story titles = %v, want 2", points[0].StoryTitles)
	}

	if len(r.Timeline) != 3 {
		t.Fatalf("timeline = %d entries, want 3", len(r.Timeline))
	}
	for i := 1; i < len(r.Timeline); i++ {
		if r.Timeline[i].PublishedDate.After(r.Timeline[i-1].PublishedDate) {
			t.Fatalf("timeline not newest-first at %d", i)
		}
	}
}

func TestBuild_TruncatesTimeline(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	stories := make([]story.Story, 0, maxTimelineEntries+10)
	for i := 0; i < maxTimelineEntries+10; i++ {
		stories = append(stories, story.New(
			fmt.Sprintf("story %d", i),
			fmt.Sprintf("https://example.com/t-%d", i),
			"Wire",
			base.Add(time.Duration(i)*time.Minute),
		))
	}
	result := &correlate.Result{
		Stories:     stories,
		Connections: cluster.ConnectionIndex{},
	}

	r := Build(result)
	if len(r.Timeline) != maxTimelineEntries {
		t.Fatalf("timeline = %d entries, want %d", len(r.Timeline), maxTimelineEntries)
	}
}

func TestWriteJSON_RoundTrips(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Build(sampleResult()).WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("report JSON does not parse: %v", err)
	}
	for _, key := range []string{"generated_at", "summary", "clusters", "connections", "timeline", "graph"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("report JSON missing %q", key)
		}
	}
}

func TestWriteHTML_RendersSections(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Build(sampleResult()).WriteHTML(&buf); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		"Mosaic Correlation Report",
		"Salt Typhoon phishing campaign hits US telecom networks",
		"SALT TYPHOON",
		"connection points",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered HTML missing %q", want)
		}
	}
}
