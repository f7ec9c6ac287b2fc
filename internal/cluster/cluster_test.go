package cluster

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horse.fit/mosaic/internal/extract"
	"horse.fit/mosaic/internal/story"
)

func testStory(i int) story.Story {
	return story.New(
		fmt.Sprintf("story %d", i),
		fmt.Sprintf("https://example.com/story-%d", i),
		"Test",
		time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC).Add(time.Duration(i)*time.Minute),
	)
}

func TestAssemble_AggregatesSharedSignals(t *testing.T) {
	t.Parallel()

	stories := []story.Story{testStory(0), testStory(1)}
	features := []extract.Features{
		{
			StoryID:  stories[0].ID,
			Entities: map[string][]string{"countries": {"CHINA"}, "techniques": {"PHISHING"}},
			Keywords: []string{"phishing", "campaign"},
		},
		{
			StoryID:  stories[1].ID,
			Entities: map[string][]string{"countries": {"CHINA", "US"}},
			Keywords: []string{"campaign", "telecom"},
		},
	}

	clusters := Assemble([][]int{{0, 1}}, stories, features)
	require.Len(t, clusters, 1)

	c := clusters[0]
	assert.Equal(t, 0, c.ID)
	assert.Equal(t, 2, c.Size())
	assert.Equal(t, []string{"CHINA", "US"}, c.SharedEntities["countries"])
	assert.Equal(t, []string{"PHISHING"}, c.SharedEntities["techniques"])
	assert.Equal(t, []string{"phishing", "campaign", "telecom"}, c.SharedKeywords)
}

func TestAssemble_CapsSharedKeywords(t *testing.T) {
	t.Parallel()

	stories := []story.Story{testStory(0)}
	keywords := make([]string, 0, maxSharedKeywords+5)
	for i := 0; i < maxSharedKeywords+5; i++ {
		keywords = append(keywords, fmt.Sprintf("keyword%02d", i))
	}
	features := []extract.Features{{StoryID: stories[0].ID, Keywords: keywords}}

	clusters := Assemble([][]int{{0}}, stories, features)
	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].SharedKeywords, maxSharedKeywords)
	assert.Equal(t, "keyword00", clusters[0].SharedKeywords[0])
}

func TestBuildConnectionIndex_RequiresTwoStories(t *testing.T) {
	t.Parallel()

	stories := []story.Story{testStory(0), testStory(1), testStory(2)}
	features := []extract.Features{
		{StoryID: stories[0].ID, Entities: map[string][]string{"countries": {"CHINA"}, "tech": {"HUAWEI"}}},
		{StoryID: stories[1].ID, Entities: map[string][]string{"countries": {"CHINA"}}},
		{StoryID: stories[2].ID, Entities: map[string][]string{"sectors": {"ENERGY"}}},
	}

	index := BuildConnectionIndex(stories, features)

	point, ok := index["countries"]["CHINA"]
	require.True(t, ok, "entity in two stories must be indexed")
	assert.Equal(t, 2, point.Count)
	assert.Len(t, point.Stories, 2)

	_, ok = index["tech"]["HUAWEI"]
	assert.False(t, ok, "entity in one story must not be indexed")
	_, ok = index["sectors"]["ENERGY"]
	assert.False(t, ok)

	assert.Equal(t, 1, index.TotalPoints())
}

func TestBuildConnectionIndex_EmptyBatch(t *testing.T) {
	t.Parallel()

	index := BuildConnectionIndex(nil, nil)
	assert.Zero(t, index.TotalPoints())
}
