package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"horse.fit/mosaic/internal/story"
	payloadschema "horse.fit/mosaic/schema"
)

// FeedFileCollector reads story batches from JSON files on disk. Each file
// holds an array of story payloads; every payload is schema-validated and
// invalid entries are skipped, not fatal.
type FeedFileCollector struct {
	name   string
	paths  []string
	logger zerolog.Logger
}

// NewFeedFileCollector builds a collector over the given file paths.
func NewFeedFileCollector(name string, paths []string, logger zerolog.Logger) *FeedFileCollector {
	if name == "" {
		name = "feed_file"
	}
	return &FeedFileCollector{name: name, paths: paths, logger: logger}
}

func (c *FeedFileCollector) Name() string {
	return c.name
}

// Collect reads and validates every configured file. An unreadable or
// unparseable file fails the collector; individually invalid payloads
// inside a readable file are logged and dropped.
func (c *FeedFileCollector) Collect(ctx context.Context) ([]story.Story, error) {
	stories := make([]story.Story, 0)
	for _, path := range c.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, err := c.readFile(path)
		if err != nil {
			return nil, fmt.Errorf("feed file %s: %w", path, err)
		}
		stories = append(stories, batch...)
	}
	return stories, nil
}

func (c *FeedFileCollector) readFile(path string) ([]story.Story, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var payloads []json.RawMessage
	if err := json.Unmarshal(raw, &payloads); err != nil {
		return nil, fmt.Errorf("parse batch: %w", err)
	}

	stories := make([]story.Story, 0, len(payloads))
	for i, payload := range payloads {
		item, err := payloadschema.ValidateStoryPayload(payload)
		if err != nil {
			c.logger.Warn().Err(err).Str("path", path).Int("index", i).Msg("invalid story payload, skipping")
			continue
		}
		stories = append(stories, itemToStory(item))
	}
	return stories, nil
}

func itemToStory(item *payloadschema.StoryItem) story.Story {
	s := story.New(item.Title, item.URL, item.Source, item.PublishedTime())
	if item.Content != nil {
		s.Content = *item.Content
	}
	if item.Description != nil {
		s.Description = *item.Description
	}
	if item.Author != nil {
		s.Author = *item.Author
	}
	if item.Collector != nil {
		s.Collector = *item.Collector
	}
	if len(item.Metadata) > 0 {
		s.Metadata = make(map[string]string, len(item.Metadata))
		for k, v := range item.Metadata {
			s.Metadata[k] = v
		}
	}
	return s
}
