package collect

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

const validBatch = `[
  {
    "payload_version": "v1",
    "title": "Salt Typhoon phishing campaign hits US telecom networks",
    "url": "https://example.com/story/1",
    "source": "Example Wire",
    "published_date": "2026-03-01T08:00:00Z",
    "description": "A phishing campaign attributed to Salt Typhoon.",
    "metadata": {"category": "cyber"}
  },
  {
    "payload_version": "v1",
    "title": "Local bakery wins regional sourdough contest",
    "url": "https://example.com/story/2",
    "source": "Town Gazette",
    "published_date": "2026-03-01T09:30:00Z"
  }
]`

const mixedBatch = `[
  {
    "payload_version": "v1",
    "title": "Valid story in a mixed batch",
    "url": "https://example.com/story/3",
    "source": "Example Wire",
    "published_date": "2026-03-01T10:00:00Z"
  },
  {
    "payload_version": "v1",
    "title": "Missing url makes this invalid",
    "source": "Example Wire",
    "published_date": "2026-03-01T10:05:00Z"
  }
]`

func writeBatch(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write batch file: %v", err)
	}
	return path
}

func TestFeedFileCollect_ValidBatch(t *testing.T) {
	t.Parallel()

	path := writeBatch(t, "batch.json", validBatch)
	c := NewFeedFileCollector("", []string{path}, zerolog.Nop())

	if c.Name() != "feed_file" {
		t.Fatalf("default name = %q", c.Name())
	}

	stories, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(stories) != 2 {
		t.Fatalf("expected 2 stories, got %d", len(stories))
	}
	if stories[0].Source != "Example Wire" {
		t.Fatalf("unexpected source: %q", stories[0].Source)
	}
	if stories[0].Description == "" {
		t.Fatalf("description not carried over")
	}
	if stories[0].Metadata["category"] != "cyber" {
		t.Fatalf("metadata not carried over: %v", stories[0].Metadata)
	}
	if stories[0].ID == "" {
		t.Fatalf("story ID not derived")
	}
}

func TestFeedFileCollect_SkipsInvalidPayloads(t *testing.T) {
	t.Parallel()

	path := writeBatch(t, "mixed.json", mixedBatch)
	c := NewFeedFileCollector("drop", []string{path}, zerolog.Nop())

	stories, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if len(stories) != 1 {
		t.Fatalf("expected invalid payload to be skipped, got %d stories", len(stories))
	}
	if stories[0].Title != "Valid story in a mixed batch" {
		t.Fatalf("wrong survivor: %q", stories[0].Title)
	}
}

func TestFeedFileCollect_MissingFile(t *testing.T) {
	t.Parallel()

	c := NewFeedFileCollector("gone", []string{"/nonexistent/batch.json"}, zerolog.Nop())
	if _, err := c.Collect(context.Background()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestFeedFileCollect_MalformedJSON(t *testing.T) {
	t.Parallel()

	path := writeBatch(t, "broken.json", `{"not":"an array"}`)
	c := NewFeedFileCollector("broken", []string{path}, zerolog.Nop())
	if _, err := c.Collect(context.Background()); err == nil {
		t.Fatalf("expected error for non-array batch")
	}
}
