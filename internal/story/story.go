package story

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Tracking parameters stripped during URL canonicalization. Anything with a
// utm_ prefix is removed as well.
var trackingQueryKeys = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"mc_cid":  {},
	"mc_eid":  {},
	"ref":     {},
	"ref_src": {},
}

// Story is one collected news item. It is immutable once built: the engine
// reads stories but never writes them back.
type Story struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	URL           string            `json:"url"`
	Source        string            `json:"source"`
	PublishedDate time.Time         `json:"published_date"`
	Content       string            `json:"content,omitempty"`
	Description   string            `json:"description,omitempty"`
	Author        string            `json:"author,omitempty"`
	Collector     string            `json:"collector,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// New builds a Story with a canonicalized URL, a content-address ID derived
// from that URL, and the published date normalized to UTC.
func New(title, rawURL, source string, published time.Time) Story {
	canonical, _ := CanonicalURL(rawURL)
	if canonical == "" {
		canonical = strings.TrimSpace(rawURL)
	}
	return Story{
		ID:            IDForURL(canonical),
		Title:         strings.TrimSpace(title),
		URL:           canonical,
		Source:        strings.TrimSpace(source),
		PublishedDate: published.UTC(),
	}
}

// IDForURL derives the content-address identity for a canonical URL. Two
// stories with equal URLs are the same story.
func IDForURL(canonicalURL string) string {
	sum := sha256.Sum256([]byte(canonicalURL))
	return hex.EncodeToString(sum[:])
}

// HeadlineOnly reports whether the story carries no body text beyond its
// title. Headline-only pairs are scored in entity mode.
func (s Story) HeadlineOnly() bool {
	return strings.TrimSpace(s.Content) == "" && strings.TrimSpace(s.Description) == ""
}

// TextForAnalysis is the combined text handed to the extractor.
func (s Story) TextForAnalysis() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.Title, s.Description, s.Content} {
		if t := strings.TrimSpace(p); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// CanonicalURL normalizes a raw URL: lowercased scheme and host, default
// ports stripped, fragment removed, tracking query keys dropped, remaining
// query keys sorted. Returns the canonical form plus the hostname.
func CanonicalURL(raw string) (canonical string, host string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", ""
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", ""
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Hostname())
	if port := parsed.Port(); port != "" {
		defaultPort := (parsed.Scheme == "http" && port == "80") || (parsed.Scheme == "https" && port == "443")
		if !defaultPort {
			parsed.Host = parsed.Host + ":" + port
		}
	}

	parsed.Fragment = ""
	path := strings.TrimSpace(parsed.EscapedPath())
	if path == "" {
		path = "/"
	}
	path = strings.ReplaceAll(path, "//", "/")
	if strings.HasSuffix(path, "/") && path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	parsed.Path = path
	parsed.RawPath = ""

	q := parsed.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") {
			q.Del(key)
			continue
		}
		if _, ok := trackingQueryKeys[lower]; ok {
			q.Del(key)
		}
	}
	if len(q) > 0 {
		keys := make([]string, 0, len(q))
		for key := range q {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		reordered := url.Values{}
		for _, key := range keys {
			values := q[key]
			sort.Strings(values)
			for _, value := range values {
				reordered.Add(key, value)
			}
		}
		parsed.RawQuery = reordered.Encode()
	} else {
		parsed.RawQuery = ""
	}

	return parsed.String(), parsed.Hostname()
}

// DedupeByURL keeps the first story seen for each URL, preserving input
// order. Collectors call this before handing a batch to the engine.
func DedupeByURL(stories []Story) []Story {
	if len(stories) == 0 {
		return stories
	}
	seen := make(map[string]struct{}, len(stories))
	unique := make([]Story, 0, len(stories))
	for _, s := range stories {
		key := s.URL
		if key == "" {
			key = s.ID
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, s)
	}
	return unique
}

// SortByPublishedDesc orders stories newest first, breaking ties by ID so
// the order is stable across runs.
func SortByPublishedDesc(stories []Story) []Story {
	sorted := make([]Story, len(stories))
	copy(sorted, stories)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].PublishedDate.Equal(sorted[j].PublishedDate) {
			return sorted[i].PublishedDate.After(sorted[j].PublishedDate)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}
