package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"horse.fit/mosaic/internal/globaltime"
	"horse.fit/mosaic/internal/story"
)

const googleNewsBaseURL = "https://news.google.com"

// Google News renders section navigation as article-like elements; titles
// matching these exactly are never stories.
var navigationTitles = map[string]struct{}{
	"home": {}, "for you": {}, "following": {}, "u.s.": {}, "world": {},
	"local": {}, "business": {}, "technology": {}, "entertainment": {},
	"sports": {}, "science": {}, "health": {}, "google news": {}, "more": {},
}

const minHeadlineLength = 15

// Query is one named Google News search.
type Query struct {
	Name  string
	Query string
}

// GoogleNewsCollector scrapes the Google News search page per query. The
// result stories are headline-only; body text is never fetched here.
type GoogleNewsCollector struct {
	client      *http.Client
	queries     []Query
	lang        string
	maxPerQuery int
	baseURL     string
}

// NewGoogleNewsCollector wires an HTTP client; maxPerQuery defaults to 10.
func NewGoogleNewsCollector(client *http.Client, queries []Query, lang string) *GoogleNewsCollector {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if lang == "" {
		lang = "en"
	}
	return &GoogleNewsCollector{
		client:      client,
		queries:     queries,
		lang:        lang,
		maxPerQuery: 10,
		baseURL:     googleNewsBaseURL,
	}
}

func (g *GoogleNewsCollector) Name() string {
	return "google_news"
}

// Collect runs every configured query. A failing query fails the collector;
// the registry isolates that from other collectors.
func (g *GoogleNewsCollector) Collect(ctx context.Context) ([]story.Story, error) {
	stories := make([]story.Story, 0)
	for _, q := range g.queries {
		doc, err := g.fetchSearch(ctx, q.Query)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", q.Name, err)
		}
		stories = append(stories, g.parseArticles(doc, q.Name)...)
	}
	return stories, nil
}

func (g *GoogleNewsCollector) fetchSearch(ctx context.Context, query string) (*goquery.Document, error) {
	searchURL := g.baseURL + "/search?q=" + url.QueryEscape(query) + "&hl=" + url.QueryEscape(g.lang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "mosaic/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request search page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google news returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}
	return doc, nil
}

func (g *GoogleNewsCollector) parseArticles(doc *goquery.Document, queryName string) []story.Story {
	stories := make([]story.Story, 0, g.maxPerQuery)

	doc.Find("article").EachWithBreak(func(_ int, article *goquery.Selection) bool {
		if len(stories) >= g.maxPerQuery {
			return false
		}

		title := extractTitle(article)
		if len(title) < minHeadlineLength {
			return true
		}
		if _, nav := navigationTitles[strings.ToLower(strings.TrimSpace(title))]; nav {
			return true
		}

		link := extractLink(article)
		if link == "" {
			return true
		}

		published := ParseRelativeDate(article.Find("time").First().Text(), globaltime.UTC())
		source := extractSource(article, queryName)

		s := story.New(title, link, source, published)
		s.Metadata = map[string]string{"category": queryName}
		stories = append(stories, s)
		return true
	})

	return stories
}

func extractTitle(article *goquery.Selection) string {
	if h := article.Find("h3, h4").First(); h.Length() > 0 {
		return strings.TrimSpace(h.Text())
	}
	// Search result cards without a heading keep the headline in the
	// second anchor; the first is the publication link.
	links := article.Find("a")
	if links.Length() > 1 {
		return strings.TrimSpace(links.Eq(1).Text())
	}
	return strings.TrimSpace(links.First().Text())
}

func extractLink(article *goquery.Selection) string {
	href, ok := article.Find("a[href]").First().Attr("href")
	if !ok {
		return ""
	}
	href = strings.TrimSpace(href)
	switch {
	case strings.HasPrefix(href, "./"):
		return googleNewsBaseURL + href[1:]
	case strings.HasPrefix(href, "/"):
		return googleNewsBaseURL + href
	default:
		return href
	}
}

func extractSource(article *goquery.Selection, queryName string) string {
	source := strings.TrimSpace(article.Find("time").Parent().Find("a").First().Text())
	if source == "" || len(source) > 50 {
		return queryName + " News"
	}
	return source
}

// ParseRelativeDate converts the relative timestamps Google News renders
// ("2 hours ago", "Yesterday") into absolute times. Unrecognized input
// resolves to now; precision beyond the stated unit is not preserved.
func ParseRelativeDate(text string, now time.Time) time.Time {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return now
	}

	if strings.Contains(normalized, "yesterday") {
		return now.Add(-24 * time.Hour)
	}

	if strings.Contains(normalized, " ago") {
		fields := strings.Fields(normalized)
		if len(fields) >= 3 {
			quantity, err := strconv.Atoi(fields[0])
			if err == nil {
				switch {
				case strings.Contains(normalized, "minute"):
					return now.Add(-time.Duration(quantity) * time.Minute)
				case strings.Contains(normalized, "hour"):
					return now.Add(-time.Duration(quantity) * time.Hour)
				case strings.Contains(normalized, "day"):
					return now.Add(-time.Duration(quantity) * 24 * time.Hour)
				case strings.Contains(normalized, "week"):
					return now.Add(-time.Duration(quantity) * 7 * 24 * time.Hour)
				}
			}
		}
	}

	return now
}
