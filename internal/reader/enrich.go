package reader

import (
	"context"

	"github.com/rs/zerolog"

	"horse.fit/mosaic/internal/story"
)

// EnrichStories fetches readable body text for headline-only stories so the
// scorer can use full-text mode on them. Fetch failures leave the story
// headline-only; the run continues.
func EnrichStories(ctx context.Context, stories []story.Story, opts FetchOptions, logger zerolog.Logger) []story.Story {
	enriched := 0
	for i := range stories {
		if err := ctx.Err(); err != nil {
			break
		}
		if !stories[i].HeadlineOnly() {
			continue
		}

		text, err := FetchTextWithOptions(ctx, stories[i].URL, stories[i].Title, opts)
		if err != nil {
			logger.Debug().Err(err).Str("url", stories[i].URL).Msg("reader fetch failed, story stays headline-only")
			continue
		}
		stories[i].Content = text
		enriched++
	}
	if enriched > 0 {
		logger.Info().Int("enriched", enriched).Msg("fetched body text for headline-only stories")
	}
	return stories
}
