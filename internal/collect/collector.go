// Package collect gathers stories from configured sources and hands the
// engine one deduplicated batch. Collectors are isolated: one failing source
// never aborts the run.
package collect

import (
	"context"

	"github.com/rs/zerolog"

	"horse.fit/mosaic/internal/langdetect"
	"horse.fit/mosaic/internal/language"
	"horse.fit/mosaic/internal/story"
)

// Collector is one story source.
type Collector interface {
	Name() string
	Collect(ctx context.Context) ([]story.Story, error)
}

// Registry runs a fixed set of collectors in order.
type Registry struct {
	collectors []Collector
	logger     zerolog.Logger
}

// NewRegistry builds a registry over the given collectors.
func NewRegistry(logger zerolog.Logger, collectors ...Collector) *Registry {
	return &Registry{collectors: collectors, logger: logger}
}

// Register appends a collector.
func (r *Registry) Register(c Collector) {
	r.collectors = append(r.collectors, c)
}

// Names lists registered collector names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.collectors))
	for _, c := range r.collectors {
		names = append(names, c.Name())
	}
	return names
}

// Run collects from every source sequentially. A collector error is logged
// and skipped; the batch from the remaining collectors is still returned.
// The combined batch is URL-deduplicated, first collector wins.
func (r *Registry) Run(ctx context.Context) ([]story.Story, error) {
	all := make([]story.Story, 0)
	for _, c := range r.collectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch, err := c.Collect(ctx)
		if err != nil {
			r.logger.Warn().Err(err).Str("collector", c.Name()).Msg("collector failed, skipping")
			continue
		}

		for i := range batch {
			annotate(&batch[i], c.Name())
		}
		r.logger.Info().Str("collector", c.Name()).Int("stories", len(batch)).Msg("collected")
		all = append(all, batch...)
	}
	return story.DedupeByURL(all), nil
}

// annotate fills collector provenance and a language tag on a collected
// story. A language tag supplied by the source is normalized to its primary
// subtag; detection runs only when the source gave none.
func annotate(s *story.Story, collectorName string) {
	if s.Collector == "" {
		s.Collector = collectorName
	}
	if s.Metadata == nil {
		s.Metadata = make(map[string]string, 1)
	}
	if code := language.NormalizeCode(s.Metadata["language"]); code != "" {
		s.Metadata["language"] = code
		return
	}
	if code := langdetect.DetectISO6391(s.TextForAnalysis()); code != "" {
		s.Metadata["language"] = code
	} else {
		delete(s.Metadata, "language")
	}
}
