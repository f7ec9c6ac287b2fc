// Package correlate wires extraction, scoring and clustering into the one
// batch operation the rest of the system calls. All state is scoped to a
// single Correlate call; nothing survives between runs.
package correlate

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"horse.fit/mosaic/internal/cluster"
	"horse.fit/mosaic/internal/extract"
	"horse.fit/mosaic/internal/similarity"
	"horse.fit/mosaic/internal/story"
)

// ScoringMode picks which scorer variant handles a story pair.
type ScoringMode string

const (
	// ScoringWeighted always uses the 4-signal weighted scorer.
	ScoringWeighted ScoringMode = "weighted"
	// ScoringEntity always uses the entity/coherence-gated scorer.
	ScoringEntity ScoringMode = "entity"
	// ScoringAuto uses the entity scorer only when both stories are
	// headline-only; any body text on either side makes the full-text
	// comparison meaningful.
	ScoringAuto ScoringMode = "auto"
)

// Options configures one engine instance.
type Options struct {
	Threshold float64
	// MaxClusterSize caps cluster membership; 0 means unbounded.
	MaxClusterSize int
	Strategy       cluster.Strategy
	ScoringMode    ScoringMode
	// Workers bounds extraction/scoring parallelism; 0 means GOMAXPROCS.
	Workers int
}

// Validate surfaces configuration errors before any clustering work begins.
func (o Options) Validate() error {
	if o.MaxClusterSize < 0 {
		return fmt.Errorf("max cluster size must not be negative, got %d", o.MaxClusterSize)
	}
	switch o.ScoringMode {
	case ScoringWeighted, ScoringEntity, ScoringAuto, "":
	default:
		return fmt.Errorf("unknown scoring mode %q", o.ScoringMode)
	}
	return cluster.Options{
		Threshold: o.Threshold,
		MaxSize:   o.MaxClusterSize,
		Strategy:  o.Strategy,
	}.Validate()
}

// Edge is one above-threshold similarity between two story indices, kept
// for the graph export. From < To always.
type Edge struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Weight float64 `json:"weight"`
}

// Result is everything one correlation run produces.
type Result struct {
	Stories     []story.Story
	Features    []extract.Features
	Clusters    []cluster.Cluster
	Connections cluster.ConnectionIndex
	Edges       []Edge
}

// Engine runs the correlation pipeline. Safe for reuse across batches; each
// Correlate call is independent.
type Engine struct {
	extractor extract.Extractor
	scorer    *similarity.Scorer
	opts      Options
	logger    zerolog.Logger
}

// New validates the options and builds an engine.
func New(extractor extract.Extractor, scorer *similarity.Scorer, opts Options, logger zerolog.Logger) (*Engine, error) {
	if extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if scorer == nil {
		return nil, fmt.Errorf("scorer is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid correlation options: %w", err)
	}
	if opts.ScoringMode == "" {
		opts.ScoringMode = ScoringAuto
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{extractor: extractor, scorer: scorer, opts: opts, logger: logger}, nil
}

// Correlate clusters one story batch. The input order is significant for
// the bounded strategy (it decides cluster seeds) and is preserved in the
// result. An empty batch yields an empty result, not an error.
func (e *Engine) Correlate(ctx context.Context, stories []story.Story) (*Result, error) {
	result := &Result{
		Stories:     stories,
		Features:    []extract.Features{},
		Clusters:    []cluster.Cluster{},
		Connections: cluster.ConnectionIndex{},
		Edges:       []Edge{},
	}
	if len(stories) == 0 {
		return result, nil
	}

	features, err := e.extractAll(ctx, stories)
	if err != nil {
		return nil, err
	}
	result.Features = features

	// Extraction barrier passed: every score below reads a complete,
	// immutable feature set.
	scores, err := e.scoreAllPairs(ctx, stories, features)
	if err != nil {
		return nil, err
	}

	scoreFn := func(i, j int) float64 { return scores[i][j-i-1] }
	partition, err := cluster.Build(len(stories), scoreFn, cluster.Options{
		Threshold: e.opts.Threshold,
		MaxSize:   e.opts.MaxClusterSize,
		Strategy:  e.opts.Strategy,
	})
	if err != nil {
		return nil, fmt.Errorf("build clusters: %w", err)
	}

	result.Clusters = cluster.Assemble(partition, stories, features)
	result.Connections = cluster.BuildConnectionIndex(stories, features)

	for i := 0; i < len(stories); i++ {
		for j := i + 1; j < len(stories); j++ {
			if w := scoreFn(i, j); w >= e.opts.Threshold {
				result.Edges = append(result.Edges, Edge{From: i, To: j, Weight: w})
			}
		}
	}

	e.logger.Info().
		Int("stories", len(stories)).
		Int("clusters", len(result.Clusters)).
		Int("edges", len(result.Edges)).
		Int("connection_points", result.Connections.TotalPoints()).
		Msg("correlation run complete")

	return result, nil
}

// extractAll runs extraction across the batch with bounded parallelism.
// Extraction is a pure per-story function, so workers share nothing and the
// gather is the only synchronization point.
func (e *Engine) extractAll(ctx context.Context, stories []story.Story) ([]extract.Features, error) {
	features := make([]extract.Features, len(stories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i := range stories {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			features[i] = e.extractor.Extract(stories[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extract features: %w", err)
	}
	return features, nil
}

// scoreAllPairs fills the upper triangle of the pair-score matrix, one row
// per worker task. Scoring reads only immutable features, so rows are
// independent.
func (e *Engine) scoreAllPairs(ctx context.Context, stories []story.Story, features []extract.Features) ([][]float64, error) {
	n := len(stories)
	scores := make([][]float64, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row := make([]float64, n-i-1)
			for j := i + 1; j < n; j++ {
				row[j-i-1] = e.scorePair(stories[i], stories[j], features[i], features[j])
			}
			scores[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score story pairs: %w", err)
	}
	return scores, nil
}

func (e *Engine) scorePair(a, b story.Story, fa, fb extract.Features) float64 {
	mode := e.opts.ScoringMode
	if mode == ScoringAuto {
		if a.HeadlineOnly() && b.HeadlineOnly() {
			mode = ScoringEntity
		} else {
			mode = ScoringWeighted
		}
	}
	if mode == ScoringEntity {
		return e.scorer.ScoreEntityMode(fa, fb)
	}
	return e.scorer.Score(fa, fb, a.PublishedDate, b.PublishedDate)
}
