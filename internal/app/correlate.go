package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/mosaic/internal/cli"
	"horse.fit/mosaic/internal/cluster"
	"horse.fit/mosaic/internal/config"
	"horse.fit/mosaic/internal/correlate"
	"horse.fit/mosaic/internal/extract"
	"horse.fit/mosaic/internal/report"
	"horse.fit/mosaic/internal/similarity"
	"horse.fit/mosaic/internal/storage"
	"horse.fit/mosaic/internal/story"
)

func runCorrelate(args []string) int {
	fs := flag.NewFlagSet("correlate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	in := fs.String("in", "stories.json", "Story batch JSON file to correlate")
	format := fs.String("format", "both", "Report output format: json, html or both")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	switch *format {
	case "json", "html", "both":
	default:
		fmt.Fprintf(os.Stderr, "Invalid -format %q: must be json, html or both\n", *format)
		return 2
	}

	cfg, logger, code := setupRuntime(envLoader)
	if code != 0 {
		return code
	}

	stories, err := readStoryBatch(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read story batch: %v\n", err)
		return 1
	}
	stories = story.DedupeByURL(stories)

	engine, err := buildEngine(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build engine: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	result, err := engine.Correlate(ctx, stories)
	if err != nil {
		logger.Error().Err(err).Msg("correlation failed")
		fmt.Fprintf(os.Stderr, "Correlation failed: %v\n", err)
		return 1
	}

	rep := report.Build(result)
	if err := writeReport(cfg.ReportDir, *format, rep); err != nil {
		logger.Error().Err(err).Msg("write report failed")
		fmt.Fprintf(os.Stderr, "Failed to write report: %v\n", err)
		return 1
	}

	persistRun(ctx, cfg, logger, result)

	logger.Info().
		Int("stories", len(stories)).
		Int("clusters", len(result.Clusters)).
		Dur("elapsed", time.Since(started)).
		Str("report_dir", cfg.ReportDir).
		Msg("correlation report written")
	fmt.Printf(
		"correlate stories=%d clusters=%d connection_points=%d report_dir=%s\n",
		len(stories),
		len(result.Clusters),
		result.Connections.TotalPoints(),
		cfg.ReportDir,
	)
	return 0
}

// buildEngine assembles the extractor, scorer and engine from configuration.
func buildEngine(cfg *config.Config, logger zerolog.Logger) (*correlate.Engine, error) {
	var extractor extract.Extractor
	switch cfg.ExtractionMode {
	case "model":
		extractor = extract.NewNERExtractor(nil, nil, cfg.KeywordTopN)
	default:
		catalogue := extract.DefaultCatalogue()
		if path := strings.TrimSpace(cfg.PatternCataloguePath); path != "" {
			loaded, err := extract.LoadCatalogue(path)
			if err != nil {
				return nil, err
			}
			catalogue = loaded
		}
		extractor = extract.NewPatternExtractor(catalogue, cfg.KeywordTopN)
	}

	scorer := similarity.NewScorer(similarity.LexicalVectorized, similarity.Weights{})

	return correlate.New(extractor, scorer, correlate.Options{
		Threshold:      cfg.SimilarityThreshold,
		MaxClusterSize: cfg.MaxClusterSize,
		Strategy:       cluster.Strategy(cfg.ClusterStrategy),
		ScoringMode:    correlate.ScoringMode(cfg.ScoringMode),
		Workers:        cfg.Workers,
	}, logger)
}

func readStoryBatch(path string) ([]story.Story, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var stories []story.Story
	if err := json.Unmarshal(raw, &stories); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return stories, nil
}

func writeReport(dir, format string, rep report.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	if format == "json" || format == "both" {
		f, err := os.Create(filepath.Join(dir, "report.json"))
		if err != nil {
			return fmt.Errorf("create report.json: %w", err)
		}
		err = rep.WriteJSON(f)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("write report.json: %w", err)
		}
	}

	if format == "html" || format == "both" {
		f, err := os.Create(filepath.Join(dir, "report.html"))
		if err != nil {
			return fmt.Errorf("create report.html: %w", err)
		}
		err = rep.WriteHTML(f)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("write report.html: %w", err)
		}
	}

	return nil
}

// persistRun stores the run when a database is configured. Persistence
// failures are logged, never fatal: the report on disk is the deliverable.
func persistRun(ctx context.Context, cfg *config.Config, logger zerolog.Logger, result *correlate.Result) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return
	}

	store, err := storage.Open(ctx, cfg.DatabaseURL, cfg.LogLevel, cfg.Environment)
	if err != nil {
		logger.Warn().Err(err).Msg("run persistence skipped: database unavailable")
		return
	}
	defer store.Close()

	run, err := store.SaveRun(ctx, result, storage.RunParams{
		SimilarityThreshold: cfg.SimilarityThreshold,
		ScoringMode:         cfg.ScoringMode,
		ClusterStrategy:     cfg.ClusterStrategy,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("run persistence failed")
		return
	}
	logger.Info().Int64("run_id", run.RunID).Msg("run persisted")
}
