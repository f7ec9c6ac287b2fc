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

	"horse.fit/mosaic/internal/cli"
	"horse.fit/mosaic/internal/collect"
	"horse.fit/mosaic/internal/reader"
	"horse.fit/mosaic/internal/story"
)

func runCollect(args []string) int {
	fs := flag.NewFlagSet("collect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	feedFiles := fs.String("feed", "", "Comma-separated story batch JSON files")
	googleQueries := fs.String("google", "", "Comma-separated name=query Google News searches")
	enrich := fs.Bool("enrich", false, "Fetch body text for headline-only stories")
	out := fs.String("out", "stories.json", "Output path for the collected batch")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	_, logger, code := setupRuntime(envLoader)
	if code != 0 {
		return code
	}

	registry := collect.NewRegistry(logger)

	if paths := splitList(*feedFiles); len(paths) > 0 {
		registry.Register(collect.NewFeedFileCollector("feed_file", paths, logger))
	}
	if queries, err := parseGoogleQueries(*googleQueries); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -google value: %v\n", err)
		return 2
	} else if len(queries) > 0 {
		registry.Register(collect.NewGoogleNewsCollector(nil, queries, "en"))
	}

	if len(registry.Names()) == 0 {
		fmt.Fprintln(os.Stderr, "No collectors configured: pass -feed and/or -google")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stories, err := registry.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("collection aborted")
		fmt.Fprintf(os.Stderr, "Collection aborted: %v\n", err)
		return 1
	}

	if *enrich {
		stories = reader.EnrichStories(ctx, stories, reader.FetchOptions{Timeout: 12 * time.Second}, logger)
	}

	if err := writeStoryBatch(*out, stories); err != nil {
		logger.Error().Err(err).Str("path", *out).Msg("write batch failed")
		fmt.Fprintf(os.Stderr, "Failed to write batch: %v\n", err)
		return 1
	}

	logger.Info().
		Int("stories", len(stories)).
		Strs("collectors", registry.Names()).
		Str("out", *out).
		Msg("collection complete")
	fmt.Printf("collect stories=%d out=%s\n", len(stories), *out)
	return 0
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if v := strings.TrimSpace(part); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func parseGoogleQueries(raw string) ([]collect.Query, error) {
	queries := make([]collect.Query, 0)
	for _, part := range splitList(raw) {
		name, query, found := strings.Cut(part, "=")
		if !found || strings.TrimSpace(name) == "" || strings.TrimSpace(query) == "" {
			return nil, fmt.Errorf("expected name=query, got %q", part)
		}
		queries = append(queries, collect.Query{
			Name:  strings.TrimSpace(name),
			Query: strings.TrimSpace(query),
		})
	}
	return queries, nil
}

func writeStoryBatch(path string, stories []story.Story) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create batch file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stories); err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	return nil
}
