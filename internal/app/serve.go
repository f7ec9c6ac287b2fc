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
	"syscall"

	"horse.fit/mosaic/internal/cli"
	"horse.fit/mosaic/internal/httpapi"
	"horse.fit/mosaic/internal/report"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	reportPath := fs.String("report", "", "Report JSON to serve (default <report dir>/report.json)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, logger, code := setupRuntime(envLoader)
	if code != 0 {
		return code
	}

	path := *reportPath
	if path == "" {
		path = filepath.Join(cfg.ReportDir, "report.json")
	}

	server := httpapi.NewServer(logger, httpapi.Options{
		Host:              cfg.ServeHost,
		Port:              cfg.ServePort,
		AdminUser:         cfg.AdminUser,
		AdminPasswordHash: cfg.AdminPasswordHash,
	})

	if rep, err := readReport(path); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("starting without a report")
	} else {
		server.SetReport(rep)
		logger.Info().Str("path", path).Msg("report loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("report server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}
	return 0
}

func readReport(path string) (report.Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return report.Report{}, err
	}
	var rep report.Report
	if err := json.Unmarshal(raw, &rep); err != nil {
		return report.Report{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return rep, nil
}
