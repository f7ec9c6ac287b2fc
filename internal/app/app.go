// Package app implements the mosaic CLI: one subcommand per pipeline stage
// plus serve and health. Every command loads its environment and
// configuration the same way and returns a process exit code.
package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/mosaic/internal/cli"
	"horse.fit/mosaic/internal/config"
	"horse.fit/mosaic/internal/logging"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "collect":
		return runCollect(args[1:])
	case "correlate":
		return runCorrelate(args[1:])
	case "validate":
		return runValidate(args[1:])
	case "serve":
		return runServe(args[1:])
	case "health":
		return runHealth(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "mosaic CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  mosaic <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  collect    Gather stories from feed files and Google News into a batch")
	fmt.Fprintln(os.Stderr, "  correlate  Cluster a story batch and write the correlation report")
	fmt.Fprintln(os.Stderr, "  validate   Validate story batch JSON files against the v1 schema")
	fmt.Fprintln(os.Stderr, "  serve      Serve the latest report over HTTP")
	fmt.Fprintln(os.Stderr, "  health     Verify configuration and database connectivity")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"mosaic <command> -h\" for command-specific flags.")
}

// setupRuntime loads the env file, configuration and logger shared by every
// command. A nil envLoader skips the env file step.
func setupRuntime(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, int) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, zerolog.Logger{}, 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return nil, zerolog.Logger{}, 1
	}

	return cfg, logger, 0
}
