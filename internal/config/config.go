package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full process configuration, read from the environment.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Correlation.
	SimilarityThreshold float64 `envconfig:"MOSAIC_SIMILARITY_THRESHOLD" default:"0.3"`
	MaxClusterSize      int     `envconfig:"MOSAIC_MAX_CLUSTER_SIZE" default:"15"`
	ClusterStrategy     string  `envconfig:"MOSAIC_CLUSTER_STRATEGY" default:"bounded"`
	ScoringMode         string  `envconfig:"MOSAIC_SCORING_MODE" default:"auto"`
	ExtractionMode      string  `envconfig:"MOSAIC_EXTRACTION_MODE" default:"pattern"`
	KeywordTopN         int     `envconfig:"MOSAIC_KEYWORD_TOP_N" default:"10"`
	Workers             int     `envconfig:"MOSAIC_WORKERS" default:"0"`

	// Extraction pattern catalogue override, optional.
	PatternCataloguePath string `envconfig:"MOSAIC_PATTERN_CATALOGUE" default:""`

	// Report output.
	ReportDir string `envconfig:"MOSAIC_REPORT_DIR" default:"reports"`

	// HTTP server.
	ServeHost string `envconfig:"MOSAIC_SERVE_HOST" default:"127.0.0.1"`
	ServePort int    `envconfig:"MOSAIC_SERVE_PORT" default:"8274"`
	// AdminPasswordHash enables basic auth on the report server when set.
	// It is a bcrypt hash, never a plaintext password.
	AdminUser         string `envconfig:"MOSAIC_ADMIN_USER" default:"admin"`
	AdminPasswordHash string `envconfig:"MOSAIC_ADMIN_PASSWORD_HASH" default:""`

	// DatabaseURL enables run persistence when set.
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
}

// Load reads and validates the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate rejects invalid configuration before any work starts. Fatal at
// startup: a process with a bad threshold produces garbage clusters.
func (c *Config) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("MOSAIC_SIMILARITY_THRESHOLD must be within [0,1], got %v", c.SimilarityThreshold)
	}
	if c.MaxClusterSize < 0 {
		return fmt.Errorf("MOSAIC_MAX_CLUSTER_SIZE must be >= 0 (0 disables the bound), got %d", c.MaxClusterSize)
	}
	switch c.ClusterStrategy {
	case "bounded", "components":
	default:
		return fmt.Errorf("MOSAIC_CLUSTER_STRATEGY must be bounded or components, got %q", c.ClusterStrategy)
	}
	switch c.ScoringMode {
	case "auto", "weighted", "entity":
	default:
		return fmt.Errorf("MOSAIC_SCORING_MODE must be auto, weighted or entity, got %q", c.ScoringMode)
	}
	switch c.ExtractionMode {
	case "pattern", "model":
	default:
		return fmt.Errorf("MOSAIC_EXTRACTION_MODE must be pattern or model, got %q", c.ExtractionMode)
	}
	if c.KeywordTopN < 1 {
		return fmt.Errorf("MOSAIC_KEYWORD_TOP_N must be >= 1, got %d", c.KeywordTopN)
	}
	if c.Workers < 0 {
		return fmt.Errorf("MOSAIC_WORKERS must be >= 0 (0 means GOMAXPROCS), got %d", c.Workers)
	}
	if strings.TrimSpace(c.ReportDir) == "" {
		return fmt.Errorf("MOSAIC_REPORT_DIR is required")
	}
	if c.ServePort < 1 || c.ServePort > 65535 {
		return fmt.Errorf("MOSAIC_SERVE_PORT must be a valid port, got %d", c.ServePort)
	}
	if c.AdminPasswordHash != "" && strings.TrimSpace(c.AdminUser) == "" {
		return fmt.Errorf("MOSAIC_ADMIN_USER is required when MOSAIC_ADMIN_PASSWORD_HASH is set")
	}
	return nil
}

// ServeAddr is the host:port the report server binds to.
func (c *Config) ServeAddr() string {
	return fmt.Sprintf("%s:%d", c.ServeHost, c.ServePort)
}
