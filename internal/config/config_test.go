package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Environment:         "local",
		LogLevel:            "info",
		SimilarityThreshold: 0.3,
		MaxClusterSize:      15,
		ClusterStrategy:     "bounded",
		ScoringMode:         "auto",
		ExtractionMode:      "pattern",
		KeywordTopN:         10,
		ReportDir:           "reports",
		ServeHost:           "127.0.0.1",
		ServePort:           8274,
		AdminUser:           "admin",
	}
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default-shaped config must validate, got %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"threshold above one", func(c *Config) { c.SimilarityThreshold = 1.5 }, "MOSAIC_SIMILARITY_THRESHOLD"},
		{"threshold negative", func(c *Config) { c.SimilarityThreshold = -0.1 }, "MOSAIC_SIMILARITY_THRESHOLD"},
		{"negative cluster size", func(c *Config) { c.MaxClusterSize = -1 }, "MOSAIC_MAX_CLUSTER_SIZE"},
		{"unknown strategy", func(c *Config) { c.ClusterStrategy = "kmeans" }, "MOSAIC_CLUSTER_STRATEGY"},
		{"unknown scoring mode", func(c *Config) { c.ScoringMode = "psychic" }, "MOSAIC_SCORING_MODE"},
		{"unknown extraction mode", func(c *Config) { c.ExtractionMode = "llm" }, "MOSAIC_EXTRACTION_MODE"},
		{"zero keywords", func(c *Config) { c.KeywordTopN = 0 }, "MOSAIC_KEYWORD_TOP_N"},
		{"negative workers", func(c *Config) { c.Workers = -2 }, "MOSAIC_WORKERS"},
		{"empty report dir", func(c *Config) { c.ReportDir = "  " }, "MOSAIC_REPORT_DIR"},
		{"bad port", func(c *Config) { c.ServePort = 0 }, "MOSAIC_SERVE_PORT"},
		{"hash without user", func(c *Config) {
			c.AdminPasswordHash = "$2a$10$abcdefghijklmnopqrstuv"
			c.AdminUser = " "
		}, "MOSAIC_ADMIN_USER"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestValidate_UnboundedClusterSizeAllowed(t *testing.T) {
	cfg := validConfig()
	cfg.MaxClusterSize = 0
	cfg.ClusterStrategy = "components"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unbounded components config must validate, got %v", err)
	}
}

func TestServeAddr(t *testing.T) {
	cfg := validConfig()
	if got := cfg.ServeAddr(); got != "127.0.0.1:8274" {
		t.Fatalf("ServeAddr = %q", got)
	}
}
