// Package storage persists correlation runs to Postgres. It is optional:
// the engine and report layers never depend on it, and a run without
// DATABASE_URL configured skips persistence entirely.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"horse.fit/mosaic/internal/correlate"
)

// Store wraps the gorm handle for run persistence.
type Store struct {
	gdb *gorm.DB
}

// Open connects, applies pool settings, pings and auto-migrates.
func Open(ctx context.Context, databaseURL, logLevel, environment string) (*Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	gdb, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(resolveGormLogLevel(logLevel, environment)),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get gorm sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(8)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := gdb.WithContext(ctx).AutoMigrate(autoMigrateModels()...); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("auto-migrate schema: %w", err)
	}

	return &Store{gdb: gdb}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.gdb == nil {
		return nil
	}
	sqlDB, err := s.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.gdb == nil {
		return fmt.Errorf("store is not initialized")
	}
	sqlDB, err := s.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// RunParams carries the configuration snapshot stored with each run.
type RunParams struct {
	SimilarityThreshold float64
	ScoringMode         string
	ClusterStrategy     string
}

// SaveRun persists one correlation result with its per-story cluster
// assignments, atomically.
func (s *Store) SaveRun(ctx context.Context, result *correlate.Result, params RunParams) (*CorrelationRun, error) {
	if s == nil || s.gdb == nil {
		return nil, fmt.Errorf("store is not initialized")
	}
	if result == nil {
		return nil, fmt.Errorf("result is nil")
	}

	storyClusters := 0
	for _, c := range result.Clusters {
		if c.Size() >= 2 {
			storyClusters++
		}
	}

	run := &CorrelationRun{
		StoryCount:          len(result.Stories),
		ClusterCount:        len(result.Clusters),
		StoryClusterCount:   storyClusters,
		ConnectionPoints:    result.Connections.TotalPoints(),
		SimilarityThreshold: params.SimilarityThreshold,
		ScoringMode:         params.ScoringMode,
		ClusterStrategy:     params.ClusterStrategy,
	}

	err := s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		rows := make([]RunStory, 0, len(result.Stories))
		for _, c := range result.Clusters {
			for _, st := range c.Stories {
				rows = append(rows, RunStory{
					RunID:         run.RunID,
					StoryID:       st.ID,
					ClusterID:     c.ID,
					Title:         st.Title,
					URL:           st.URL,
					Source:        st.Source,
					Collector:     st.Collector,
					PublishedDate: st.PublishedDate,
				})
			}
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 200).Error; err != nil {
			return fmt.Errorf("insert run stories: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return run, nil
}

// RecentRuns lists the newest runs first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]CorrelationRun, error) {
	if s == nil || s.gdb == nil {
		return nil, fmt.Errorf("store is not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	runs := make([]CorrelationRun, 0, limit)
	err := s.gdb.WithContext(ctx).
		Order("created_at DESC, run_id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return runs, nil
}

// RunStories lists a run's story assignments, cluster order preserved.
func (s *Store) RunStories(ctx context.Context, runID int64) ([]RunStory, error) {
	if s == nil || s.gdb == nil {
		return nil, fmt.Errorf("store is not initialized")
	}

	rows := make([]RunStory, 0)
	err := s.gdb.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("cluster_id ASC, run_story_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query run stories: %w", err)
	}
	return rows, nil
}

func resolveGormLogLevel(appLogLevel, environment string) logger.LogLevel {
	level := strings.ToLower(strings.TrimSpace(appLogLevel))
	switch level {
	case "trace", "debug":
		return logger.Info
	case "warn", "warning", "info", "":
		return logger.Warn
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		if strings.EqualFold(strings.TrimSpace(environment), "local") {
			return logger.Warn
		}
		return logger.Error
	}
}
