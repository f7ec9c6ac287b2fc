package storage

import (
	"time"
)

// CorrelationRun maps mosaic_runs: one persisted engine run.
type CorrelationRun struct {
	RunID               int64     `gorm:"column:run_id;primaryKey;autoIncrement"`
	StoryCount          int       `gorm:"column:story_count;type:integer;not null;default:0"`
	ClusterCount        int       `gorm:"column:cluster_count;type:integer;not null;default:0"`
	StoryClusterCount   int       `gorm:"column:story_cluster_count;type:integer;not null;default:0"`
	ConnectionPoints    int       `gorm:"column:connection_points;type:integer;not null;default:0"`
	SimilarityThreshold float64   `gorm:"column:similarity_threshold;type:double precision;not null"`
	ScoringMode         string    `gorm:"column:scoring_mode;type:text;not null"`
	ClusterStrategy     string    `gorm:"column:cluster_strategy;type:text;not null"`
	CreatedAt           time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (CorrelationRun) TableName() string { return "mosaic_runs" }

// RunStory maps mosaic_run_stories: one story's cluster assignment in a run.
type RunStory struct {
	RunStoryID    int64     `gorm:"column:run_story_id;primaryKey;autoIncrement"`
	RunID         int64     `gorm:"column:run_id;type:bigint;not null;index"`
	StoryID       string    `gorm:"column:story_id;type:text;not null;index"`
	ClusterID     int       `gorm:"column:cluster_id;type:integer;not null"`
	Title         string    `gorm:"column:title;type:text;not null"`
	URL           string    `gorm:"column:url;type:text;not null"`
	Source        string    `gorm:"column:source;type:text;not null"`
	Collector     string    `gorm:"column:collector;type:text"`
	PublishedDate time.Time `gorm:"column:published_date;type:timestamptz;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (RunStory) TableName() string { return "mosaic_run_stories" }

func autoMigrateModels() []any {
	return []any{
		&CorrelationRun{},
		&RunStory{},
	}
}
