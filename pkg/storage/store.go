package storage

import (
	"context"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

// Store defines the interface for the analysis history database. It is an
// optional trend-tracking layer on top of the file cache: the cache is the
// artifact of record, the store answers "how have this task's
// recommendations moved over the last months".
type Store interface {
	SaveRun(ctx context.Context, set *models.RecommendationSet, artifactPath string) (string, error)
	ListRuns(ctx context.Context, task string, limit int) ([]*models.AnalysisRun, error)
	RunRecommendations(ctx context.Context, runID string, base models.Base) ([]models.StepRecommendation, error)

	Ping(ctx context.Context) error
	Close() error
}
