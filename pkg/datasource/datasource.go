package datasource

import (
	"context"
	"time"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

// RangeSource defines the interface for range queries against a metrics
// backend. Implementations return one Series per labeled time series; an
// empty slice means the expression matched nothing over the window.
type RangeSource interface {
	QueryRange(ctx context.Context, expr string, start, end time.Time) ([]models.Series, error)
	IsAvailable(ctx context.Context) bool
	Name() string
}

// Config carries everything needed to talk to one cluster's backend.
type Config struct {
	Address            string
	BearerToken        string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// StepFor picks the query resolution from the window length. Coarser steps
// for longer windows keep every query under the backend's fixed
// maximum-samples ceiling.
func StepFor(window time.Duration) time.Duration {
	switch {
	case window <= 24*time.Hour:
		return 30 * time.Second
	case window <= 7*24*time.Hour:
		return 5 * time.Minute
	case window <= 30*24*time.Hour:
		return 15 * time.Minute
	default:
		return time.Hour
	}
}
