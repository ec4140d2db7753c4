package datasource

import (
	"context"
	"time"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

// MockSource is a scripted RangeSource for tests. Handler receives every
// expression and decides what comes back; a nil Handler returns nothing.
type MockSource struct {
	Handler   func(expr string, start, end time.Time) ([]models.Series, error)
	Available bool
	Queries   []string
}

func (m *MockSource) QueryRange(ctx context.Context, expr string, start, end time.Time) ([]models.Series, error) {
	m.Queries = append(m.Queries, expr)
	if m.Handler == nil {
		return nil, nil
	}
	return m.Handler(expr, start, end)
}

func (m *MockSource) IsAvailable(ctx context.Context) bool {
	return m.Available
}

func (m *MockSource) Name() string {
	return "mock"
}
