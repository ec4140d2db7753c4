package datasource

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

// RetryConfig bounds the retry loop wrapped around every range query.
type RetryConfig struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetry matches the collection scripts: ten attempts with a fixed
// five second pause between them.
var DefaultRetry = RetryConfig{Attempts: 10, Backoff: 5 * time.Second}

// Retrying decorates a RangeSource with bounded retries. After the last
// attempt fails it returns an empty result instead of an error, so one bad
// query degrades a single statistic rather than aborting the whole run.
type Retrying struct {
	source RangeSource
	cfg    RetryConfig
	warnf  func(format string, args ...interface{})
}

// WithRetry wraps source in the retry policy.
func WithRetry(source RangeSource, cfg RetryConfig) *Retrying {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &Retrying{
		source: source,
		cfg:    cfg,
		warnf: func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, "[WARN] "+format+"\n", args...)
		},
	}
}

// QueryRange retries the underlying query up to the configured attempt
// count. Exhaustion is not an error: the caller gets a nil series slice.
func (r *Retrying) QueryRange(ctx context.Context, expr string, start, end time.Time) ([]models.Series, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.Attempts; attempt++ {
		series, err := r.source.QueryRange(ctx, expr, start, end)
		if err == nil {
			return series, nil
		}
		lastErr = err

		if attempt < r.cfg.Attempts {
			select {
			case <-time.After(r.cfg.Backoff):
			case <-ctx.Done():
				r.warnf("query cancelled after %d attempts: %v", attempt, ctx.Err())
				return nil, nil
			}
		}
	}

	r.warnf("query gave up after %d attempts, treating result as empty: %v", r.cfg.Attempts, lastErr)
	return nil, nil
}

func (r *Retrying) IsAvailable(ctx context.Context) bool {
	return r.source.IsAvailable(ctx)
}

func (r *Retrying) Name() string {
	return r.source.Name()
}
