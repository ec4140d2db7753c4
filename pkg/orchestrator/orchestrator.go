// Package orchestrator fans the per-cluster driver out over every
// configured cluster context with bounded parallelism.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/driver"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

// ErrNoClustersAccessible is the only fatal outcome of a run: every
// configured context failed the connectivity pre-check.
var ErrNoClustersAccessible = errors.New("no clusters accessible")

// DriverFactory builds the pipeline for one named context. Every call must
// return a fully isolated driver, with its own auth handle and backend
// client, so concurrent workers share nothing.
type DriverFactory func(ctx context.Context, contextName string) (*driver.Driver, error)

// Prober checks whether one context is reachable.
type Prober func(ctx context.Context, contextName string) error

// ClusterStatus is one line of the connectivity summary.
type ClusterStatus struct {
	Context   string
	Reachable bool
	Error     string
}

// Orchestrator runs the collection across clusters.
type Orchestrator struct {
	factory     DriverFactory
	prober      Prober
	concurrency int
	warnf       func(format string, args ...interface{})
}

// New creates an orchestrator. concurrency <= 1 means strictly sequential.
func New(factory DriverFactory, prober Prober, concurrency int) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		factory:     factory,
		prober:      prober,
		concurrency: concurrency,
		warnf: func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, "[WARN] "+format+"\n", args...)
		},
	}
}

// Run probes every context, drops the unreachable ones, and collects
// StepRecords from the rest. The returned statuses always cover all
// configured contexts. Unreachable clusters are a warning unless none are
// left, which aborts with ErrNoClustersAccessible before any driver runs.
func (o *Orchestrator) Run(ctx context.Context, contexts []string, task string, steps []string, end time.Time, window time.Duration) ([]models.StepRecord, []ClusterStatus, error) {
	statuses := make([]ClusterStatus, 0, len(contexts))
	var reachable []string
	for _, name := range contexts {
		if err := o.prober(ctx, name); err != nil {
			statuses = append(statuses, ClusterStatus{Context: name, Error: err.Error()})
			o.warnf("cluster %s unreachable: %v", name, err)
			continue
		}
		statuses = append(statuses, ClusterStatus{Context: name, Reachable: true})
		reachable = append(reachable, name)
	}

	if len(reachable) == 0 {
		return nil, statuses, ErrNoClustersAccessible
	}

	workers := o.concurrency
	if workers > len(reachable) {
		workers = len(reachable)
	}

	// Constant-parallelism pool: a finished worker immediately takes the
	// next pending cluster instead of waiting for a cohort.
	jobs := make(chan string)
	var mu sync.Mutex
	var table []models.StepRecord

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				records, err := o.collect(ctx, name, task, steps, end, window)
				if err != nil {
					// The pre-check passed but the cluster failed mid-run;
					// its rows are simply missing from the table.
					o.warnf("cluster %s failed during collection: %v", name, err)
					continue
				}
				mu.Lock()
				table = append(table, records...)
				mu.Unlock()
			}
		}()
	}

	for _, name := range reachable {
		jobs <- name
	}
	close(jobs)
	wg.Wait()

	return table, statuses, nil
}

func (o *Orchestrator) collect(ctx context.Context, contextName, task string, steps []string, end time.Time, window time.Duration) ([]models.StepRecord, error) {
	drv, err := o.factory(ctx, contextName)
	if err != nil {
		return nil, err
	}
	return drv.Run(ctx, task, steps, end, window)
}
