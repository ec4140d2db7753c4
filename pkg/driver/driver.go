// Package driver runs the discovery and aggregation pipeline for the
// (task, step) pairs of one cluster.
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/aggregator"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/discovery"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

// Driver emits StepRecords for one cluster. It owns no shared state:
// concurrent drivers for different clusters never interfere.
type Driver struct {
	cluster    string
	discoverer *discovery.Discoverer
	aggregator *aggregator.Aggregator
}

// New creates a driver that stamps records with the given cluster name.
func New(cluster string, d *discovery.Discoverer, a *aggregator.Aggregator) *Driver {
	return &Driver{cluster: cluster, discoverer: d, aggregator: a}
}

// Run discovers the task's pods once, then aggregates each step against
// that same set. Records come out in the caller-supplied step order. An
// empty pod set yields all-zero records, which is a success: the task
// simply never ran here during the window.
func (d *Driver) Run(ctx context.Context, task string, steps []string, end time.Time, window time.Duration) ([]models.StepRecord, error) {
	pods, err := d.discoverer.DiscoverPods(ctx, task, end, window)
	if err != nil {
		return nil, fmt.Errorf("cluster %s: %w", d.cluster, err)
	}

	records := make([]models.StepRecord, 0, len(steps))
	for _, step := range steps {
		records = append(records, d.aggregator.Aggregate(ctx, d.cluster, task, step, pods, end, window))
	}
	return records, nil
}
