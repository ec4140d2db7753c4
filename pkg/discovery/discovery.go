// Package discovery finds the pods that executed a task, using the
// backend's label series rather than live cluster state so that pods
// deleted hours or days ago are still accounted for.
package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/datasource"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

// DefaultNamespacePattern scopes discovery to tenant namespaces.
const DefaultNamespacePattern = ".*-tenant"

// Discoverer resolves task names to pod sets.
type Discoverer struct {
	source           datasource.RangeSource
	namespacePattern string
}

// New creates a discoverer over the given backend.
func New(source datasource.RangeSource, namespacePattern string) *Discoverer {
	if namespacePattern == "" {
		namespacePattern = DefaultNamespacePattern
	}
	return &Discoverer{source: source, namespacePattern: namespacePattern}
}

// DiscoverPods returns every pod that carried the task label during the
// window ending at end. The set may be empty: a task that never ran in
// this cluster is a valid, non-error result.
func (d *Discoverer) DiscoverPods(ctx context.Context, task string, end time.Time, window time.Duration) (*models.PodSet, error) {
	expr := fmt.Sprintf(`kube_pod_labels{label_tekton_dev_task=%q, namespace=~%q}`,
		task, d.namespacePattern)

	series, err := d.source.QueryRange(ctx, expr, end.Add(-window), end)
	if err != nil {
		return nil, fmt.Errorf("pod discovery for task %q failed: %w", task, err)
	}

	pods := models.NewPodSet()
	for _, s := range series {
		pods.Add(s.Pod(), s.Namespace())
	}
	return pods, nil
}
