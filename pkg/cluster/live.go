package cluster

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// LiveUsage is a point-in-time metrics-server reading for one container of
// a running task pod. It complements the historical Prometheus pipeline:
// useful for eyeballing a task that is executing right now.
type LiveUsage struct {
	Pod       string
	Namespace string
	Container string
	CPUMilli  int64
	MemoryMB  int64
}

// TaskPodUsage lists current usage for every running pod carrying the
// task label. Pods whose metrics are not yet available are skipped; only
// the pod listing itself can fail the call.
func (c *Client) TaskPodUsage(ctx context.Context, task string) ([]LiveUsage, error) {
	pods, err := c.clientset.CoreV1().Pods("").List(ctx, metav1.ListOptions{
		LabelSelector: "tekton.dev/task=" + task,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods for task %q: %w", task, err)
	}

	var usage []LiveUsage
	for _, pod := range pods.Items {
		if pod.Status.Phase != corev1.PodRunning {
			continue
		}
		pm, err := c.metrics.MetricsV1beta1().PodMetricses(pod.Namespace).Get(ctx, pod.Name, metav1.GetOptions{})
		if err != nil {
			// Metrics lag pod creation; a missing reading is not an error.
			continue
		}
		for _, container := range pm.Containers {
			usage = append(usage, LiveUsage{
				Pod:       pod.Name,
				Namespace: pod.Namespace,
				Container: container.Name,
				CPUMilli:  container.Usage.Cpu().MilliValue(),
				MemoryMB:  container.Usage.Memory().Value() / (1024 * 1024),
			})
		}
	}
	return usage, nil
}
