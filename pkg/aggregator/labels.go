package aggregator

import (
	"context"
	"strings"
	"time"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/datasource"
)

// LabelResolver resolves ownership labels for a pod. Implementations are
// best-effort: a failed lookup returns ("N/A", "N/A") and is never retried.
type LabelResolver interface {
	ComponentLabels(ctx context.Context, pod, namespace string, end time.Time, window time.Duration) (component, application string)
}

// Label keys carrying the component/application ownership, in preference
// order. kube-state-metrics rewrites slashes and dots to underscores and
// prefixes everything with label_.
var componentLabelKeys = []string{
	"label_appstudio_openshift_io_component",
	"label_appstudio_redhat_com_component",
	"label_app_kubernetes_io_component",
	"label_component",
}

var applicationLabelKeys = []string{
	"label_appstudio_openshift_io_application",
	"label_appstudio_redhat_com_application",
	"label_app_kubernetes_io_name",
	"label_application",
	"label_app",
}

// MetricLabelResolver looks pods up through the kube_pod_labels series of
// the same backend the usage data came from. Range queries keep deleted
// pods resolvable for the whole window.
type MetricLabelResolver struct {
	source datasource.RangeSource
}

// NewMetricLabelResolver creates a resolver over the given backend.
func NewMetricLabelResolver(source datasource.RangeSource) *MetricLabelResolver {
	return &MetricLabelResolver{source: source}
}

func (r *MetricLabelResolver) ComponentLabels(ctx context.Context, pod, namespace string, end time.Time, window time.Duration) (string, string) {
	expr := `kube_pod_labels{pod="` + pod + `"}`
	if namespace != "" && namespace != "N/A" {
		expr = `kube_pod_labels{pod="` + pod + `",namespace="` + namespace + `"}`
	}

	series, err := r.source.QueryRange(ctx, expr, end.Add(-window), end)
	if err != nil || len(series) == 0 {
		// One more try without the namespace filter, then give up.
		if namespace != "" && namespace != "N/A" {
			series, err = r.source.QueryRange(ctx, `kube_pod_labels{pod="`+pod+`"}`, end.Add(-window), end)
		}
		if err != nil || len(series) == 0 {
			return "N/A", "N/A"
		}
	}

	labels := series[0].Labels
	return firstPresent(labels, componentLabelKeys), firstPresent(labels, applicationLabelKeys)
}

func firstPresent(labels map[string]string, keys []string) string {
	for _, key := range keys {
		if value := labels[key]; value != "" {
			return value
		}
	}
	return "N/A"
}

// fallbackComponent guesses a component from naming conventions when the
// label lookup came back empty: tenant namespaces are "<component>-tenant",
// and pod names usually start with the component.
func fallbackComponent(pod, namespace string) string {
	if namespace != "" && namespace != "N/A" && strings.HasSuffix(namespace, "-tenant") {
		if component := strings.TrimSuffix(namespace, "-tenant"); component != "" {
			return component
		}
	}
	if pod != "" {
		parts := strings.SplitN(pod, "-", 2)
		if len(parts) == 2 && len(parts[0]) > 1 {
			return parts[0]
		}
	}
	return "N/A"
}
