package aggregator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/datasource"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

func TestFirstPresentPrefersAppstudioKeys(t *testing.T) {
	labels := map[string]string{
		"label_component":                        "generic",
		"label_appstudio_openshift_io_component": "my-service",
	}
	assert.Equal(t, "my-service", firstPresent(labels, componentLabelKeys))

	assert.Equal(t, "N/A", firstPresent(map[string]string{}, componentLabelKeys))
	assert.Equal(t, "N/A", firstPresent(map[string]string{"label_component": ""}, componentLabelKeys))
}

func TestFallbackComponent(t *testing.T) {
	tests := []struct {
		pod, namespace, want string
	}{
		{"build-abc-pod", "team1-tenant", "team1"},
		{"build-abc-pod", "openshift-monitoring", "build"},
		{"build-abc-pod", "", "build"},
		{"build-abc-pod", "N/A", "build"},
		{"solo", "", "N/A"},
		{"a-b", "", "N/A"}, // single-letter prefix carries no signal
		{"", "", "N/A"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fallbackComponent(tt.pod, tt.namespace),
			"fallbackComponent(%q, %q)", tt.pod, tt.namespace)
	}
}

func TestMetricLabelResolver(t *testing.T) {
	mock := &datasource.MockSource{
		Handler: func(expr string, start, end time.Time) ([]models.Series, error) {
			return []models.Series{{Labels: map[string]string{
				"pod":                                    "build-one",
				"label_appstudio_redhat_com_component":   "svc",
				"label_appstudio_redhat_com_application": "app",
			}}}, nil
		},
	}

	r := NewMetricLabelResolver(mock)
	component, application := r.ComponentLabels(context.Background(), "build-one", "team1-tenant", time.Now(), time.Hour)

	assert.Equal(t, "svc", component)
	assert.Equal(t, "app", application)
	assert.Len(t, mock.Queries, 1)
	assert.Contains(t, mock.Queries[0], `namespace="team1-tenant"`)
}

func TestMetricLabelResolverRetriesWithoutNamespace(t *testing.T) {
	mock := &datasource.MockSource{
		Handler: func(expr string, start, end time.Time) ([]models.Series, error) {
			if strings.Contains(expr, "namespace=") {
				return nil, nil
			}
			return []models.Series{{Labels: map[string]string{
				"pod":             "build-one",
				"label_component": "svc",
			}}}, nil
		},
	}

	r := NewMetricLabelResolver(mock)
	component, application := r.ComponentLabels(context.Background(), "build-one", "gone-tenant", time.Now(), time.Hour)

	assert.Equal(t, "svc", component)
	assert.Equal(t, "N/A", application)
	assert.Len(t, mock.Queries, 2, "expected a namespaced attempt then a bare retry")
}

func TestMetricLabelResolverGivesUp(t *testing.T) {
	mock := &datasource.MockSource{}

	r := NewMetricLabelResolver(mock)
	component, application := r.ComponentLabels(context.Background(), "ghost", "", time.Now(), time.Hour)

	assert.Equal(t, "N/A", component)
	assert.Equal(t, "N/A", application)
}
