package aggregator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/datasource"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

// podStats scripts one pod's answer for every statistic expression, in
// backend units (bytes, cores).
type podStats struct {
	namespace                      string
	memMax, memP95, memP90, memMed float64
	cpuMax, cpuP95, cpuP90, cpuMed float64
}

// statHandler answers each expression with the scripted value of every
// fixture pod named in the expression's pod alternation.
func statHandler(fixtures map[string]podStats) func(expr string, start, end time.Time) ([]models.Series, error) {
	return func(expr string, _, _ time.Time) ([]models.Series, error) {
		var out []models.Series
		for pod, st := range fixtures {
			if !strings.Contains(expr, pod) {
				continue
			}
			cpu := strings.Contains(expr, "container_cpu_usage_seconds_total")
			var v float64
			switch {
			case strings.HasPrefix(expr, "max_over_time"):
				if cpu {
					v = st.cpuMax
				} else {
					v = st.memMax
				}
			case strings.HasPrefix(expr, "quantile_over_time(0.95"):
				if cpu {
					v = st.cpuP95
				} else {
					v = st.memP95
				}
			case strings.HasPrefix(expr, "quantile_over_time(0.90"):
				if cpu {
					v = st.cpuP90
				} else {
					v = st.memP90
				}
			case strings.HasPrefix(expr, "quantile_over_time(0.50"):
				if cpu {
					v = st.cpuMed
				} else {
					v = st.memMed
				}
			default:
				continue
			}
			out = append(out, models.Series{
				Labels: map[string]string{"pod": pod, "namespace": st.namespace},
				Points: []models.Point{{Timestamp: time.Now(), Value: v}},
			})
		}
		return out, nil
	}
}

func podSetOf(fixtures map[string]podStats) *models.PodSet {
	set := models.NewPodSet()
	for pod, st := range fixtures {
		set.Add(pod, st.namespace)
	}
	return set
}

func TestAggregateAttributesMaximum(t *testing.T) {
	fixtures := map[string]podStats{
		"build-one": {
			namespace: "team1-tenant",
			memMax:    8e9, memP95: 6e9, memP90: 5e9, memMed: 3e9,
			cpuMax: 2.0, cpuP95: 1.5, cpuP90: 1.2, cpuMed: 0.8,
		},
		"build-two": {
			namespace: "team2-tenant",
			memMax:    5e8, memP95: 4e8, memP90: 3e8, memMed: 2e8,
			cpuMax: 0.3, cpuP95: 0.2, cpuP90: 0.15, cpuMed: 0.1,
		},
	}
	mock := &datasource.MockSource{Handler: statHandler(fixtures)}
	agg := New(mock, nil, Config{})

	rec := agg.Aggregate(context.Background(), "prod-east", "buildah", "build", podSetOf(fixtures), time.Now(), 24*time.Hour)

	assert.Equal(t, "prod-east", rec.Cluster)
	assert.Equal(t, "buildah", rec.Task)
	assert.Equal(t, "build", rec.Step)

	// 8e9 bytes is 7629 MB once rounded.
	assert.Equal(t, float64(7629), rec.MemMaxMB)
	assert.Equal(t, "build-one", rec.MemMaxPod)
	assert.Equal(t, "team1-tenant", rec.MemMaxNamespace)

	assert.Equal(t, int64(2000), rec.CPUMaxMilli)
	assert.Equal(t, "build-one", rec.CPUMaxPod)

	// Without a resolver, ownership falls back to the tenant namespace.
	assert.Equal(t, "team1", rec.Component)
	assert.Equal(t, "N/A", rec.Application)
}

func TestAggregatePercentileOrdering(t *testing.T) {
	fixtures := map[string]podStats{
		"build-one": {
			namespace: "team1-tenant",
			memMax:    4e9, memP95: 3e9, memP90: 2.5e9, memMed: 1e9,
			cpuMax: 1.0, cpuP95: 0.9, cpuP90: 0.8, cpuMed: 0.4,
		},
		"build-two": {
			namespace: "team2-tenant",
			memMax:    3e9, memP95: 2.9e9, memP90: 2.8e9, memMed: 2e9,
			cpuMax: 0.7, cpuP95: 0.6, cpuP90: 0.5, cpuMed: 0.3,
		},
	}
	mock := &datasource.MockSource{Handler: statHandler(fixtures)}
	agg := New(mock, nil, Config{})

	rec := agg.Aggregate(context.Background(), "c1", "buildah", "build", podSetOf(fixtures), time.Now(), 24*time.Hour)

	assert.GreaterOrEqual(t, rec.MemMaxMB, rec.MemP95MB)
	assert.GreaterOrEqual(t, rec.MemP95MB, rec.MemP90MB)
	assert.GreaterOrEqual(t, rec.MemP90MB, rec.MemMedianMB)
	assert.GreaterOrEqual(t, rec.CPUMaxMilli, rec.CPUP95Milli)
	assert.GreaterOrEqual(t, rec.CPUP95Milli, rec.CPUP90Milli)
	assert.GreaterOrEqual(t, rec.CPUP90Milli, rec.CPUMedianMilli)

	// Per-pod worst case: the median is build-two's 2e9, not build-one's.
	assert.Equal(t, float64(1907), rec.MemMedianMB)
}

func TestAggregateBatchingInvariance(t *testing.T) {
	fixtures := map[string]podStats{
		"build-one":   {namespace: "a-tenant", memMax: 1e9, memP95: 9e8, cpuMax: 0.5, cpuP95: 0.4},
		"build-two":   {namespace: "b-tenant", memMax: 3e9, memP95: 2e9, cpuMax: 1.5, cpuP95: 1.0},
		"build-three": {namespace: "c-tenant", memMax: 2e9, memP95: 1e9, cpuMax: 0.9, cpuP95: 0.7},
	}
	pods := podSetOf(fixtures)
	end := time.Now()

	var records []models.StepRecord
	for _, batchSize := range []int{1, 2, 50} {
		mock := &datasource.MockSource{Handler: statHandler(fixtures)}
		agg := New(mock, nil, Config{BatchSize: batchSize})
		records = append(records, agg.Aggregate(context.Background(), "c1", "buildah", "build", pods, end, 24*time.Hour))
	}

	require.Len(t, records, 3)
	assert.Equal(t, records[0], records[1], "batch size 1 vs 2 changed the result")
	assert.Equal(t, records[0], records[2], "batch size 1 vs 50 changed the result")
	assert.Equal(t, float64(2861), records[0].MemMaxMB)
	assert.Equal(t, "build-two", records[0].MemMaxPod)
}

func TestAggregateDiscardsOutOfScopePods(t *testing.T) {
	fixtures := map[string]podStats{
		"build-one": {namespace: "team1-tenant", memMax: 1e9, cpuMax: 0.5},
	}
	handler := statHandler(fixtures)
	mock := &datasource.MockSource{
		Handler: func(expr string, start, end time.Time) ([]models.Series, error) {
			out, err := handler(expr, start, end)
			// The backend claims a pod discovery never saw; it must be
			// discarded regardless of its value.
			out = append(out, models.Series{
				Labels: map[string]string{"pod": "intruder", "namespace": "team9-tenant"},
				Points: []models.Point{{Value: 9e12}},
			})
			return out, err
		},
	}
	agg := New(mock, nil, Config{})

	rec := agg.Aggregate(context.Background(), "c1", "buildah", "build", podSetOf(fixtures), time.Now(), 24*time.Hour)

	assert.Equal(t, float64(954), rec.MemMaxMB)
	assert.Equal(t, "build-one", rec.MemMaxPod)
	assert.NotEqual(t, "intruder", rec.CPUMaxPod)
}

func TestAggregateEmptyPodSet(t *testing.T) {
	mock := &datasource.MockSource{}
	agg := New(mock, nil, Config{})

	rec := agg.Aggregate(context.Background(), "c1", "buildah", "build", models.NewPodSet(), time.Now(), 24*time.Hour)

	assert.True(t, rec.Empty())
	assert.Equal(t, "c1", rec.Cluster)
	assert.Equal(t, "build", rec.Step)
	assert.Empty(t, mock.Queries, "an empty pod set must not hit the backend")
}

func TestAggregateUsesResolver(t *testing.T) {
	fixtures := map[string]podStats{
		"build-one": {namespace: "team1-tenant", memMax: 1e9, cpuMax: 0.5},
	}
	mock := &datasource.MockSource{Handler: statHandler(fixtures)}
	agg := New(mock, resolverFunc(func(ctx context.Context, pod, namespace string, end time.Time, window time.Duration) (string, string) {
		return "my-component", "my-app"
	}), Config{})

	rec := agg.Aggregate(context.Background(), "c1", "buildah", "build", podSetOf(fixtures), time.Now(), 24*time.Hour)

	assert.Equal(t, "my-component", rec.Component)
	assert.Equal(t, "my-app", rec.Application)
}

type resolverFunc func(ctx context.Context, pod, namespace string, end time.Time, window time.Duration) (string, string)

func (f resolverFunc) ComponentLabels(ctx context.Context, pod, namespace string, end time.Time, window time.Duration) (string, string) {
	return f(ctx, pod, namespace, end, window)
}

func TestSelector(t *testing.T) {
	agg := New(&datasource.MockSource{}, nil, Config{NamespacePattern: ".*-tenant"})

	sel := agg.selector("build", []string{"p1", "p2"})
	assert.Equal(t, `{container="step-build",pod=~"p1|p2",namespace=~".*-tenant"}`, sel)

	// An already-prefixed container name is kept as-is.
	sel = agg.selector("step-build", []string{"p1"})
	assert.Contains(t, sel, `container="step-build"`)
	assert.NotContains(t, sel, "step-step-")
}

func TestRangeSelector(t *testing.T) {
	assert.Equal(t, "1d", rangeSelector(24*time.Hour))
	assert.Equal(t, "7d", rangeSelector(7*24*time.Hour))
	assert.Equal(t, "36h", rangeSelector(36*time.Hour))
	assert.Equal(t, "90m", rangeSelector(90*time.Minute))
}

func TestUnitConversions(t *testing.T) {
	assert.Equal(t, float64(1024), toMB(1024*1024*1024))
	assert.Equal(t, float64(7629), toMB(8e9))
	assert.Equal(t, int64(500), toMillicores(0.5))
	assert.Equal(t, int64(123), toMillicores(0.1234))
	assert.Equal(t, int64(0), toMillicores(0))
}
