package aggregator

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/datasource"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

// DefaultBatchSize keeps the pod alternation short enough for the query
// URL and the result cardinality low enough for the backend. It is a
// transport tunable only: results must not depend on it.
const DefaultBatchSize = 50

// DefaultNamespacePattern scopes every usage query to tenant namespaces.
const DefaultNamespacePattern = ".*-tenant"

// Config tunes one aggregator instance.
type Config struct {
	BatchSize        int
	NamespacePattern string
	Debug            bool
}

// Aggregator turns a discovered pod set into per-step usage statistics by
// batching the pods, querying the backend per statistic and folding the
// per-batch results into running maxima.
type Aggregator struct {
	source   datasource.RangeSource
	resolver LabelResolver
	cfg      Config
}

// New creates an aggregator over the given backend. resolver may be nil,
// in which case component/application fall back to naming heuristics.
func New(source datasource.RangeSource, resolver LabelResolver, cfg Config) *Aggregator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.NamespacePattern == "" {
		cfg.NamespacePattern = DefaultNamespacePattern
	}
	return &Aggregator{source: source, resolver: resolver, cfg: cfg}
}

// batchStats holds one batch's contribution before the fold. Values are in
// backend units: bytes for memory, cores for CPU.
type batchStats struct {
	memMax    attributed
	memP95    float64
	memP90    float64
	memMedian float64
	cpuMax    attributed
	cpuP95    float64
	cpuP90    float64
	cpuMedian float64
}

// attributed is a maximum together with the pod that exhibited it.
type attributed struct {
	value     float64
	pod       string
	namespace string
}

// Aggregate computes the statistics of one (cluster, task, step). An empty
// pod set short-circuits to an empty record: "task never ran here" is a
// result, not an error.
func (a *Aggregator) Aggregate(ctx context.Context, cluster, task, step string, pods *models.PodSet, end time.Time, window time.Duration) models.StepRecord {
	rec := models.StepRecord{Cluster: cluster, Task: task, Step: step}
	if pods == nil || pods.Len() == 0 {
		return rec
	}

	var fold batchStats
	names := pods.Names()
	for batchStart := 0; batchStart < len(names); batchStart += a.cfg.BatchSize {
		batchEnd := batchStart + a.cfg.BatchSize
		if batchEnd > len(names) {
			batchEnd = len(names)
		}
		a.debugf("step %s: querying batch of %d pods (%d..%d of %d)",
			step, batchEnd-batchStart, batchStart, batchEnd, len(names))
		batch := a.queryBatch(ctx, step, names[batchStart:batchEnd], pods, end, window)
		foldInto(&fold, batch)
	}

	rec.MemMaxMB = toMB(fold.memMax.value)
	rec.MemP95MB = toMB(fold.memP95)
	rec.MemP90MB = toMB(fold.memP90)
	rec.MemMedianMB = toMB(fold.memMedian)
	rec.MemMaxPod = fold.memMax.pod
	rec.MemMaxNamespace = fold.memMax.namespace

	rec.CPUMaxMilli = toMillicores(fold.cpuMax.value)
	rec.CPUP95Milli = toMillicores(fold.cpuP95)
	rec.CPUP90Milli = toMillicores(fold.cpuP90)
	rec.CPUMedianMilli = toMillicores(fold.cpuMedian)
	rec.CPUMaxPod = fold.cpuMax.pod
	rec.CPUMaxNamespace = fold.cpuMax.namespace

	a.resolveOwnership(ctx, &rec, end, window)
	return rec
}

// queryBatch issues one query per statistic for a single batch of pods.
// A failed query (the source has already retried) contributes zero for
// that statistic only.
func (a *Aggregator) queryBatch(ctx context.Context, step string, batch []string, pods *models.PodSet, end time.Time, window time.Duration) batchStats {
	start := end.Add(-window)
	sel := a.selector(step, batch)
	rng := rangeSelector(window)

	memBase := fmt.Sprintf(`container_memory_working_set_bytes%s`, sel)
	cpuBase := fmt.Sprintf(`rate(container_cpu_usage_seconds_total%s[5m])`, sel)

	var stats batchStats
	stats.memMax = a.maxOverPods(ctx, fmt.Sprintf(`max_over_time(%s[%s])`, memBase, rng), pods, start, end)
	stats.memP95 = a.worstQuantile(ctx, fmt.Sprintf(`quantile_over_time(0.95, %s[%s])`, memBase, rng), pods, start, end)
	stats.memP90 = a.worstQuantile(ctx, fmt.Sprintf(`quantile_over_time(0.90, %s[%s])`, memBase, rng), pods, start, end)
	stats.memMedian = a.worstQuantile(ctx, fmt.Sprintf(`quantile_over_time(0.50, %s[%s])`, memBase, rng), pods, start, end)

	stats.cpuMax = a.maxOverPods(ctx, fmt.Sprintf(`max_over_time(%s[%s:5m])`, cpuBase, rng), pods, start, end)
	stats.cpuP95 = a.worstQuantile(ctx, fmt.Sprintf(`quantile_over_time(0.95, %s[%s:5m])`, cpuBase, rng), pods, start, end)
	stats.cpuP90 = a.worstQuantile(ctx, fmt.Sprintf(`quantile_over_time(0.90, %s[%s:5m])`, cpuBase, rng), pods, start, end)
	stats.cpuMedian = a.worstQuantile(ctx, fmt.Sprintf(`quantile_over_time(0.50, %s[%s:5m])`, cpuBase, rng), pods, start, end)

	return stats
}

// maxOverPods runs expr and picks the single largest per-pod value,
// keeping the attribution. Series whose pod is not a member of the
// discovered set are discarded: label drift or overlapping query matches
// must never contaminate the attribution.
func (a *Aggregator) maxOverPods(ctx context.Context, expr string, pods *models.PodSet, start, end time.Time) attributed {
	series, err := a.source.QueryRange(ctx, expr, start, end)
	if err != nil {
		a.warnf("batch query failed, zero contribution: %v", err)
		return attributed{}
	}

	var best attributed
	for _, s := range series {
		pod := s.Pod()
		if !pods.Contains(pod) {
			a.warnf("discarding out-of-scope pod %q returned for %s", pod, expr)
			continue
		}
		if v := s.MaxValue(); v > best.value {
			best = attributed{value: v, pod: pod, namespace: s.Namespace()}
			if best.namespace == "" {
				best.namespace = pods.Namespace(pod)
			}
		}
	}
	return best
}

// worstQuantile runs a quantile_over_time expression and returns the
// largest per-pod quantile in the batch. This is deliberately the
// worst-case Nth percentile any single pod exhibited, not a population
// percentile across pods.
func (a *Aggregator) worstQuantile(ctx context.Context, expr string, pods *models.PodSet, start, end time.Time) float64 {
	series, err := a.source.QueryRange(ctx, expr, start, end)
	if err != nil {
		a.warnf("batch query failed, zero contribution: %v", err)
		return 0
	}

	worst := 0.0
	for _, s := range series {
		if !pods.Contains(s.Pod()) {
			a.warnf("discarding out-of-scope pod %q returned for %s", s.Pod(), expr)
			continue
		}
		if v := s.MaxValue(); v > worst {
			worst = v
		}
	}
	return worst
}

// foldInto merges one batch into the running aggregate. Each statistic
// folds independently with a plain greater-than comparison; since every
// per-batch quantile is already a max over that batch's pods, the
// max-over-batches keeps the worst-case semantics end to end.
func foldInto(fold *batchStats, batch batchStats) {
	if batch.memMax.value > fold.memMax.value {
		fold.memMax = batch.memMax
	}
	if batch.cpuMax.value > fold.cpuMax.value {
		fold.cpuMax = batch.cpuMax
	}
	fold.memP95 = math.Max(fold.memP95, batch.memP95)
	fold.memP90 = math.Max(fold.memP90, batch.memP90)
	fold.memMedian = math.Max(fold.memMedian, batch.memMedian)
	fold.cpuP95 = math.Max(fold.cpuP95, batch.cpuP95)
	fold.cpuP90 = math.Max(fold.cpuP90, batch.cpuP90)
	fold.cpuMedian = math.Max(fold.cpuMedian, batch.cpuMedian)
}

// resolveOwnership fills Component/Application for the pod holding the
// memory maximum (falling back to the CPU maximum). Lookup failures leave
// "N/A"; they never invalidate the record.
func (a *Aggregator) resolveOwnership(ctx context.Context, rec *models.StepRecord, end time.Time, window time.Duration) {
	pod, namespace := rec.MemMaxPod, rec.MemMaxNamespace
	if pod == "" {
		pod, namespace = rec.CPUMaxPod, rec.CPUMaxNamespace
	}
	if pod == "" {
		return
	}

	component, application := "N/A", "N/A"
	if a.resolver != nil {
		component, application = a.resolver.ComponentLabels(ctx, pod, namespace, end, window)
	}
	if component == "N/A" {
		component = fallbackComponent(pod, namespace)
	}
	rec.Component = component
	rec.Application = application
}

// selector builds the label matcher for one batch: the step's container
// name, a pod-name alternation, and the tenant namespace scope.
func (a *Aggregator) selector(step string, batch []string) string {
	container := step
	if !strings.HasPrefix(container, "step-") {
		container = "step-" + container
	}
	return fmt.Sprintf(`{container=%q,pod=~%q,namespace=~%q}`,
		container, strings.Join(batch, "|"), a.cfg.NamespacePattern)
}

// rangeSelector renders a window as a PromQL duration, whole days when
// possible.
func rangeSelector(window time.Duration) string {
	if window >= 24*time.Hour && window%(24*time.Hour) == 0 {
		return fmt.Sprintf("%dd", int(window/(24*time.Hour)))
	}
	if window%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(window/time.Hour))
	}
	return fmt.Sprintf("%dm", int(window/time.Minute))
}

func toMB(bytes float64) float64 {
	return math.Round(bytes / 1024 / 1024)
}

func toMillicores(cores float64) int64 {
	return int64(cores * 1000)
}

func (a *Aggregator) warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[WARN] aggregator: "+format+"\n", args...)
}

func (a *Aggregator) debugf(format string, args ...interface{}) {
	if a.cfg.Debug {
		fmt.Fprintf(os.Stderr, "[DEBUG] aggregator: "+format+"\n", args...)
	}
}
