package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

// csvFormatter writes the flat record layout consumed by the analysis
// side. Every field is quoted, numbers included, matching the wire format
// the downstream parser has always accepted.
type csvFormatter struct{}

func (f *csvFormatter) Name() string { return "csv" }

var recordHeader = []string{
	"cluster", "task", "step",
	"mem_max_mb", "mem_p95_mb", "mem_p90_mb", "mem_median_mb",
	"mem_max_pod", "mem_max_namespace", "component", "application",
	"cpu_max", "cpu_p95", "cpu_p90", "cpu_median",
	"cpu_max_pod", "cpu_max_namespace",
}

func (f *csvFormatter) WriteRecords(w io.Writer, records []models.StepRecord) error {
	if err := writeRow(w, recordHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Cluster, r.Task, r.Step,
			fmt.Sprintf("%.0f", r.MemMaxMB),
			fmt.Sprintf("%.0f", r.MemP95MB),
			fmt.Sprintf("%.0f", r.MemP90MB),
			fmt.Sprintf("%.0f", r.MemMedianMB),
			r.MemMaxPod, r.MemMaxNamespace, orNA(r.Component), orNA(r.Application),
			millicores(r.CPUMaxMilli),
			millicores(r.CPUP95Milli),
			millicores(r.CPUP90Milli),
			millicores(r.CPUMedianMilli),
			r.CPUMaxPod, r.CPUMaxNamespace,
		}
		if err := writeRow(w, row); err != nil {
			return err
		}
	}
	return nil
}

var recommendationHeader = []string{
	"step", "base", "margin_pct",
	"mem_recommended", "cpu_recommended",
	"mem_current_request", "mem_current_limit",
	"cpu_current_request", "cpu_current_limit",
	"mem_coverage", "cpu_coverage",
}

func (f *csvFormatter) WriteRecommendations(w io.Writer, set *models.RecommendationSet, base models.Base, current map[string]models.StepResources) error {
	if err := writeRow(w, recommendationHeader); err != nil {
		return err
	}
	for _, rec := range set.ByBase[base] {
		cur := current[rec.Step]
		row := []string{
			rec.Step, string(base), fmt.Sprintf("%d", set.MarginPct),
			rec.Memory.Kubernetes, rec.CPU.Kubernetes,
			orNA(cur.MemoryRequest), orNA(cur.MemoryLimit),
			orNA(cur.CPURequest), orNA(cur.CPULimit),
			fmt.Sprintf("%d/%d", rec.Memory.Coverage, rec.Memory.ClusterCount),
			fmt.Sprintf("%d/%d", rec.CPU.Coverage, rec.CPU.ClusterCount),
		}
		if err := writeRow(w, row); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	_, err := fmt.Fprintln(w, strings.Join(quoted, ","))
	return err
}
