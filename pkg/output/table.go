package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

// tableFormatter writes human-readable aligned tables.
type tableFormatter struct{}

func (f *tableFormatter) Name() string { return "table" }

func (f *tableFormatter) WriteRecords(w io.Writer, records []models.StepRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CLUSTER\tSTEP\tMEM MAX (MB)\tMEM P95\tMEM P90\tMEM MEDIAN\tCPU MAX\tCPU P95\tCPU P90\tCPU MEDIAN\tMAX MEM POD\tCOMPONENT")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%.0f\t%.0f\t%.0f\t%.0f\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Cluster, r.Step,
			r.MemMaxMB, r.MemP95MB, r.MemP90MB, r.MemMedianMB,
			millicores(r.CPUMaxMilli), millicores(r.CPUP95Milli),
			millicores(r.CPUP90Milli), millicores(r.CPUMedianMilli),
			r.MemMaxPod, orNA(r.Component))
	}
	return tw.Flush()
}

func (f *tableFormatter) WriteRecommendations(w io.Writer, set *models.RecommendationSet, base models.Base, current map[string]models.StepResources) error {
	recs := set.ByBase[base]

	fmt.Fprintf(w, "Task: %s  (base: %s, margin: %d%%, window: %dd, analyzed: %s)\n\n",
		set.Task, base, set.MarginPct, set.Days, set.GeneratedAt.Format("2006-01-02 15:04:05"))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tMEM NOW (REQ/LIM)\tMEM PROPOSED\tCPU NOW (REQ/LIM)\tCPU PROPOSED\tMEM COVERAGE\tCPU COVERAGE")
	for _, rec := range recs {
		cur := current[rec.Step]
		fmt.Fprintf(tw, "%s\t%s / %s\t%s\t%s / %s\t%s\t%d/%d\t%d/%d\n",
			rec.Step,
			orNA(cur.MemoryRequest), orNA(cur.MemoryLimit), rec.Memory.Kubernetes,
			orNA(cur.CPURequest), orNA(cur.CPULimit), rec.CPU.Kubernetes,
			rec.Memory.Coverage, rec.Memory.ClusterCount,
			rec.CPU.Coverage, rec.CPU.ClusterCount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nObserved cross-cluster maxima per base statistic:")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tMEM MAX (MB)\tMEM P95\tMEM P90\tMEM MEDIAN\tCPU MAX\tCPU P95\tCPU P90\tCPU MEDIAN")
	for _, rec := range recs {
		fmt.Fprintf(tw, "%s\t%.0f\t%.0f\t%.0f\t%.0f\t%s\t%s\t%s\t%s\n",
			rec.Step,
			rec.MemMaxMB, rec.MemP95MB, rec.MemP90MB, rec.MemMedianMB,
			millicores(rec.CPUMaxMilli), millicores(rec.CPUP95Milli),
			millicores(rec.CPUP90Milli), millicores(rec.CPUMedianMilli))
	}
	return tw.Flush()
}
