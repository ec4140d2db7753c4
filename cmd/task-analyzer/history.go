package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/storage"
)

var (
	historyLimit int
	historyRun   string
	historyBase  string
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <task>",
		Short: "List stored analysis runs for a task",
		Args:  cobra.ExactArgs(1),
		Run:   runHistory,
	}
	cmd.Flags().IntVar(&historyLimit, "limit", 10, "Maximum number of runs to list")
	cmd.Flags().StringVar(&historyRun, "run", "", "Show the stored recommendations of one run ID")
	cmd.Flags().StringVar(&historyBase, "base", "max", "Base statistic when showing a run")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) {
	task := args[0]
	cfg := loadConfig()

	store, err := storage.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if historyRun != "" {
		showRun(ctx, store, historyRun)
		return
	}

	runs, err := store.ListRuns(ctx, task, historyLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Printf("No stored runs for task %s\n", task)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tGENERATED\tMARGIN\tDAYS\tARTIFACT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d%%\t%d\t%s\n",
			run.ID, run.GeneratedAt.Format("2006-01-02 15:04:05"),
			run.MarginPct, run.Days, run.Artifact)
	}
	w.Flush()
}

func showRun(ctx context.Context, store storage.Store, runID string) {
	base := models.Base(historyBase)
	if !validBase(base) {
		fmt.Fprintf(os.Stderr, "Error: unknown base statistic %q\n", historyBase)
		os.Exit(1)
	}

	recs, err := store.RunRecommendations(ctx, runID, base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(recs) == 0 {
		fmt.Printf("No stored recommendations for run %s (base %s)\n", runID, base)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tMEMORY\tCPU\tMEM COVERAGE\tCPU COVERAGE")
	for _, rec := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%d/%d\n",
			rec.Step, rec.Memory.Kubernetes, rec.CPU.Kubernetes,
			rec.Memory.Coverage, rec.Memory.ClusterCount,
			rec.CPU.Coverage, rec.CPU.ClusterCount)
	}
	w.Flush()
}
