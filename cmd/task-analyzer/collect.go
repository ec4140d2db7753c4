package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/cluster"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/orchestrator"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/output"
)

var (
	collectTask     string
	collectSteps    string
	collectOutput   string
	collectParallel int
)

func newCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect <window_days>",
		Short: "Collect per-step usage records for a task across every cluster",
		Args:  cobra.ExactArgs(1),
		Run:   runCollect,
	}
	cmd.Flags().StringVar(&collectTask, "task", "", "Tekton task name (required)")
	cmd.Flags().StringVar(&collectSteps, "steps", "", "Comma-separated step names (required)")
	cmd.Flags().StringVarP(&collectOutput, "output", "o", "csv", "Output format: table, csv, json")
	cmd.Flags().IntVar(&collectParallel, "parallel-clusters", 1, "Number of clusters queried concurrently")
	return cmd
}

func runCollect(cmd *cobra.Command, args []string) {
	days, err := strconv.Atoi(args[0])
	if err != nil || days <= 0 {
		fmt.Fprintf(os.Stderr, "Error: window_days must be a positive integer, got %q\n", args[0])
		os.Exit(1)
	}
	if collectTask == "" || collectSteps == "" {
		fmt.Fprintln(os.Stderr, "Error: --task and --steps are required")
		os.Exit(1)
	}
	steps := splitSteps(collectSteps)

	formatter, err := output.New(collectOutput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := loadConfig()
	contexts, err := cluster.Contexts(cfg.Kubeconfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(contexts) == 0 {
		fmt.Fprintln(os.Stderr, "Error: kubeconfig defines no contexts")
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "[INFO] Collecting task %s (%d step(s)) over %dd across %d cluster(s)\n",
		collectTask, len(steps), days, len(contexts))

	ctx := context.Background()
	orch := newOrchestrator(cfg, collectParallel)
	records, statuses, err := orch.Run(ctx, contexts, collectTask, steps, time.Now(), windowOf(days))
	reportStatuses(statuses)
	if err != nil {
		if errors.Is(err, orchestrator.ErrNoClustersAccessible) {
			fmt.Fprintln(os.Stderr, "Error: no clusters accessible, nothing collected")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}

	if err := formatter.WriteRecords(os.Stdout, records); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func splitSteps(s string) []string {
	var steps []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			steps = append(steps, part)
		}
	}
	return steps
}
