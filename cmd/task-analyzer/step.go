package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/cluster"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/output"
)

var (
	stepContext string
	stepOutput  string
)

func newStepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step <task> <step> <window_days>",
		Short: "Inspect one step of one task, cluster by cluster",
		Args:  cobra.ExactArgs(3),
		Run:   runStep,
	}
	cmd.Flags().StringVar(&stepContext, "context", "", "Limit to one kubeconfig context")
	cmd.Flags().StringVarP(&stepOutput, "output", "o", "table", "Output format: table, csv, json")
	return cmd
}

func runStep(cmd *cobra.Command, args []string) {
	task, step := args[0], args[1]
	days, err := strconv.Atoi(args[2])
	if err != nil || days <= 0 {
		fmt.Fprintf(os.Stderr, "Error: window_days must be a positive integer, got %q\n", args[2])
		os.Exit(1)
	}

	formatter, err := output.New(stepOutput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := loadConfig()
	contexts := []string{stepContext}
	if stepContext == "" {
		contexts, err = cluster.Contexts(cfg.Kubeconfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()
	end := time.Now()
	window := windowOf(days)

	// One cluster failing keeps its row out of the table but never
	// aborts the others.
	var records []models.StepRecord
	for _, contextName := range contexts {
		d, err := buildDriver(ctx, cfg, contextName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] skipping cluster %s: %v\n", contextName, err)
			continue
		}
		recs, err := d.Run(ctx, task, []string{step}, end, window)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] cluster %s: %v\n", contextName, err)
			continue
		}
		records = append(records, recs...)
	}

	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "[INFO] no usage data found")
	}
	if err := formatter.WriteRecords(os.Stdout, records); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
