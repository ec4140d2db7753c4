package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/cache"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/cluster"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/config"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/orchestrator"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/output"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/recommender"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/storage"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/taskdef"
)

var (
	recFile     string
	recTask     string
	recMargin   int
	recBase     string
	recDays     int
	recParallel int
	recDryRun   bool
	recForce    bool
	recOutput   string
)

func newRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Derive resource recommendations for a task's steps",
		Long: `recommend turns per-step usage statistics into rounded resource
recommendations. Input is a Tekton task definition (--file, local path or
GitHub URL), a record CSV piped on stdin, or a previously cached analysis
(--task alone). Fresh analyses are cached; cached ones are re-displayed
without touching any cluster.`,
		Run: runRecommend,
	}
	cmd.Flags().StringVarP(&recFile, "file", "f", "", "Tekton task YAML (path or URL)")
	cmd.Flags().StringVar(&recTask, "task", "", "Task name for cached-analysis lookup")
	cmd.Flags().IntVarP(&recMargin, "margin", "m", 20, "Safety margin percent")
	cmd.Flags().StringVarP(&recBase, "base", "b", "max", "Base statistic: max, p95, p90, median")
	cmd.Flags().IntVarP(&recDays, "days", "d", 7, "Collection window in days")
	cmd.Flags().IntVar(&recParallel, "parallel-clusters", 1, "Number of clusters queried concurrently")
	cmd.Flags().BoolVar(&recDryRun, "dry-run", false, "Compute and display without caching or storing")
	cmd.Flags().BoolVar(&recForce, "force", false, "Re-collect even when a cached analysis exists")
	cmd.Flags().StringVarP(&recOutput, "output", "o", "table", "Output format: table, csv, json")
	return cmd
}

func runRecommend(cmd *cobra.Command, args []string) {
	base := models.Base(recBase)
	if !validBase(base) {
		fmt.Fprintf(os.Stderr, "Error: unknown base statistic %q (want max, p95, p90 or median)\n", recBase)
		os.Exit(1)
	}
	if recMargin < 0 {
		fmt.Fprintln(os.Stderr, "Error: --margin must not be negative")
		os.Exit(1)
	}

	formatter, err := output.New(recOutput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := loadConfig()
	artifacts := cache.New(cfg.CacheDir)

	task := recTask
	var steps []string
	var current map[string]models.StepResources
	source := ""

	if recFile != "" {
		def, err := taskdef.Load(recFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		task = def.Name
		steps = def.Steps
		current = def.Resources
		source = def.Source
		fmt.Fprintf(os.Stderr, "[INFO] task %s: %d step(s) from %s\n", task, len(steps), source)
	}

	// Piped records bypass discovery and collection entirely.
	if recFile == "" && stdinPiped() {
		records, err := output.ReadRecords(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "Error: piped CSV contained no records")
			os.Exit(1)
		}
		if task == "" {
			task = records[0].Task
		}
		set := buildSet(task, source, records, recMargin, recDays)
		persist(cfg, artifacts, set)
		render(formatter, set, base, current)
		return
	}

	if task == "" {
		fmt.Fprintln(os.Stderr, "Error: need --file, piped record CSV, or --task for a cached analysis")
		os.Exit(1)
	}

	if !recForce {
		// Exact (task, margin) hit: pure inspection, no writes, no queries.
		set, path, err := artifacts.Latest(task, recMargin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if set != nil {
			fmt.Fprintf(os.Stderr, "[INFO] using cached analysis %s\n", path)
			render(formatter, set, base, current)
			return
		}

		// A cache for the task at some other margin still carries the raw
		// records, so a new margin only needs recomputation.
		prior, path, err := artifacts.LatestForTask(task)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if prior != nil && len(prior.Records) > 0 {
			fmt.Fprintf(os.Stderr, "[INFO] recomputing at margin %d%% from cached records %s\n", recMargin, path)
			set := buildSet(task, prior.Source, prior.Records, recMargin, prior.Days)
			persist(cfg, artifacts, set)
			render(formatter, set, base, current)
			return
		}
	}

	if len(steps) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no cached analysis and no step list; pass --file to derive steps")
		os.Exit(1)
	}

	records := collectRecords(cfg, task, steps)
	set := buildSet(task, source, records, recMargin, recDays)
	persist(cfg, artifacts, set)
	render(formatter, set, base, current)
}

func collectRecords(cfg *config.Config, task string, steps []string) []models.StepRecord {
	contexts, err := cluster.Contexts(cfg.Kubeconfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(contexts) == 0 {
		fmt.Fprintln(os.Stderr, "Error: kubeconfig defines no contexts")
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "[INFO] collecting %dd of usage for %s across %d cluster(s)\n",
		recDays, task, len(contexts))

	orch := newOrchestrator(cfg, recParallel)
	records, statuses, err := orch.Run(context.Background(), contexts, task, steps, time.Now(), windowOf(recDays))
	reportStatuses(statuses)
	if err != nil {
		if errors.Is(err, orchestrator.ErrNoClustersAccessible) {
			fmt.Fprintln(os.Stderr, "Error: no clusters accessible, nothing collected")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
	return records
}

func buildSet(task, source string, records []models.StepRecord, marginPct, days int) *models.RecommendationSet {
	return &models.RecommendationSet{
		Task:        task,
		Source:      source,
		MarginPct:   marginPct,
		Days:        days,
		GeneratedAt: time.Now().UTC(),
		ByBase:      recommender.ComputeAll(records, marginPct),
		Records:     records,
	}
}

// persist writes the cache artifact and, when enabled, the Postgres history
// row. Storage failures degrade to warnings: the recommendation output on
// stdout is the primary product.
func persist(cfg *config.Config, artifacts *cache.Cache, set *models.RecommendationSet) {
	if recDryRun {
		fmt.Fprintln(os.Stderr, "[INFO] dry run, skipping cache and storage")
		return
	}

	path, err := artifacts.Save(set)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] failed to cache analysis: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "[INFO] cached analysis at %s\n", path)
	}

	if !cfg.StorageEnabled {
		return
	}
	store, err := storage.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] history storage unavailable: %v\n", err)
		return
	}
	defer store.Close()
	id, err := store.SaveRun(context.Background(), set, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] failed to store analysis run: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "[INFO] stored analysis run %s\n", id)
}

func render(formatter output.Formatter, set *models.RecommendationSet, base models.Base, current map[string]models.StepResources) {
	if err := formatter.WriteRecommendations(os.Stdout, set, base, current); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func validBase(base models.Base) bool {
	for _, b := range models.Bases {
		if base == b {
			return true
		}
	}
	return false
}
