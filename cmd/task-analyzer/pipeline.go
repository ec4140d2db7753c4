package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/aggregator"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/cluster"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/config"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/datasource"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/discovery"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/driver"
	"github.com/konflux-perfscale/task-resource-analyzer/pkg/orchestrator"
)

// loadConfig builds the runtime configuration and fails fast on an
// invalid environment.
func loadConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Verbose = verbose
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// buildDriver wires the full per-cluster collection pipeline for one
// kubeconfig context: control-plane client, Prometheus route lookup,
// retrying range source, discovery and aggregation.
func buildDriver(ctx context.Context, cfg *config.Config, contextName string) (*driver.Driver, error) {
	cl, err := cluster.NewClient(cfg.Kubeconfig, contextName)
	if err != nil {
		return nil, fmt.Errorf("failed to build client for context %s: %w", contextName, err)
	}

	dsCfg, err := cl.PrometheusEndpoint(ctx, cfg.PrometheusRouteNamespace, cfg.PrometheusRouteName)
	if err != nil {
		return nil, fmt.Errorf("failed to locate Prometheus on %s: %w", contextName, err)
	}
	dsCfg.Timeout = cfg.QueryTimeout

	source, err := datasource.NewPrometheusSource(dsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build Prometheus client for %s: %w", contextName, err)
	}
	retrying := datasource.WithRetry(source, datasource.RetryConfig{
		Attempts: cfg.RetryAttempts,
		Backoff:  cfg.RetryBackoff,
	})

	if !retrying.IsAvailable(ctx) {
		return nil, fmt.Errorf("prometheus at %s is not answering queries", dsCfg.Address)
	}

	disc := discovery.New(retrying, cfg.NamespacePattern)
	resolver := aggregator.NewMetricLabelResolver(retrying)
	agg := aggregator.New(retrying, resolver, aggregator.Config{
		BatchSize:        cfg.BatchSize,
		NamespacePattern: cfg.NamespacePattern,
		Debug:            cfg.Verbose,
	})

	return driver.New(cluster.DisplayName(contextName), disc, agg), nil
}

// newOrchestrator assembles the cross-cluster runner on top of buildDriver
// and a reachability probe.
func newOrchestrator(cfg *config.Config, concurrency int) *orchestrator.Orchestrator {
	factory := func(ctx context.Context, contextName string) (*driver.Driver, error) {
		return buildDriver(ctx, cfg, contextName)
	}
	prober := func(ctx context.Context, contextName string) error {
		cl, err := cluster.NewClient(cfg.Kubeconfig, contextName)
		if err != nil {
			return err
		}
		return cl.Probe(ctx, cfg.ProbeTimeout)
	}
	return orchestrator.New(factory, prober, concurrency)
}

// reportStatuses prints the connectivity summary on stderr so stdout stays
// clean for the formatted results.
func reportStatuses(statuses []orchestrator.ClusterStatus) {
	for _, s := range statuses {
		if s.Reachable {
			fmt.Fprintf(os.Stderr, "[INFO] cluster %s: reachable\n", s.Context)
		} else {
			fmt.Fprintf(os.Stderr, "[WARN] cluster %s: unreachable (%s)\n", s.Context, s.Error)
		}
	}
}

func windowOf(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}

// stdinPiped reports whether stdin carries piped data rather than a
// terminal.
func stdinPiped() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice == 0
}
