package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "task-analyzer",
		Short: "Aggregate Tekton task resource usage across clusters and recommend requests",
		Long: `task-analyzer discovers the pods that executed a Tekton task across every
cluster in the kubeconfig, aggregates per-step memory and CPU usage from
each cluster's Prometheus, and derives rounded resource recommendations.`,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug output")

	rootCmd.AddCommand(newCollectCmd())
	rootCmd.AddCommand(newStepCmd())
	rootCmd.AddCommand(newRecommendCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newLiveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
