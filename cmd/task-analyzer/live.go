package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/cluster"
)

var liveContext string

func newLiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live <task>",
		Short: "Show current usage of a task's running pods via metrics-server",
		Args:  cobra.ExactArgs(1),
		Run:   runLive,
	}
	cmd.Flags().StringVar(&liveContext, "context", "", "Limit to one kubeconfig context")
	return cmd
}

func runLive(cmd *cobra.Command, args []string) {
	task := args[0]
	cfg := loadConfig()

	contexts := []string{liveContext}
	if liveContext == "" {
		var err error
		contexts, err = cluster.Contexts(cfg.Kubeconfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CLUSTER\tNAMESPACE\tPOD\tCONTAINER\tCPU\tMEMORY")

	found := 0
	for _, contextName := range contexts {
		cl, err := cluster.NewClient(cfg.Kubeconfig, contextName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] skipping cluster %s: %v\n", contextName, err)
			continue
		}
		usages, err := cl.TaskPodUsage(ctx, task)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] cluster %s: %v\n", contextName, err)
			continue
		}
		for _, u := range usages {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dm\t%dMi\n",
				cluster.DisplayName(contextName), u.Namespace, u.Pod, u.Container, u.CPUMilli, u.MemoryMB)
			found++
		}
	}
	w.Flush()

	if found == 0 {
		fmt.Fprintf(os.Stderr, "[INFO] no running pods found for task %s\n", task)
	}
}
