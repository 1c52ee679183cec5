package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradeworks/contractor-hub/internal/agent"
	"github.com/tradeworks/contractor-hub/internal/core/service"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Refresh the local mirror once and print the sync status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withAgent(cmd, func(ctx context.Context, a *agent.Agent) error {
			printStatus(cmd, a.Controller().State().Snapshot())
			return nil
		})
	},
}

var watchCmd = &cobra.Command{
	Use:     "watch",
	GroupID: "sync",
	Short:   "Keep the mirror fresh: probe connectivity, refresh periodically, run recurring invoices daily",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withAgent(cmd, func(ctx context.Context, a *agent.Agent) error {
			printStatus(cmd, a.Controller().State().Snapshot())
			return a.Watch(ctx)
		})
	},
}

func printStatus(cmd *cobra.Command, s service.Snapshot) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "status:      %s\n", s.Status)
	if s.Halted {
		fmt.Fprintf(out, "halted:      %s\n", s.FatalReason)
	}
	if s.LastError != "" {
		fmt.Fprintf(out, "last error:  %s\n", s.LastError)
	}
	if !s.LastSyncedAt.IsZero() {
		fmt.Fprintf(out, "last synced: %s\n", s.LastSyncedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(out, "jobs: %d  documents: %d  clients: %d  inventory: %d  saved items: %d\n",
		len(s.Jobs), len(s.Documents), len(s.Clients), len(s.Inventory), len(s.SavedItems))
}
