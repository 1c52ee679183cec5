package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradeworks/contractor-hub/internal/agent"
)

var recurringCmd = &cobra.Command{
	Use:     "recurring",
	GroupID: "sync",
	Short:   "Recurring invoice templates",
}

var recurringRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate draft invoices from templates that are due today",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withAgent(cmd, func(ctx context.Context, a *agent.Agent) error {
			n, err := a.Controller().RunRecurring(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d draft invoice(s) generated\n", n)
			return nil
		})
	},
}

func init() {
	recurringCmd.AddCommand(recurringRunCmd)
}
