package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tradeworks/contractor-hub/internal/agent"
	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

var jobsCmd = &cobra.Command{
	Use:     "jobs",
	GroupID: "records",
	Short:   "List and edit jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withAgent(cmd, func(_ context.Context, a *agent.Agent) error {
			jobs := a.Controller().State().Snapshot().Jobs
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCLIENT\tSTATUS\tCREATED")
			for _, j := range jobs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", j.ID, j.Name, j.ClientName, j.Status, j.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		})
	},
}

var jobClientID string

var jobsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd, func(ctx context.Context, a *agent.Agent) error {
			j := &domain.Job{Name: args[0], ClientID: jobClientID}
			if err := a.Controller().CreateJob(ctx, j); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), j.ID)
			return nil
		})
	},
}

var jobsStatusCmd = &cobra.Command{
	Use:       "status <job-id> <active|paused|completed|inactive>",
	Short:     "Change the status of a job",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"active", "paused", "completed", "inactive"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd, func(ctx context.Context, a *agent.Agent) error {
			return a.Controller().SetJobStatus(ctx, args[0], domain.JobStatus(args[1]))
		})
	},
}

var jobsDeleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a job and its documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd, func(ctx context.Context, a *agent.Agent) error {
			return a.Controller().DeleteJob(ctx, args[0])
		})
	},
}

func init() {
	jobsAddCmd.Flags().StringVar(&jobClientID, "client", "", "client id; name and address are copied from the client")
	jobsCmd.AddCommand(jobsListCmd, jobsAddCmd, jobsStatusCmd, jobsDeleteCmd)
}
