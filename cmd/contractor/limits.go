package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tradeworks/contractor-hub/internal/agent"
	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

var limitsCmd = &cobra.Command{
	Use:     "limits",
	GroupID: "sync",
	Short:   "Show the subscription tier and free tier headroom",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withAgent(cmd, func(_ context.Context, a *agent.Agent) error {
			ctl := a.Controller()
			snap := ctl.State().Snapshot()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tier: %s\n", snap.Profile.EffectiveTier())

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RESOURCE\tUSED\tLIMIT\tCAN ADD")
			limit := func(r domain.Resource) string {
				if snap.Profile.EffectiveTier() == domain.TierPremium {
					return "-"
				}
				return fmt.Sprint(domain.FreeTierLimits[r])
			}
			fmt.Fprintf(w, "jobs\t%d\t%s\t%t\n", len(snap.Jobs), limit(domain.ResourceJobs), ctl.CheckLimit(domain.ResourceJobs))
			fmt.Fprintf(w, "clients\t%d\t%s\t%t\n", len(snap.Clients), limit(domain.ResourceClients), ctl.CheckLimit(domain.ResourceClients))
			for _, j := range snap.Jobs {
				n := 0
				for _, d := range snap.Documents {
					if d.JobID == j.ID {
						n++
					}
				}
				fmt.Fprintf(w, "documents (%s)\t%d\t%s\t%t\n", j.Name, n, limit(domain.ResourceDocuments), ctl.CheckDocumentLimit(j.ID))
			}
			return w.Flush()
		})
	},
}
