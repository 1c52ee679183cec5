package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tradeworks/contractor-hub/internal/agent"
)

var itemsCmd = &cobra.Command{
	Use:     "items",
	GroupID: "records",
	Short:   "Price book entries",
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List price book entries with their marked-up price",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withAgent(cmd, func(_ context.Context, a *agent.Agent) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tUNIT\tCOST\tMARKUP %\tPRICE\tRATE")
			for _, it := range a.Controller().State().Snapshot().SavedItems {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					it.ID, it.Name, it.Unit,
					it.Cost.StringFixed(2), it.Markup.String(),
					it.PriceWithMarkup().StringFixed(2), it.Rate.StringFixed(2))
			}
			return w.Flush()
		})
	},
}

func init() {
	itemsCmd.AddCommand(itemsListCmd)
}
