package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tradeworks/contractor-hub/internal/agent"
)

var inventoryCmd = &cobra.Command{
	Use:     "inventory",
	GroupID: "records",
	Short:   "Track stock levels",
}

var inventoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List inventory items; items at or below their reorder threshold are flagged",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withAgent(cmd, func(_ context.Context, a *agent.Agent) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tQTY\tUNIT\tUNIT COST\tREORDER")
			for _, it := range a.Controller().State().Snapshot().Inventory {
				flag := ""
				if it.NeedsReorder() {
					flag = "!"
				}
				fmt.Fprintf(w, "%s\t%s\t%g\t%s\t%s\t%s\n", it.ID, it.Name, it.Quantity, it.Unit, it.UnitCost.StringFixed(2), flag)
			}
			return w.Flush()
		})
	},
}

var inventoryAllocateCmd = &cobra.Command{
	Use:   "allocate <item-id> <job-id> <quantity>",
	Short: "Take stock out for a job",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("quantity: %w", err)
		}
		return withAgent(cmd, func(ctx context.Context, a *agent.Agent) error {
			return a.Controller().AllocateInventory(ctx, args[0], args[1], n)
		})
	},
}

var restockNote string

var inventoryRestockCmd = &cobra.Command{
	Use:   "restock <item-id> <quantity>",
	Short: "Add stock to an item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("quantity: %w", err)
		}
		return withAgent(cmd, func(ctx context.Context, a *agent.Agent) error {
			return a.Controller().RestockInventory(ctx, args[0], n, restockNote)
		})
	},
}

func init() {
	inventoryRestockCmd.Flags().StringVar(&restockNote, "note", "", "note stored with the history entry")
	inventoryCmd.AddCommand(inventoryListCmd, inventoryAllocateCmd, inventoryRestockCmd)
}
