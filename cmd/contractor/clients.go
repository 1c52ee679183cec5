package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tradeworks/contractor-hub/internal/agent"
	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

var clientsCmd = &cobra.Command{
	Use:     "clients",
	GroupID: "records",
	Short:   "List and add clients",
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clients by name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withAgent(cmd, func(_ context.Context, a *agent.Agent) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tPORTAL")
			for _, c := range a.Controller().State().Snapshot().Clients {
				portal := "-"
				if c.HasPortalAccess() {
					portal = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Phone, portal)
			}
			return w.Flush()
		})
	},
}

var newClient domain.Client

var clientsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd, func(ctx context.Context, a *agent.Agent) error {
			c := newClient
			c.Name = args[0]
			if err := a.Controller().SaveClient(ctx, &c); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.ID)
			return nil
		})
	},
}

func init() {
	f := clientsAddCmd.Flags()
	f.StringVar(&newClient.Email, "email", "", "contact email")
	f.StringVar(&newClient.Phone, "phone", "", "contact phone")
	f.StringVar(&newClient.Address, "address", "", "street address")
	clientsCmd.AddCommand(clientsListCmd, clientsAddCmd)
}
