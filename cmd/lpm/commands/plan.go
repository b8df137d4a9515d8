package commands

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
)

func (c *CLI) newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the install plan without touching node_modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := c.app.Resolve(cmd.Context(), resolveOptions(cmd))
			if err != nil {
				return err
			}
			plan := c.app.Plan(g)

			out := cmd.OutOrStdout()
			for _, entry := range plan.Entries {
				_, _ = fmt.Fprintf(out, "%s %s\n", entry.ID(), entry.Destination)
				for _, dep := range slices.Sorted(maps.Keys(entry.Links)) {
					_, _ = fmt.Fprintf(out, "  %s -> %s\n", dep, entry.Links[dep])
				}
			}
			for _, name := range slices.Sorted(maps.Keys(plan.RootLinks)) {
				_, _ = fmt.Fprintf(out, "link %s -> %s\n", name, plan.RootLinks[name])
			}
			return nil
		},
	}

	resolveFlags(cmd)
	return cmd
}
