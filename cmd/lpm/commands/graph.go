package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the resolved dependency graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")

			data, err := c.app.Graph(cmd.Context(), format, resolveOptions(cmd))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringP("format", "f", "dot", "Output format: dot or svg")
	resolveFlags(cmd)
	return cmd
}
