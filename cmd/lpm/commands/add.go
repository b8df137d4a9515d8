package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <package>[@range]...",
		Short: "Add dependencies to package.json and install them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Add(cmd.Context(), args); err != nil {
				return err
			}

			opts := installOptions(cmd)
			opts.Frozen = false
			_, err := c.app.Install(cmd.Context(), opts)
			return err
		},
	}

	installFlags(cmd)
	_ = cmd.Flags().MarkHidden("frozen")
	return cmd
}
