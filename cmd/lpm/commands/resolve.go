package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/lpm/internal/app"
)

func resolveFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("fallback-on-corrupt-lock", false, "Resolve from package.json alone when lpm.lock is corrupt")
}

func resolveOptions(cmd *cobra.Command) app.ResolveOptions {
	fallback, _ := cmd.Flags().GetBool("fallback-on-corrupt-lock")
	return app.ResolveOptions{FallbackOnCorruptLock: fallback}
}

func (c *CLI) newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve dependencies and print the resulting versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := c.app.Resolve(cmd.Context(), resolveOptions(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for node := range g.Walk() {
				_, _ = fmt.Fprintf(out, "%s@%s\n", node.Name, node.Version)
			}

			write, _ := cmd.Flags().GetBool("write")
			if !write {
				return nil
			}
			return c.app.SaveLockfile(g)
		},
	}

	cmd.Flags().BoolP("write", "w", false, "Write the resolution to lpm.lock")
	resolveFlags(cmd)
	return cmd
}
