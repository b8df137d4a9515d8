package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/lpm/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove installed packages and caches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _ := cmd.Flags().GetBool("store")
			cache, _ := cmd.Flags().GetBool("cache")
			all, _ := cmd.Flags().GetBool("all")

			opts := app.CleanOptions{}

			switch {
			case all:
				opts.Modules = true
				opts.Store = true
				opts.Cache = true
			case store || cache:
				opts.Store = store
				opts.Cache = cache
			default:
				// Default behavior: remove installed packages
				opts.Modules = true
			}

			return c.app.Clean(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolP("store", "s", false, "Clean the tarball store")
	cmd.Flags().BoolP("cache", "c", false, "Clean the registry metadata cache")
	cmd.Flags().BoolP("all", "a", false, "Clean installed packages, the store and the cache")

	return cmd
}
