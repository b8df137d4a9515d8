package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/lpm/internal/app"
)

func installFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("frozen", false, "Install exactly what lpm.lock records and fail if it is missing or stale")
	cmd.Flags().Bool("fallback-on-corrupt-lock", false, "Re-resolve from package.json when lpm.lock is corrupt")
	cmd.Flags().IntP("jobs", "j", 0, "Number of packages to install concurrently (default: configured concurrency)")
	cmd.Flags().BoolP("verbose", "v", false, "Report every package as it starts")
	cmd.Flags().StringP("output", "o", "auto", "Progress output: auto, terminal, ci, or plain")
}

func installOptions(cmd *cobra.Command) app.InstallOptions {
	frozen, _ := cmd.Flags().GetBool("frozen")
	fallback, _ := cmd.Flags().GetBool("fallback-on-corrupt-lock")
	jobs, _ := cmd.Flags().GetInt("jobs")
	verbose, _ := cmd.Flags().GetBool("verbose")
	mode, _ := cmd.Flags().GetString("output")

	return app.InstallOptions{
		Frozen:                frozen,
		FallbackOnCorruptLock: fallback,
		Concurrency:           jobs,
		Verbose:               verbose,
		OutputMode:            mode,
	}
}

func (c *CLI) newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "install",
		Aliases: []string{"i"},
		Short:   "Install the dependencies declared in package.json",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := c.app.Install(cmd.Context(), installOptions(cmd))
			return err
		},
	}

	installFlags(cmd)
	return cmd
}
