// Package commands implements the CLI commands for the lpm package manager.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/lpm/internal/app"
	"go.trai.ch/lpm/internal/build"
	"go.trai.ch/lpm/internal/core/domain"
)

// CLI represents the command line interface for lpm.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Resolve(ctx context.Context, opts app.ResolveOptions) (*domain.ResolutionGraph, error)
	Plan(g *domain.ResolutionGraph) *domain.InstallPlan
	Graph(ctx context.Context, format string, opts app.ResolveOptions) ([]byte, error)
	Install(ctx context.Context, opts app.InstallOptions) (*domain.InstallResult, error)
	Add(ctx context.Context, specs []string) error
	SaveLockfile(g *domain.ResolutionGraph) error
	Clean(ctx context.Context, opts app.CleanOptions) error
	SetJSONLogs(enabled bool)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "lpm",
		Short:         "A deterministic package manager for npm registries",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		a.SetJSONLogs(jsonLogs)
	}

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newInstallCmd())
	rootCmd.AddCommand(c.newAddCmd())
	rootCmd.AddCommand(c.newResolveCmd())
	rootCmd.AddCommand(c.newPlanCmd())
	rootCmd.AddCommand(c.newGraphCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
