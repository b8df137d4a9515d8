// Package main is the entry point for the lpm package manager.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/lpm/cmd/lpm/commands"
	"go.trai.ch/lpm/internal/app"
	"go.trai.ch/lpm/internal/core/domain"
	_ "go.trai.ch/lpm/internal/wiring"
)

// ComponentProvider is a function that returns the application components.
type ComponentProvider func(context.Context) (*app.Components, func(), error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr, func(ctx context.Context) (*app.Components, func(), error) {
		c, _, err := graft.ExecuteFor[*app.Components](ctx)
		return c, func() {}, err
	}))
}

func run(
	ctx context.Context,
	args []string,
	stderr io.Writer,
	provider ComponentProvider,
	opts ...func(*app.App),
) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Initialize application components
	components, cleanup, err := provider(ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return 1
	}
	defer cleanup()

	for _, opt := range opts {
		opt(components.App)
	}

	// 2. Interface - CLI
	cli := commands.New(components.App)
	cli.SetArgs(args)
	cli.SetOutput(os.Stdout, stderr)

	// 3. Execution
	if err := cli.Execute(ctx); err != nil {
		if errors.Is(err, domain.ErrInstallFailed) && !errors.Is(err, domain.ErrLinkFailed) {
			// Per-package failures were already reported by the install reporter.
			return 1
		}
		components.Logger.Error(err)
		return 1
	}
	return 0
}
