// Package detector provides environment detection for install output.
package detector

import (
	"os"

	"golang.org/x/term"
)

// OutputMode represents how install progress is rendered.
type OutputMode int

const (
	// ModeAuto automatically detects the appropriate mode.
	ModeAuto OutputMode = iota
	// ModeTerminal renders for an interactive terminal.
	ModeTerminal
	// ModeCI renders for CI logs: ANSI colors and a line per started package.
	ModeCI
	// ModePlain renders without any escape sequences.
	ModePlain
)

// DetectEnvironment returns the recommended output mode based on the environment.
// It checks if stderr is a TTY and if CI environment variables are set.
func DetectEnvironment() OutputMode {
	isTTY := term.IsTerminal(int(os.Stderr.Fd())) //nolint:gosec // file descriptors fit in int

	ci := os.Getenv("CI")
	isCI := ci == "true" || ci == "1"

	if !isTTY || isCI {
		return ModeCI
	}
	return ModeTerminal
}

// ResolveMode applies user override flag to auto-detection.
// userFlag should be one of: "auto", "terminal", "ci", "plain", or empty.
func ResolveMode(autoDetected OutputMode, userFlag string) OutputMode {
	switch userFlag {
	case "terminal", "tty":
		return ModeTerminal
	case "ci", "linear":
		return ModeCI
	case "plain":
		return ModePlain
	default:
		return autoDetected
	}
}
