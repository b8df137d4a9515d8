// Package output builds termenv outputs with lpm's color profile rules.
package output

import (
	"io"
	"os"

	"github.com/muesli/termenv"
)

// ColorProfile returns Ascii when NO_COLOR is set and the detected
// terminal profile otherwise.
func ColorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// ColorProfileANSI is ColorProfile for non-interactive runs such as CI logs,
// where plain ANSI is the safest choice.
func ColorProfileANSI() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.ANSI
}

// New creates a termenv.Output for w using ColorProfile.
func New(w io.Writer, opts ...termenv.OutputOption) *termenv.Output {
	return NewWithProfile(w, ColorProfile, opts...)
}

// NewWithProfile creates a termenv.Output for w with a custom profile selector.
// A nil writer means os.Stderr.
func NewWithProfile(w io.Writer, profileFn func() termenv.Profile, opts ...termenv.OutputOption) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}

	opts = append(opts,
		termenv.WithProfile(profileFn()),
		termenv.WithTTY(true),
	)

	return termenv.NewOutput(w, opts...)
}
