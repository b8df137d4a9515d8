package detector_test

import (
	"testing"

	"go.trai.ch/lpm/internal/adapters/detector"
)

func TestDetectEnvironment(t *testing.T) {
	tests := []struct {
		name    string
		ciValue string
	}{
		{name: "CI=true forces ci mode", ciValue: "true"},
		{name: "CI=1 forces ci mode", ciValue: "1"},
		{name: "CI=false does not force ci", ciValue: "false"},
		{name: "No CI env var", ciValue: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CI", tt.ciValue)

			mode := detector.DetectEnvironment()

			if tt.ciValue == "true" || tt.ciValue == "1" {
				if mode != detector.ModeCI {
					t.Errorf("Expected ModeCI with CI=%s, got %v", tt.ciValue, mode)
				}
			}
			if mode != detector.ModeCI && mode != detector.ModeTerminal {
				t.Errorf("DetectEnvironment() = %v, want a concrete mode", mode)
			}
		})
	}
}

func TestResolveMode(t *testing.T) {
	tests := []struct {
		name         string
		autoDetected detector.OutputMode
		userFlag     string
		expected     detector.OutputMode
	}{
		{
			name:         "auto respects auto-detection (terminal)",
			autoDetected: detector.ModeTerminal,
			userFlag:     "auto",
			expected:     detector.ModeTerminal,
		},
		{
			name:         "auto respects auto-detection (ci)",
			autoDetected: detector.ModeCI,
			userFlag:     "auto",
			expected:     detector.ModeCI,
		},
		{
			name:         "empty flag respects auto-detection",
			autoDetected: detector.ModeTerminal,
			userFlag:     "",
			expected:     detector.ModeTerminal,
		},
		{
			name:         "terminal overrides auto-detection",
			autoDetected: detector.ModeCI,
			userFlag:     "terminal",
			expected:     detector.ModeTerminal,
		},
		{
			name:         "ci overrides auto-detection",
			autoDetected: detector.ModeTerminal,
			userFlag:     "ci",
			expected:     detector.ModeCI,
		},
		{
			name:         "linear is alias for ci",
			autoDetected: detector.ModeTerminal,
			userFlag:     "linear",
			expected:     detector.ModeCI,
		},
		{
			name:         "plain disables styling",
			autoDetected: detector.ModeTerminal,
			userFlag:     "plain",
			expected:     detector.ModePlain,
		},
		{
			name:         "invalid flag respects auto-detection",
			autoDetected: detector.ModeCI,
			userFlag:     "invalid",
			expected:     detector.ModeCI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detector.ResolveMode(tt.autoDetected, tt.userFlag)
			if got != tt.expected {
				t.Errorf("ResolveMode(%v, %q) = %v, want %v",
					tt.autoDetected, tt.userFlag, got, tt.expected)
			}
		})
	}
}
