package style_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/lpm/internal/core/domain"
	"go.trai.ch/lpm/internal/ui/style"
)

func TestForStatus(t *testing.T) {
	tests := []struct {
		status domain.EntryStatus
		icon   string
		color  string
	}{
		{domain.EntryStatusInstalled, style.Plus, string(style.Green)},
		{domain.EntryStatusCached, style.Circle, string(style.Muted)},
		{domain.EntryStatusFailed, style.Cross, string(style.Red)},
		{domain.EntryStatusSkipped, style.Dash, string(style.Yellow)},
		{domain.EntryStatusRunning, style.Arrow, string(style.Accent)},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			icon, color := style.ForStatus(tt.status)
			assert.Equal(t, tt.icon, icon)
			assert.Equal(t, tt.color, string(color))
		})
	}
}
