// Package linear provides a line-per-event install reporter for terminals and CI logs.
package linear

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/lpm/internal/core/domain"
	"go.trai.ch/lpm/internal/core/ports"
	"go.trai.ch/lpm/internal/ui/output"
	"go.trai.ch/lpm/internal/ui/style"
)

var _ ports.Reporter = (*Reporter)(nil)

// Reporter implements ports.Reporter by writing one line per finished entry.
// It is safe for concurrent use by install workers.
type Reporter struct {
	w       io.Writer
	output  *termenv.Output
	now     func() time.Time
	verbose bool
	profile func() termenv.Profile

	mu    sync.Mutex
	begin time.Time
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithVerbose also prints a line when a worker starts an entry.
func WithVerbose(verbose bool) Option {
	return func(r *Reporter) {
		r.verbose = verbose
	}
}

// WithClock replaces time.Now for the summary duration.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		r.now = now
	}
}

// WithProfile selects the color profile. The default is output.ColorProfileANSI.
func WithProfile(profile func() termenv.Profile) Option {
	return func(r *Reporter) {
		r.profile = profile
	}
}

// NewReporter creates a Reporter writing to w, or os.Stderr when w is nil.
func NewReporter(w io.Writer, opts ...Option) *Reporter {
	if w == nil {
		w = os.Stderr
	}
	r := &Reporter{
		w:       w,
		now:     time.Now,
		profile: output.ColorProfileANSI,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.output = output.NewWithProfile(w, r.profile)
	return r
}

// OnPlan prints the number of entries about to be installed.
func (r *Reporter) OnPlan(entries []domain.PlanEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.begin = r.now()
	_, _ = fmt.Fprintf(r.w, "Installing %d package(s)\n", len(entries))
}

// OnEntryStart prints the entry in verbose mode.
func (r *Reporter) OnEntryStart(entry domain.PlanEntry) {
	if !r.verbose {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	symbol := r.output.String(style.Arrow).Foreground(r.output.Color(string(style.Accent))).String()
	_, _ = fmt.Fprintf(r.w, "%s %s\n", symbol, r.output.String(entry.ID()).Faint().String())
}

// OnEntryComplete prints the entry's outcome.
func (r *Reporter) OnEntryComplete(outcome domain.EntryOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := outcome.Entry.ID()
	icon, color := style.ForStatus(outcome.Status)
	symbol := r.output.String(icon).Foreground(r.output.Color(string(color))).String()
	name := r.output.String(id).Bold().String()

	line := fmt.Sprintf("%s %s %s", symbol, name, outcome.Status)
	if outcome.Duration > 0 {
		line += r.output.String(fmt.Sprintf(" (%v)", outcome.Duration.Round(time.Millisecond))).Faint().String()
	}
	if outcome.Err != nil {
		line += ": " + outcome.Err.Error()
	}
	_, _ = fmt.Fprintln(r.w, line)
}

// OnSummary prints the per-status counts and the total duration.
func (r *Reporter) OnSummary(result *domain.InstallResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary := fmt.Sprintf("%d installed, %d cached, %d failed, %d skipped",
		result.Count(domain.EntryStatusInstalled),
		result.Count(domain.EntryStatusCached),
		result.Count(domain.EntryStatusFailed),
		result.Count(domain.EntryStatusSkipped),
	)
	if !r.begin.IsZero() {
		summary += fmt.Sprintf(" in %v", r.now().Sub(r.begin).Round(time.Millisecond))
	}

	icon, color := style.Check, style.Green
	if result.Count(domain.EntryStatusFailed) > 0 || result.Count(domain.EntryStatusSkipped) > 0 {
		icon, color = style.Cross, style.Red
	}
	symbol := r.output.String(icon).Foreground(r.output.Color(string(color))).String()
	_, _ = fmt.Fprintf(r.w, "%s %s\n", symbol, summary)
}
