package installer

import "go.trai.ch/lpm/internal/core/domain"

type nopReporter struct{}

func (nopReporter) OnPlan([]domain.PlanEntry) {}

func (nopReporter) OnEntryStart(domain.PlanEntry) {}

func (nopReporter) OnEntryComplete(domain.EntryOutcome) {}

func (nopReporter) OnSummary(*domain.InstallResult) {}
