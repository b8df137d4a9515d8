package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lpm/internal/core/domain"
)

func TestParseSpecifier(t *testing.T) {
	spec, err := domain.ParseSpecifier("^1.2.0")
	require.NoError(t, err)
	assert.False(t, spec.IsTag())
	assert.Equal(t, "^1.2.0", spec.Constraint.String())

	spec, err = domain.ParseSpecifier("latest")
	require.NoError(t, err)
	assert.True(t, spec.IsTag())
	assert.Equal(t, "latest", spec.Tag)

	spec, err = domain.ParseSpecifier("x")
	require.NoError(t, err)
	assert.False(t, spec.IsTag(), "x is a wildcard range")

	_, err = domain.ParseSpecifier("file:../local")
	require.ErrorIs(t, err, domain.ErrUnsupportedSpecifier)

	_, err = domain.ParseSpecifier("github:user/repo")
	require.ErrorIs(t, err, domain.ErrUnsupportedSpecifier)

	_, err = domain.ParseSpecifier(">=1.0.0 <<2")
	require.ErrorIs(t, err, domain.ErrInvalidVersionSyntax)
}

func TestInstallResult(t *testing.T) {
	result := &domain.InstallResult{Outcomes: []domain.EntryOutcome{
		{Status: domain.EntryStatusInstalled},
		{Status: domain.EntryStatusCached},
		{Status: domain.EntryStatusFailed, Err: domain.ErrIntegrityMismatch},
		{Status: domain.EntryStatusSkipped},
	}}

	assert.Equal(t, 1, result.Count(domain.EntryStatusInstalled))
	assert.Equal(t, 1, result.Count(domain.EntryStatusFailed))
	require.ErrorIs(t, result.Err(), domain.ErrIntegrityMismatch)

	assert.True(t, domain.EntryStatusCached.IsSuccess())
	assert.False(t, domain.EntryStatusSkipped.IsSuccess())
	assert.True(t, domain.EntryStatusSkipped.IsTerminal())
	assert.False(t, domain.EntryStatusRunning.IsTerminal())
}
