package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lpm/internal/core/domain"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input   string
		want    domain.Version
		wantErr bool
	}{
		{input: "1.2.3", want: domain.NewVersion(1, 2, 3)},
		{input: "v1.2.3", want: domain.NewVersion(1, 2, 3)},
		{input: "=1.2.3", want: domain.NewVersion(1, 2, 3)},
		{input: " 0.0.0 ", want: domain.NewVersion(0, 0, 0)},
		{
			input: "1.0.0-alpha.1",
			want:  domain.Version{Major: 1, Prerelease: []string{"alpha", "1"}},
		},
		{
			input: "1.0.0-rc.1+build.5",
			want:  domain.Version{Major: 1, Prerelease: []string{"rc", "1"}, Build: "build.5"},
		},
		{input: "1.0.0+20130313144700", want: domain.Version{Major: 1, Build: "20130313144700"}},
		{input: "1.2", wantErr: true},
		{input: "1.2.3.4", wantErr: true},
		{input: "01.2.3", wantErr: true},
		{input: "1.2.3-01", wantErr: true},
		{input: "1.2.3-", wantErr: true},
		{input: "1.2.3-a..b", wantErr: true},
		{input: "1.2.x", wantErr: true},
		{input: "", wantErr: true},
		{input: "latest", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := domain.ParseVersion(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidVersionSyntax)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersion_Compare(t *testing.T) {
	// Ascending precedence, taken from the SemVer 2.0.0 examples.
	ordered := []string{
		"1.0.0-alpha",
		"1.0.0-alpha.1",
		"1.0.0-alpha.beta",
		"1.0.0-beta",
		"1.0.0-beta.2",
		"1.0.0-beta.11",
		"1.0.0-rc.1",
		"1.0.0",
		"1.0.1",
		"1.1.0",
		"2.0.0",
		"10.0.0",
	}

	for i := range ordered {
		for j := range ordered {
			a := domain.MustParseVersion(ordered[i])
			b := domain.MustParseVersion(ordered[j])
			want := 0
			switch {
			case i < j:
				want = -1
			case i > j:
				want = 1
			}
			assert.Equal(t, want, a.Compare(b), "%s vs %s", ordered[i], ordered[j])
		}
	}
}

func TestVersion_BuildIgnoredForPrecedence(t *testing.T) {
	a := domain.MustParseVersion("1.0.0+a")
	b := domain.MustParseVersion("1.0.0+b")

	assert.True(t, a.Equal(b))
	assert.Equal(t, "1.0.0+a", a.String())
}

func TestVersion_String(t *testing.T) {
	for _, s := range []string{"0.0.1", "1.2.3-alpha.1", "1.2.3-rc.1+sha.5114f85", "4.17.21"} {
		assert.Equal(t, s, domain.MustParseVersion(s).String())
	}
}

func TestSortVersions(t *testing.T) {
	versions := []domain.Version{
		domain.MustParseVersion("2.0.0"),
		domain.MustParseVersion("1.0.0"),
		domain.MustParseVersion("1.0.0-rc.1"),
		domain.MustParseVersion("1.10.0"),
		domain.MustParseVersion("1.2.0"),
	}

	domain.SortVersions(versions)

	got := make([]string, len(versions))
	for i, v := range versions {
		got[i] = v.String()
	}
	assert.Equal(t, []string{"1.0.0-rc.1", "1.0.0", "1.2.0", "1.10.0", "2.0.0"}, got)
}

func TestVersion_Text(t *testing.T) {
	var v domain.Version
	require.NoError(t, v.UnmarshalText([]byte("3.1.4-beta")))

	text, err := v.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "3.1.4-beta", string(text))

	require.ErrorIs(t, v.UnmarshalText([]byte("nope")), domain.ErrInvalidVersionSyntax)
}
