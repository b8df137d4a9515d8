package domain_test

import (
	"crypto/sha512"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lpm/internal/core/domain"
)

func TestParseIntegrity(t *testing.T) {
	sum := sha512.Sum512([]byte("hello"))
	sri := "sha512-" + base64.StdEncoding.EncodeToString(sum[:])

	got, err := domain.ParseIntegrity(sri)
	require.NoError(t, err)
	assert.Equal(t, domain.AlgoSHA512, got.Algorithm)
	assert.Equal(t, sum[:], got.Digest)
	assert.Equal(t, sri, got.String())

	t.Run("strongest of several wins", func(t *testing.T) {
		sha1Hex := "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d"
		weak, err := domain.IntegrityFromHex(domain.AlgoSHA1, sha1Hex)
		require.NoError(t, err)

		got, err := domain.ParseIntegrity(weak.String() + " " + sri)
		require.NoError(t, err)
		assert.Equal(t, domain.AlgoSHA512, got.Algorithm)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, input := range []string{"", "md5-abc", "sha512-!!!", "sha512-aGVsbG8="} {
			_, err := domain.ParseIntegrity(input)
			require.ErrorIs(t, err, domain.ErrInvalidIntegrity, input)
		}
	})
}

func TestComputeIntegrity(t *testing.T) {
	got, err := domain.ComputeIntegrity(domain.AlgoSHA512, strings.NewReader("hello"))
	require.NoError(t, err)

	sum := sha512.Sum512([]byte("hello"))
	assert.True(t, got.Equal(domain.Integrity{Algorithm: domain.AlgoSHA512, Digest: sum[:]}))
	assert.Len(t, got.Hex(), 128)

	_, err = domain.ComputeIntegrity("md5", strings.NewReader("hello"))
	require.ErrorIs(t, err, domain.ErrInvalidIntegrity)
}
