package cas_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lpm/internal/adapters/cas"
	"go.trai.ch/lpm/internal/adapters/config"
	"go.trai.ch/lpm/internal/core/domain"
	"go.trai.ch/lpm/internal/core/ports"
)

func TestNode_StoreDirFollowsProjectRoot(t *testing.T) {
	t.Setenv(config.RegistryEnvVar, "")
	root := t.TempDir()
	rc := filepath.Join(root, domain.ConfigFileName)
	require.NoError(t, os.WriteFile(rc, []byte("storeDir: tarballs\n"), 0o600))

	store, _, err := graft.ExecuteFor[ports.TarballStore](context.Background(),
		graft.PatchValue[config.Root](config.Root(root)),
		graft.DisableCache(),
	)
	require.NoError(t, err)
	require.IsType(t, &cas.Store{}, store)

	path := store.(*cas.Store).Path(integrityOf(payload)) //nolint:forcetypeassert // checked above
	assert.Equal(t, filepath.Join(root, "tarballs"), filepath.Dir(filepath.Dir(filepath.Dir(path))))
}
