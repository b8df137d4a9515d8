package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lpm/internal/adapters/config"
	"go.trai.ch/lpm/internal/app"
	"go.trai.ch/lpm/internal/core/domain"
)

func TestAppNode_UsesProjectRoot(t *testing.T) {
	t.Setenv(config.RegistryEnvVar, "")
	root := t.TempDir()

	a, _, err := graft.ExecuteFor[*app.App](context.Background(),
		graft.PatchValue[config.Root](config.Root(root)),
		graft.DisableCache(),
	)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, domain.LockfileName), a.LockfilePath())

	modules := filepath.Join(root, domain.InstallDirName)
	require.NoError(t, os.MkdirAll(modules, 0o750))
	require.NoError(t, a.Clean(context.Background(), app.CleanOptions{Modules: true}))
	assert.NoDirExists(t, modules)
}
