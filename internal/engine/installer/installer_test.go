package installer_test

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lpm/internal/adapters/archive"
	"go.trai.ch/lpm/internal/adapters/fs"
	"go.trai.ch/lpm/internal/core/domain"
	"go.trai.ch/lpm/internal/core/ports/mocks"
	"go.trai.ch/lpm/internal/engine/installer"
	"go.uber.org/mock/gomock"
)

// fixture is a package archive written to disk along with its plan entry.
type fixture struct {
	entry domain.PlanEntry
	path  string
}

func newFixture(t *testing.T, name, version string, files map[string]string, links map[string]string) fixture {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for rel, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     "package/" + rel,
			Mode:     0o644,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), domain.EscapeName(name)+"-"+version+".tgz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	integrity, err := domain.ComputeIntegrity(domain.AlgoSHA512, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	v := domain.MustParseVersion(version)
	return fixture{
		path: path,
		entry: domain.PlanEntry{
			Name:        name,
			Version:     v,
			Tarball:     domain.TarballRef{URL: "https://registry.test/" + name + ".tgz", Integrity: integrity},
			Destination: domain.PackageDir(name, v),
			Links:       links,
		},
	}
}

func newInstaller(store *mocks.MockTarballStore) *installer.Installer {
	return installer.New(store, archive.NewExtractor(), fs.NewHasher(fs.NewWalker()))
}

func samplePlan(t *testing.T) (*domain.InstallPlan, fixture, fixture, fixture) {
	t.Helper()
	b := newFixture(t, "b", "2.0.0", map[string]string{
		"package.json": `{"name":"b","version":"2.0.0"}`,
		"index.js":     "module.exports = 'b'",
	}, nil)
	scoped := newFixture(t, "@scope/c", "1.0.0", map[string]string{
		"package.json": `{"name":"@scope/c","version":"1.0.0"}`,
	}, nil)
	a := newFixture(t, "a", "1.0.0", map[string]string{
		"package.json": `{"name":"a","version":"1.0.0"}`,
		"lib/index.js": "require('b')",
	}, map[string]string{
		"b":        b.entry.Destination,
		"@scope/c": scoped.entry.Destination,
	})

	plan := &domain.InstallPlan{
		Entries: []domain.PlanEntry{scoped.entry, a.entry, b.entry},
		RootLinks: map[string]string{
			"a":        a.entry.Destination,
			"@scope/c": scoped.entry.Destination,
		},
	}
	return plan, a, b, scoped
}

func expectFetch(store *mocks.MockTarballStore, f fixture) *gomock.Call {
	return store.EXPECT().EnsureFetched(gomock.Any(), f.entry.Tarball).Return(f.path, nil)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestInstall(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTarballStore(ctrl)
	plan, a, b, scoped := samplePlan(t)

	expectFetch(store, a)
	expectFetch(store, b)
	expectFetch(store, scoped)

	reporter := mocks.NewMockReporter(ctrl)
	reporter.EXPECT().OnPlan(plan.Entries)
	reporter.EXPECT().OnEntryStart(gomock.Any()).Times(3)
	reporter.EXPECT().OnEntryComplete(gomock.Any()).Times(3)
	reporter.EXPECT().OnSummary(gomock.Any())

	root := filepath.Join(t.TempDir(), "node_modules")
	result, err := newInstaller(store).Install(context.Background(), plan, root, installer.Options{
		Concurrency: 2,
		Reporter:    reporter,
	})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 3)
	for i, o := range result.Outcomes {
		assert.Equal(t, plan.Entries[i].ID(), o.Entry.ID(), "outcomes follow plan order")
		assert.Equal(t, domain.EntryStatusInstalled, o.Status)
	}

	aDir := filepath.Join(root, ".lpm", "a@1.0.0")
	assert.Equal(t, "require('b')", readFile(t, filepath.Join(aDir, "lib", "index.js")))
	assert.FileExists(t, filepath.Join(aDir, ".lpm-stamp.json"))

	target, err := os.Readlink(filepath.Join(aDir, "node_modules", "b"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("..", "..", "b@2.0.0"), target)
	assert.Equal(t, "module.exports = 'b'", readFile(t, filepath.Join(aDir, "node_modules", "b", "index.js")))
	assert.FileExists(t, filepath.Join(aDir, "node_modules", "@scope", "c", "package.json"))

	target, err = os.Readlink(filepath.Join(root, "a"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(".lpm", "a@1.0.0"), target)
	assert.FileExists(t, filepath.Join(root, "@scope", "c", "package.json"))

	_, err = os.Lstat(filepath.Join(root, "b"))
	assert.True(t, os.IsNotExist(err), "transitive dependencies are not linked at the root")
}

func TestInstall_Idempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTarballStore(ctrl)
	plan, a, b, scoped := samplePlan(t)

	expectFetch(store, a).Times(1)
	expectFetch(store, b).Times(1)
	expectFetch(store, scoped).Times(1)

	root := filepath.Join(t.TempDir(), "node_modules")
	inst := newInstaller(store)

	_, err := inst.Install(context.Background(), plan, root, installer.Options{})
	require.NoError(t, err)
	before := snapshot(t, root)

	result, err := inst.Install(context.Background(), plan, root, installer.Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count(domain.EntryStatusCached))
	assert.Equal(t, before, snapshot(t, root))
}

func TestInstall_RepairsModifiedDestination(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTarballStore(ctrl)
	plan, a, b, scoped := samplePlan(t)

	expectFetch(store, a).Times(1)
	expectFetch(store, b).Times(2)
	expectFetch(store, scoped).Times(1)

	root := filepath.Join(t.TempDir(), "node_modules")
	inst := newInstaller(store)

	_, err := inst.Install(context.Background(), plan, root, installer.Options{})
	require.NoError(t, err)

	index := filepath.Join(root, ".lpm", "b@2.0.0", "index.js")
	require.NoError(t, os.WriteFile(index, []byte("tampered"), 0o600))

	result, err := inst.Install(context.Background(), plan, root, installer.Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusInstalled, result.Outcomes[2].Status)
	assert.Equal(t, "module.exports = 'b'", readFile(t, index))
}

func TestInstall_FailedEntryDoesNotBlockOthers(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTarballStore(ctrl)
	plan, a, b, scoped := samplePlan(t)

	expectFetch(store, b)
	expectFetch(store, scoped)
	store.EXPECT().EnsureFetched(gomock.Any(), a.entry.Tarball).
		Return("", domain.Annotate(domain.ErrIntegrityMismatch, "url", a.entry.Tarball.URL))

	root := filepath.Join(t.TempDir(), "node_modules")
	result, err := newInstaller(store).Install(context.Background(), plan, root, installer.Options{})

	require.ErrorIs(t, err, domain.ErrInstallFailed)
	require.ErrorIs(t, err, domain.ErrIntegrityMismatch)

	assert.Equal(t, domain.EntryStatusInstalled, result.Outcomes[0].Status)
	assert.Equal(t, domain.EntryStatusFailed, result.Outcomes[1].Status)
	assert.Equal(t, domain.EntryStatusInstalled, result.Outcomes[2].Status)

	assert.NoDirExists(t, filepath.Join(root, ".lpm", "a@1.0.0"))
	_, err = os.Lstat(filepath.Join(root, "a"))
	assert.True(t, os.IsNotExist(err), "failed roots are not linked")
	assert.FileExists(t, filepath.Join(root, "@scope", "c", "package.json"))

	entries, err := os.ReadDir(filepath.Join(root, ".lpm"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-", "staging directories are removed")
	}
}

func TestInstall_CorruptArchive(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTarballStore(ctrl)

	bad := filepath.Join(t.TempDir(), "bad.tgz")
	require.NoError(t, os.WriteFile(bad, []byte("not gzip"), 0o600))

	entry := domain.PlanEntry{
		Name:        "bad",
		Version:     domain.NewVersion(1, 0, 0),
		Tarball:     domain.TarballRef{URL: "https://registry.test/bad.tgz"},
		Destination: domain.PackageDir("bad", domain.NewVersion(1, 0, 0)),
	}
	store.EXPECT().EnsureFetched(gomock.Any(), entry.Tarball).Return(bad, nil)

	root := filepath.Join(t.TempDir(), "node_modules")
	result, err := newInstaller(store).Install(context.Background(),
		&domain.InstallPlan{Entries: []domain.PlanEntry{entry}}, root, installer.Options{})

	require.ErrorIs(t, err, domain.ErrExtractFailed)
	assert.Equal(t, domain.EntryStatusFailed, result.Outcomes[0].Status)
	assert.NoDirExists(t, filepath.Join(root, entry.Destination))
}

func TestInstall_CancelBetweenEntries(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTarballStore(ctrl)
	plan, a, b, scoped := samplePlan(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store.EXPECT().EnsureFetched(gomock.Any(), scoped.entry.Tarball).DoAndReturn(
		func(context.Context, domain.TarballRef) (string, error) {
			cancel()
			return scoped.path, nil
		})

	root := filepath.Join(t.TempDir(), "node_modules")
	inst := newInstaller(store)
	result, err := inst.Install(ctx, plan, root, installer.Options{Concurrency: 1})

	require.ErrorIs(t, err, domain.ErrInstallCanceled)
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, domain.ErrInstallFailed)

	assert.Equal(t, domain.EntryStatusInstalled, result.Outcomes[0].Status)
	assert.Equal(t, domain.EntryStatusSkipped, result.Outcomes[1].Status)
	assert.Equal(t, domain.EntryStatusSkipped, result.Outcomes[2].Status)
	assert.FileExists(t, filepath.Join(root, scoped.entry.Destination, "package.json"))
	assert.NoDirExists(t, filepath.Join(root, b.entry.Destination))

	// A later run picks up where the canceled one stopped.
	expectFetch(store, a)
	expectFetch(store, b)
	result, err = inst.Install(context.Background(), plan, root, installer.Options{Concurrency: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusCached, result.Outcomes[0].Status)
	assert.Equal(t, 2, result.Count(domain.EntryStatusInstalled))
}

func TestInstall_RespectsConcurrency(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockTarballStore(ctrl)

		var fixtures []fixture
		for _, name := range []string{"p1", "p2", "p3", "p4", "p5", "p6"} {
			fixtures = append(fixtures, newFixture(t, name, "1.0.0", map[string]string{"index.js": name}, nil))
		}

		var running, peak atomic.Int32
		plan := &domain.InstallPlan{}
		for _, f := range fixtures {
			plan.Entries = append(plan.Entries, f.entry)
			store.EXPECT().EnsureFetched(gomock.Any(), f.entry.Tarball).DoAndReturn(
				func(context.Context, domain.TarballRef) (string, error) {
					n := running.Add(1)
					for {
						p := peak.Load()
						if n <= p || peak.CompareAndSwap(p, n) {
							break
						}
					}
					time.Sleep(time.Second)
					running.Add(-1)
					return f.path, nil
				})
		}

		root := filepath.Join(t.TempDir(), "node_modules")
		result, err := newInstaller(store).Install(context.Background(), plan, root, installer.Options{Concurrency: 2})
		require.NoError(t, err)

		assert.Equal(t, int32(2), peak.Load())
		assert.Equal(t, 6, result.Count(domain.EntryStatusInstalled))
	})
}

func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		switch {
		case d.Type()&os.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			out[rel] = "-> " + target
		case d.IsDir():
			out[rel] = "dir"
		default:
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			out[rel] = string(data)
		}
		return nil
	})
	require.NoError(t, err)
	return out
}
