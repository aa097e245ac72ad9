package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/deviceid/internal/common"
	"github.com/dmitrijs2005/deviceid/internal/logging"
	"github.com/dmitrijs2005/deviceid/internal/platform"
	"github.com/dmitrijs2005/deviceid/internal/platform/snapshot"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memObjects struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newMemObjects() *memObjects { return &memObjects{data: map[string]string{}} }

func (m *memObjects) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.data[key]
	if !ok {
		return "", common.ErrNotFound
	}
	return v, nil
}

func (m *memObjects) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type panicStrategy struct{ name string }

func (p panicStrategy) Name() string    { return p.name }
func (p panicStrategy) Available() bool { return true }
func (p panicStrategy) Read(context.Context, Location) (string, error) {
	panic("storage exploded")
}
func (p panicStrategy) Write(context.Context, Location, string) (string, error) {
	panic("storage exploded")
}
func (p panicStrategy) Delete(context.Context, Location) (bool, error) {
	panic("storage exploded")
}

type env struct {
	appDir string
	extDir string
	sys    *snapshot.Android
}

func newEnv(t *testing.T, d snapshot.AndroidDescriptor) env {
	t.Helper()
	base := t.TempDir()
	d.AppFilesDir = filepath.Join(base, "app")
	d.ExternalStorageRoot = filepath.Join(base, "sdcard")
	return env{appDir: d.AppFilesDir, extDir: d.ExternalStorageRoot, sys: snapshot.NewAndroid(d)}
}

func defaultPath(root string) string {
	return filepath.Join(root, common.DefaultFolderName, common.DefaultFileName)
}

func TestLocationNormalize(t *testing.T) {
	loc, err := Location{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, Location{Folder: common.DefaultFolderName, File: common.DefaultFileName}, loc)

	for _, bad := range []Location{{Folder: ".."}, {File: "a/b"}, {Folder: `x\y`}} {
		_, err := bad.Normalize()
		assert.ErrorIs(t, err, ErrInvalidLocation)
	}
}

func TestLocationNormalize_Defaults(t *testing.T) {
	loc, err := Location{File: "id.txt"}.Normalize(Location{Folder: "acme", File: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, Location{Folder: "acme", File: "id.txt"}, loc)
}

func TestStore_WithDefaults(t *testing.T) {
	e := newEnv(t, snapshot.AndroidDescriptor{Build: platform.AndroidBuild{SDK: 34}})
	s := NewAndroid(e.sys, nil, logging.Nop()).WithDefaults(Location{Folder: "acme", File: "device.id"})
	ctx := context.Background()

	res, err := s.Generate(ctx, Location{})
	require.NoError(t, err)
	require.True(t, res.Persisted)

	data, err := os.ReadFile(filepath.Join(e.appDir, "acme", "device.id"))
	require.NoError(t, err)
	assert.Equal(t, res.ID, string(data))
}

func TestGenerate_IdempotentAndAtomicLayout(t *testing.T) {
	e := newEnv(t, snapshot.AndroidDescriptor{Build: platform.AndroidBuild{SDK: 34}})
	s := NewAndroid(e.sys, nil, logging.Nop())
	ctx := context.Background()

	has, err := s.Has(ctx, Location{})
	require.NoError(t, err)
	assert.False(t, has)

	first, err := s.Generate(ctx, Location{})
	require.NoError(t, err)
	assert.True(t, first.Persisted)
	assert.Equal(t, AppPrivate, first.Strategy)
	_, err = uuid.Parse(first.ID)
	require.NoError(t, err)

	second, err := s.Generate(ctx, Location{})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	raw, err := os.ReadFile(defaultPath(e.appDir))
	require.NoError(t, err)
	assert.Equal(t, first.ID, string(raw), "file holds the raw identifier only")

	info, err := os.Stat(defaultPath(e.appDir))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestGenerate_NeverOverwritesExistingFile(t *testing.T) {
	e := newEnv(t, snapshot.AndroidDescriptor{Build: platform.AndroidBuild{SDK: 34}})
	require.NoError(t, os.MkdirAll(filepath.Dir(defaultPath(e.appDir)), 0o700))
	require.NoError(t, os.WriteFile(defaultPath(e.appDir), []byte("existing-id\n"), 0o600))

	s := NewAndroid(e.sys, nil, logging.Nop())
	res, err := s.Generate(context.Background(), Location{})
	require.NoError(t, err)
	assert.Equal(t, "existing-id", res.ID)
}

func TestGenerate_BackupToAllFilesTier(t *testing.T) {
	e := newEnv(t, snapshot.AndroidDescriptor{
		Build:                  platform.AndroidBuild{SDK: 31},
		ExternalStorageManager: true,
	})
	s := NewAndroid(e.sys, nil, logging.Nop())

	res, err := s.Generate(context.Background(), Location{Folder: "ids", File: "id"})
	require.NoError(t, err)

	backup, err := os.ReadFile(filepath.Join(e.extDir, "ids", "id"))
	require.NoError(t, err)
	assert.Equal(t, res.ID, string(backup))
}

func TestGenerate_BacksUpExistingAppPrivateValue(t *testing.T) {
	e := newEnv(t, snapshot.AndroidDescriptor{
		Build:                  platform.AndroidBuild{SDK: 31},
		ExternalStorageManager: true,
	})
	require.NoError(t, os.MkdirAll(filepath.Join(e.appDir, "ids"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(e.appDir, "ids", "id"), []byte("found-id"), 0o600))

	s := NewAndroid(e.sys, nil, logging.Nop())
	res, err := s.Generate(context.Background(), Location{Folder: "ids", File: "id"})
	require.NoError(t, err)
	assert.Equal(t, Result{ID: "found-id", Persisted: true, Strategy: AppPrivate}, res)

	backup, err := os.ReadFile(filepath.Join(e.extDir, "ids", "id"))
	require.NoError(t, err)
	assert.Equal(t, "found-id", string(backup))
}

func TestGenerate_ExistingBackupNotOverwritten(t *testing.T) {
	e := newEnv(t, snapshot.AndroidDescriptor{
		Build:                  platform.AndroidBuild{SDK: 31},
		ExternalStorageManager: true,
	})
	require.NoError(t, os.MkdirAll(filepath.Dir(defaultPath(e.appDir)), 0o700))
	require.NoError(t, os.WriteFile(defaultPath(e.appDir), []byte("app-id"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Dir(defaultPath(e.extDir)), 0o700))
	require.NoError(t, os.WriteFile(defaultPath(e.extDir), []byte("ext-id"), 0o600))

	s := NewAndroid(e.sys, nil, logging.Nop())
	res, err := s.Generate(context.Background(), Location{})
	require.NoError(t, err)
	assert.Equal(t, "app-id", res.ID)

	backup, err := os.ReadFile(defaultPath(e.extDir))
	require.NoError(t, err)
	assert.Equal(t, "ext-id", string(backup))
}

func TestRead_FallsThroughToLaterTier(t *testing.T) {
	e := newEnv(t, snapshot.AndroidDescriptor{
		Build:       platform.AndroidBuild{SDK: 28},
		Permissions: []string{platform.PermissionReadExternalStorage, platform.PermissionWriteExternalStorage},
	})
	require.NoError(t, os.MkdirAll(filepath.Dir(defaultPath(e.extDir)), 0o700))
	require.NoError(t, os.WriteFile(defaultPath(e.extDir), []byte("from-legacy"), 0o600))

	s := NewAndroid(e.sys, nil, logging.Nop())
	v, name, err := s.Read(context.Background(), Location{})
	require.NoError(t, err)
	assert.Equal(t, "from-legacy", v)
	assert.Equal(t, Legacy, name)

	res, err := s.Generate(context.Background(), Location{})
	require.NoError(t, err)
	assert.Equal(t, "from-legacy", res.ID)
}

func TestTierAvailability(t *testing.T) {
	tests := []struct {
		name string
		d    snapshot.AndroidDescriptor
		objs bool
		want []string
	}{
		{name: "modern no grants", d: snapshot.AndroidDescriptor{Build: platform.AndroidBuild{SDK: 33}}, want: []string{AppPrivate}},
		{name: "modern manager", d: snapshot.AndroidDescriptor{Build: platform.AndroidBuild{SDK: 30}, ExternalStorageManager: true}, want: []string{AppPrivate, AllFiles}},
		{name: "modern with bucket", d: snapshot.AndroidDescriptor{Build: platform.AndroidBuild{SDK: 29}}, objs: true, want: []string{AppPrivate, MediaStore}},
		{name: "legacy granted", d: snapshot.AndroidDescriptor{Build: platform.AndroidBuild{SDK: 28}, Permissions: []string{platform.PermissionReadExternalStorage, platform.PermissionWriteExternalStorage}}, objs: true, want: []string{AppPrivate, Legacy}},
		{name: "legacy read only", d: snapshot.AndroidDescriptor{Build: platform.AndroidBuild{SDK: 28}, Permissions: []string{platform.PermissionReadExternalStorage}}, want: []string{AppPrivate}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, tt.d)
			var objs ObjectStore
			if tt.objs {
				objs = newMemObjects()
			}
			s := NewAndroid(e.sys, objs, logging.Nop())

			var got []string
			for _, st := range s.available() {
				got = append(got, st.Name())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerate_MediaStoreWhenAppPrivateMissing(t *testing.T) {
	objs := newMemObjects()
	sys := snapshot.NewAndroid(snapshot.AndroidDescriptor{Build: platform.AndroidBuild{SDK: 33}})
	s := NewAndroid(sys, objs, logging.Nop())

	res, err := s.Generate(context.Background(), Location{})
	require.NoError(t, err)
	assert.Equal(t, MediaStore, res.Strategy)
	assert.Equal(t, res.ID, objs.data[common.DefaultFolderName+"/"+common.DefaultFileName])
}

func TestGenerate_AllTiersFail(t *testing.T) {
	boom := errors.New("bucket gone")
	objs := newMemObjects()
	objs.err = boom
	sys := snapshot.NewAndroid(snapshot.AndroidDescriptor{Build: platform.AndroidBuild{SDK: 33}})
	s := NewAndroid(sys, objs, logging.Nop())

	res, err := s.Generate(context.Background(), Location{})
	require.ErrorIs(t, err, ErrNotPersisted)
	require.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, res.Persisted)
	_, perr := uuid.Parse(res.ID)
	assert.NoError(t, perr)
}

func TestPanickingTierIsIsolated(t *testing.T) {
	dir := t.TempDir()
	good := NewDirStrategy(AppPrivate, func() (string, error) { return dir, nil }, func() bool { return true })
	s := New([]Strategy{panicStrategy{name: "boom"}, good}, logging.Nop())
	ctx := context.Background()

	var res Result
	var err error
	require.NotPanics(t, func() { res, err = s.Generate(ctx, Location{}) })
	require.NoError(t, err)
	assert.Equal(t, AppPrivate, res.Strategy)

	removed, err := s.Delete(ctx, Location{})
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestDelete_AllTiers(t *testing.T) {
	e := newEnv(t, snapshot.AndroidDescriptor{Build: platform.AndroidBuild{SDK: 31}, ExternalStorageManager: true})
	s := NewAndroid(e.sys, nil, logging.Nop())
	ctx := context.Background()

	_, err := s.Generate(ctx, Location{})
	require.NoError(t, err)

	removed, err := s.Delete(ctx, Location{})
	require.NoError(t, err)
	assert.True(t, removed)
	assert.NoFileExists(t, defaultPath(e.appDir))
	assert.NoFileExists(t, defaultPath(e.extDir))

	removed, err = s.Delete(ctx, Location{})
	require.NoError(t, err)
	assert.False(t, removed)

	has, err := s.Has(ctx, Location{})
	require.NoError(t, err)
	assert.False(t, has)
}
