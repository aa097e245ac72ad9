package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesAndIsIdempotent(t *testing.T) {
	want := filepath.Join(t.TempDir(), "a", "b")

	got, err := EnsureDir(want)
	require.NoError(t, err)
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o700), fi.Mode().Perm())
	}

	_, err = EnsureDir(want)
	require.NoError(t, err)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taken")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := EnsureDir(path)
	require.Error(t, err)
}

func TestReadValue(t *testing.T) {
	dir := t.TempDir()

	v, err := ReadValue(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, v)

	path := filepath.Join(dir, "id")
	require.NoError(t, os.WriteFile(path, []byte("  abc\n"), 0o600))
	v, err = ReadValue(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	_, err = ReadValue(dir)
	require.Error(t, err, "reading a directory must fail")
}

func TestWriteValueOnce_NeverOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folder", "device_id.txt")

	stored, err := WriteValueOnce(path, "first")
	require.NoError(t, err)
	assert.Equal(t, "first", stored)

	stored, err = WriteValueOnce(path, "second")
	require.NoError(t, err)
	assert.Equal(t, "first", stored)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(b), "content is the raw identifier, no framing")
}

func TestWriteValueOnce_ReplacesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device_id.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	stored, err := WriteValueOnce(path, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", stored)
}

func TestRemoveValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id")
	require.NoError(t, os.WriteFile(path, []byte("v"), 0o600))

	removed, err := RemoveValue(path)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = RemoveValue(path)
	require.NoError(t, err)
	assert.False(t, removed)
}
