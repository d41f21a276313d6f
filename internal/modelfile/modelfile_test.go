package modelfile

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var runTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func TestBackupPath(t *testing.T) {
	assert.Equal(t, "/m/shop.edmx.20260314-092653", BackupPath("/m/shop.edmx", runTime, ""))
	assert.Equal(t, "/m/shop.edmx.bak", BackupPath("/m/shop.edmx", runTime, ".bak"))
}

func TestDiagramPath(t *testing.T) {
	assert.Equal(t, "/m/shop.edmx.diagram", DiagramPath("/m/shop.edmx", ""))
	assert.Equal(t, "/m/shop.edmx.layout", DiagramPath("/m/shop.edmx", ".layout"))
}

func TestBackup(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/m/shop.edmx", []byte("<model/>"), 0o600))
	store := New(fs)

	dest, err := store.Backup("/m/shop.edmx", runTime, "")
	require.NoError(t, err)
	assert.Equal(t, "/m/shop.edmx.20260314-092653", dest)

	data, err := afero.ReadFile(fs, dest)
	require.NoError(t, err)
	assert.Equal(t, "<model/>", string(data))

	info, err := fs.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestBackup_DoesNotOverwrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/m/shop.edmx", []byte("new"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/m/shop.edmx.20260314-092653", []byte("old"), 0o644))
	store := New(fs)

	_, err := store.Backup("/m/shop.edmx", runTime, "")
	require.Error(t, err)

	data, err := afero.ReadFile(fs, "/m/shop.edmx.20260314-092653")
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestBackup_MissingSource(t *testing.T) {
	store := New(afero.NewMemMapFs())
	_, err := store.Backup("/m/missing.edmx", runTime, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestWriteAtomic(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/m/shop.edmx", []byte("before"), 0o640))
	store := New(fs)

	require.NoError(t, store.WriteAtomic("/m/shop.edmx", []byte("after")))

	data, err := afero.ReadFile(fs, "/m/shop.edmx")
	require.NoError(t, err)
	assert.Equal(t, "after", string(data))

	info, err := fs.Stat("/m/shop.edmx")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	entries, err := afero.ReadDir(fs, "/m")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/m/a", []byte("x"), 0o644))
	store := New(fs)

	ok, err := store.Exists("/m/a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists("/m/b")
	require.NoError(t, err)
	assert.False(t, ok)
}
