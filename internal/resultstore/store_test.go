package resultstore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpool_KeepsExactBytes(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	h, err := store.Spool(bytes.NewReader([]byte{0x00, 0x01}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), h.Size())
	assert.Equal(t, "application/octet-stream", h.MediaType())

	data, err := h.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01}, data)
}

func TestRelease_RemovesBackingFileOnce(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	h, err := store.Spool(bytes.NewReader([]byte("video")))
	require.NoError(t, err)
	require.FileExists(t, h.Path())

	require.NoError(t, h.Release())
	require.NoError(t, h.Release())
	assert.True(t, h.Released())
	assert.NoFileExists(t, h.Path())

	_, err = h.Bytes()
	assert.ErrorIs(t, err, ErrReleased)
}

func TestSaveAs_WritesAtomicallyIntoNewDir(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	h, err := store.Spool(bytes.NewReader([]byte("rendered")))
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "out", "pro_tracked_output.mp4")
	got, err := h.SaveAs(dest)
	require.NoError(t, err)
	assert.Equal(t, dest, got)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "rendered", string(data))

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tstudio-tmp-")
	}
}

func TestSaveAs_FailsWhileDirectoryLocked(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	h, err := store.Spool(bytes.NewReader([]byte("rendered")))
	require.NoError(t, err)

	dir := t.TempDir()
	lock, err := AcquireTargetLock(dir)
	require.NoError(t, err)
	defer lock.Release()

	_, err = h.SaveAs(filepath.Join(dir, "out.mp4"))
	assert.Error(t, err)
}

func TestClose_RemovesSessionDir(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	_, err = store.Spool(bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	require.NoError(t, store.Close())
	assert.NoDirExists(t, store.Dir())
}
