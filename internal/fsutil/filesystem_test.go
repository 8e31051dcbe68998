package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	m := NewMemoryFileSystem()
	require.NoError(t, m.WriteFile("data/loss.csv", []byte("iso,year\n"), 0o644))

	got, err := m.ReadFile("data/./loss.csv")
	require.NoError(t, err)
	assert.Equal(t, "iso,year\n", string(got))

	// returned slices are copies
	got[0] = 'X'
	again, _ := m.ReadFile("data/loss.csv")
	assert.Equal(t, byte('i'), again[0])
}

func TestMemoryFileSystem_OpenAndStat(t *testing.T) {
	m := NewMemoryFileSystem()
	require.NoError(t, m.WriteFile("world.geojson", []byte(`{"type":"FeatureCollection"}`), 0o644))

	f, err := m.Open("world.geojson")
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Contains(t, string(data), "FeatureCollection")

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, "world.geojson", info.Name())
	assert.Equal(t, int64(len(data)), info.Size())
	assert.False(t, info.IsDir())
}

func TestMemoryFileSystem_Missing(t *testing.T) {
	m := NewMemoryFileSystem()

	_, err := m.Open("nope.csv")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	_, err = m.ReadFile("nope.csv")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	_, err = m.Stat("nope.csv")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.False(t, m.Exists("nope.csv"))
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	m := NewMemoryFileSystem()

	w, err := m.Create("out/bar.png")
	require.NoError(t, err)
	_, err = w.Write([]byte("png"))
	require.NoError(t, err)

	got, err := m.ReadFile("out/bar.png")
	require.NoError(t, err)
	assert.Empty(t, got, "content should not be visible before Close")

	require.NoError(t, w.Close())
	got, err = m.ReadFile("out/bar.png")
	require.NoError(t, err)
	assert.Equal(t, "png", string(got))
}

func TestMemoryFileSystem_MkdirAllAndFiles(t *testing.T) {
	m := NewMemoryFileSystem()
	require.NoError(t, m.MkdirAll("reports/2010", 0o755))

	assert.True(t, m.Exists("reports"))
	assert.True(t, m.Exists("reports/2010"))
	info, err := m.Stat("reports/2010")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, fs.ModeDir, info.Mode()&fs.ModeDir)

	require.NoError(t, m.WriteFile("reports/2010/a.png", nil, 0o644))
	assert.True(t, m.Exists(filepath.Join("reports", "2010", "a.png")))
	assert.False(t, m.Exists("reports/2010/b.xlsx"))
}

func TestOSFileSystem_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	var osfs OSFileSystem

	sub := filepath.Join(dir, "nested", "out")
	require.NoError(t, osfs.MkdirAll(sub, 0o755))
	assert.True(t, osfs.Exists(sub))

	path := filepath.Join(sub, "loss.csv")
	w, err := osfs.Create(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("a,b\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := osfs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	require.NoError(t, osfs.WriteFile(path, []byte("c"), 0o644))
	info, err := osfs.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.Size())

	f, err := osfs.Open(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = osfs.Stat(filepath.Join(dir, "missing"))
	assert.True(t, os.IsNotExist(err))
}
