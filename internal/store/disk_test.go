package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDiskRoundTrip(t *testing.T) {
	d := NewDisk(t.TempDir(), false)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "wikipedia", "abc123", []byte(`{"topic":"volcanoes"}`), 0))

	for i := 0; i < 3; i++ {
		data, ok := d.Get(ctx, "wikipedia", "abc123", 0)
		require.True(t, ok)
		require.Equal(t, `{"topic":"volcanoes"}`, string(data))
	}
}

func TestDiskPartitionIsolation(t *testing.T) {
	d := NewDisk(t.TempDir(), false)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "wikipedia", "abc123", []byte("v"), 0))

	_, ok := d.Get(ctx, "news", "abc123", 0)
	require.False(t, ok)
}

func TestDiskOverwrite(t *testing.T) {
	d := NewDisk(t.TempDir(), false)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "p", "k", []byte("old"), 0))
	require.NoError(t, d.Put(ctx, "p", "k", []byte("new"), 0))

	data, ok := d.Get(ctx, "p", "k", 0)
	require.True(t, ok)
	require.Equal(t, "new", string(data))
}

func TestDiskTTLExpiry(t *testing.T) {
	root := t.TempDir()
	d := NewDisk(root, false)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "p", "k", []byte("v"), 0))

	// fresh entry is a hit
	_, ok := d.Get(ctx, "p", "k", time.Hour)
	require.True(t, ok)

	// backdate the mtime past the ttl
	path := filepath.Join(root, "p", "k"+plainExt)
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	_, ok = d.Get(ctx, "p", "k", time.Hour)
	require.False(t, ok)

	// no ttl means no expiry
	_, ok = d.Get(ctx, "p", "k", 0)
	require.True(t, ok)
}

func TestDiskRefreshResetsAge(t *testing.T) {
	root := t.TempDir()
	d := NewDisk(root, false)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "p", "k", []byte("v1"), 0))
	path := filepath.Join(root, "p", "k"+plainExt)
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	// overwriting refreshes the mtime
	require.NoError(t, d.Put(ctx, "p", "k", []byte("v2"), 0))

	data, ok := d.Get(ctx, "p", "k", time.Hour)
	require.True(t, ok)
	require.Equal(t, "v2", string(data))
}

func TestDiskGzipRoundTrip(t *testing.T) {
	d := NewDisk(t.TempDir(), true)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "p", "k", []byte(`{"big":"payload"}`), 0))

	data, ok := d.Get(ctx, "p", "k", 0)
	require.True(t, ok)
	require.Equal(t, `{"big":"payload"}`, string(data))
}

func TestDiskGzipCorruptEntryIsMiss(t *testing.T) {
	root := t.TempDir()
	d := NewDisk(root, true)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "p", "k", []byte("v"), 0))

	path := filepath.Join(root, "p", "k"+gzipExt)
	require.NoError(t, os.WriteFile(path, []byte("garbage, not gzip"), 0o644))

	_, ok := d.Get(ctx, "p", "k", 0)
	require.False(t, ok)
}

func TestDiskNoTempFilesLeftBehind(t *testing.T) {
	root := t.TempDir()
	d := NewDisk(root, false)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, d.Put(ctx, "p", "k", []byte("v"), 0))
	}

	entries, err := os.ReadDir(filepath.Join(root, "p"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "k"+plainExt, entries[0].Name())
}

func TestDiskClearPartition(t *testing.T) {
	d := NewDisk(t.TempDir(), false)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "wikipedia", "k1", []byte("v"), 0))
	require.NoError(t, d.Put(ctx, "wikipedia", "k2", []byte("v"), 0))
	require.NoError(t, d.Put(ctx, "news", "k3", []byte("v"), 0))

	n, err := d.Clear("wikipedia")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, ok := d.Get(ctx, "wikipedia", "k1", 0)
	require.False(t, ok)
	_, ok = d.Get(ctx, "news", "k3", 0)
	require.True(t, ok)
}

func TestDiskClearAll(t *testing.T) {
	d := NewDisk(t.TempDir(), false)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "wikipedia", "k1", []byte("v"), 0))
	require.NoError(t, d.Put(ctx, "news", "k2", []byte("v"), 0))

	n, err := d.Clear("")
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestDiskClearAbsentPartition(t *testing.T) {
	d := NewDisk(t.TempDir(), false)

	n, err := d.Clear("nothing-here")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestDiskClearAbsentRoot(t *testing.T) {
	d := NewDisk(filepath.Join(t.TempDir(), "never-created"), false)

	n, err := d.Clear("")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestDiskSweepRemovesOnlyAgedEntries(t *testing.T) {
	root := t.TempDir()
	d := NewDisk(root, false)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "p", "stale", []byte("v"), 0))
	require.NoError(t, d.Put(ctx, "p", "fresh", []byte("v"), 0))

	old := time.Now().Add(-48 * time.Hour)
	path := filepath.Join(root, "p", "stale"+plainExt)
	require.NoError(t, os.Chtimes(path, old, old))

	n, err := d.Sweep(24 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, ok := d.Get(ctx, "p", "stale", 0)
	require.False(t, ok)
	_, ok = d.Get(ctx, "p", "fresh", 0)
	require.True(t, ok)
}
