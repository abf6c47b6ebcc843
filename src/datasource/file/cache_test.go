package file

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"OlistInsight/src/processor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCacheHit(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir)
	cache := NewSnapshotCache(dir)

	first, hit, err := cache.Get()
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := cache.Get()
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, cache.Loads())
	assert.Equal(t, first.Order.Records(), second.Order.Records())
}

func TestSnapshotCacheReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir)
	cache := NewSnapshotCache(dir)

	_, _, err := cache.Get()
	require.NoError(t, err)

	body := rawFixtures[processor.TableOrder] +
		"o3,c1,delivered,2018-01-01 10:00:00,2018-01-01 10:10:00,2018-01-02 10:00:00,2018-01-05 10:00:00,2018-01-10 00:00:00\n"
	path := filepath.Join(dir, RawFiles[processor.TableOrder])
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	tables, hit, err := cache.Get()
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 3, tables.Order.Nrow())
	assert.Equal(t, 2, cache.Loads())
}

func TestSnapshotCacheInvalidate(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir)
	cache := NewSnapshotCache(dir)

	_, _, err := cache.Get()
	require.NoError(t, err)
	cache.Invalidate()
	_, hit, err := cache.Get()
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, cache.Loads())
}

func TestSnapshotCacheReturnsCopies(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir)
	cache := NewSnapshotCache(dir)

	first, _, err := cache.Get()
	require.NoError(t, err)
	first.Order = first.Order.Drop([]int{0})

	second, _, err := cache.Get()
	require.NoError(t, err)
	assert.Equal(t, 2, second.Order.Nrow())
}

func TestSnapshotCacheMissingFile(t *testing.T) {
	cache := NewSnapshotCache(t.TempDir())
	_, _, err := cache.Get()
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir)

	a, err := Fingerprint(dir)
	require.NoError(t, err)
	b, err := Fingerprint(dir)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	path := filepath.Join(dir, RawFiles[processor.TableGeo])
	require.NoError(t, os.WriteFile(path, []byte(rawFixtures[processor.TableGeo]+"20040,-22.9,-43.1,rio de janeiro,RJ\n"), 0644))
	c, err := Fingerprint(dir)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestMonitorInvalidatesCache(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir)
	cache := NewSnapshotCache(dir)
	_, _, err := cache.Get()
	require.NoError(t, err)

	monitor, err := NewFileMonitor(dir)
	require.NoError(t, err)
	defer monitor.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan string, 16)
	done := make(chan error, 1)
	go func() {
		done <- monitor.InvalidateOnChange(ctx, cache, func(name string) { changed <- name })
	}()

	// 非CSV文件不触发
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	path := filepath.Join(dir, RawFiles[processor.TableSeller])
	require.NoError(t, os.WriteFile(path, []byte(rawFixtures[processor.TableSeller]), 0644))

	select {
	case name := <-changed:
		assert.Equal(t, ".csv", filepath.Ext(name))
	case <-time.After(5 * time.Second):
		t.Fatal("没有收到文件变化事件")
	}

	_, hit, err := cache.Get()
	require.NoError(t, err)
	assert.False(t, hit)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("监控没有退出")
	}
}
