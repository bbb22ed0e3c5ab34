package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/contra-app/fetchcache/internal/shared/cachedtime"
	"github.com/rs/zerolog/log"
)

const (
	plainExt = ".json"
	gzipExt  = ".json.gz"
)

// Disk stores one file per key under <root>/<partition>/<key><ext>. The
// file's mtime doubles as the entry's refresh time; no timestamp is kept
// inside the blob. Writes go through a temp file and a rename so a concurrent
// reader never observes a partially written entry.
type Disk struct {
	root string
	gz   bool
	ext  string
}

func NewDisk(root string, gz bool) *Disk {
	ext := plainExt
	if gz {
		ext = gzipExt
	}
	return &Disk{root: root, gz: gz, ext: ext}
}

func (d *Disk) Get(_ context.Context, partition, key string, ttl time.Duration) ([]byte, bool) {
	path := d.path(partition, key)

	fi, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if ttl > 0 && cachedtime.Since(fi.ModTime()) >= ttl {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	if d.gz {
		gzr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, false
		}
		defer gzr.Close()
		if data, err = io.ReadAll(gzr); err != nil {
			return nil, false
		}
	}
	return data, true
}

func (d *Disk) Put(_ context.Context, partition, key string, data []byte, _ time.Duration) error {
	dir := filepath.Join(d.root, partition)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create partition dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}

	var w io.Writer = tmp
	var gw *gzip.Writer
	if d.gz {
		gw = gzip.NewWriter(tmp)
		w = gw
	}

	if _, err = w.Write(data); err == nil && gw != nil {
		err = gw.Close()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write entry: %w", err)
	}

	if err = os.Rename(tmp.Name(), d.path(partition, key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("publish entry: %w", err)
	}
	return nil
}

func (d *Disk) Clear(partition string) (int, error) {
	partitions, err := d.partitions(partition)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, p := range partitions {
		files, _ := filepath.Glob(filepath.Join(d.root, p, "*"+d.ext))
		for _, f := range files {
			if os.Remove(f) == nil {
				count++
			}
		}
	}

	log.Info().Int("removed", count).Str("partition", partition).Msg("cache cleared")
	return count, nil
}

// Sweep removes entries older than maxAge across all partitions. Expiry is
// otherwise passive (checked at read time); Sweep is the external maintenance
// operation reclaiming disk space from entries nobody reads anymore.
func (d *Disk) Sweep(maxAge time.Duration) (int, error) {
	partitions, err := d.partitions("")
	if err != nil {
		return 0, err
	}

	start := cachedtime.Now()
	count := 0
	for _, p := range partitions {
		files, _ := filepath.Glob(filepath.Join(d.root, p, "*"+d.ext))
		for _, f := range files {
			fi, err := os.Stat(f)
			if err != nil {
				continue
			}
			if cachedtime.Since(fi.ModTime()) >= maxAge {
				if os.Remove(f) == nil {
					count++
				}
			}
		}
	}

	log.Info().
		Int("removed", count).
		Str("max_age", maxAge.String()).
		Str("elapsed", time.Since(start).String()).
		Msg("sweep finished")
	return count, nil
}

// Usage reports the resident footprint across all partitions, for telemetry.
func (d *Disk) Usage() (size int64, entries int64) {
	partitions, err := d.partitions("")
	if err != nil {
		return 0, 0
	}
	for _, p := range partitions {
		files, _ := filepath.Glob(filepath.Join(d.root, p, "*"+d.ext))
		for _, f := range files {
			if fi, err := os.Stat(f); err == nil {
				size += fi.Size()
				entries++
			}
		}
	}
	return size, entries
}

func (d *Disk) Close() error { return nil }

func (d *Disk) path(partition, key string) string {
	return filepath.Join(d.root, partition, key+d.ext)
}

// partitions lists the partition dirs targeted by a maintenance operation.
// An absent root or partition yields an empty list, not an error.
func (d *Disk) partitions(partition string) ([]string, error) {
	if partition != "" {
		return []string{partition}, nil
	}
	entries, err := os.ReadDir(d.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache root: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
