package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"wirepath/internal/project"
)

// Current schema version - increment when Entry format changes
const cacheSchemaVersion uint16 = 2

// DiskCache stores resolved artifact lists by key on disk.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Entry is one cached resolution. Sizes and ModTimes describe Files at the time they
// were resolved; an entry whose files changed since is stale. Dir is the index of the
// repository dir that held the artifact.
type Entry struct {
	Schema     uint16
	Coordinate string
	Dir        uint32
	Count      uint32
	Files      []string
	Sizes      []int64
	ModTimes   []int64
}

// OpenDiskCache opens a cache in dir. An empty dir means $XDG_CACHE_HOME/app
// (or ~/.cache/app).
func OpenDiskCache(dir, app string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, app)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "deps", key.String()+".mp")
}

// NewEntry records files with their current size and modification time.
func NewEntry(coordinate string, files []string) (*Entry, error) {
	count, err := safecast.Conv[uint32](len(files))
	if err != nil {
		return nil, fmt.Errorf("cache entry for %s: %w", coordinate, err)
	}
	e := &Entry{
		Schema:     cacheSchemaVersion,
		Coordinate: coordinate,
		Count:      count,
		Files:      append([]string(nil), files...),
		Sizes:      make([]int64, len(files)),
		ModTimes:   make([]int64, len(files)),
	}
	for i, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			return nil, err
		}
		e.Sizes[i] = info.Size()
		e.ModTimes[i] = info.ModTime().UnixNano()
	}
	return e, nil
}

// Fresh reports whether e has the current schema and its files are unchanged.
func (e *Entry) Fresh() bool {
	if e == nil || e.Schema != cacheSchemaVersion {
		return false
	}
	n, err := safecast.Conv[int](e.Count)
	if err != nil || n != len(e.Files) || n != len(e.Sizes) || n != len(e.ModTimes) {
		return false
	}
	for i, f := range e.Files {
		info, err := os.Stat(f)
		if err != nil || info.Size() != e.Sizes[i] || info.ModTime().UnixNano() != e.ModTimes[i] {
			return false
		}
	}
	return true
}

// Put serializes and writes an entry to the disk cache.
func (c *DiskCache) Put(key project.Digest, entry *Entry) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(entry); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// atomic replace
	return os.Rename(f.Name(), p)
}

// Get reads an entry. A missing file is a miss, not an error.
func (c *DiskCache) Get(key project.Digest, out *Entry) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return true, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
