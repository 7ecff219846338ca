package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache keeps one file per key, grouped into a directory per key
// namespace. A file holds one header line with the expiry followed by the
// stored bytes unchanged, so a saved view can be read with cat:
//
//	expires never
//	{"version":2,"expanded":["house"]}
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache creates a file-based cache in dir, creating it if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

const (
	headerPrefix = "expires "
	neverExpires = "never"
)

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Get returns the bytes stored under key. Expired and unreadable entries are
// removed and reported as a miss.
func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	data, live := c.decode(raw)
	if !live {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return data, true, nil
}

// Set stores data under key, replacing the file atomically.
func (c *FileCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	expires := neverExpires
	if ttl > 0 {
		expires = c.now().Add(ttl).UTC().Format(time.RFC3339Nano)
	}
	var buf bytes.Buffer
	buf.WriteString(headerPrefix + expires + "\n")
	buf.Write(data)

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes key. A missing entry is not an error.
func (c *FileCache) Delete(_ context.Context, key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes every entry but keeps the directory.
func (c *FileCache) Clear(context.Context) error {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(c.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Prune removes expired and unreadable entries and reports how many went.
func (c *FileCache) Prune(ctx context.Context) (int, error) {
	removed := 0
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if _, live := c.decode(raw); live {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("prune %s: %w", c.dir, err)
	}
	return removed, nil
}

// Close does nothing for the file cache.
func (c *FileCache) Close() error { return nil }

// decode splits an entry into its payload and reports whether it is usable.
func (c *FileCache) decode(raw []byte) ([]byte, bool) {
	header, data, ok := bytes.Cut(raw, []byte("\n"))
	if !ok {
		return nil, false
	}
	expires, ok := strings.CutPrefix(string(header), headerPrefix)
	if !ok {
		return nil, false
	}
	if expires == neverExpires {
		return data, true
	}
	at, err := time.Parse(time.RFC3339Nano, expires)
	if err != nil || !c.now().Before(at) {
		return nil, false
	}
	return data, true
}

// path maps key to <dir>/<namespace>/<hash>. The namespace is everything
// before the key's last colon, so scoped keys such as "api:viewstate:…" land
// in their own directory.
func (c *FileCache) path(key string) string {
	ns := "default"
	if i := strings.LastIndexByte(key, ':'); i > 0 {
		ns = sanitize(key[:i])
	}
	return filepath.Join(c.dir, ns, Hash([]byte(key))[:32])
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, s)
}

var (
	_ Cache   = (*FileCache)(nil)
	_ Clearer = (*FileCache)(nil)
	_ Pruner  = (*FileCache)(nil)
)
