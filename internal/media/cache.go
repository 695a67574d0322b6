package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"media-ingest/internal/logging"

	"github.com/google/uuid"
)

// SizeClass names a thumbnail variant. Each class pins a target width;
// height follows the source aspect ratio.
type SizeClass string

const (
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
)

// Width returns the target pixel width for the class.
func (s SizeClass) Width() int {
	switch s {
	case SizeSmall:
		return 150
	case SizeMedium:
		return 600
	default:
		return 150
	}
}

// SizeClasses lists every variant generated per source file.
var SizeClasses = []SizeClass{SizeSmall, SizeMedium}

// Cache is a flat content-addressed thumbnail store. Entries are named
// {checksum}_{size}.jpg, so renaming or moving a source file never
// invalidates its thumbnails.
type Cache struct {
	root string

	mu       sync.Mutex
	inflight map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewCache creates the cache directory if needed and returns the store.
func NewCache(root string) (*Cache, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", root, ErrCacheWrite)
	}
	return &Cache{
		root:     root,
		inflight: make(map[string]*keyLock),
	}, nil
}

// Root returns the cache directory.
func (c *Cache) Root() string {
	return c.root
}

// Path returns the canonical location for a cached thumbnail. The file may
// or may not exist.
func (c *Cache) Path(checksum string, size SizeClass) string {
	return filepath.Join(c.root, fmt.Sprintf("%s_%s.jpg", checksum, size))
}

// NeedsRegenerate reports whether the cached entry is missing or older than
// the source file. The comparison is modification times only: a source
// rewritten with a backdated mtime keeps its stale thumbnail.
func (c *Cache) NeedsRegenerate(checksum string, size SizeClass, sourceModTime time.Time) bool {
	info, err := os.Stat(c.Path(checksum, size))
	if err != nil {
		return true
	}
	return sourceModTime.After(info.ModTime())
}

// Store writes a thumbnail atomically: the bytes land in a uniquely named
// temp file in the cache directory and are renamed into place, so readers
// never observe a partial entry. Returns the final path.
func (c *Cache) Store(checksum string, size SizeClass, data []byte) (string, error) {
	final := c.Path(checksum, size)
	tmp := filepath.Join(c.root, fmt.Sprintf(".tmp-%s.jpg", uuid.NewString()))

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("write temp %s: %w", tmp, ErrCacheWrite)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("rename %s: %w", final, ErrCacheWrite)
	}

	logging.Debug("cached thumbnail %s (%d bytes)", final, len(data))
	return final, nil
}

// WithKey serializes work for one checksum. Concurrent generation requests
// for the same content run one at a time; the losers re-check the cache
// under the lock and usually find the winner's entry.
func (c *Cache) WithKey(checksum string, fn func() error) error {
	c.mu.Lock()
	kl, ok := c.inflight[checksum]
	if !ok {
		kl = &keyLock{}
		c.inflight[checksum] = kl
	}
	kl.refs++
	c.mu.Unlock()

	kl.mu.Lock()
	err := fn()
	kl.mu.Unlock()

	c.mu.Lock()
	kl.refs--
	if kl.refs == 0 {
		delete(c.inflight, checksum)
	}
	c.mu.Unlock()

	return err
}
