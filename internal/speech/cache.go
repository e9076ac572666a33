package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// DiskCache stores synthesized clips as MP3 files named by a content hash.
type DiskCache struct {
	dir string
}

// NewDiskCache creates the cache directory if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

// DefaultCacheDir returns $XDG_CACHE_HOME/parley/tts or the platform
// equivalent.
func DefaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(base, "parley", "tts"), nil
}

// CacheKey hashes everything that changes the synthesized audio.
func CacheKey(req Request) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%.2f|%s|%s", req.Text, effectiveSpeed(req), req.Lang, req.Voice)))
	return hex.EncodeToString(h[:16])
}

func (c *DiskCache) path(key string) string {
	return filepath.Join(c.dir, key+".mp3")
}

// Get returns the cached clip for key.
func (c *DiskCache) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// Put stores a clip. The write goes through a temp file so a crash never
// leaves a truncated clip behind.
func (c *DiskCache) Put(key string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("cache temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("commit cache: %w", err)
	}
	return nil
}
