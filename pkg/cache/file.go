package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache stores entries as JSON files under a per-user directory, one
// subdirectory per key namespace (analysis/, inspection/, artifact/). The
// layout keeps `scholarshare cache path` browsable and lets a user clear one
// value type by hand without touching the others. Entries carry their own
// expiry and are removed lazily on read.
type FileCache struct {
	dir string
}

// NewFileCache creates a file-backed cache rooted at dir, creating the
// directory if needed.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// fileEntry is the on-disk wrapper. Payload is the raw cached value (base64
// in the JSON encoding); a zero ExpiresAt means the entry never expires.
type fileEntry struct {
	Payload   []byte    `json:"payload"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Get retrieves a value, deleting the entry when it is expired or corrupt.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.entryPath(key)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false, nil
	}

	return entry.Payload, true, nil
}

// Set stores a value. A ttl of 0 means no expiry.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := fileEntry{Payload: data}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}

	encoded, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := c.entryPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, encoded, 0o644)
}

// Delete removes a value. Deleting a missing key is not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.entryPath(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close is a no-op; files need no teardown.
func (c *FileCache) Close() error {
	return nil
}

// entryPath maps a key to <dir>/<namespace>/<digest>.json. The digest covers
// the whole key, so the namespace directory is purely organizational.
func (c *FileCache) entryPath(key string) string {
	return filepath.Join(c.dir, namespaceOf(key), Hash([]byte(key))+".json")
}

// namespaceOf extracts the key's namespace prefix. Keys that lack one, or
// whose prefix is not filesystem-safe, land in misc/.
func namespaceOf(key string) string {
	i := strings.IndexByte(key, ':')
	if i <= 0 {
		return "misc"
	}
	ns := key[:i]
	for _, r := range ns {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return "misc"
		}
	}
	return ns
}

var _ Cache = (*FileCache)(nil)
