package store

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"
)

// File implements Store using one JSON file per key
type File struct {
	dir string

	// Now is the clock used for expiry. Defaults to time.Now.
	Now func() time.Time
}

type fileRecord struct {
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Value     []byte    `json:"value"`
}

// NewFile creates a file-backed store rooted at dir.
// If dir is empty, uses ~/.feedgate_cache
func NewFile(dir string) (*File, error) {
	if dir == "" {
		usr, err := user.Current()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(usr.HomeDir, ".feedgate_cache")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	return &File{dir: dir, Now: time.Now}, nil
}

// Load implements Loader
func (f *File) Load(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}

	// sanitized names can collide; the record carries the real key
	if rec.Key != key {
		return nil, false, nil
	}
	if !rec.ExpiresAt.IsZero() && !f.Now().Before(rec.ExpiresAt) {
		return nil, false, nil
	}

	return rec.Value, true, nil
}

// Save implements Saver
func (f *File) Save(_ context.Context, key string, value []byte, ttl time.Duration) error {
	rec := fileRecord{Key: key, Value: value}
	if ttl > 0 {
		rec.ExpiresAt = f.Now().Add(ttl)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	// Write to temporary file first, then rename (atomic operation)
	path := f.path(key)
	tmpPath := path + fmt.Sprintf(".tmp.%d", rand.Int())
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, sanitizeKey(key)+".json")
}

// sanitizeKey ensures the key is safe for use as a filename
func sanitizeKey(key string) string {
	// For very long keys, use hash to avoid filesystem limits
	if len(key) > 200 {
		return fmt.Sprintf("hash_%x", md5.Sum([]byte(key)))
	}

	unsafe := []string{"/", "\\", ":", "?", "&", "=", "#", "<", ">", "|", "*", "\"", " "}
	result := key
	for _, char := range unsafe {
		result = strings.ReplaceAll(result, char, "_")
	}
	return result
}
