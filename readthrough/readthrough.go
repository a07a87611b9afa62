// Package readthrough is an on-disk cache of fetched pages, keyed by URL.
package readthrough

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// New returns a cache storing files in dir. Entries older than ttl are
// treated as misses; a ttl of zero never expires entries.
func New(dir, prefix string, ttl time.Duration) (*ReadThrough, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating cache dir '%s': %w", dir, err)
	}
	return &ReadThrough{dir: dir, prefix: prefix, ttl: ttl, now: time.Now}, nil
}

type ReadThrough struct {
	dir, prefix string
	ttl         time.Duration
	now         func() time.Time
}

var ErrMiss = errors.New("cache miss")

func (rt *ReadThrough) Get(key string) ([]byte, error) {
	hash, filename := rt.hashAndFilename(key)

	info, err := os.Stat(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("cache miss for '%s': %w", hash, ErrMiss)
	} else if err != nil {
		return nil, fmt.Errorf("error checking for cache file '%s': %w", hash, err)
	}
	if rt.ttl > 0 && rt.now().Sub(info.ModTime()) > rt.ttl {
		return nil, fmt.Errorf("cache entry '%s' expired: %w", hash, ErrMiss)
	}

	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading cache file '%s': %w", hash, err)
	}
	return bs, nil
}

// Set stores bs under key. The write goes through a temp file so a
// concurrent Get never sees a partial entry.
func (rt *ReadThrough) Set(key string, bs []byte) error {
	hash, filename := rt.hashAndFilename(key)

	tmp, err := os.CreateTemp(rt.dir, rt.prefix+hash+".*.tmp")
	if err != nil {
		return fmt.Errorf("error opening cache file '%s' for write: %w", hash, err)
	}
	if _, err := tmp.Write(bs); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("error writing cache file '%s': %w", hash, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("error closing cache file '%s': %w", hash, err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("error renaming cache file '%s': %w", hash, err)
	}
	return nil
}

func (rt *ReadThrough) hashAndFilename(key string) (string, string) {
	var hasher = sha256.New()
	hasher.Write([]byte(key))
	hash := hex.EncodeToString(hasher.Sum(nil))
	return hash, filepath.Join(rt.dir, rt.prefix+hash)
}
