package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// cacheVersion is bumped when the on-disk layout changes.
const cacheVersion = 1

// ErrUnsupportedCache is returned when the cache file has another version.
var ErrUnsupportedCache = errors.New("unsupported embedding cache version")

// Cache maps (model, text) to a stored vector. It is persisted with gob.
type Cache struct {
	mu      sync.Mutex
	path    string
	entries map[string][]float32
	dirty   bool
}

type cacheFile struct {
	Version int
	Entries map[string][]float32
}

// cacheKey is the SHA-256 of the model name and text.
func cacheKey(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// OpenCache loads the cache at path. A missing file yields an empty cache
// that is created on Save.
func OpenCache(path string) (*Cache, error) {
	c := &Cache{path: path, entries: make(map[string][]float32)}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("opening embedding cache: %w", err)
	}
	defer f.Close()

	var file cacheFile
	if err := gob.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding embedding cache: %w", err)
	}
	if file.Version != cacheVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedCache, file.Version, cacheVersion)
	}
	if file.Entries != nil {
		c.entries = file.Entries
	}
	return c, nil
}

// Get returns the cached vector for text under model.
func (c *Cache) Get(model, text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[cacheKey(model, text)]
	return v, ok
}

// Put stores a vector.
func (c *Cache) Put(model, text string, v []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(model, text)] = v
	c.dirty = true
}

// Len returns the number of cached vectors.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Save writes the cache if it changed since it was opened. The file is
// written to a temp path and renamed into place.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tempPath := c.path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(cacheFile{Version: cacheVersion, Entries: c.entries}); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("encoding embedding cache: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing file: %w", err)
	}
	if err := os.Rename(tempPath, c.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	c.dirty = false
	return nil
}

// CachedProvider serves embeddings from a Cache and asks the wrapped
// Provider only on a miss.
type CachedProvider struct {
	Provider
	cache  *Cache
	hits   int
	misses int
}

// NewCachedProvider wraps p with cache.
func NewCachedProvider(p Provider, cache *Cache) *CachedProvider {
	return &CachedProvider{Provider: p, cache: cache}
}

// Embed returns the cached vector or embeds and stores it.
func (c *CachedProvider) Embed(ctx context.Context, text string) (Embedding, error) {
	model := c.ModelName()
	if v, ok := c.cache.Get(model, text); ok {
		c.hits++
		return Embedding{Vector: v}, nil
	}
	emb, err := c.Provider.Embed(ctx, text)
	if err != nil {
		return Embedding{}, err
	}
	c.misses++
	c.cache.Put(model, text, emb.Vector)
	return emb, nil
}

// Stats returns the hit and miss counts since creation.
func (c *CachedProvider) Stats() (hits, misses int) {
	return c.hits, c.misses
}
