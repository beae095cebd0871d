// Package ttscache implements the two-tier TTSCache of spec.md §4.8:
// an in-memory LRU bounded by entry count, and a content-addressed
// disk tier. Grounded on openai_service.py's TTSMemoryCache
// (access-order list eviction) and tts_to_file (disk path + cache-key
// scheme). Concurrent misses for the same key collapse to one provider
// call via golang.org/x/sync/singleflight, implementing spec.md §8's
// invariant: "at most one provider call has been made for that key
// across the process lifetime."
package ttscache

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Key identifies cached audio by (text, voice, format), deliberately
// excluding lead identity so common phrases are shared across leads
// (spec.md §4.5).
type Key struct {
	Text   string
	Voice  string
	Format string
}

// digest computes the content-addressed cache key.
func (k Key) digest() string {
	h := sha1.New()
	fmt.Fprintf(h, "%s|%s|%s", k.Voice, k.Format, k.Text)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest exposes the content address for building the audio-serving
// URL in spec.md §6.2 without re-deriving it from the raw text.
func (k Key) Digest() string {
	return k.digest()
}

// memoryEntry is one LRU slot.
type memoryEntry struct {
	key   string
	bytes []byte
}

// Cache is the two-tier TTS cache.
type Cache struct {
	mu        sync.Mutex
	capacity  int
	order     []string
	entries   map[string][]byte
	diskDir   string
	group     singleflight.Group
}

// New constructs a Cache with the given in-memory LRU capacity (spec.md
// §4.8 default 50) and disk directory.
func New(capacity int, diskDir string) *Cache {
	if capacity <= 0 {
		capacity = 50
	}
	_ = os.MkdirAll(diskDir, 0o755)
	return &Cache{capacity: capacity, entries: map[string][]byte{}, diskDir: diskDir}
}

// FilePath returns the on-disk path for a key, independent of whether
// the file currently exists — used by the audio-serving endpoint
// (spec.md §6.2) to resolve a filename to a path.
func (c *Cache) FilePath(k Key) string {
	return filepath.Join(c.diskDir, fmt.Sprintf("tts_%s.%s", k.digest(), k.Format))
}

// PathForFilename resolves a filename previously returned by FilePath
// (its base name) back to its on-disk location, for the audio-serving
// endpoint of spec.md §6.2. The caller is responsible for rejecting
// filenames containing path separators before calling this.
func (c *Cache) PathForFilename(filename string) string {
	return filepath.Join(c.diskDir, filename)
}

// Lookup checks memory then disk, returning (bytes, true) on hit.
func (c *Cache) Lookup(k Key) ([]byte, bool) {
	digest := k.digest()

	c.mu.Lock()
	if b, ok := c.entries[digest]; ok {
		c.touchLocked(digest)
		c.mu.Unlock()
		return b, true
	}
	c.mu.Unlock()

	path := c.FilePath(k)
	b, err := os.ReadFile(path)
	if err == nil && len(b) > 0 {
		c.populateMemory(digest, b)
		return b, true
	}
	return nil, false
}

// Synthesize returns cached audio for k, or calls synth exactly once
// per key even under concurrent callers (singleflight), populating
// both cache tiers on miss.
func (c *Cache) Synthesize(k Key, synth func() ([]byte, error)) ([]byte, error) {
	if b, ok := c.Lookup(k); ok {
		return b, nil
	}

	digest := k.digest()
	v, err, _ := c.group.Do(digest, func() (interface{}, error) {
		if b, ok := c.Lookup(k); ok {
			return b, nil
		}
		b, err := synth()
		if err != nil {
			return nil, err
		}
		c.populateMemory(digest, b)
		_ = os.WriteFile(c.FilePath(k), b, 0o644)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) populateMemory(digest string, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[digest]; !exists && len(c.entries) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[digest] = b
	c.touchLocked(digest)
}

func (c *Cache) touchLocked(digest string) {
	for i, k := range c.order {
		if k == digest {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, digest)
}

// Preheat populates the cache with a fixed set of phrases (spec.md
// §4.8, §4.13). The WarmupController does not call it; it fills the
// cache through tts.Client.Synthesize instead.
func (c *Cache) Preheat(keys []Key, synth func(Key) ([]byte, error)) {
	for _, k := range keys {
		_, _ = c.Synthesize(k, func() ([]byte, error) { return synth(k) })
	}
}
