// Package respcache implements the bounded-TTL ResponseCache of
// spec.md §4.7, grounded on utils/response_cache.py's BLAKE2b-keyed
// design. The in-process map is the default store (spec.md §5: "single
// short-lived lock per structure"); an optional Redis-backed
// implementation of the same Store interface is wired in redis.go for
// horizontal deployments.
package respcache

import (
	"crypto/subtle"
	"encoding/binary"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/engine"
)

// MaxEntries bounds the default in-process store; overflow evicts the
// oldest-inserted entry (spec.md §9's resolution of the unspecified
// eviction policy).
const MaxEntries = 10000

// Key identifies a cached reply by (state, lead, normalized-utterance
// hash), per spec.md §3.
type Key struct {
	StateID uint8
	LeadID  string
	Hash    uint32
}

// BuildKey normalizes text and computes the cache key, applying
// spec.md §4.7's normalize() before hashing.
func BuildKey(state engine.SalesState, leadID, userText string) Key {
	normalized := engine.Normalize(userText)
	return Key{StateID: uint8(state), LeadID: leadID, Hash: hash4(normalized)}
}

// hash4 computes the 4-byte non-cryptographic digest (spec.md §3),
// matching the original Python implementation's BLAKE2b(digest_size=4)
// usage in response_cache.py exactly.
func hash4(s string) uint32 {
	h, _ := blake2b.New(4, nil)
	h.Write([]byte(s))
	b := h.Sum(nil)
	return binary.BigEndian.Uint32(b)
}

type entry struct {
	reply     string
	expiresAt time.Time
	insertSeq uint64
}

// Store is the ResponseCache operation contract (spec.md §4.7):
// get/set/stats.
type Store interface {
	Get(key Key) (reply string, hit bool)
	Set(key Key, reply string, ttl time.Duration)
	Stats() Stats
}

// Stats mirrors the operator-visible response-distribution counters.
type Stats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// MemoryStore is the default in-process ResponseCache, guarded by one
// short-lived mutex (spec.md §5).
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[Key]*entry
	order    []Key // insertion order, for oldest-insertion-first eviction
	seq      uint64
	hits     int64
	misses   int64
	maxSize  int
}

// NewMemoryStore constructs an empty store bounded by maxSize (0 uses
// MaxEntries).
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = MaxEntries
	}
	return &MemoryStore{entries: map[Key]*entry{}, maxSize: maxSize}
}

// Get returns the cached reply if present and unexpired (spec.md §4.7:
// "entries older than TTL are not returned").
func (m *MemoryStore) Get(key Key) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		m.misses++
		return "", false
	}
	if time.Now().After(e.expiresAt) {
		m.misses++
		return "", false
	}
	m.hits++
	return e.reply, true
}

// Set stores reply under key with the given TTL, evicting the oldest
// insertion on overflow.
func (m *MemoryStore) Set(key Key, reply string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists {
		if len(m.entries) >= m.maxSize {
			m.evictOldestLocked()
		}
		m.order = append(m.order, key)
	}

	m.seq++
	m.entries[key] = &entry{reply: reply, expiresAt: time.Now().Add(ttl), insertSeq: m.seq}
}

func (m *MemoryStore) evictOldestLocked() {
	for len(m.order) > 0 {
		oldest := m.order[0]
		m.order = m.order[1:]
		if _, ok := m.entries[oldest]; ok {
			delete(m.entries, oldest)
			return
		}
	}
}

// Stats returns a snapshot of hit/miss counters.
func (m *MemoryStore) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Entries: len(m.entries), Hits: m.hits, Misses: m.misses}
}

// ConstantTimeEqual compares two reply strings in constant time, used
// by tests asserting cache-hit textual identity without leaking timing
// information — mirrors the carrier-signature comparison idiom used
// elsewhere in this codebase.
func ConstantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
