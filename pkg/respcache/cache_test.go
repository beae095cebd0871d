package respcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/engine"
)

func TestMemoryStoreGetMissOnEmptyStore(t *testing.T) {
	s := NewMemoryStore(0)
	_, hit := s.Get(Key{StateID: 1, LeadID: "lead-1", Hash: 42})
	assert.False(t, hit)
	assert.Equal(t, int64(1), s.Stats().Misses)
}

func TestMemoryStoreSetThenGetHits(t *testing.T) {
	s := NewMemoryStore(0)
	key := BuildKey(engine.S2, "lead-1", "we process orders manually")
	s.Set(key, "got it, tell me more", time.Minute)

	reply, hit := s.Get(key)
	require.True(t, hit)
	assert.Equal(t, "got it, tell me more", reply)
	assert.Equal(t, int64(1), s.Stats().Hits)
}

func TestMemoryStoreExpiredEntryIsAMiss(t *testing.T) {
	s := NewMemoryStore(0)
	key := BuildKey(engine.S2, "lead-1", "we process orders manually")
	s.Set(key, "reply", -time.Second) // already expired

	_, hit := s.Get(key)
	assert.False(t, hit)
}

func TestMemoryStoreEvictsOldestInsertionFirst(t *testing.T) {
	s := NewMemoryStore(2)
	k1 := Key{StateID: 1, LeadID: "a", Hash: 1}
	k2 := Key{StateID: 1, LeadID: "b", Hash: 2}
	k3 := Key{StateID: 1, LeadID: "c", Hash: 3}

	s.Set(k1, "one", time.Minute)
	s.Set(k2, "two", time.Minute)
	s.Set(k3, "three", time.Minute) // overflow evicts k1

	_, hit := s.Get(k1)
	assert.False(t, hit, "oldest insertion should have been evicted")

	_, hit = s.Get(k2)
	assert.True(t, hit)
	_, hit = s.Get(k3)
	assert.True(t, hit)
}

func TestBuildKeyNormalizesBeforeHashing(t *testing.T) {
	k1 := BuildKey(engine.S2, "lead-1", "  We Process Orders   Manually ")
	k2 := BuildKey(engine.S2, "lead-1", "we process orders manually")
	assert.Equal(t, k1, k2)
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual("same text", "same text"))
	assert.False(t, ConstantTimeEqual("same text", "different"))
	assert.False(t, ConstantTimeEqual("short", "longer text"))
}
