package ttscache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupMissesOnEmptyCache(t *testing.T) {
	c := New(10, t.TempDir())
	_, hit := c.Lookup(Key{Text: "hello", Voice: "Joanna", Format: "mp3"})
	assert.False(t, hit)
}

func TestSynthesizeCallsSynthOnceAndCachesResult(t *testing.T) {
	c := New(10, t.TempDir())
	key := Key{Text: "hello there", Voice: "Joanna", Format: "mp3"}

	calls := 0
	synth := func() ([]byte, error) {
		calls++
		return []byte("audio-bytes"), nil
	}

	b1, err := c.Synthesize(key, synth)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes"), b1)

	b2, err := c.Synthesize(key, synth)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes"), b2)
	assert.Equal(t, 1, calls, "second call should hit the cache, not re-synthesize")
}

func TestSynthesizeConcurrentCallsCollapseToOneProviderCall(t *testing.T) {
	c := New(10, t.TempDir())
	key := Key{Text: "concurrent phrase", Voice: "Joanna", Format: "mp3"}

	var calls int
	var mu sync.Mutex
	synth := func() ([]byte, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return []byte("audio"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Synthesize(key, synth)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, calls, 2, "singleflight should collapse nearly all concurrent misses")
}

func TestSynthesizePropagatesError(t *testing.T) {
	c := New(10, t.TempDir())
	key := Key{Text: "fails", Voice: "Joanna", Format: "mp3"}

	_, err := c.Synthesize(key, func() ([]byte, error) { return nil, assert.AnError })
	assert.Error(t, err)

	_, hit := c.Lookup(key)
	assert.False(t, hit, "a failed synthesis must not populate the cache")
}

func TestPopulateMemoryEvictsOldestBeyondCapacity(t *testing.T) {
	c := New(2, t.TempDir())
	k1 := Key{Text: "one", Voice: "Joanna", Format: "mp3"}
	k2 := Key{Text: "two", Voice: "Joanna", Format: "mp3"}
	k3 := Key{Text: "three", Voice: "Joanna", Format: "mp3"}

	c.populateMemory(k1.digest(), []byte("1"))
	c.populateMemory(k2.digest(), []byte("2"))
	c.populateMemory(k3.digest(), []byte("3"))

	c.mu.Lock()
	_, stillPresent := c.entries[k1.digest()]
	c.mu.Unlock()
	assert.False(t, stillPresent, "oldest entry should have been evicted")
}

func TestFilePathIsStableForSameKey(t *testing.T) {
	c := New(10, t.TempDir())
	k := Key{Text: "same text", Voice: "Joanna", Format: "mp3"}
	assert.Equal(t, c.FilePath(k), c.FilePath(k))
}

func TestDigestDiffersByVoiceFormatOrText(t *testing.T) {
	base := Key{Text: "hello", Voice: "Joanna", Format: "mp3"}
	assert.NotEqual(t, base.Digest(), Key{Text: "hello", Voice: "Matthew", Format: "mp3"}.Digest())
	assert.NotEqual(t, base.Digest(), Key{Text: "hello", Voice: "Joanna", Format: "ogg"}.Digest())
	assert.NotEqual(t, base.Digest(), Key{Text: "goodbye", Voice: "Joanna", Format: "mp3"}.Digest())
}
