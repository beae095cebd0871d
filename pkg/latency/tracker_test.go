package latency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTurnMarkRecordsElapsedDuration(t *testing.T) {
	turn := NewTurn("call-1", "S2")
	time.Sleep(2 * time.Millisecond)
	turn.Mark(MarkPromptBuilt)

	assert.Greater(t, turn.Elapsed(MarkPromptBuilt), time.Duration(0))
	assert.Equal(t, time.Duration(0), turn.Elapsed(MarkTTSDone), "unmarked names read as zero")
}

func TestTurnFinishSetsTotalMark(t *testing.T) {
	turn := NewTurn("call-1", "S2")
	turn.Finish()
	assert.Greater(t, turn.Elapsed(MarkTotal), time.Duration(-1))
}

func TestTrackerSummaryEmptyIsZeroValue(t *testing.T) {
	tr := New()
	assert.Equal(t, Summary{}, tr.Summary())
}

func TestTrackerSummaryComputesPercentiles(t *testing.T) {
	tr := New()
	for i := 1; i <= 100; i++ {
		tr.Record(time.Duration(i) * time.Millisecond)
	}
	summary := tr.Summary()
	assert.Equal(t, 100, summary.Count)
	assert.Equal(t, 50*time.Millisecond, summary.P50)
	assert.Equal(t, 95*time.Millisecond, summary.P95)
	assert.Equal(t, 99*time.Millisecond, summary.P99)
}

func TestTrackerSummaryWindowCapsAt500Samples(t *testing.T) {
	tr := New()
	for i := 0; i < 600; i++ {
		tr.Record(time.Duration(i) * time.Millisecond)
	}
	summary := tr.Summary()
	assert.Equal(t, 500, summary.Count)
}

func TestInsertionSortOrdersAscending(t *testing.T) {
	d := []time.Duration{5, 3, 4, 1, 2}
	insertionSort(d)
	assert.Equal(t, []time.Duration{1, 2, 3, 4, 5}, d)
}
