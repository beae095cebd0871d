// Package latency implements the per-turn LatencyTracker of spec.md
// §4.11, grounded on utils/latency_tracker.py's mark-based timing
// model but using the canonical mark names spec.md §4.11 specifies
// rather than the source's prompt_start/prompt_end naming.
package latency

import (
	"sync"
	"time"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/obslog"
)

// Mark names are fixed per spec.md §4.11 and must not be renamed —
// dashboards and alerts key off these exact strings.
const (
	MarkPromptBuilt   = "prompt_built"
	MarkLLMFirstToken = "llm_first_token"
	MarkLLMDone       = "llm_done"
	MarkTTSDone       = "tts_done"
	MarkPersistDone   = "persist_done"
	MarkTotal         = "total"
)

var orderedMarks = []string{
	MarkPromptBuilt, MarkLLMFirstToken, MarkLLMDone, MarkTTSDone, MarkPersistDone, MarkTotal,
}

// Turn accumulates marks for a single conversational turn.
type Turn struct {
	mu      sync.Mutex
	start   time.Time
	marks   map[string]time.Duration
	callID  string
	stateID string
}

// NewTurn starts a turn clock at call/state context for later
// correlation in logs.
func NewTurn(callID, stateID string) *Turn {
	return &Turn{start: time.Now(), marks: map[string]time.Duration{}, callID: callID, stateID: stateID}
}

// Mark records elapsed time since turn start under name. Safe to call
// from multiple goroutines (e.g. the TTS child task marking tts_done
// while the parent is still awaiting llm_done).
func (t *Turn) Mark(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.marks[name] = time.Since(t.start)
}

// Elapsed returns the duration recorded at mark, or zero if unmarked.
func (t *Turn) Elapsed(name string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.marks[name]
}

// Finish marks "total" and emits the structured per-turn latency event
// required by spec.md §4.11, logging every mark that was actually set.
func (t *Turn) Finish() {
	t.Mark(MarkTotal)

	t.mu.Lock()
	defer t.mu.Unlock()

	ev := obslog.Event("latency").
		Str("call_id", t.callID).
		Str("state", t.stateID)
	for _, name := range orderedMarks {
		if d, ok := t.marks[name]; ok {
			ev = ev.Dur(name, d)
		}
	}
	ev.Msg("turn timing")
}

// Tracker aggregates completed turns into a rolling p50/p95 summary for
// the operator dashboard (spec.md §6.4).
type Tracker struct {
	mu      sync.Mutex
	samples []time.Duration
}

// New constructs an empty Tracker.
func New() *Tracker {
	return &Tracker{}
}

// Record adds a completed turn's total latency to the rolling window.
func (tr *Tracker) Record(total time.Duration) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.samples = append(tr.samples, total)
	if len(tr.samples) > 500 {
		tr.samples = tr.samples[len(tr.samples)-500:]
	}
}

// Summary is the p50/p95/p99 report.
type Summary struct {
	Count int
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
}

// Summary computes percentiles over the current window.
func (tr *Tracker) Summary() Summary {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	n := len(tr.samples)
	if n == 0 {
		return Summary{}
	}
	sorted := make([]time.Duration, n)
	copy(sorted, tr.samples)
	insertionSort(sorted)

	return Summary{
		Count: n,
		P50:   percentile(sorted, 0.50),
		P95:   percentile(sorted, 0.95),
		P99:   percentile(sorted, 0.99),
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

func insertionSort(d []time.Duration) {
	for i := 1; i < len(d); i++ {
		for j := i; j > 0 && d[j-1] > d[j]; j-- {
			d[j-1], d[j] = d[j], d[j-1]
		}
	}
}
