// Package broadcast implements the live-call fan-out bus of spec.md
// §6.5: operators watching the dashboard subscribe to a call's
// transcript/state events over a websocket. Grounded on the teacher's
// AudioStreamBridge channel plumbing in
// pkg/telephony/audio-stream-bridge.go — the same bounded-channel,
// non-blocking-send, ping-keepalive shape, repurposed from raw audio
// frames to structured JSON events and fan-out-to-many instead of
// bridge-to-one.
package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/obslog"
)

// subscriberQueueSize bounds each subscriber's pending-event buffer;
// a slow dashboard client drops events rather than back-pressuring the
// call (spec.md §6.5: "a slow subscriber must never delay the call").
const subscriberQueueSize = 32

// pingInterval matches the teacher's keepalive cadence on the
// telephony websocket bridge.
const pingInterval = 20 * time.Second

// Event is one fan-out message: a turn transition, a transcript line,
// or a quality/latency sample.
type Event struct {
	CallID string      `json:"call_id"`
	Kind   string      `json:"kind"`
	At     time.Time   `json:"at"`
	Data   interface{} `json:"data"`
}

// Bus fans Events for a single call out to N websocket subscribers.
type Bus struct {
	mu          sync.RWMutex
	callID      string
	subscribers map[int64]chan Event
	nextID      int64
}

// New constructs a Bus scoped to one call.
func New(callID string) *Bus {
	return &Bus{callID: callID, subscribers: map[int64]chan Event{}}
}

// Publish fans an event out to every current subscriber. A subscriber
// whose queue is full has the event dropped for it (non-blocking send,
// mirroring the teacher's routeAIToPhone select/default pattern) and
// the drop is logged, never blocking the caller.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			obslog.Warn("broadcast").Str("call_id", b.callID).Int64("subscriber", id).Msg("event dropped, queue full")
		}
	}
}

// subscribe registers a new subscriber channel and returns its id and
// the channel; unsubscribe(id) unregisters it.
func (b *Bus) subscribe() (int64, chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberQueueSize)
	b.subscribers[id] = ch
	return id, ch
}

func (b *Bus) unsubscribe(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Serve upgrades conn into a subscriber for the lifetime of ctx,
// writing Events as they arrive and pinging every pingInterval to
// detect dead peers, matching the teacher's websocket keepalive loop.
func (b *Bus) Serve(ctx context.Context, conn *websocket.Conn) {
	id, ch := b.subscribe()
	defer b.unsubscribe(id)
	defer conn.Close()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				obslog.Err("broadcast", err).Msg("marshal event")
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				obslog.Warn("broadcast").Err(err).Str("call_id", b.callID).Msg("write failed, closing subscriber")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SubscriberCount reports current fan-out width for metrics.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Registry keys Buses by call ID so webhook handlers can publish from
// one goroutine while the dashboard handler subscribes from another.
type Registry struct {
	mu   sync.Mutex
	byID map[string]*Bus
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: map[string]*Bus{}}
}

// Get returns the Bus for callID, creating it if absent.
func (r *Registry) Get(callID string) *Bus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.byID[callID]; ok {
		return b
	}
	b := New(callID)
	r.byID[callID] = b
	return b
}

// Drop removes a call's Bus once the call ends.
func (r *Registry) Drop(callID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, callID)
}
