// Package circuitbreaker implements the CLOSED/OPEN/HALF_OPEN pattern
// from spec.md §7 and §9, grounded on utils/circuit_breaker.py.
package circuitbreaker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/obslog"
)

// State is one of CLOSED, OPEN, HALF_OPEN.
type State string

const (
	Closed   State = "closed"
	Open     State = "open"
	HalfOpen State = "half_open"
)

// Config mirrors circuit_breaker.py's CircuitBreakerConfig defaults.
type Config struct {
	Name              string
	FailureThreshold  int
	SuccessThreshold  int
	Timeout           time.Duration
	HalfOpenMaxCalls  int
}

// DefaultConfig matches spec.md §7's defaults (K=5 within 60s cool-down).
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          60 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// ErrOpen is returned when the circuit refuses a call.
type ErrOpen struct {
	Name         string
	RetryAfter   time.Duration
}

func (e *ErrOpen) Error() string {
	return fmt.Sprintf("circuit breaker %q is open, retry in %s", e.Name, e.RetryAfter)
}

// Breaker is a concurrency-safe circuit breaker for one upstream.
type Breaker struct {
	cfg Config

	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	halfOpenCalls   int

	totalCalls, totalFailures, totalSuccesses int
}

// New constructs a Breaker in the CLOSED state.
func New(cfg Config) *Breaker {
	return &Breaker{cfg: cfg, state: Closed}
}

// State returns the current circuit state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Call executes fn under circuit-breaker protection.
func (b *Breaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.beforeCall(); err != nil {
		return err
	}

	err := fn(ctx)

	b.afterCall(err)
	return err
}

func (b *Breaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open {
		if b.shouldAttemptReset() {
			b.transitionToHalfOpen()
		} else {
			return &ErrOpen{Name: b.cfg.Name, RetryAfter: b.timeUntilHalfOpen()}
		}
	}

	if b.state == HalfOpen {
		if b.halfOpenCalls >= b.cfg.HalfOpenMaxCalls {
			return &ErrOpen{Name: b.cfg.Name, RetryAfter: 0}
		}
		b.halfOpenCalls++
	}

	b.totalCalls++
	return nil
}

func (b *Breaker) afterCall(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == HalfOpen {
		b.halfOpenCalls--
	}

	if err == nil {
		b.onSuccess()
	} else {
		b.onFailure(err)
	}
}

func (b *Breaker) onSuccess() {
	b.totalSuccesses++

	switch b.state {
	case HalfOpen:
		b.successCount++
		if b.successCount >= b.cfg.SuccessThreshold {
			b.transitionToClosed()
		}
	case Closed:
		b.failureCount = 0
	}
}

func (b *Breaker) onFailure(err error) {
	b.totalFailures++
	b.failureCount++
	b.lastFailureTime = time.Now()

	obslog.Warn("circuit_breaker").
		Str("name", b.cfg.Name).
		Str("state", string(b.state)).
		Err(err).
		Msg("failure detected")

	switch b.state {
	case HalfOpen:
		b.transitionToOpen()
	case Closed:
		if b.failureCount >= b.cfg.FailureThreshold {
			b.transitionToOpen()
		}
	}
}

func (b *Breaker) shouldAttemptReset() bool {
	if b.lastFailureTime.IsZero() {
		return true
	}
	return time.Since(b.lastFailureTime) >= b.cfg.Timeout
}

func (b *Breaker) timeUntilHalfOpen() time.Duration {
	if b.lastFailureTime.IsZero() {
		return 0
	}
	remaining := b.cfg.Timeout - time.Since(b.lastFailureTime)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (b *Breaker) transitionToOpen() {
	obslog.Event("circuit_breaker").Str("name", b.cfg.Name).Str("to", string(Open)).Msg("opening circuit")
	b.state = Open
}

func (b *Breaker) transitionToHalfOpen() {
	obslog.Event("circuit_breaker").Str("name", b.cfg.Name).Str("to", string(HalfOpen)).Msg("testing recovery")
	b.state = HalfOpen
	b.failureCount = 0
	b.successCount = 0
	b.halfOpenCalls = 0
}

func (b *Breaker) transitionToClosed() {
	obslog.Event("circuit_breaker").Str("name", b.cfg.Name).Str("to", string(Closed)).Msg("service recovered")
	b.state = Closed
	b.failureCount = 0
	b.successCount = 0
}

// Stats is a snapshot of breaker statistics for operator endpoints.
type Stats struct {
	Name            string
	State           State
	FailureCount    int
	TotalCalls      int
	TotalFailures   int
	TotalSuccesses  int
}

// Stats returns a snapshot of current statistics.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Name:           b.cfg.Name,
		State:          b.state,
		FailureCount:   b.failureCount,
		TotalCalls:     b.totalCalls,
		TotalFailures:  b.totalFailures,
		TotalSuccesses: b.totalSuccesses,
	}
}

// Reset manually resets the breaker to CLOSED.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	obslog.Event("circuit_breaker").Str("name", b.cfg.Name).Msg("manual reset")
	b.state = Closed
	b.failureCount = 0
	b.successCount = 0
	b.halfOpenCalls = 0
}

// registry keeps named breakers process-wide, mirroring
// circuit_breaker.py's get_circuit_breaker module global.
var (
	registryMu sync.Mutex
	registry   = map[string]*Breaker{}
)

// Get returns or creates a named breaker.
func Get(name string, cfg Config) *Breaker {
	registryMu.Lock()
	defer registryMu.Unlock()
	if b, ok := registry[name]; ok {
		return b
	}
	b := New(cfg)
	registry[name] = b
	return b
}
