// Package obslog provides the structured event emission plane shared by
// every component: LATENCY, CACHE, QUALITY, CIRCUIT, and general call
// events. It replaces the teacher's bare log.Printf call sites with
// leveled, field-based zerolog events while keeping the same call
// locations and messages.
package obslog

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Init configures the global logger. Safe to call multiple times; only
// the first call takes effect.
func Init(pretty bool, level string) {
	once.Do(func() {
		var out io.Writer = os.Stdout
		if pretty {
			out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		}
		lvl, err := zerolog.ParseLevel(level)
		if err != nil {
			lvl = zerolog.InfoLevel
		}
		logger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	})
}

// L returns the process-wide logger, initializing defaults if Init was
// never called.
func L() *zerolog.Logger {
	once.Do(func() {
		logger = zerolog.New(os.Stdout).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	})
	return &logger
}

// Event is a convenience wrapper matching the teacher's
// "[Component] message" prefix style, rendered as a structured field
// instead of a string prefix.
func Event(component string) *zerolog.Event {
	return L().Info().Str("component", component)
}

// Warn mirrors Event but at warning level.
func Warn(component string) *zerolog.Event {
	return L().Warn().Str("component", component)
}

// Err mirrors Event but at error level.
func Err(component string, err error) *zerolog.Event {
	return L().Error().Str("component", component).Err(err)
}
