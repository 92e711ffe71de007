// Package timeouts holds the per-operation deadlines handlers apply with
// context.WithTimeout.
//
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list queries and multi-step operations (approve, set-password)
//   - Batch: seeding, sheet sync and bulk vendor creation
//
// Values are set once at startup with Configure; until then defaults apply.
package timeouts

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Default timeout values.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 15 * time.Second
	DefaultBatch  = 60 * time.Second
)

// Config holds timeout values. Zero fields keep the current value.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Batch  time.Duration
}

var defaults = Config{
	Ping:   DefaultPing,
	Short:  DefaultShort,
	Medium: DefaultMedium,
	Batch:  DefaultBatch,
}

var current atomic.Pointer[Config]

func init() { Reset() }

// Ping returns the health check timeout.
func Ping() time.Duration { return current.Load().Ping }

// Short returns the timeout for single-document operations.
func Short() time.Duration { return current.Load().Short }

// Medium returns the timeout for lists and multi-step operations.
func Medium() time.Duration { return current.Load().Medium }

// Batch returns the timeout for bulk operations.
func Batch() time.Duration { return current.Load().Batch }

// Configure overrides the non-zero values in cfg.
func Configure(cfg Config) {
	next := *current.Load()
	if cfg.Ping > 0 {
		next.Ping = cfg.Ping
	}
	if cfg.Short > 0 {
		next.Short = cfg.Short
	}
	if cfg.Medium > 0 {
		next.Medium = cfg.Medium
	}
	if cfg.Batch > 0 {
		next.Batch = cfg.Batch
	}
	current.Store(&next)
}

// Reset restores the defaults.
func Reset() {
	d := defaults
	current.Store(&d)
}

// Current returns the active configuration.
func Current() Config { return *current.Load() }

// WithTimeout is context.WithTimeout whose cancel func logs a warning when
// the deadline was the reason the operation ended.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "seed resources")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
