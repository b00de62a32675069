// Package timeouts holds the deadlines handlers put on their I/O.
//
// Tiers:
//   - Ping: health checks
//   - Short: single-document reads
//   - Medium: lists and single writes
//   - Long: writes touching several collections
//   - Upload: receiving a video file from a client
//   - Publish: pushing a video to YouTube
//
// Values are set once at startup by Configure and read everywhere else.
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds one duration per tier. Zero values keep the current value.
type Config struct {
	Ping    time.Duration
	Short   time.Duration
	Medium  time.Duration
	Long    time.Duration
	Upload  time.Duration
	Publish time.Duration
}

// Defaults is the configuration in effect before Configure is called.
var Defaults = Config{
	Ping:    2 * time.Second,
	Short:   5 * time.Second,
	Medium:  10 * time.Second,
	Long:    30 * time.Second,
	Upload:  15 * time.Minute,
	Publish: 30 * time.Minute,
}

var (
	mu      sync.RWMutex
	current = Defaults
)

func get(f func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return f(current)
}

func Ping() time.Duration    { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration   { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration  { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration    { return get(func(c Config) time.Duration { return c.Long }) }
func Upload() time.Duration  { return get(func(c Config) time.Duration { return c.Upload }) }
func Publish() time.Duration { return get(func(c Config) time.Duration { return c.Publish }) }

// Configure overrides the tiers set in cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&current.Ping, cfg.Ping)
	set(&current.Short, cfg.Short)
	set(&current.Medium, cfg.Medium)
	set(&current.Long, cfg.Long)
	set(&current.Upload, cfg.Upload)
	set(&current.Publish, cfg.Publish)
}

// Reset restores the defaults. Tests use it.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = Defaults
}

// Current returns the configuration in effect.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// WithTimeout is context.WithTimeout whose cancel func logs a warning when
// the deadline was what ended the operation.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Publish(), h.Log, "publish video")
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
