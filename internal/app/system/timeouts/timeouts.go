// Package timeouts holds the deadlines handlers put on upstream API calls.
//
//   - Ping: the health probe
//   - Short: the session restore (who am I)
//   - Medium: list reads, cooperative detail and the dashboard
//   - Long: writes (login, register, create, approve)
//
// Values can be changed once at startup with Configure or ConfigureFromEnv.
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 15 * time.Second
)

// Config holds timeout values. Zero values are ignored.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

var (
	mu      sync.RWMutex
	current = defaults()
)

func defaults() Config {
	return Config{Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium, Long: DefaultLong}
}

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(current)
}

func Ping() time.Duration   { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration  { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration   { return get(func(c Config) time.Duration { return c.Long }) }

// Current returns a copy of the values in force.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Configure overrides the non-zero values in cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	apply(&current.Ping, cfg.Ping)
	apply(&current.Short, cfg.Short)
	apply(&current.Medium, cfg.Medium)
	apply(&current.Long, cfg.Long)
}

func apply(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

// Reset restores the defaults. Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = defaults()
}

// ConfigureFromEnv reads COOPHUB_TIMEOUT_PING, _SHORT, _MEDIUM and _LONG
// (Go duration strings). Unset or invalid values are skipped. It returns
// how many values were applied.
func ConfigureFromEnv() int {
	var cfg Config
	n := 0
	for name, dst := range map[string]*time.Duration{
		"COOPHUB_TIMEOUT_PING":   &cfg.Ping,
		"COOPHUB_TIMEOUT_SHORT":  &cfg.Short,
		"COOPHUB_TIMEOUT_MEDIUM": &cfg.Medium,
		"COOPHUB_TIMEOUT_LONG":   &cfg.Long,
	} {
		if d, err := time.ParseDuration(os.Getenv(name)); err == nil && d > 0 {
			*dst = d
			n++
		}
	}
	Configure(cfg)
	return n
}

// WithTimeout is context.WithTimeout whose cancel logs a warning when the
// deadline was what ended the call.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "approve cooperative")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("upstream call timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
