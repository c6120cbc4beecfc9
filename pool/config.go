// Package pool implements the generic, driver-agnostic connection pool
// described in spec.md §3/§4.1: a five-mutex-disciplined borrow/return
// engine parameterized over a backend's physical connection type, plus a
// background maintenance worker that prunes expired idle connections and
// replenishes up to min-idle.
package pool

import (
	"time"

	"github.com/dbcx/dbcx"
	"github.com/dbcx/dbcx/metrics"
)

// Config mirrors spec.md §3's PoolConfig. It is immutable once passed to
// New — callers that want to change settings build a new Config and a new
// Pool, the same way dbbouncer's TenantConfig/PoolDefaults pair is loaded
// once per process (internal/config/config.go), minus the YAML/file-watch
// machinery a library has no use for.
type Config struct {
	URL      string
	User     string
	Password string
	Options  map[string]string

	InitialSize int
	MaxSize     int
	MinIdle     int

	MaxWait           time.Duration
	ValidationTimeout time.Duration
	IdleTimeout       time.Duration
	MaxLifetime       time.Duration

	TestOnBorrow bool
	TestOnReturn bool

	// ValidationCommand is informational only at this layer — the actual
	// probe is the backend's Physical.Ping; this field lets backend
	// packages report which command Ping issues (spec.md §4.4/§6: "PING"
	// for KV, "SELECT 1" for relational, a no-op ping for document).
	ValidationCommand string

	IsolationLevel dbcx.IsolationLevel

	// Metrics, when non-nil, receives pool stats/exhaustion/validation/
	// borrow-wait observations (spec.md §3's DOMAIN STACK metrics row).
	// Backend labels the emitted series ("redis", "mysql", "postgresql",
	// "mongodb"); nil Metrics makes every recording call a no-op, the same
	// convention health.Checker uses for its own optional Collector.
	Metrics *metrics.Collector
	Backend string
}

// Validate enforces spec.md §3's invariants: "0 ≤ min_idle ≤ initial_size ≤
// max_size; all timings ≥ 0; max_wait = 0 means block indefinitely."
// Grounded on internal/config/config.go's validate(), generalized from a
// whole-file YAML validation pass to one pool's settings.
func (c Config) Validate() error {
	if c.MinIdle < 0 {
		return dbcx.NewError(dbcx.CodeInvalidState, "min_idle must be >= 0")
	}
	if c.InitialSize < c.MinIdle {
		return dbcx.NewError(dbcx.CodeInvalidState, "initial_size must be >= min_idle")
	}
	if c.MaxSize < c.InitialSize {
		return dbcx.NewError(dbcx.CodeInvalidState, "max_size must be >= initial_size")
	}
	if c.MaxWait < 0 {
		return dbcx.NewError(dbcx.CodeInvalidState, "max_wait must be >= 0")
	}
	if c.ValidationTimeout < 0 || c.IdleTimeout < 0 || c.MaxLifetime < 0 {
		return dbcx.NewError(dbcx.CodeInvalidState, "timings must be >= 0")
	}
	return nil
}

// WithDefaults fills a zero MaxSize and zero-valued ValidationTimeout/
// IdleTimeout/MaxLifetime with sane defaults (MaxWait is left alone), the
// same role internal/config/config.go's applyDefaults() plays for YAML
// config — here applied to one Config value instead of a whole file.
func (c Config) WithDefaults() Config {
	if c.MaxSize == 0 {
		c.MaxSize = 10
	}
	if c.ValidationTimeout == 0 {
		c.ValidationTimeout = 1 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 5 * time.Minute
	}
	if c.MaxLifetime == 0 {
		c.MaxLifetime = 30 * time.Minute
	}
	return c
}
