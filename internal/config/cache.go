// internal/config/cache.go
//
// Process-wide configuration.
//
// Context
// -------
// `Get()` resolves on first call and hands the same *Config (or the same
// error) to every later caller.  A sync.Once guards resolution, so
// concurrent first callers block until the single run finishes and none of
// them can observe a half-built record.  The environment is never re-read:
// there is no Reload.  Fixing a bad configuration means restarting the
// process.
//
// `Configure()` picks the sources (env file, YAML file, secret resolver) for
// the process-wide cache and must run before the first Get.  Tests and tools
// that need their own record use Resolve or NewCache directly and leave the
// process-wide cache alone.

package config

import (
	"sync"
	"sync/atomic"
)

// Cache resolves a Config at most once.
type Cache struct {
	resolve func() (*Config, error)
	started atomic.Bool
	once    sync.Once
	cfg     *Config
	err     error
}

// NewCache returns a Cache that resolves with opts on first Get.
func NewCache(opts ...Option) *Cache {
	return &Cache{resolve: func() (*Config, error) { return Resolve(opts...) }}
}

// Get returns the cached record, resolving it on the first call.
func (c *Cache) Get() (*Config, error) {
	c.started.Store(true)
	c.once.Do(func() { c.cfg, c.err = c.resolve() })
	return c.cfg, c.err
}

// Started reports whether Get has been called.
func (c *Cache) Started() bool { return c.started.Load() }

/*──────────────────────────── process-wide ─────────────────────────────────*/

var (
	stdMu sync.Mutex
	std   = NewCache()
)

// Configure sets the sources used by Get.  It fails with ErrAlreadyResolved
// once Get has been called.
func Configure(opts ...Option) error {
	stdMu.Lock()
	defer stdMu.Unlock()
	if std.Started() {
		return ErrAlreadyResolved
	}
	std = NewCache(opts...)
	return nil
}

// Get returns the process-wide configuration.
func Get() (*Config, error) {
	stdMu.Lock()
	c := std
	c.started.Store(true)
	stdMu.Unlock()
	return c.Get()
}

// MustGet is Get for callers that cannot continue without configuration.
func MustGet() *Config {
	cfg, err := Get()
	if err != nil {
		panic(err)
	}
	return cfg
}
