// Package database centralises the sqlx connection pool.  The driver is
// lib/pq; DATABASE_URL may carry a "+driver" suffix on its scheme (as in
// postgresql+psycopg2://), which is stripped before the DSN reaches pq.
//
// Public entry points:
//
//	OptionsFrom(cfg)      – pool sizing from the resolved configuration.
//	Open(ctx, opts)       – open, size, and Ping the pool.
//	ServerVersion(ctx, db) – startup sanity check.
//
// Open pings the database before returning so callers can fail fast during
// bootstrap.  Callers should Close() the returned *sqlx.DB on shutdown.
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/yanizio/research-gateway/internal/config"
)

// DriverName is the database/sql driver registered by lib/pq.
const DriverName = "postgres"

// Options sizes the pool.
type Options struct {
	DSN         string
	MaxOpen     int           // DB_POOL_SIZE + DB_MAX_OVERFLOW
	MaxIdle     int           // DB_POOL_SIZE
	PingTimeout time.Duration // DB_POOL_TIMEOUT
	MaxLifetime time.Duration
}

// OptionsFrom maps the Database section onto pool Options.
func OptionsFrom(cfg *config.Config) Options {
	db := cfg.Database
	return Options{
		DSN:         cfg.DatabaseURL(config.Sync),
		MaxOpen:     db.PoolSize + db.MaxOverflow,
		MaxIdle:     db.PoolSize,
		PingTimeout: time.Duration(db.PoolTimeout) * time.Second,
		MaxLifetime: 30 * time.Minute,
	}
}

// Open returns a pinged *sqlx.DB sized by opts.
func Open(ctx context.Context, opts Options) (*sqlx.DB, error) {
	db, err := sqlx.Open(DriverName, DriverDSN(opts.DSN))
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}
	return prepare(ctx, db, opts)
}

// prepare applies pool limits and pings within opts.PingTimeout.  The pool
// is closed when the ping fails.
func prepare(ctx context.Context, db *sqlx.DB, opts Options) (*sqlx.DB, error) {
	db.SetMaxOpenConns(opts.MaxOpen)
	db.SetMaxIdleConns(opts.MaxIdle)
	db.SetConnMaxLifetime(opts.MaxLifetime)

	if opts.PingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.PingTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}
	return db, nil
}

// ServerVersion returns the server's version string.
func ServerVersion(ctx context.Context, db *sqlx.DB) (string, error) {
	var v string
	if err := db.GetContext(ctx, &v, `SHOW server_version`); err != nil {
		return "", fmt.Errorf("database: server version: %w", err)
	}
	return v, nil
}

// DriverDSN drops a "+driver" suffix from the URL scheme so lib/pq accepts
// it.  Everything after "://" is kept as is.
func DriverDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	base, _, _ := strings.Cut(scheme, "+")
	return base + "://" + rest
}
