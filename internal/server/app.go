// internal/server/app.go
//
// Gateway lifecycle.
//
// Context
// -------
// `Startup()` brings up every backing service the configuration names and
// fails fast on the first one that is unreachable:
//
//  1. PostgreSQL pool (DATABASE_URL), with the server version logged.
//  2. Redis client (REDIS_URL).
//  3. S3 client (USE_S3), created lazily and probed by /health only.
//  4. GeoIP database (GEOIP_DB_PATH), optional; a bad path is logged.
//
// `Serve()` runs the HTTP server until ctx ends, then drains in-flight
// requests within ShutdownTimeout.  `Shutdown()` closes whatever Startup
// opened, in reverse order, and reports every close error.

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/research-gateway/internal/auth"
	"github.com/yanizio/research-gateway/internal/cache"
	"github.com/yanizio/research-gateway/internal/config"
	"github.com/yanizio/research-gateway/internal/database"
	"github.com/yanizio/research-gateway/internal/metrics"
	"github.com/yanizio/research-gateway/internal/requestinfo"
	"github.com/yanizio/research-gateway/internal/storage"
)

// App owns the gateway's backing services.
type App struct {
	cfg *config.Config
	log *zap.SugaredLogger

	db    *sqlx.DB
	rdb   *redis.Client
	store *storage.Client
	geo   bool
}

// NewApp returns an App for cfg.  Nothing is opened until Startup.
func NewApp(cfg *config.Config, log *zap.SugaredLogger) *App {
	if log == nil {
		log = zap.S()
	}
	return &App{cfg: cfg, log: log}
}

// Startup opens the backing services.  On error everything opened so far is
// closed again.
func (a *App) Startup(ctx context.Context) (err error) {
	a.log.Infow("Starting "+a.cfg.Project.Name, "version", a.cfg.Project.Version, "environment", a.cfg.Runtime.Environment)
	metrics.SetBuildInfo(a.cfg.Project.Version, a.cfg.Runtime.Environment)

	defer func() {
		if err != nil {
			err = multierr.Append(err, a.Shutdown(context.Background()))
		}
	}()

	if a.db, err = database.Open(ctx, database.OptionsFrom(a.cfg)); err != nil {
		return err
	}
	version, err := database.ServerVersion(ctx, a.db)
	if err != nil {
		return err
	}
	a.log.Infow("database online", "server_version", version)

	if a.rdb, err = cache.Open(ctx, a.cfg.Redis); err != nil {
		return err
	}

	if a.cfg.Storage.UseS3 {
		if a.store, err = storage.New(ctx, a.cfg.Storage); err != nil {
			return err
		}
		a.log.Infow("object storage configured", "bucket", a.store.Bucket())
	}

	if path, ok := a.cfg.Monitoring.GeoIPDBPath.Get(); ok && path != "" {
		if gerr := requestinfo.InitGeo(path); gerr != nil {
			a.log.Warnw("geoip disabled", "err", gerr)
		} else {
			a.geo = true
		}
	}

	a.log.Infow("Services initialized successfully")
	return nil
}

// Checks returns the health probes for the services Startup opened.
func (a *App) Checks() map[string]CheckFunc {
	checks := make(map[string]CheckFunc)
	if a.db != nil {
		checks["database"] = a.db.PingContext
	}
	if a.rdb != nil {
		rdb := a.rdb
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	if a.store != nil {
		checks["storage"] = a.store.Ping
	}
	return checks
}

// Handler builds the root router for this App.
func (a *App) Handler(verifier auth.Verifier, api http.Handler) (http.Handler, error) {
	return NewRouter(Deps{
		Config:   a.cfg,
		Log:      a.log,
		Verifier: verifier,
		API:      api,
		Checks:   a.Checks(),
	})
}

// Serve runs h on ln until ctx ends, then shuts the server down gracefully.
func (a *App) Serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := New(ln.Addr().String(), h)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Infow("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// ListenAndServe listens on HTTP_HOST:HTTP_PORT and calls Serve.
func (a *App) ListenAndServe(ctx context.Context, h http.Handler) error {
	ln, err := net.Listen("tcp", a.cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.ListenAddr(), err)
	}
	return a.Serve(ctx, ln, h)
}

// Shutdown closes the backing services.
func (a *App) Shutdown(context.Context) error {
	a.log.Infow("Shutting down " + a.cfg.Project.Name)

	var err error
	if a.geo {
		requestinfo.CloseGeo()
		a.geo = false
	}
	if a.rdb != nil {
		err = multierr.Append(err, a.rdb.Close())
		a.rdb = nil
	}
	if a.db != nil {
		err = multierr.Append(err, a.db.Close())
		a.db = nil
	}
	a.store = nil
	return err
}
