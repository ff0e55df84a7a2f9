// internal/server/router.go
//
// Root router.
//
/*
Context
--------
`NewRouter()` assembles the middleware chain and the gateway's own routes.
Outermost first:

  1. RequestID        X-Request-ID in and out.
  2. Enrich           client IP, UA, geo.
  3. AccessLog        one line per request.
  4. Instrument       Prometheus, when ENABLE_METRICS.
  5. Recover          JSON 500, detail hidden in production; logged and
                      counted by the two layers above.
  6. Security         response headers.
  7. CORS             CORS_ORIGINS allow-list with credentials.
  8. Gzip             bodies of 1000 bytes or more.
  9. RateLimit        RATE_LIMIT_DEFAULT per peer address, when enabled;
                      /health and /metrics are exempt.
 10. BodyLimit        MAX_UPLOAD_SIZE_MB.

Auth (bearer or session cookie) wraps the API_V1_STR mount only, so unknown
paths outside it are a JSON 404, not a 401.

Routes
------
  GET /         {message, version, docs}
  GET /health   {status, version, environment, dependencies}
  GET /metrics  Prometheus, when ENABLE_METRICS
  API_V1_STR/*  the API router
*/
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/research-gateway/internal/auth"
	"github.com/yanizio/research-gateway/internal/config"
	"github.com/yanizio/research-gateway/internal/metrics"
	"github.com/yanizio/research-gateway/internal/middleware"
	"github.com/yanizio/research-gateway/internal/requestinfo"
)

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

// healthTimeout bounds each dependency probe.
const healthTimeout = 2 * time.Second

// Deps are the pieces NewRouter wires together.
type Deps struct {
	Config   *config.Config
	Log      *zap.SugaredLogger
	Verifier auth.Verifier        // Keycloak; nil accepts only local tokens
	API      http.Handler         // mounted at API_V1_STR; nil mounts the default API
	Checks   map[string]CheckFunc // health probes by dependency name
}

// NewRouter returns the fully wrapped root handler.
func NewRouter(d Deps) (http.Handler, error) {
	cfg := d.Config
	prod := cfg.Runtime.IsProduction()
	log := d.Log
	if log == nil {
		log = zap.S()
	}

	gzip, err := middleware.Gzip()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestinfo.Enrich)
	r.Use(middleware.AccessLog(log))
	if cfg.Monitoring.EnableMetrics {
		r.Use(metrics.Instrument)
	}
	r.Use(middleware.Recover(prod))
	r.Use(middleware.Security(prod))
	r.Use(middleware.CORS(cfg.CORS.Origins))
	r.Use(gzip)
	if cfg.RateLimit.Enabled {
		rate, err := config.ParseRate(cfg.RateLimit.Default)
		if err != nil {
			return nil, err
		}
		r.Use(middleware.NewRateLimiter(rate).Exempt(HealthPath, MetricsPath).Handler)
	}
	r.Use(middleware.BodyLimit(cfg.Upload.MaxBytes()))

	r.Get("/", rootHandler(cfg))
	r.Get(HealthPath, healthHandler(cfg, d.Checks))
	if cfg.Monitoring.EnableMetrics {
		r.Handle(MetricsPath, metrics.Handler())
	}

	api := d.API
	if api == nil {
		api = defaultAPI()
	}
	r.Mount(cfg.Project.APIV1Str, auth.New(cfg, d.Verifier).Handler(api))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "Method Not Allowed"})
	})

	return r, nil
}

// Gateway paths.  DocsPath is advertised by / outside production.
const (
	DocsPath    = "/docs"
	HealthPath  = "/health"
	MetricsPath = "/metrics"
)

func rootHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		var docs *string
		if !cfg.Runtime.IsProduction() {
			p := DocsPath
			docs = &p
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": cfg.Project.Name,
			"version": cfg.Project.Version,
			"docs":    docs,
		})
	}
}

func healthHandler(cfg *config.Config, checks map[string]CheckFunc) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "healthy", http.StatusOK
		deps := make(map[string]string, len(names))

		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			err := checks[name](ctx)
			cancel()

			metrics.SetDependency(name, err == nil)
			if err != nil {
				zap.S().Warnw("health check failed", "dependency", name, "err", err)
				deps[name] = "unavailable"
				status, code = "unhealthy", http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		writeJSON(w, code, map[string]any{
			"status":       status,
			"version":      cfg.Project.Version,
			"environment":  cfg.Runtime.Environment,
			"dependencies": deps,
		})
	}
}

// defaultAPI serves the authenticated caller at /me.  Product routes are
// mounted by replacing Deps.API.
func defaultAPI() http.Handler {
	r := chi.NewRouter()
	r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.FromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"sub":      p.Subject,
			"email":    p.Email,
			"username": p.Username,
			"source":   p.Source,
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
