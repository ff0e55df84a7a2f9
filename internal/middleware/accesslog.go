// internal/middleware/accesslog.go
//
// One structured log line per request.
//
// Context
// -------
// Runs inside RequestID and requestinfo.Enrich so the line carries the
// request id, client IP, and browser family.  Status and byte counts come
// from chi's WrapResponseWriter, which keeps Flusher and Hijacker intact.
//
// Levels: 5xx → ERROR, 4xx → WARN, everything else → INFO.

package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/research-gateway/internal/requestinfo"
)

// AccessLog logs every request through log.
func AccessLog(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", GetRequestID(r.Context()),
			}
			if info := requestinfo.FromContext(r.Context()); info != nil {
				fields = append(fields, "ip", info.ClientIP, "browser", info.UA.Browser, "bot", info.UA.IsBot)
			}

			switch {
			case status >= 500:
				log.Errorw("request", fields...)
			case status >= 400:
				log.Warnw("request", fields...)
			default:
				log.Infow("request", fields...)
			}
		})
	}
}
