// Package middleware holds adapters and in house middlewares
package middleware

import (
	"net/http"
	"time"

	"cinedex/internal/platform/logger"
)

// AccessLogOptions configures the zerolog access log
type AccessLogOptions struct {
	// Slow marks requests taking >= Slow as warn level, 0 disables slow marking
	Slow time.Duration
}

// statusWriter wraps the original ResponseWriter and records status and bytes
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	n, err := sw.ResponseWriter.Write(b)
	if n > 0 {
		sw.bytes += n
	}
	return n, err
}

// AccessLogZerolog logs one line per request: method, path, query string,
// status, elapsed, and bytes written. Uses the request scoped logger so
// request_id rides along on every line
func AccessLogZerolog(opt AccessLogOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(sw, r)

			elapsed := time.Since(start)
			log := logger.C(r.Context())
			evt := log.Info()
			if opt.Slow > 0 && elapsed >= opt.Slow {
				evt = log.Warn()
			}
			if q := r.URL.RawQuery; q != "" {
				evt = evt.Str("query", q)
			}
			evt.Int("status", sw.status).
				Dur("elapsed", elapsed).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("bytes", sw.bytes).
				Msg("request done")
		})
	}
}
