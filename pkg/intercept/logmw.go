package intercept

import (
	"net/http"
	"time"

	"vaani-labs/drishti/pkg/logging"
)

// AccessLog logs every completed request at a status-dependent level: 5xx
// at error, 4xx at warn, everything else at info.
func AccessLog(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.statusCode,
				"latency_ms", time.Since(start).Milliseconds(),
				"bytes", rw.bytesWritten,
			}
			switch {
			case rw.statusCode >= 500:
				logger.ErrorContext(r.Context(), "request completed", args...)
			case rw.statusCode >= 400:
				logger.WarnContext(r.Context(), "request completed", args...)
			default:
				logger.InfoContext(r.Context(), "request completed", args...)
			}
		})
	}
}
