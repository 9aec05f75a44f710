package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/video-stream/recap/internal/logger"
)

type wrappedWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *wrappedWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// silentPaths are polling endpoints that are only logged on errors (status >= 400).
var silentPaths = map[string]bool{
	"/api/health": true,
}

// Logger tags every request with an id, stores a request-scoped entry in
// the context and logs the outcome.
func Logger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := logger.RequestID(r)
			w.Header().Set("X-Request-ID", reqID)

			entry := logger.WithRequest(log, r, reqID)
			r = r.WithContext(logger.WithContext(r.Context(), entry))

			wrapped := &wrappedWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			if silentPaths[r.URL.Path] && wrapped.statusCode < 400 {
				return
			}

			done := entry.WithFields(logrus.Fields{
				"status":      wrapped.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			})
			switch {
			case wrapped.statusCode >= 500:
				done.Error("request failed")
			case wrapped.statusCode >= 400:
				done.Warn("request rejected")
			default:
				done.Info("request completed")
			}
		})
	}
}
