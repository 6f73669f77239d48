package statusapi

import (
	"net/http"
	"time"

	"kirk/logging"
)

// responseWriter wraps http.ResponseWriter to capture the status code for
// logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs every request at Info level with method, path,
// status code and duration.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Info("status api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status_code", wrapped.statusCode),
			logging.Duration("duration", time.Since(start)),
		)
	})
}
