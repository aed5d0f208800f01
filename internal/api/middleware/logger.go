package middleware

import (
	"net/http"
	"time"

	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
)

// logWriter captures the status code and extra fields of a request
type logWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
	fields     map[string]interface{}
}

func (lw *logWriter) WriteHeader(code int) {
	lw.statusCode = code
	lw.ResponseWriter.WriteHeader(code)
}

func (lw *logWriter) Write(b []byte) (int, error) {
	n, err := lw.ResponseWriter.Write(b)
	lw.written += int64(n)
	return n, err
}

// AddLogField attaches a field to the access log line of the current request
func AddLogField(w http.ResponseWriter, key string, value interface{}) {
	for w != nil {
		if lw, ok := w.(*logWriter); ok {
			lw.fields[key] = value
			return
		}
		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return
		}
		w = u.Unwrap()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController
func (lw *logWriter) Unwrap() http.ResponseWriter {
	return lw.ResponseWriter
}

// Logger writes one access log line per request. Server errors are logged at error level.
func Logger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lw := &logWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				fields:         make(map[string]interface{}),
			}

			next.ServeHTTP(lw, r)

			fields := map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     lw.statusCode,
				"duration":   time.Since(start).Milliseconds(),
				"bytes":      lw.written,
				"ip":         clientIP(r),
				"request_id": GetRequestID(r),
			}
			if r.URL.RawQuery != "" {
				fields["query"] = r.URL.RawQuery
			}
			for k, v := range lw.fields {
				fields[k] = v
			}

			entry := log.WithFields(fields)
			if lw.statusCode >= http.StatusInternalServerError {
				entry.Error("HTTP request")
				return
			}
			entry.Info("HTTP request")
		})
	}
}
