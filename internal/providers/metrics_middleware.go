package providers

import (
	"net/http"
	"time"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func MetricsMiddleware(metrics MetricsProviderInterface, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		metrics.IncRequestsTotal(endpointLabel(r, sw.status), sw.status)
		metrics.ObserveRequestDuration(endpointLabel(r, sw.status), duration)
	})
}

// endpointLabel prefers the ServeMux pattern so that unknown paths do not
// create new label values.
func endpointLabel(r *http.Request, status int) string {
	switch {
	case r.Pattern != "":
		return r.Pattern
	case status == http.StatusNotFound:
		return "unmatched"
	default:
		return r.URL.Path
	}
}
