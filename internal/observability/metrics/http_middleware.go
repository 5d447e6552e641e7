package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPMetricsMiddleware instruments requests with Prometheus metrics. Path
// segments that look like generated ids are collapsed to ":id" so the route
// label stays low-cardinality.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)
		ObserveHTTPRequest(r.Method, normalizePath(r.URL.Path), strconv.Itoa(ww.status), time.Since(start))
	})
}

// normalizePath replaces id-shaped segments (prefix_epoch_suffix) with ":id".
func normalizePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if strings.Count(seg, "_") >= 2 {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
