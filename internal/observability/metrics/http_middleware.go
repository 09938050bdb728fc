package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPMetricsMiddleware instruments requests with Prometheus metrics.
// Paths are normalized to their route pattern before labeling so that
// tenant, user and role names do not blow up the path label cardinality.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)
		dur := time.Since(start)
		ObserveHTTPRequest(r.Method, normalizeRoute(r.URL.Path), strconv.Itoa(ww.status), dur)
	})
}

// normalizeRoute collapses path parameters back into their route
// placeholders. Unknown paths share a single bucket.
func normalizeRoute(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")

	switch segments[0] {
	case "tokens", "healthz", "readyz", "metrics":
		if len(segments) == 1 {
			return "/" + segments[0]
		}
	case "users":
		if len(segments) == 1 {
			return "/users"
		}
		if len(segments) == 2 && segments[1] == "me" {
			return "/users/me"
		}
	case "roles":
		if len(segments) == 1 {
			return "/roles"
		}
	case "tenants":
		switch len(segments) {
		case 1:
			return "/tenants"
		case 2:
			return "/tenants/{name}"
		case 3:
			if segments[2] == "users" || segments[2] == "roles" {
				return "/tenants/{tenant}/" + segments[2]
			}
		case 4:
			if segments[2] == "users" {
				return "/tenants/{tenant}/users/{username}"
			}
			if segments[2] == "roles" {
				return "/tenants/{tenant}/roles/{name}"
			}
		}
	}
	return "/other"
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
