package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authgate_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "authgate_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authgate_logins_total",
		Help: "Count of password grant attempts by result",
	}, []string{"result"})

	tokenValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authgate_token_validations_total",
		Help: "Count of bearer token validations by result",
	}, []string{"result"})

	adminAuthTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authgate_admin_auth_total",
		Help: "Count of administrative basic auth checks by result",
	}, []string{"result"})

	loginsRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authgate_logins_rate_limited_total",
		Help: "Count of login attempts rejected by the rate limiter",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveLogin increments the login counter with a result label
// ("success", "invalid_credentials", "error").
func ObserveLogin(result string) {
	loginsTotal.WithLabelValues(result).Inc()
}

// ObserveTokenValidation increments the validation counter with a result
// label ("success", "invalid", "disabled", "error").
func ObserveTokenValidation(result string) {
	tokenValidationsTotal.WithLabelValues(result).Inc()
}

// ObserveAdminAuth increments the admin gate counter ("success", "denied").
func ObserveAdminAuth(result string) {
	adminAuthTotal.WithLabelValues(result).Inc()
}

// ObserveLoginRateLimited counts a login attempt rejected before the
// credential check ran.
func ObserveLoginRateLimited() {
	loginsRateLimited.Inc()
}
