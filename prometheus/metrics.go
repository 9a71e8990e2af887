package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // invalid_credentials, invalid_2fa_code, missing_token ...
	)

	AuthOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_auth_operations_total",
			Help: "Total number of account operations",
		},
		[]string{"operation"}, // login, register, verify_2fa, password_reset ...
	)

	ReservationOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_reservation_operations_total",
			Help: "Total number of reservation operations",
		},
		[]string{"operation"},
	)

	ReviewOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_review_operations_total",
			Help: "Total number of review operations",
		},
		[]string{"operation"},
	)

	RestaurantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_profile_operations_total",
			Help: "Total number of restaurant profile and gallery operations",
		},
		[]string{"operation"},
	)

	EmailCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_emails_total",
			Help: "Outbound emails by template and outcome",
		},
		[]string{"template", "outcome"},
	)

	EventPublishCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_events_published_total",
			Help: "Notification events by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	CacheCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_cache_requests_total",
			Help: "Cache lookups by result",
		},
		[]string{"result"},
	)

	UploadCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_uploads_total",
			Help: "Image uploads by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	RateLimitedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	TokensSweptCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "restaurant_expired_tokens_swept_total",
			Help: "Users whose expired verification, 2FA or reset tokens were cleared",
		},
	)
)

// Histogram metrics
var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "restaurant_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "restaurant_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Gauge metrics
var (
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "restaurant_info",
			Help: "Information about the restaurant API",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(AuthOperationCounter)
	prometheus.MustRegister(ReservationOperationCounter)
	prometheus.MustRegister(ReviewOperationCounter)
	prometheus.MustRegister(RestaurantOperationCounter)
	prometheus.MustRegister(EmailCounter)
	prometheus.MustRegister(EventPublishCounter)
	prometheus.MustRegister(CacheCounter)
	prometheus.MustRegister(UploadCounter)
	prometheus.MustRegister(RateLimitedCounter)
	prometheus.MustRegister(TokensSweptCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(InfoGauge)

	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation is used as `defer TrackDBOperation("query")(time.Now())`
func TrackDBOperation(operation string) func(time.Time) {
	return func(start time.Time) {
		DBOperationDuration.With(prometheus.Labels{"operation": operation}).Observe(time.Since(start).Seconds())
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordAuthOperation records an account operation by type
func RecordAuthOperation(operation string) {
	AuthOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

func RecordReservationOperation(operation string) {
	ReservationOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

func RecordReviewOperation(operation string) {
	ReviewOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

func RecordRestaurantOperation(operation string) {
	RestaurantOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordEmail counts a send attempt; err decides the outcome label
func RecordEmail(template string, err error) {
	EmailCounter.With(prometheus.Labels{"template": template, "outcome": outcome(err)}).Inc()
}

// RecordEventPublish counts a publish attempt; err decides the outcome label
func RecordEventPublish(eventType string, err error) {
	EventPublishCounter.With(prometheus.Labels{"type": eventType, "outcome": outcome(err)}).Inc()
}

// RecordCacheLookup counts a cache hit or miss
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheCounter.With(prometheus.Labels{"result": result}).Inc()
}

func RecordUpload(kind string, err error) {
	UploadCounter.With(prometheus.Labels{"kind": kind, "outcome": outcome(err)}).Inc()
}

func RecordRateLimited(endpoint string) {
	RateLimitedCounter.With(prometheus.Labels{"endpoint": endpoint}).Inc()
}

func AddTokensSwept(n int64) {
	if n > 0 {
		TokensSweptCounter.Add(float64(n))
	}
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
