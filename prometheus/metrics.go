package prometheus

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crm-service/pkg/config"
)

// Counter metrics
var (
	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Entity operation counter by entity type and operation
	EntityOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_entity_operations_total",
			Help: "Total number of entity operations by entity type and operation",
		},
		[]string{"entity", "operation"}, // operation: list, get, create, update, delete
	)

	// Requests that reached tenant-scoped routes without a tenant context
	TenantContextMissingCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_tenant_context_missing_total",
			Help: "Total number of requests to tenant-scoped paths without a resolved tenant",
		},
	)

	// Tenant header values that failed to parse
	TenantHeaderInvalidCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_tenant_header_invalid_total",
			Help: "Total number of unparsable tenant identity headers",
		},
		[]string{"header"},
	)

	// Optimistic-concurrency conflicts by entity type
	ConflictCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_concurrency_conflicts_total",
			Help: "Total number of optimistic-concurrency conflicts by entity type",
		},
		[]string{"entity"},
	)

	// Authentication error counter
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type: missing_token, invalid_auth_format, invalid_token
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)
)

// InitMetrics registers all metrics with the default registry
func InitMetrics(cfg *config.Config) {
	prometheus.MustRegister(
		HTTPRequestCounter,
		EntityOperationCounter,
		TenantContextMissingCounter,
		TenantHeaderInvalidCounter,
		ConflictCounter,
		AuthErrorCounter,
		RequestDuration,
	)
}

// MetricsMiddleware records request counts and durations for every route
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			endpoint := c.Path()
			method := c.Request().Method
			statusStr := strconv.Itoa(status)

			HTTPRequestCounter.WithLabelValues(endpoint, method, statusStr).Inc()
			RequestDuration.WithLabelValues(endpoint, method, statusStr).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// RecordEntityOperation counts one CRUD operation against an entity type
func RecordEntityOperation(entity, operation string) {
	EntityOperationCounter.WithLabelValues(entity, operation).Inc()
}

// RecordConflict counts one optimistic-concurrency conflict
func RecordConflict(entity string) {
	ConflictCounter.WithLabelValues(entity).Inc()
}

// RecordAuthError counts one authentication failure
func RecordAuthError(errType string) {
	AuthErrorCounter.WithLabelValues(errType).Inc()
}

// Handler exposes the metrics endpoint
func Handler() echo.HandlerFunc {
	h := promhttp.Handler()
	return func(c echo.Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}
