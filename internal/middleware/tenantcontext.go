package middleware

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"crm-service/internal/tenant"
	"crm-service/pkg/logger"
	"crm-service/prometheus"
)

// Paths reachable without tenant context. Everything else is expected to
// carry X-Parent-Id.
var publicPaths = []string{
	"/health",
	"/metrics",
}

// TenantContextMiddleware resolves the tenant identity for the request from
// the X-Parent-Id and X-Store-Id headers and attaches it to the request
// context, where the data-access gateway picks it up for every query.
//
// An absent or unparsable header leaves the value unset rather than failing
// the request: downstream access then runs without tenant scoping, which
// makes every tenant visible. That fallback is intentional for now — it is
// logged and counted so it can be tightened to "no tenant, nothing visible"
// once all callers send the header.
func TenantContextMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)
		tc := &tenant.Context{}

		if raw := c.Request().Header.Get(tenant.HeaderParentID); raw != "" {
			if parentID, err := uuid.Parse(raw); err == nil {
				tc.ParentID = &parentID
				log.Debug("Tenant context set", zap.String("parent_id", parentID.String()))
			} else {
				log.Warn("Invalid X-Parent-Id header value", zap.String("value", raw))
				prometheus.TenantHeaderInvalidCounter.WithLabelValues(tenant.HeaderParentID).Inc()
			}
		}

		if raw := c.Request().Header.Get(tenant.HeaderStoreID); raw != "" {
			if storeID, err := uuid.Parse(raw); err == nil {
				tc.StoreID = &storeID
				log.Debug("Store context set", zap.String("store_id", storeID.String()))
			} else {
				log.Warn("Invalid X-Store-Id header value", zap.String("value", raw))
				prometheus.TenantHeaderInvalidCounter.WithLabelValues(tenant.HeaderStoreID).Inc()
			}
		}

		if !tc.HasParent() && !isPublicPath(c.Request().URL.Path) {
			log.Warn("No tenant context provided; request will see all tenants",
				zap.String("path", c.Request().URL.Path))
			prometheus.TenantContextMissingCounter.Inc()
		}

		ctx := tenant.NewContext(c.Request().Context(), tc)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
