package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"crm-service/internal/tenant"
)

func invokeTenantMiddleware(t *testing.T, setup func(*http.Request)) *tenant.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
	if setup != nil {
		setup(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("logger", zap.NewNop())

	var captured *tenant.Context
	handler := TenantContextMiddleware(func(c echo.Context) error {
		tc, ok := tenant.FromContext(c.Request().Context())
		require.True(t, ok, "tenant context must always be attached")
		captured = tc
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return captured
}

func TestTenantContextFromHeaders(t *testing.T) {
	parentID := uuid.New()
	storeID := uuid.New()

	tc := invokeTenantMiddleware(t, func(req *http.Request) {
		req.Header.Set(tenant.HeaderParentID, parentID.String())
		req.Header.Set(tenant.HeaderStoreID, storeID.String())
	})

	require.True(t, tc.HasParent())
	assert.Equal(t, parentID, *tc.ParentID)
	require.True(t, tc.HasStore())
	assert.Equal(t, storeID, *tc.StoreID)
}

func TestTenantContextParentOnly(t *testing.T) {
	parentID := uuid.New()

	tc := invokeTenantMiddleware(t, func(req *http.Request) {
		req.Header.Set(tenant.HeaderParentID, parentID.String())
	})

	require.True(t, tc.HasParent())
	assert.False(t, tc.HasStore())
}

func TestTenantContextAbsentHeaders(t *testing.T) {
	// Request still proceeds; the gateway then runs unscoped.
	tc := invokeTenantMiddleware(t, nil)
	assert.False(t, tc.HasParent())
	assert.False(t, tc.HasStore())
}

func TestTenantContextUnparsableHeader(t *testing.T) {
	// A malformed header is treated as absent, not as a request failure.
	tc := invokeTenantMiddleware(t, func(req *http.Request) {
		req.Header.Set(tenant.HeaderParentID, "not-a-uuid")
	})
	assert.False(t, tc.HasParent())
}
