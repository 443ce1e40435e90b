package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"crm-service/internal/tenant"
	"crm-service/pkg/jwtutil"
)

func invokeAuthMiddleware(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("logger", zap.NewNop())

	reached := false
	handler := AuthMiddleware(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, c, reached
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	token, err := jwtutil.GenerateToken("ops@example.com", "ops@example.com", "admin")
	require.NoError(t, err)

	rec, c, reached := invokeAuthMiddleware(t, "Bearer "+token)
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops@example.com", c.Get("email"))
	assert.Equal(t, "admin", c.Get("role"))

	// The JWT subject becomes the audit actor for downstream writes.
	assert.Equal(t, "ops@example.com", tenant.Actor(c.Request().Context()))
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	rec, _, reached := invokeAuthMiddleware(t, "")
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareMalformedHeader(t *testing.T) {
	rec, _, reached := invokeAuthMiddleware(t, "Token abcdef")
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	rec, _, reached := invokeAuthMiddleware(t, "Bearer not.a.jwt")
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
