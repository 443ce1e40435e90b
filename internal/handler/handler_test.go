package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"crm-service/internal/model"
	"crm-service/internal/tenant"
	"crm-service/pkg/database"
)

// setupTestDB opens an in-memory database, runs the gateway setup and swaps
// it in as the handler-visible connection for the duration of the test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Setup(db))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testTenantCtx(parentID uuid.UUID) context.Context {
	ctx := tenant.NewContext(context.Background(), &tenant.Context{ParentID: &parentID})
	return tenant.WithActor(ctx, "tester@example.com")
}

// newTestContext builds an echo context the way the middleware chain would:
// JSON body, tenant identity on the request context, request-scoped logger.
// params are alternating route parameter names and values.
func newTestContext(t *testing.T, method, target string, body any, parentID uuid.UUID, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req = req.WithContext(testTenantCtx(parentID))

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set("logger", zap.NewNop())

	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	if len(names) > 0 {
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return c, rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func seedCustomer(t *testing.T, db *gorm.DB, parentID uuid.UUID, first, last, email string) *model.Customer {
	t.Helper()
	c := &model.Customer{
		FirstName:      first,
		LastName:       last,
		Email:          email,
		LifecycleStage: model.LifecycleNew,
		IsActive:       true,
	}
	require.NoError(t, database.Create(db.WithContext(testTenantCtx(parentID)), c))
	return c
}

func seedStore(t *testing.T, db *gorm.DB, parentID uuid.UUID, name string) *model.Store {
	t.Helper()
	s := &model.Store{Name: name, IsActive: true}
	require.NoError(t, database.Create(db.WithContext(testTenantCtx(parentID)), s))
	return s
}

func seedSegment(t *testing.T, db *gorm.DB, parentID uuid.UUID, name string) *model.Segment {
	t.Helper()
	s := &model.Segment{Name: name, Type: model.SegmentStatic, IsActive: true}
	require.NoError(t, database.Create(db.WithContext(testTenantCtx(parentID)), s))
	return s
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "unexpected status, body: %s", rec.Body.String())
}
