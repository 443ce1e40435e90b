package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-service/internal/model"
)

func TestCreateCustomerDefaults(t *testing.T) {
	setupTestDB(t)
	parentID := uuid.New()

	c, rec := newTestContext(t, http.MethodPost, "/api/customers", map[string]any{
		"first_name": "Jane",
		"last_name":  "Doe",
		"email":      "jane.doe@example.com",
	}, parentID)
	require.NoError(t, CreateCustomer(c))
	requireStatus(t, rec, http.StatusCreated)

	var got model.Customer
	decodeJSON(t, rec, &got)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, parentID, got.ParentID)
	assert.Equal(t, model.LifecycleNew, got.LifecycleStage)
	assert.True(t, got.EmailOptIn)
	assert.True(t, got.DirectMailOptIn)
	assert.True(t, got.IsActive)
	assert.Equal(t, int64(1), got.RowVersion)
	assert.Equal(t, "tester@example.com", got.CreatedBy)
}

func TestCreateCustomerRequiresEmail(t *testing.T) {
	setupTestDB(t)

	c, rec := newTestContext(t, http.MethodPost, "/api/customers", map[string]any{
		"first_name": "Jane",
		"last_name":  "Doe",
	}, uuid.New())
	require.NoError(t, CreateCustomer(c))
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestGetCustomerForeignTenantIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	tenantA := uuid.New()
	tenantB := uuid.New()
	foreign := seedCustomer(t, db, tenantB, "Jane", "Doe", "jane@example.com")

	c, rec := newTestContext(t, http.MethodGet, "/api/customers/"+foreign.ID.String(), nil, tenantA,
		"id", foreign.ID.String())
	require.NoError(t, GetCustomer(c))
	requireStatus(t, rec, http.StatusNotFound)
}

func TestListCustomersScopedToTenant(t *testing.T) {
	db := setupTestDB(t)
	tenantA := uuid.New()
	tenantB := uuid.New()
	mine := seedCustomer(t, db, tenantA, "Jane", "Doe", "jane.a@example.com")
	seedCustomer(t, db, tenantB, "Jane", "Doe", "jane.b@example.com")

	c, rec := newTestContext(t, http.MethodGet, "/api/customers", nil, tenantA)
	require.NoError(t, ListCustomers(c))
	requireStatus(t, rec, http.StatusOK)

	var envelope struct {
		Value    []model.Customer `json:"value"`
		Count    int64            `json:"count"`
		Page     int              `json:"page"`
		PageSize int              `json:"page_size"`
	}
	decodeJSON(t, rec, &envelope)
	assert.Equal(t, int64(1), envelope.Count)
	require.Len(t, envelope.Value, 1)
	assert.Equal(t, mine.ID, envelope.Value[0].ID)
	assert.Equal(t, 1, envelope.Page)
	assert.Equal(t, 25, envelope.PageSize)
}

func TestListCustomersFilterByLifecycleStage(t *testing.T) {
	db := setupTestDB(t)
	parentID := uuid.New()

	atRisk := seedCustomer(t, db, parentID, "Al", "Risk", "al@example.com")
	atRisk.LifecycleStage = model.LifecycleAtRisk
	require.NoError(t, db.WithContext(testTenantCtx(parentID)).Save(atRisk).Error)
	seedCustomer(t, db, parentID, "Nora", "New", "nora@example.com")

	c, rec := newTestContext(t, http.MethodGet, "/api/customers?lifecycle_stage=AtRisk", nil, parentID)
	require.NoError(t, ListCustomers(c))
	requireStatus(t, rec, http.StatusOK)

	var envelope struct {
		Value []model.Customer `json:"value"`
		Count int64            `json:"count"`
	}
	decodeJSON(t, rec, &envelope)
	assert.Equal(t, int64(1), envelope.Count)
	require.Len(t, envelope.Value, 1)
	assert.Equal(t, atRisk.ID, envelope.Value[0].ID)
}

func TestListCustomersRejectsUnknownExpand(t *testing.T) {
	setupTestDB(t)

	c, rec := newTestContext(t, http.MethodGet, "/api/customers?expand=invoices", nil, uuid.New())
	require.NoError(t, ListCustomers(c))
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestPatchCustomerPartialUpdate(t *testing.T) {
	db := setupTestDB(t)
	parentID := uuid.New()
	customer := seedCustomer(t, db, parentID, "Jane", "Doe", "jane@example.com")

	c, rec := newTestContext(t, http.MethodPatch, "/api/customers/"+customer.ID.String(), map[string]any{
		"phone": "555-0100",
	}, parentID, "id", customer.ID.String())
	require.NoError(t, PatchCustomer(c))
	requireStatus(t, rec, http.StatusOK)

	var got model.Customer
	decodeJSON(t, rec, &got)
	assert.Equal(t, "555-0100", got.Phone)
	assert.Equal(t, "Jane", got.FirstName, "unmentioned fields are untouched")
	assert.Equal(t, int64(2), got.RowVersion)
}

func TestPatchCustomerStaleRowVersionConflicts(t *testing.T) {
	db := setupTestDB(t)
	parentID := uuid.New()
	customer := seedCustomer(t, db, parentID, "Jane", "Doe", "jane@example.com")

	// First edit moves the row to version 2.
	c, rec := newTestContext(t, http.MethodPatch, "/api/customers/"+customer.ID.String(), map[string]any{
		"phone": "555-0100",
	}, parentID, "id", customer.ID.String())
	require.NoError(t, PatchCustomer(c))
	requireStatus(t, rec, http.StatusOK)

	// A writer still holding version 1 loses.
	c, rec = newTestContext(t, http.MethodPatch, "/api/customers/"+customer.ID.String(), map[string]any{
		"phone":       "555-0199",
		"row_version": 1,
	}, parentID, "id", customer.ID.String())
	require.NoError(t, PatchCustomer(c))
	requireStatus(t, rec, http.StatusConflict)
}

func TestDeleteCustomerThenGet(t *testing.T) {
	db := setupTestDB(t)
	parentID := uuid.New()
	customer := seedCustomer(t, db, parentID, "Jane", "Doe", "jane@example.com")

	c, rec := newTestContext(t, http.MethodDelete, "/api/customers/"+customer.ID.String(), nil, parentID,
		"id", customer.ID.String())
	require.NoError(t, DeleteCustomer(c))
	requireStatus(t, rec, http.StatusNoContent)

	c, rec = newTestContext(t, http.MethodGet, "/api/customers/"+customer.ID.String(), nil, parentID,
		"id", customer.ID.String())
	require.NoError(t, GetCustomer(c))
	requireStatus(t, rec, http.StatusNotFound)
}

func TestGetCustomerInvalidID(t *testing.T) {
	setupTestDB(t)

	c, rec := newTestContext(t, http.MethodGet, "/api/customers/nope", nil, uuid.New(), "id", "nope")
	require.NoError(t, GetCustomer(c))
	requireStatus(t, rec, http.StatusBadRequest)
}
