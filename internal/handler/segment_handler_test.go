package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-service/internal/model"
	"crm-service/pkg/database"
)

func TestCreateSegmentDefaultsToDynamic(t *testing.T) {
	setupTestDB(t)

	c, rec := newTestContext(t, http.MethodPost, "/api/segments", map[string]any{
		"name":       "High Value",
		"rules_json": `{"min_total_spent": 500}`,
	}, uuid.New())
	require.NoError(t, CreateSegment(c))
	requireStatus(t, rec, http.StatusCreated)

	var got model.Segment
	decodeJSON(t, rec, &got)
	assert.Equal(t, model.SegmentDynamic, got.Type)
	assert.True(t, got.IsActive)
	assert.Zero(t, got.CustomerCount)
}

func TestCreateSegmentRejectsUnknownType(t *testing.T) {
	setupTestDB(t)

	c, rec := newTestContext(t, http.MethodPost, "/api/segments", map[string]any{
		"name": "Broken",
		"type": "Fancy",
	}, uuid.New())
	require.NoError(t, CreateSegment(c))
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestAddSegmentMemberBumpsCount(t *testing.T) {
	db := setupTestDB(t)
	parentID := uuid.New()
	ctx := testTenantCtx(parentID)
	segment := seedSegment(t, db, parentID, "VIP")
	customer := seedCustomer(t, db, parentID, "Jane", "Doe", "jane@example.com")

	c, rec := newTestContext(t, http.MethodPost, "/api/segments/"+segment.ID.String()+"/customers",
		map[string]any{"customer_id": customer.ID}, parentID, "id", segment.ID.String())
	require.NoError(t, AddSegmentMember(c))
	requireStatus(t, rec, http.StatusOK)

	var got model.Segment
	require.NoError(t, database.First(db.WithContext(ctx), &got, "segment", "id = ?", segment.ID))
	assert.Equal(t, 1, got.CustomerCount)

	var membership model.CustomerSegment
	require.NoError(t, database.First(db.WithContext(ctx), &membership, "segment membership",
		"segment_id = ? AND customer_id = ?", segment.ID, customer.ID))
	assert.False(t, membership.AddedAt.IsZero())
}

func TestAddSegmentMemberIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	parentID := uuid.New()
	ctx := testTenantCtx(parentID)
	segment := seedSegment(t, db, parentID, "VIP")
	customer := seedCustomer(t, db, parentID, "Jane", "Doe", "jane@example.com")

	for i := 0; i < 2; i++ {
		c, rec := newTestContext(t, http.MethodPost, "/api/segments/"+segment.ID.String()+"/customers",
			map[string]any{"customer_id": customer.ID}, parentID, "id", segment.ID.String())
		require.NoError(t, AddSegmentMember(c))
		requireStatus(t, rec, http.StatusOK)
	}

	var got model.Segment
	require.NoError(t, database.First(db.WithContext(ctx), &got, "segment", "id = ?", segment.ID))
	assert.Equal(t, 1, got.CustomerCount, "re-adding a member does not double count")
}

func TestAddSegmentMemberForeignCustomer(t *testing.T) {
	db := setupTestDB(t)
	tenantA := uuid.New()
	tenantB := uuid.New()
	segment := seedSegment(t, db, tenantA, "VIP")
	foreign := seedCustomer(t, db, tenantB, "Jane", "Doe", "jane@example.com")

	c, rec := newTestContext(t, http.MethodPost, "/api/segments/"+segment.ID.String()+"/customers",
		map[string]any{"customer_id": foreign.ID}, tenantA, "id", segment.ID.String())
	require.NoError(t, AddSegmentMember(c))
	requireStatus(t, rec, http.StatusNotFound)
}

func TestRemoveSegmentMember(t *testing.T) {
	db := setupTestDB(t)
	parentID := uuid.New()
	ctx := testTenantCtx(parentID)
	segment := seedSegment(t, db, parentID, "VIP")
	customer := seedCustomer(t, db, parentID, "Jane", "Doe", "jane@example.com")

	c, rec := newTestContext(t, http.MethodPost, "/api/segments/"+segment.ID.String()+"/customers",
		map[string]any{"customer_id": customer.ID}, parentID, "id", segment.ID.String())
	require.NoError(t, AddSegmentMember(c))
	requireStatus(t, rec, http.StatusOK)

	c, rec = newTestContext(t, http.MethodDelete,
		"/api/segments/"+segment.ID.String()+"/customers/"+customer.ID.String(), nil, parentID,
		"id", segment.ID.String(), "customerId", customer.ID.String())
	require.NoError(t, RemoveSegmentMember(c))
	requireStatus(t, rec, http.StatusNoContent)

	var got model.Segment
	require.NoError(t, database.First(db.WithContext(ctx), &got, "segment", "id = ?", segment.ID))
	assert.Zero(t, got.CustomerCount)

	var membership model.CustomerSegment
	err := database.First(db.WithContext(ctx), &membership, "segment membership",
		"segment_id = ? AND customer_id = ?", segment.ID, customer.ID)
	assert.Error(t, err, "membership is soft deleted and invisible")
}

func TestRemoveSegmentMemberNotAMember(t *testing.T) {
	db := setupTestDB(t)
	parentID := uuid.New()
	segment := seedSegment(t, db, parentID, "VIP")
	customer := seedCustomer(t, db, parentID, "Jane", "Doe", "jane@example.com")

	c, rec := newTestContext(t, http.MethodDelete,
		"/api/segments/"+segment.ID.String()+"/customers/"+customer.ID.String(), nil, parentID,
		"id", segment.ID.String(), "customerId", customer.ID.String())
	require.NoError(t, RemoveSegmentMember(c))
	requireStatus(t, rec, http.StatusNotFound)
}
