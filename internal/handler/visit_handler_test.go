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

func TestCreateVisitRollsUpCustomerStats(t *testing.T) {
	db := setupTestDB(t)
	parentID := uuid.New()
	customer := seedCustomer(t, db, parentID, "Jane", "Doe", "jane@example.com")
	store := seedStore(t, db, parentID, "Downtown")

	c, rec := newTestContext(t, http.MethodPost, "/api/visits", map[string]any{
		"customer_id":     customer.ID,
		"store_id":        store.ID,
		"invoice_number":  "INV-1001",
		"total_amount":    89.99,
		"discount_amount": 10.00,
	}, parentID)
	require.NoError(t, CreateVisit(c))
	requireStatus(t, rec, http.StatusCreated)

	var visit model.Visit
	decodeJSON(t, rec, &visit)
	assert.InDelta(t, 79.99, visit.NetAmount, 0.001, "net defaults to total minus discount")

	var got model.Customer
	require.NoError(t, database.First(db.WithContext(testTenantCtx(parentID)), &got, "customer", "id = ?", customer.ID))
	assert.Equal(t, 1, got.TotalVisits)
	assert.InDelta(t, 79.99, got.TotalSpent, 0.001)
	assert.InDelta(t, 79.99, got.AverageOrderValue, 0.001)
	require.NotNil(t, got.FirstVisitDate)
	require.NotNil(t, got.LastVisitDate)
	assert.Equal(t, model.LifecycleNew, got.LifecycleStage, "first visit today keeps the customer in New")
}

func TestCreateVisitSecondVisitAverages(t *testing.T) {
	db := setupTestDB(t)
	parentID := uuid.New()
	customer := seedCustomer(t, db, parentID, "Jane", "Doe", "jane@example.com")
	store := seedStore(t, db, parentID, "Downtown")

	for _, amount := range []float64{100.00, 50.00} {
		c, rec := newTestContext(t, http.MethodPost, "/api/visits", map[string]any{
			"customer_id":  customer.ID,
			"store_id":     store.ID,
			"total_amount": amount,
		}, parentID)
		require.NoError(t, CreateVisit(c))
		requireStatus(t, rec, http.StatusCreated)
	}

	var got model.Customer
	require.NoError(t, database.First(db.WithContext(testTenantCtx(parentID)), &got, "customer", "id = ?", customer.ID))
	assert.Equal(t, 2, got.TotalVisits)
	assert.InDelta(t, 150.00, got.TotalSpent, 0.001)
	assert.InDelta(t, 75.00, got.AverageOrderValue, 0.001)
}

func TestCreateVisitRequiresCustomerAndStore(t *testing.T) {
	setupTestDB(t)

	c, rec := newTestContext(t, http.MethodPost, "/api/visits", map[string]any{
		"total_amount": 10.00,
	}, uuid.New())
	require.NoError(t, CreateVisit(c))
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestCreateVisitForeignCustomerIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	tenantA := uuid.New()
	tenantB := uuid.New()
	foreign := seedCustomer(t, db, tenantB, "Jane", "Doe", "jane@example.com")
	store := seedStore(t, db, tenantA, "Downtown")

	c, rec := newTestContext(t, http.MethodPost, "/api/visits", map[string]any{
		"customer_id":  foreign.ID,
		"store_id":     store.ID,
		"total_amount": 10.00,
	}, tenantA)
	require.NoError(t, CreateVisit(c))
	requireStatus(t, rec, http.StatusNotFound)

	// Nothing was written.
	var count int64
	require.NoError(t, db.WithContext(testTenantCtx(tenantA)).Model(&model.Visit{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateVisitRedeemsCoupon(t *testing.T) {
	db := setupTestDB(t)
	parentID := uuid.New()
	ctx := testTenantCtx(parentID)
	customer := seedCustomer(t, db, parentID, "Jane", "Doe", "jane@example.com")
	store := seedStore(t, db, parentID, "Downtown")

	campaign := &model.Campaign{
		Name:    "Spring Oil Change Special",
		Status:  model.CampaignActive,
		Channel: model.ChannelEmail,
		Spent:   200.00,
	}
	require.NoError(t, database.Create(db.WithContext(ctx), campaign))
	coupon := &model.Coupon{
		CampaignID:  &campaign.ID,
		CustomerID:  &customer.ID,
		Code:        "SPRING20",
		Description: "20 dollars off any service",
	}
	require.NoError(t, database.Create(db.WithContext(ctx), coupon))

	c, rec := newTestContext(t, http.MethodPost, "/api/visits", map[string]any{
		"customer_id":  customer.ID,
		"store_id":     store.ID,
		"coupon_id":    coupon.ID,
		"total_amount": 100.00,
	}, parentID)
	require.NoError(t, CreateVisit(c))
	requireStatus(t, rec, http.StatusCreated)

	var gotCoupon model.Coupon
	require.NoError(t, database.First(db.WithContext(ctx), &gotCoupon, "coupon", "id = ?", coupon.ID))
	assert.True(t, gotCoupon.IsRedeemed)
	assert.NotNil(t, gotCoupon.RedeemedDate)

	var gotCampaign model.Campaign
	require.NoError(t, database.First(db.WithContext(ctx), &gotCampaign, "campaign", "id = ?", campaign.ID))
	assert.Equal(t, 1, gotCampaign.Redeemed)
	assert.InDelta(t, 100.00, gotCampaign.Revenue, 0.001)
	assert.InDelta(t, 0.50, gotCampaign.ROAS, 0.001)
}

func TestCreateVisitRejectsRedeemedCoupon(t *testing.T) {
	db := setupTestDB(t)
	parentID := uuid.New()
	ctx := testTenantCtx(parentID)
	customer := seedCustomer(t, db, parentID, "Jane", "Doe", "jane@example.com")
	store := seedStore(t, db, parentID, "Downtown")
	coupon := &model.Coupon{
		CustomerID:  &customer.ID,
		Code:        "ONCE10",
		Description: "10 dollars off, single use",
	}
	require.NoError(t, database.Create(db.WithContext(ctx), coupon))

	body := map[string]any{
		"customer_id":  customer.ID,
		"store_id":     store.ID,
		"coupon_id":    coupon.ID,
		"total_amount": 50.00,
	}
	c, rec := newTestContext(t, http.MethodPost, "/api/visits", body, parentID)
	require.NoError(t, CreateVisit(c))
	requireStatus(t, rec, http.StatusCreated)

	c, rec = newTestContext(t, http.MethodPost, "/api/visits", body, parentID)
	require.NoError(t, CreateVisit(c))
	requireStatus(t, rec, http.StatusBadRequest)

	// The rejected transaction rolled back: still one visit on record.
	var count int64
	require.NoError(t, db.WithContext(ctx).Model(&model.Visit{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestListVisitsFilterByCustomer(t *testing.T) {
	db := setupTestDB(t)
	parentID := uuid.New()
	jane := seedCustomer(t, db, parentID, "Jane", "Doe", "jane@example.com")
	john := seedCustomer(t, db, parentID, "John", "Roe", "john@example.com")
	store := seedStore(t, db, parentID, "Downtown")

	for _, cust := range []*model.Customer{jane, jane, john} {
		c, rec := newTestContext(t, http.MethodPost, "/api/visits", map[string]any{
			"customer_id":  cust.ID,
			"store_id":     store.ID,
			"total_amount": 25.00,
		}, parentID)
		require.NoError(t, CreateVisit(c))
		requireStatus(t, rec, http.StatusCreated)
	}

	c, rec := newTestContext(t, http.MethodGet, "/api/visits?customer_id="+jane.ID.String(), nil, parentID)
	require.NoError(t, ListVisits(c))
	requireStatus(t, rec, http.StatusOK)

	var envelope struct {
		Value []model.Visit `json:"value"`
		Count int64         `json:"count"`
	}
	decodeJSON(t, rec, &envelope)
	assert.Equal(t, int64(2), envelope.Count)
}
