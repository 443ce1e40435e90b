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

func TestDashboardSummaryAggregates(t *testing.T) {
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

	c, rec := newTestContext(t, http.MethodGet, "/api/dashboard/summary", nil, parentID)
	require.NoError(t, GetDashboardSummary(c))
	requireStatus(t, rec, http.StatusOK)

	var summary DashboardSummary
	decodeJSON(t, rec, &summary)
	assert.Equal(t, int64(1), summary.TotalCustomers)
	assert.Equal(t, int64(2), summary.TotalVisits)
	assert.InDelta(t, 150.00, summary.TotalRevenue, 0.001)
	assert.InDelta(t, 75.00, summary.AverageOrderValue, 0.001)
	assert.Equal(t, int64(1), summary.LifecycleBreakdown[string(model.LifecycleNew)])
	require.Len(t, summary.RecentActivities, 2)
	assert.Equal(t, "Jane Doe", summary.RecentActivities[0].CustomerName)
}

func TestDashboardSummarySurfacesQueryFailures(t *testing.T) {
	db := setupTestDB(t)
	parentID := uuid.New()
	seedCustomer(t, db, parentID, "Jane", "Doe", "jane@example.com")

	// With the visits table gone, the revenue aggregates fail after the
	// customer counts succeed. The failure must surface, not read as zero.
	require.NoError(t, db.Exec("DROP TABLE visits").Error)

	c, rec := newTestContext(t, http.MethodGet, "/api/dashboard/summary", nil, parentID)
	require.NoError(t, GetDashboardSummary(c))
	requireStatus(t, rec, http.StatusInternalServerError)
}

func TestROASSummaryAggregates(t *testing.T) {
	db := setupTestDB(t)
	parentID := uuid.New()
	ctx := testTenantCtx(parentID)

	campaigns := []*model.Campaign{
		{Name: "Spring", Status: model.CampaignActive, Channel: model.ChannelEmail,
			Spent: 100, Revenue: 400, ROAS: 4, Sent: 500, Redeemed: 25},
		{Name: "Win-Back", Status: model.CampaignCompleted, Channel: model.ChannelDirectMail,
			Spent: 200, Revenue: 400, ROAS: 2, Sent: 300, Redeemed: 15},
	}
	for _, campaign := range campaigns {
		require.NoError(t, database.Create(db.WithContext(ctx), campaign))
	}

	c, rec := newTestContext(t, http.MethodGet, "/api/dashboard/roas", nil, parentID)
	require.NoError(t, GetROASSummary(c))
	requireStatus(t, rec, http.StatusOK)

	var summary ROASSummary
	decodeJSON(t, rec, &summary)
	assert.Equal(t, int64(2), summary.TotalCampaigns)
	assert.Equal(t, int64(1), summary.ActiveCampaigns)
	assert.InDelta(t, 300.00, summary.TotalSpent, 0.001)
	assert.InDelta(t, 800.00, summary.TotalRevenue, 0.001)
	assert.InDelta(t, 3.00, summary.AverageROAS, 0.001)
	assert.Equal(t, int64(800), summary.TotalSent)
	assert.Equal(t, int64(40), summary.TotalRedeemed)
	assert.InDelta(t, 0.05, summary.RedemptionRate, 0.001)
}

func TestROASSummarySurfacesQueryFailures(t *testing.T) {
	db := setupTestDB(t)
	parentID := uuid.New()
	require.NoError(t, db.Exec("DROP TABLE campaigns").Error)

	c, rec := newTestContext(t, http.MethodGet, "/api/dashboard/roas", nil, parentID)
	require.NoError(t, GetROASSummary(c))
	requireStatus(t, rec, http.StatusInternalServerError)
}
