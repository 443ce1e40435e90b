package handler

import (
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"crm-service/internal/model"
	"crm-service/pkg/database"
	"crm-service/pkg/logger"
)

// DashboardSummary aggregates the tenant's key metrics for the main
// dashboard view.
type DashboardSummary struct {
	TotalCustomers        int64 `json:"total_customers"`
	NewCustomersThisMonth int64 `json:"new_customers_this_month"`
	ActiveCustomers       int64 `json:"active_customers"`
	AtRiskCustomers       int64 `json:"at_risk_customers"`
	LapsedCustomers       int64 `json:"lapsed_customers"`
	LostCustomers         int64 `json:"lost_customers"`

	TotalRevenue      float64 `json:"total_revenue"`
	RevenueThisMonth  float64 `json:"revenue_this_month"`
	AverageOrderValue float64 `json:"average_order_value"`

	TotalVisits     int64 `json:"total_visits"`
	VisitsThisMonth int64 `json:"visits_this_month"`

	ActiveCampaigns int64   `json:"active_campaigns"`
	TotalCampaigns  int64   `json:"total_campaigns"`
	AverageROAS     float64 `json:"average_roas"`

	ActiveSegments int64 `json:"active_segments"`
	TotalSegments  int64 `json:"total_segments"`

	LifecycleBreakdown map[string]int64 `json:"lifecycle_breakdown"`
	RecentActivities   []RecentActivity `json:"recent_activities"`
}

// RecentActivity is one entry in the dashboard activity feed.
type RecentActivity struct {
	ID           uuid.UUID `json:"id"`
	Type         string    `json:"type"`
	Description  string    `json:"description"`
	Timestamp    time.Time `json:"timestamp"`
	CustomerName string    `json:"customer_name,omitempty"`
}

// ROASSummary aggregates campaign spend and return for the tenant.
type ROASSummary struct {
	TotalCampaigns  int64   `json:"total_campaigns"`
	ActiveCampaigns int64   `json:"active_campaigns"`
	TotalSpent      float64 `json:"total_spent"`
	TotalRevenue    float64 `json:"total_revenue"`
	AverageROAS     float64 `json:"average_roas"`
	TotalSent       int64   `json:"total_sent"`
	TotalRedeemed   int64   `json:"total_redeemed"`
	RedemptionRate  float64 `json:"redemption_rate"`
}

type lifecycleCount struct {
	Stage string
	Count int64
}

// firstErr returns the first failure among a batch of aggregate queries.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// GetDashboardSummary computes the tenant's dashboard metrics. Every query
// runs under tenant scope, so the numbers only cover the caller's partition.
func GetDashboardSummary(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB().WithContext(c.Request().Context())

	now := time.Now().UTC()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var summary DashboardSummary
	if err := firstErr(
		db.Model(&model.Customer{}).Count(&summary.TotalCustomers).Error,
		db.Model(&model.Customer{}).Where("created_at >= ?", firstOfMonth).Count(&summary.NewCustomersThisMonth).Error,
	); err != nil {
		return writeError(c, log, "dashboard", "computing the dashboard summary", err)
	}

	var stages []lifecycleCount
	if err := db.Model(&model.Customer{}).
		Select("lifecycle_stage AS stage, COUNT(*) AS count").
		Group("lifecycle_stage").Scan(&stages).Error; err != nil {
		return writeError(c, log, "dashboard", "computing the dashboard summary", err)
	}
	summary.LifecycleBreakdown = make(map[string]int64, len(stages))
	for _, s := range stages {
		summary.LifecycleBreakdown[s.Stage] = s.Count
		switch model.CustomerLifecycleStage(s.Stage) {
		case model.LifecycleActive:
			summary.ActiveCustomers = s.Count
		case model.LifecycleAtRisk:
			summary.AtRiskCustomers = s.Count
		case model.LifecycleLapsed:
			summary.LapsedCustomers = s.Count
		case model.LifecycleLost:
			summary.LostCustomers = s.Count
		}
	}

	if err := firstErr(
		db.Model(&model.Visit{}).Select("COALESCE(SUM(net_amount), 0)").Scan(&summary.TotalRevenue).Error,
		db.Model(&model.Visit{}).Where("visit_date >= ?", firstOfMonth).
			Select("COALESCE(SUM(net_amount), 0)").Scan(&summary.RevenueThisMonth).Error,
		db.Model(&model.Visit{}).Count(&summary.TotalVisits).Error,
		db.Model(&model.Visit{}).Where("visit_date >= ?", firstOfMonth).Count(&summary.VisitsThisMonth).Error,
		db.Model(&model.Campaign{}).Count(&summary.TotalCampaigns).Error,
		db.Model(&model.Campaign{}).Where("status = ?", model.CampaignActive).Count(&summary.ActiveCampaigns).Error,
		db.Model(&model.Campaign{}).Where("spent > 0").
			Select("COALESCE(AVG(roas), 0)").Scan(&summary.AverageROAS).Error,
		db.Model(&model.Segment{}).Count(&summary.TotalSegments).Error,
		db.Model(&model.Segment{}).Where("is_active = ?", true).Count(&summary.ActiveSegments).Error,
	); err != nil {
		return writeError(c, log, "dashboard", "computing the dashboard summary", err)
	}
	if summary.TotalVisits > 0 {
		summary.AverageOrderValue = summary.TotalRevenue / float64(summary.TotalVisits)
	}

	var recentVisits []model.Visit
	if err := db.Model(&model.Visit{}).Preload("Customer").
		Order("visit_date DESC").Limit(10).Find(&recentVisits).Error; err != nil {
		return writeError(c, log, "dashboard", "computing the dashboard summary", err)
	}
	summary.RecentActivities = make([]RecentActivity, 0, len(recentVisits))
	for _, v := range recentVisits {
		activity := RecentActivity{
			ID:        v.ID,
			Type:      "Visit",
			Timestamp: v.VisitDate,
		}
		if v.Customer != nil {
			activity.CustomerName = v.Customer.FirstName + " " + v.Customer.LastName
			activity.Description = activity.CustomerName + " visited"
		}
		summary.RecentActivities = append(summary.RecentActivities, activity)
	}

	log.Info("Dashboard summary computed",
		zap.Int64("customers", summary.TotalCustomers),
		zap.Int64("visits", summary.TotalVisits))
	return c.JSON(http.StatusOK, summary)
}

// GetROASSummary aggregates campaign spend, revenue and redemption for the
// tenant.
func GetROASSummary(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB().WithContext(c.Request().Context())

	var summary ROASSummary
	if err := firstErr(
		db.Model(&model.Campaign{}).Count(&summary.TotalCampaigns).Error,
		db.Model(&model.Campaign{}).Where("status = ?", model.CampaignActive).Count(&summary.ActiveCampaigns).Error,
		db.Model(&model.Campaign{}).Select("COALESCE(SUM(spent), 0)").Scan(&summary.TotalSpent).Error,
		db.Model(&model.Campaign{}).Select("COALESCE(SUM(revenue), 0)").Scan(&summary.TotalRevenue).Error,
		db.Model(&model.Campaign{}).Where("spent > 0").
			Select("COALESCE(AVG(roas), 0)").Scan(&summary.AverageROAS).Error,
		db.Model(&model.Campaign{}).Select("COALESCE(SUM(sent), 0)").Scan(&summary.TotalSent).Error,
		db.Model(&model.Campaign{}).Select("COALESCE(SUM(redeemed), 0)").Scan(&summary.TotalRedeemed).Error,
	); err != nil {
		return writeError(c, log, "dashboard", "computing the ROAS summary", err)
	}
	if summary.TotalSent > 0 {
		summary.RedemptionRate = float64(summary.TotalRedeemed) / float64(summary.TotalSent)
	}

	return c.JSON(http.StatusOK, summary)
}

// GetLifecycleDistribution returns customer counts per lifecycle stage.
func GetLifecycleDistribution(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB().WithContext(c.Request().Context())

	var stages []lifecycleCount
	if err := db.Model(&model.Customer{}).
		Select("lifecycle_stage AS stage, COUNT(*) AS count").
		Group("lifecycle_stage").Scan(&stages).Error; err != nil {
		return writeError(c, log, "dashboard", "computing the lifecycle distribution", err)
	}

	distribution := make(map[string]int64, len(stages))
	for _, s := range stages {
		distribution[s.Stage] = s.Count
	}
	return c.JSON(http.StatusOK, distribution)
}

type revenueTrend struct {
	Year       int     `json:"year"`
	Month      int     `json:"month"`
	Revenue    float64 `json:"revenue"`
	VisitCount int64   `json:"visit_count"`
}

// GetRevenueTrends returns monthly revenue and visit counts for the last
// twelve months. Bucketing happens in memory so the query stays portable
// across database engines.
func GetRevenueTrends(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB().WithContext(c.Request().Context())

	cutoff := time.Now().UTC().AddDate(-1, 0, 0)
	var visits []model.Visit
	if err := db.Model(&model.Visit{}).
		Where("visit_date >= ?", cutoff).
		Select("visit_date", "net_amount").
		Find(&visits).Error; err != nil {
		return writeError(c, log, "dashboard", "computing the revenue trends", err)
	}

	buckets := make(map[[2]int]*revenueTrend)
	for _, v := range visits {
		key := [2]int{v.VisitDate.Year(), int(v.VisitDate.Month())}
		t, ok := buckets[key]
		if !ok {
			t = &revenueTrend{Year: key[0], Month: key[1]}
			buckets[key] = t
		}
		t.Revenue += v.NetAmount
		t.VisitCount++
	}

	trends := make([]revenueTrend, 0, len(buckets))
	for _, t := range buckets {
		trends = append(trends, *t)
	}
	sort.Slice(trends, func(i, j int) bool {
		if trends[i].Year != trends[j].Year {
			return trends[i].Year < trends[j].Year
		}
		return trends[i].Month < trends[j].Month
	})

	return c.JSON(http.StatusOK, trends)
}
