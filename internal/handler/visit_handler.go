package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"crm-service/internal/apperror"
	"crm-service/internal/model"
	"crm-service/pkg/database"
	"crm-service/pkg/logger"
)

var visitExpands = map[string]string{
	"customer": "Customer",
	"store":    "Store",
	"vehicle":  "Vehicle",
	"coupon":   "Coupon",
}

var visitSorts = map[string]string{
	"visit_date":   "visit_date",
	"net_amount":   "net_amount",
	"total_amount": "total_amount",
	"created_at":   "created_at",
}

// VisitRequest carries the writable fields of a Visit.
type VisitRequest struct {
	CustomerID        *uuid.UUID `json:"customer_id"`
	StoreID           *uuid.UUID `json:"store_id"`
	VehicleID         *uuid.UUID `json:"vehicle_id"`
	CouponID          *uuid.UUID `json:"coupon_id"`
	InvoiceNumber     *string    `json:"invoice_number"`
	VisitDate         *time.Time `json:"visit_date"`
	TotalAmount       *float64   `json:"total_amount"`
	DiscountAmount    *float64   `json:"discount_amount"`
	NetAmount         *float64   `json:"net_amount"`
	ServicesPerformed *string    `json:"services_performed"`
	VehicleMileage    *int       `json:"vehicle_mileage"`
	RowVersion        *int64     `json:"row_version"`
}

func (r *VisitRequest) applyTo(visit *model.Visit) {
	if r.VehicleID != nil {
		visit.VehicleID = r.VehicleID
	}
	if r.CouponID != nil {
		visit.CouponID = r.CouponID
	}
	if r.InvoiceNumber != nil {
		visit.InvoiceNumber = *r.InvoiceNumber
	}
	if r.VisitDate != nil {
		visit.VisitDate = *r.VisitDate
	}
	if r.TotalAmount != nil {
		visit.TotalAmount = *r.TotalAmount
	}
	if r.DiscountAmount != nil {
		visit.DiscountAmount = *r.DiscountAmount
	}
	if r.NetAmount != nil {
		visit.NetAmount = *r.NetAmount
	}
	if r.ServicesPerformed != nil {
		visit.ServicesPerformed = *r.ServicesPerformed
	}
	if r.VehicleMileage != nil {
		visit.VehicleMileage = r.VehicleMileage
	}
}

// ListVisits returns the tenant's visits with filtering on customer, store
// and date range.
func ListVisits(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB().WithContext(c.Request().Context())

	query := db.Model(&model.Visit{})
	if customerID := c.QueryParam("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if storeID := c.QueryParam("store_id"); storeID != "" {
		query = query.Where("store_id = ?", storeID)
	}
	if from := c.QueryParam("from"); from != "" {
		query = query.Where("visit_date >= ?", from)
	}
	if to := c.QueryParam("to"); to != "" {
		query = query.Where("visit_date < ?", to)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return writeError(c, log, "visit", "listing visits", err)
	}

	query, err := applyExpand(query, c, visitExpands)
	if err != nil {
		return writeError(c, log, "visit", "listing visits", err)
	}
	query, err = applySort(query, c, visitSorts)
	if err != nil {
		return writeError(c, log, "visit", "listing visits", err)
	}

	p := pagination(c)
	var visits []model.Visit
	if err := p.apply(query).Find(&visits).Error; err != nil {
		return writeError(c, log, "visit", "listing visits", err)
	}
	return listEnvelope(c, visits, count, p)
}

// GetVisit returns a single visit with optional expansions.
func GetVisit(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "visit", "retrieving the visit", err)
	}

	query := database.GetDB().WithContext(c.Request().Context())
	query, err = applyExpand(query, c, visitExpands)
	if err != nil {
		return writeError(c, log, "visit", "retrieving the visit", err)
	}

	var visit model.Visit
	if err := database.First(query, &visit, "visit", "id = ?", id); err != nil {
		return writeError(c, log, "visit", "retrieving the visit", err)
	}
	return c.JSON(http.StatusOK, visit)
}

// CreateVisit records a service transaction. The customer's rollup stats and
// lifecycle stage are refreshed, and a referenced coupon is marked redeemed
// with its campaign counters updated, all in one transaction.
func CreateVisit(c echo.Context) error {
	log := logger.FromEcho(c)

	var req VisitRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "visit", "creating the visit", apperror.Validationf("invalid request body"))
	}
	if req.CustomerID == nil || req.StoreID == nil {
		return writeError(c, log, "visit", "creating the visit", apperror.Validationf("customer_id and store_id are required"))
	}

	visit := model.Visit{
		CustomerID: *req.CustomerID,
		StoreID:    *req.StoreID,
		VisitDate:  time.Now().UTC(),
	}
	req.applyTo(&visit)
	if visit.NetAmount == 0 {
		visit.NetAmount = visit.TotalAmount - visit.DiscountAmount
	}

	db := database.GetDB().WithContext(c.Request().Context())
	err := db.Transaction(func(tx *gorm.DB) error {
		var customer model.Customer
		if err := database.First(tx, &customer, "customer", "id = ?", visit.CustomerID); err != nil {
			return err
		}
		var store model.Store
		if err := database.First(tx, &store, "store", "id = ?", visit.StoreID); err != nil {
			return err
		}

		if err := database.Create(tx, &visit); err != nil {
			return err
		}

		applyVisitToCustomer(&customer, &visit)
		if err := database.Update(tx, &customer); err != nil {
			return err
		}

		if visit.CouponID != nil {
			if err := redeemCoupon(tx, *visit.CouponID, visit.NetAmount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return writeError(c, log, "visit", "creating the visit", err)
	}

	recordOp("visit", "create")
	log.Info("Visit recorded",
		zap.String("visit_id", visit.ID.String()),
		zap.String("customer_id", visit.CustomerID.String()),
		zap.Float64("net_amount", visit.NetAmount))
	return c.JSON(http.StatusCreated, visit)
}

// applyVisitToCustomer folds one new visit into the customer's rollup stats
// and recomputed lifecycle stage.
func applyVisitToCustomer(customer *model.Customer, visit *model.Visit) {
	if customer.FirstVisitDate == nil || visit.VisitDate.Before(*customer.FirstVisitDate) {
		d := visit.VisitDate
		customer.FirstVisitDate = &d
	}
	if customer.LastVisitDate == nil || visit.VisitDate.After(*customer.LastVisitDate) {
		d := visit.VisitDate
		customer.LastVisitDate = &d
	}
	customer.TotalVisits++
	customer.TotalSpent += visit.NetAmount
	if customer.TotalVisits > 0 {
		customer.AverageOrderValue = customer.TotalSpent / float64(customer.TotalVisits)
	}
	customer.DaysSinceLastVisit = int(time.Since(*customer.LastVisitDate).Hours() / 24)
	customer.LifecycleStage = lifecycleStage(customer)
}

// Lifecycle stage thresholds in days of visit recency.
const (
	lifecycleNewMaxDays    = 30
	lifecycleActiveMaxDays = 90
	lifecycleAtRiskMaxDays = 180
	lifecycleLapsedMaxDays = 365
)

func lifecycleStage(customer *model.Customer) model.CustomerLifecycleStage {
	if customer.FirstVisitDate == nil {
		return model.LifecycleNew
	}
	daysSinceFirst := int(time.Since(*customer.FirstVisitDate).Hours() / 24)
	switch {
	case daysSinceFirst <= lifecycleNewMaxDays:
		return model.LifecycleNew
	case customer.DaysSinceLastVisit <= lifecycleActiveMaxDays:
		return model.LifecycleActive
	case customer.DaysSinceLastVisit <= lifecycleAtRiskMaxDays:
		return model.LifecycleAtRisk
	case customer.DaysSinceLastVisit <= lifecycleLapsedMaxDays:
		return model.LifecycleLapsed
	default:
		return model.LifecycleLost
	}
}

// redeemCoupon marks the coupon used and rolls the redemption into its
// campaign's funnel counters and ROAS.
func redeemCoupon(tx *gorm.DB, couponID uuid.UUID, revenue float64) error {
	var coupon model.Coupon
	if err := database.First(tx, &coupon, "coupon", "id = ?", couponID); err != nil {
		return err
	}
	if coupon.IsRedeemed {
		return apperror.Validationf("coupon %s is already redeemed", coupon.Code)
	}

	now := time.Now().UTC()
	coupon.IsRedeemed = true
	coupon.RedeemedDate = &now
	if err := database.Update(tx, &coupon); err != nil {
		return err
	}

	if coupon.CampaignID == nil {
		return nil
	}
	var campaign model.Campaign
	if err := database.First(tx, &campaign, "campaign", "id = ?", *coupon.CampaignID); err != nil {
		return err
	}
	campaign.Redeemed++
	campaign.Revenue += revenue
	if campaign.Spent > 0 {
		campaign.ROAS = campaign.Revenue / campaign.Spent
	}
	return database.Update(tx, &campaign)
}

// PatchVisit applies a partial update to a visit. Rollup stats are not
// re-derived on edit; corrections go through delete and re-create.
func PatchVisit(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "visit", "updating the visit", err)
	}

	var req VisitRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "visit", "updating the visit", apperror.Validationf("invalid request body"))
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var visit model.Visit
	if err := database.First(db, &visit, "visit", "id = ?", id); err != nil {
		return writeError(c, log, "visit", "updating the visit", err)
	}

	req.applyTo(&visit)
	if req.RowVersion != nil {
		visit.RowVersion = *req.RowVersion
	}
	if err := database.Update(db, &visit); err != nil {
		return writeError(c, log, "visit", "updating the visit", err)
	}

	recordOp("visit", "update")
	log.Info("Visit updated", zap.String("visit_id", id.String()))
	return c.JSON(http.StatusOK, visit)
}

// DeleteVisit soft deletes a visit.
func DeleteVisit(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "visit", "deleting the visit", err)
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var visit model.Visit
	if err := database.First(db, &visit, "visit", "id = ?", id); err != nil {
		return writeError(c, log, "visit", "deleting the visit", err)
	}
	if err := database.SoftDelete(db, &visit); err != nil {
		return writeError(c, log, "visit", "deleting the visit", err)
	}

	recordOp("visit", "delete")
	log.Info("Visit soft deleted", zap.String("visit_id", id.String()))
	return c.NoContent(http.StatusNoContent)
}
