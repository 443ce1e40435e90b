package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"crm-service/internal/apperror"
	"crm-service/internal/model"
	"crm-service/pkg/database"
	"crm-service/pkg/logger"
)

var couponExpands = map[string]string{
	"campaign": "Campaign",
	"customer": "Customer",
}

var couponSorts = map[string]string{
	"code":            "code",
	"sent_date":       "sent_date",
	"expiration_date": "expiration_date",
	"created_at":      "created_at",
}

// CouponRequest carries the writable fields of a Coupon.
type CouponRequest struct {
	CampaignID         *uuid.UUID `json:"campaign_id"`
	CustomerID         *uuid.UUID `json:"customer_id"`
	Code               *string    `json:"code"`
	Description        *string    `json:"description"`
	DiscountAmount     *float64   `json:"discount_amount"`
	DiscountPercentage *int       `json:"discount_percentage"`
	SentDate           *time.Time `json:"sent_date"`
	ExpirationDate     *time.Time `json:"expiration_date"`
	RowVersion         *int64     `json:"row_version"`
}

func (r *CouponRequest) applyTo(coupon *model.Coupon) {
	if r.CampaignID != nil {
		coupon.CampaignID = r.CampaignID
	}
	if r.CustomerID != nil {
		coupon.CustomerID = r.CustomerID
	}
	if r.Code != nil {
		coupon.Code = *r.Code
	}
	if r.Description != nil {
		coupon.Description = *r.Description
	}
	if r.DiscountAmount != nil {
		coupon.DiscountAmount = *r.DiscountAmount
	}
	if r.DiscountPercentage != nil {
		coupon.DiscountPercentage = r.DiscountPercentage
	}
	if r.SentDate != nil {
		coupon.SentDate = r.SentDate
	}
	if r.ExpirationDate != nil {
		coupon.ExpirationDate = r.ExpirationDate
	}
}

// ListCoupons returns the tenant's coupons with campaign, customer and
// redemption filters.
func ListCoupons(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB().WithContext(c.Request().Context())

	query := db.Model(&model.Coupon{})
	if campaignID := c.QueryParam("campaign_id"); campaignID != "" {
		query = query.Where("campaign_id = ?", campaignID)
	}
	if customerID := c.QueryParam("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if redeemed := c.QueryParam("is_redeemed"); redeemed != "" {
		query = query.Where("is_redeemed = ?", redeemed == "true")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return writeError(c, log, "coupon", "listing coupons", err)
	}

	query, err := applyExpand(query, c, couponExpands)
	if err != nil {
		return writeError(c, log, "coupon", "listing coupons", err)
	}
	query, err = applySort(query, c, couponSorts)
	if err != nil {
		return writeError(c, log, "coupon", "listing coupons", err)
	}

	p := pagination(c)
	var coupons []model.Coupon
	if err := p.apply(query).Find(&coupons).Error; err != nil {
		return writeError(c, log, "coupon", "listing coupons", err)
	}
	return listEnvelope(c, coupons, count, p)
}

// GetCoupon returns a single coupon.
func GetCoupon(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "coupon", "retrieving the coupon", err)
	}

	query := database.GetDB().WithContext(c.Request().Context())
	query, err = applyExpand(query, c, couponExpands)
	if err != nil {
		return writeError(c, log, "coupon", "retrieving the coupon", err)
	}

	var coupon model.Coupon
	if err := database.First(query, &coupon, "coupon", "id = ?", id); err != nil {
		return writeError(c, log, "coupon", "retrieving the coupon", err)
	}
	return c.JSON(http.StatusOK, coupon)
}

// CreateCoupon issues a coupon, optionally tied to a campaign and customer.
// Issuing against a campaign counts toward its sent funnel.
func CreateCoupon(c echo.Context) error {
	log := logger.FromEcho(c)

	var req CouponRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "coupon", "creating the coupon", apperror.Validationf("invalid request body"))
	}
	if req.Code == nil || *req.Code == "" {
		return writeError(c, log, "coupon", "creating the coupon", apperror.Validationf("code is required"))
	}
	if req.Description == nil || *req.Description == "" {
		return writeError(c, log, "coupon", "creating the coupon", apperror.Validationf("description is required"))
	}

	db := database.GetDB().WithContext(c.Request().Context())
	if req.CampaignID != nil {
		var campaign model.Campaign
		if err := database.First(db, &campaign, "campaign", "id = ?", *req.CampaignID); err != nil {
			return writeError(c, log, "coupon", "creating the coupon", err)
		}
	}
	if req.CustomerID != nil {
		var customer model.Customer
		if err := database.First(db, &customer, "customer", "id = ?", *req.CustomerID); err != nil {
			return writeError(c, log, "coupon", "creating the coupon", err)
		}
	}

	coupon := model.Coupon{}
	req.applyTo(&coupon)
	if coupon.SentDate == nil {
		now := time.Now().UTC()
		coupon.SentDate = &now
	}

	if err := database.Create(db, &coupon); err != nil {
		return writeError(c, log, "coupon", "creating the coupon", err)
	}

	recordOp("coupon", "create")
	log.Info("Coupon created",
		zap.String("coupon_id", coupon.ID.String()),
		zap.String("code", coupon.Code))
	return c.JSON(http.StatusCreated, coupon)
}

// PatchCoupon applies a partial update. Redemption state is owned by the
// visit flow and not writable here.
func PatchCoupon(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "coupon", "updating the coupon", err)
	}

	var req CouponRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "coupon", "updating the coupon", apperror.Validationf("invalid request body"))
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var coupon model.Coupon
	if err := database.First(db, &coupon, "coupon", "id = ?", id); err != nil {
		return writeError(c, log, "coupon", "updating the coupon", err)
	}

	req.applyTo(&coupon)
	if req.RowVersion != nil {
		coupon.RowVersion = *req.RowVersion
	}
	if err := database.Update(db, &coupon); err != nil {
		return writeError(c, log, "coupon", "updating the coupon", err)
	}

	recordOp("coupon", "update")
	log.Info("Coupon updated", zap.String("coupon_id", id.String()))
	return c.JSON(http.StatusOK, coupon)
}

// DeleteCoupon soft deletes a coupon.
func DeleteCoupon(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "coupon", "deleting the coupon", err)
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var coupon model.Coupon
	if err := database.First(db, &coupon, "coupon", "id = ?", id); err != nil {
		return writeError(c, log, "coupon", "deleting the coupon", err)
	}
	if err := database.SoftDelete(db, &coupon); err != nil {
		return writeError(c, log, "coupon", "deleting the coupon", err)
	}

	recordOp("coupon", "delete")
	log.Info("Coupon soft deleted", zap.String("coupon_id", id.String()))
	return c.NoContent(http.StatusNoContent)
}
