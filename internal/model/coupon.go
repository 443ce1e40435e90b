package model

import (
	"time"

	"github.com/google/uuid"
)

// Coupon is an offer sent to a customer, usually as part of a campaign, and
// referenced by the visit that redeems it.
type Coupon struct {
	TenantEntity
	CampaignID *uuid.UUID `json:"campaign_id,omitempty" gorm:"type:uuid;index"`
	CustomerID *uuid.UUID `json:"customer_id,omitempty" gorm:"type:uuid;index"`

	Code               string     `json:"code" gorm:"type:varchar(100);not null;index"`
	Description        string     `json:"description" gorm:"type:varchar(500);not null"`
	DiscountAmount     float64    `json:"discount_amount" gorm:"type:decimal(18,2)"`
	DiscountPercentage *int       `json:"discount_percentage,omitempty"`
	SentDate           *time.Time `json:"sent_date,omitempty"`
	ExpirationDate     *time.Time `json:"expiration_date,omitempty"`
	RedeemedDate       *time.Time `json:"redeemed_date,omitempty"`
	IsRedeemed         bool       `json:"is_redeemed"`

	Campaign *Campaign `json:"campaign,omitempty" gorm:"foreignKey:CampaignID"`
	Customer *Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Visits   []Visit   `json:"visits,omitempty" gorm:"foreignKey:CouponID"`
}

func (Coupon) TableName() string { return "coupons" }
