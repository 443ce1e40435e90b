package model

import (
	"time"

	"github.com/google/uuid"
)

// Visit is a single service transaction at a store, optionally tied to a
// vehicle and a redeemed coupon.
type Visit struct {
	TenantEntity
	CustomerID     uuid.UUID  `json:"customer_id" gorm:"type:uuid;not null;index"`
	StoreID        uuid.UUID  `json:"store_id" gorm:"type:uuid;not null;index"`
	VehicleID      *uuid.UUID `json:"vehicle_id,omitempty" gorm:"type:uuid"`
	CouponID       *uuid.UUID `json:"coupon_id,omitempty" gorm:"type:uuid"`
	InvoiceNumber  string     `json:"invoice_number,omitempty" gorm:"type:varchar(100)"`
	VisitDate      time.Time  `json:"visit_date" gorm:"not null;index"`
	TotalAmount    float64    `json:"total_amount" gorm:"type:decimal(18,2)"`
	DiscountAmount float64    `json:"discount_amount" gorm:"type:decimal(18,2)"`
	NetAmount      float64    `json:"net_amount" gorm:"type:decimal(18,2)"`

	ServicesPerformed string `json:"services_performed,omitempty" gorm:"type:varchar(500)"`
	VehicleMileage    *int   `json:"vehicle_mileage,omitempty"`

	Customer *Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Store    *Store    `json:"store,omitempty" gorm:"foreignKey:StoreID"`
	Vehicle  *Vehicle  `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
	Coupon   *Coupon   `json:"coupon,omitempty" gorm:"foreignKey:CouponID"`
}

func (Visit) TableName() string { return "visits" }
