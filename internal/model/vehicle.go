package model

import "github.com/google/uuid"

// Vehicle is owned by a customer; a customer may mark one vehicle primary.
type Vehicle struct {
	TenantEntity
	CustomerID   uuid.UUID `json:"customer_id" gorm:"type:uuid;not null;index"`
	Make         string    `json:"make,omitempty" gorm:"type:varchar(100)"`
	Model        string    `json:"model,omitempty" gorm:"type:varchar(100)"`
	Year         *int      `json:"year,omitempty"`
	Color        string    `json:"color,omitempty" gorm:"type:varchar(50)"`
	LicensePlate string    `json:"license_plate,omitempty" gorm:"type:varchar(50)"`
	VIN          string    `json:"vin,omitempty" gorm:"type:varchar(50)"`
	Mileage      *int      `json:"mileage,omitempty"`
	IsPrimary    bool      `json:"is_primary"`

	Customer *Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Visits   []Visit   `json:"visits,omitempty" gorm:"foreignKey:VehicleID"`
}

func (Vehicle) TableName() string { return "vehicles" }
