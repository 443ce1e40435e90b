package model

import "time"

// CustomerLifecycleStage buckets a customer by recency of their visits.
type CustomerLifecycleStage string

const (
	LifecycleNew    CustomerLifecycleStage = "New"    // 0-30 days since first visit
	LifecycleActive CustomerLifecycleStage = "Active" // regular visits within 90 days
	LifecycleAtRisk CustomerLifecycleStage = "AtRisk" // 91-180 days since last visit
	LifecycleLapsed CustomerLifecycleStage = "Lapsed" // 181-365 days since last visit
	LifecycleLost   CustomerLifecycleStage = "Lost"   // 365+ days since last visit
)

// Customer is a service-center customer with lifecycle tracking and
// marketing preferences.
type Customer struct {
	TenantEntity
	FirstName   string     `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName    string     `json:"last_name" gorm:"type:varchar(100);not null"`
	Email       string     `json:"email" gorm:"type:varchar(200);not null;index"`
	Phone       string     `json:"phone,omitempty" gorm:"type:varchar(50)"`
	Address     string     `json:"address,omitempty" gorm:"type:varchar(200)"`
	City        string     `json:"city,omitempty" gorm:"type:varchar(100)"`
	State       string     `json:"state,omitempty" gorm:"type:varchar(50)"`
	ZipCode     string     `json:"zip_code,omitempty" gorm:"type:varchar(20)"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`

	LifecycleStage    CustomerLifecycleStage `json:"lifecycle_stage" gorm:"type:varchar(20);default:New;index"`
	FirstVisitDate    *time.Time             `json:"first_visit_date,omitempty"`
	LastVisitDate     *time.Time             `json:"last_visit_date,omitempty" gorm:"index"`
	TotalVisits       int                    `json:"total_visits"`
	TotalSpent        float64                `json:"total_spent" gorm:"type:decimal(18,2)"`
	AverageOrderValue float64                `json:"average_order_value" gorm:"type:decimal(18,2)"`
	DaysSinceLastVisit int                   `json:"days_since_last_visit"`

	EmailOptIn      bool `json:"email_opt_in" gorm:"default:true"`
	SmsOptIn        bool `json:"sms_opt_in"`
	DirectMailOptIn bool `json:"direct_mail_opt_in" gorm:"default:true"`
	IsActive        bool `json:"is_active" gorm:"default:true"`

	Vehicles         []Vehicle         `json:"vehicles,omitempty" gorm:"foreignKey:CustomerID"`
	Visits           []Visit           `json:"visits,omitempty" gorm:"foreignKey:CustomerID"`
	CustomerSegments []CustomerSegment `json:"customer_segments,omitempty" gorm:"foreignKey:CustomerID"`
}

func (Customer) TableName() string { return "customers" }
