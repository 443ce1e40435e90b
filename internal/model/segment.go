package model

import (
	"time"

	"github.com/google/uuid"
)

// SegmentType distinguishes fixed membership lists from rule-driven ones.
type SegmentType string

const (
	SegmentStatic  SegmentType = "Static"  // fixed list of customers at creation time
	SegmentDynamic SegmentType = "Dynamic" // rule-based, recalculated automatically
)

// Segment is a customer grouping used for campaign and journey targeting.
type Segment struct {
	TenantEntity
	Name             string      `json:"name" gorm:"type:varchar(200);not null;index"`
	Description      string      `json:"description,omitempty" gorm:"type:varchar(1000)"`
	Type             SegmentType `json:"type" gorm:"type:varchar(20);default:Dynamic;index"`
	RulesJSON        string      `json:"rules_json,omitempty" gorm:"type:text"`
	CustomerCount    int         `json:"customer_count"`
	LastCalculatedAt *time.Time  `json:"last_calculated_at,omitempty"`
	IsActive         bool        `json:"is_active" gorm:"default:true"`

	CustomerSegments []CustomerSegment `json:"customer_segments,omitempty" gorm:"foreignKey:SegmentID"`
	Campaigns        []Campaign        `json:"campaigns,omitempty" gorm:"foreignKey:SegmentID"`
	Journeys         []Journey         `json:"journeys,omitempty" gorm:"foreignKey:SegmentID"`
}

func (Segment) TableName() string { return "segments" }

// CustomerSegment is the many-to-many join between customers and segments.
type CustomerSegment struct {
	TenantEntity
	CustomerID uuid.UUID `json:"customer_id" gorm:"type:uuid;not null;index"`
	SegmentID  uuid.UUID `json:"segment_id" gorm:"type:uuid;not null;index"`
	AddedAt    time.Time `json:"added_at"`

	Customer *Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Segment  *Segment  `json:"segment,omitempty" gorm:"foreignKey:SegmentID"`
}

func (CustomerSegment) TableName() string { return "customer_segments" }
