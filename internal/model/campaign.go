package model

import (
	"time"

	"github.com/google/uuid"
)

// CampaignStatus is the lifecycle state of a marketing campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "Draft"
	CampaignScheduled CampaignStatus = "Scheduled"
	CampaignActive    CampaignStatus = "Active"
	CampaignPaused    CampaignStatus = "Paused"
	CampaignCompleted CampaignStatus = "Completed"
	CampaignCancelled CampaignStatus = "Cancelled"
)

// CampaignChannel is the delivery channel a campaign runs on.
type CampaignChannel string

const (
	ChannelDirectMail  CampaignChannel = "DirectMail"
	ChannelEmail       CampaignChannel = "Email"
	ChannelSMS         CampaignChannel = "SMS"
	ChannelMeta        CampaignChannel = "Meta"
	ChannelLandingPage CampaignChannel = "LandingPage"
	ChannelPhone       CampaignChannel = "Phone"
)

// Campaign is a marketing campaign with funnel counters and spend tracking,
// optionally targeted at a segment.
type Campaign struct {
	TenantEntity
	SegmentID   *uuid.UUID      `json:"segment_id,omitempty" gorm:"type:uuid;index"`
	Name        string          `json:"name" gorm:"type:varchar(200);not null"`
	Description string          `json:"description,omitempty" gorm:"type:varchar(1000)"`
	Status      CampaignStatus  `json:"status" gorm:"type:varchar(20);default:Draft;index"`
	Channel     CampaignChannel `json:"channel" gorm:"type:varchar(20);index"`
	StartDate   *time.Time      `json:"start_date,omitempty" gorm:"index"`
	EndDate     *time.Time      `json:"end_date,omitempty"`

	Budget         float64 `json:"budget" gorm:"type:decimal(18,2)"`
	Spent          float64 `json:"spent" gorm:"type:decimal(18,2)"`
	TargetAudience int     `json:"target_audience"`
	Sent           int     `json:"sent"`
	Delivered      int     `json:"delivered"`
	Opened         int     `json:"opened"`
	Clicked        int     `json:"clicked"`
	Redeemed       int     `json:"redeemed"`
	Revenue        float64 `json:"revenue" gorm:"type:decimal(18,2)"`
	ROAS           float64 `json:"roas" gorm:"type:decimal(10,2)"`

	Segment *Segment `json:"segment,omitempty" gorm:"foreignKey:SegmentID"`
	Coupons []Coupon `json:"coupons,omitempty" gorm:"foreignKey:CampaignID"`
}

func (Campaign) TableName() string { return "campaigns" }
