package model

import "github.com/google/uuid"

// JourneyTriggerType is the event that enrolls a customer into a journey.
type JourneyTriggerType string

const (
	TriggerSegmentEntry    JourneyTriggerType = "SegmentEntry"
	TriggerVisitCompleted  JourneyTriggerType = "VisitCompleted"
	TriggerCouponRedeemed  JourneyTriggerType = "CouponRedeemed"
	TriggerLifecycleChange JourneyTriggerType = "LifecycleChange"
	TriggerDateBased       JourneyTriggerType = "DateBased"
	TriggerAbandoned       JourneyTriggerType = "Abandoned"
)

// Journey is an automated multi-step marketing flow.
type Journey struct {
	TenantEntity
	SegmentID      *uuid.UUID         `json:"segment_id,omitempty" gorm:"type:uuid;index"`
	Name           string             `json:"name" gorm:"type:varchar(200);not null"`
	Description    string             `json:"description,omitempty" gorm:"type:varchar(1000)"`
	TriggerType    JourneyTriggerType `json:"trigger_type" gorm:"type:varchar(30);index"`
	IsActive       bool               `json:"is_active"`
	TotalEnrolled  int                `json:"total_enrolled"`
	TotalCompleted int                `json:"total_completed"`

	Segment *Segment      `json:"segment,omitempty" gorm:"foreignKey:SegmentID"`
	Steps   []JourneyStep `json:"steps,omitempty" gorm:"foreignKey:JourneyID"`
}

func (Journey) TableName() string { return "journeys" }

// JourneyStep is one ordered action within a journey.
type JourneyStep struct {
	TenantEntity
	JourneyID       uuid.UUID       `json:"journey_id" gorm:"type:uuid;not null;index"`
	Name            string          `json:"name" gorm:"type:varchar(200);not null"`
	Order           int             `json:"order" gorm:"column:step_order;index"`
	Channel         CampaignChannel `json:"channel" gorm:"type:varchar(20)"`
	DelayDays       int             `json:"delay_days"`
	DelayHours      int             `json:"delay_hours"`
	ContentTemplate string          `json:"content_template,omitempty" gorm:"type:varchar(2000)"`

	Journey *Journey `json:"journey,omitempty" gorm:"foreignKey:JourneyID"`
}

func (JourneyStep) TableName() string { return "journey_steps" }
