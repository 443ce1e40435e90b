package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"crm-service/internal/apperror"
	"crm-service/internal/model"
	"crm-service/pkg/database"
	"crm-service/pkg/logger"
)

var journeyExpands = map[string]string{
	"segment": "Segment",
	"steps":   "Steps",
}

var journeySorts = map[string]string{
	"name":         "name",
	"trigger_type": "trigger_type",
	"created_at":   "created_at",
}

var validTriggerTypes = map[model.JourneyTriggerType]bool{
	model.TriggerSegmentEntry: true, model.TriggerVisitCompleted: true,
	model.TriggerCouponRedeemed: true, model.TriggerLifecycleChange: true,
	model.TriggerDateBased: true, model.TriggerAbandoned: true,
}

// JourneyRequest carries the writable fields of a Journey.
type JourneyRequest struct {
	SegmentID   *uuid.UUID                `json:"segment_id"`
	Name        *string                   `json:"name"`
	Description *string                   `json:"description"`
	TriggerType *model.JourneyTriggerType `json:"trigger_type"`
	IsActive    *bool                     `json:"is_active"`
	RowVersion  *int64                    `json:"row_version"`
}

func (r *JourneyRequest) applyTo(journey *model.Journey) {
	if r.SegmentID != nil {
		journey.SegmentID = r.SegmentID
	}
	if r.Name != nil {
		journey.Name = *r.Name
	}
	if r.Description != nil {
		journey.Description = *r.Description
	}
	if r.TriggerType != nil {
		journey.TriggerType = *r.TriggerType
	}
	if r.IsActive != nil {
		journey.IsActive = *r.IsActive
	}
}

// ListJourneys returns the tenant's automated marketing journeys.
func ListJourneys(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB().WithContext(c.Request().Context())

	query := db.Model(&model.Journey{})
	if trigger := c.QueryParam("trigger_type"); trigger != "" {
		query = query.Where("trigger_type = ?", trigger)
	}
	if active := c.QueryParam("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return writeError(c, log, "journey", "listing journeys", err)
	}

	query, err := applyExpand(query, c, journeyExpands)
	if err != nil {
		return writeError(c, log, "journey", "listing journeys", err)
	}
	query, err = applySort(query, c, journeySorts)
	if err != nil {
		return writeError(c, log, "journey", "listing journeys", err)
	}

	p := pagination(c)
	var journeys []model.Journey
	if err := p.apply(query).Find(&journeys).Error; err != nil {
		return writeError(c, log, "journey", "listing journeys", err)
	}
	return listEnvelope(c, journeys, count, p)
}

// GetJourney returns a single journey; expand=steps includes the ordered
// step list.
func GetJourney(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "journey", "retrieving the journey", err)
	}

	query := database.GetDB().WithContext(c.Request().Context())
	query, err = applyExpand(query, c, journeyExpands)
	if err != nil {
		return writeError(c, log, "journey", "retrieving the journey", err)
	}

	var journey model.Journey
	if err := database.First(query, &journey, "journey", "id = ?", id); err != nil {
		return writeError(c, log, "journey", "retrieving the journey", err)
	}
	return c.JSON(http.StatusOK, journey)
}

// CreateJourney creates an automated marketing flow.
func CreateJourney(c echo.Context) error {
	log := logger.FromEcho(c)

	var req JourneyRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "journey", "creating the journey", apperror.Validationf("invalid request body"))
	}
	if req.Name == nil || *req.Name == "" {
		return writeError(c, log, "journey", "creating the journey", apperror.Validationf("name is required"))
	}
	if req.TriggerType == nil || !validTriggerTypes[*req.TriggerType] {
		return writeError(c, log, "journey", "creating the journey", apperror.Validationf("a valid trigger_type is required"))
	}

	db := database.GetDB().WithContext(c.Request().Context())
	if req.SegmentID != nil {
		var segment model.Segment
		if err := database.First(db, &segment, "segment", "id = ?", *req.SegmentID); err != nil {
			return writeError(c, log, "journey", "creating the journey", err)
		}
	}

	journey := model.Journey{}
	req.applyTo(&journey)

	if err := database.Create(db, &journey); err != nil {
		return writeError(c, log, "journey", "creating the journey", err)
	}

	recordOp("journey", "create")
	log.Info("Journey created",
		zap.String("journey_id", journey.ID.String()),
		zap.String("name", journey.Name),
		zap.String("trigger_type", string(journey.TriggerType)))
	return c.JSON(http.StatusCreated, journey)
}

// PatchJourney applies a partial update to a journey.
func PatchJourney(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "journey", "updating the journey", err)
	}

	var req JourneyRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "journey", "updating the journey", apperror.Validationf("invalid request body"))
	}
	if req.TriggerType != nil && !validTriggerTypes[*req.TriggerType] {
		return writeError(c, log, "journey", "updating the journey", apperror.Validationf("unknown trigger_type %q", *req.TriggerType))
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var journey model.Journey
	if err := database.First(db, &journey, "journey", "id = ?", id); err != nil {
		return writeError(c, log, "journey", "updating the journey", err)
	}

	req.applyTo(&journey)
	if req.RowVersion != nil {
		journey.RowVersion = *req.RowVersion
	}
	if err := database.Update(db, &journey); err != nil {
		return writeError(c, log, "journey", "updating the journey", err)
	}

	recordOp("journey", "update")
	log.Info("Journey updated", zap.String("journey_id", id.String()))
	return c.JSON(http.StatusOK, journey)
}

// DeleteJourney soft deletes a journey.
func DeleteJourney(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "journey", "deleting the journey", err)
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var journey model.Journey
	if err := database.First(db, &journey, "journey", "id = ?", id); err != nil {
		return writeError(c, log, "journey", "deleting the journey", err)
	}
	if err := database.SoftDelete(db, &journey); err != nil {
		return writeError(c, log, "journey", "deleting the journey", err)
	}

	recordOp("journey", "delete")
	log.Info("Journey soft deleted", zap.String("journey_id", id.String()))
	return c.NoContent(http.StatusNoContent)
}

// JourneyStepRequest carries the writable fields of a JourneyStep.
type JourneyStepRequest struct {
	Name            *string                `json:"name"`
	Order           *int                   `json:"order"`
	Channel         *model.CampaignChannel `json:"channel"`
	DelayDays       *int                   `json:"delay_days"`
	DelayHours      *int                   `json:"delay_hours"`
	ContentTemplate *string                `json:"content_template"`
	RowVersion      *int64                 `json:"row_version"`
}

func (r *JourneyStepRequest) applyTo(step *model.JourneyStep) {
	if r.Name != nil {
		step.Name = *r.Name
	}
	if r.Order != nil {
		step.Order = *r.Order
	}
	if r.Channel != nil {
		step.Channel = *r.Channel
	}
	if r.DelayDays != nil {
		step.DelayDays = *r.DelayDays
	}
	if r.DelayHours != nil {
		step.DelayHours = *r.DelayHours
	}
	if r.ContentTemplate != nil {
		step.ContentTemplate = *r.ContentTemplate
	}
}

// ListJourneySteps returns the ordered steps of a journey.
func ListJourneySteps(c echo.Context) error {
	log := logger.FromEcho(c)
	journeyID, err := pathID(c)
	if err != nil {
		return writeError(c, log, "journey_step", "listing journey steps", err)
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var journey model.Journey
	if err := database.First(db, &journey, "journey", "id = ?", journeyID); err != nil {
		return writeError(c, log, "journey_step", "listing journey steps", err)
	}

	var steps []model.JourneyStep
	if err := db.Where("journey_id = ?", journeyID).Order("step_order").Find(&steps).Error; err != nil {
		return writeError(c, log, "journey_step", "listing journey steps", err)
	}
	return c.JSON(http.StatusOK, steps)
}

// AddJourneyStep appends a step to a journey. When no order is given the
// step lands after the current last one.
func AddJourneyStep(c echo.Context) error {
	log := logger.FromEcho(c)
	journeyID, err := pathID(c)
	if err != nil {
		return writeError(c, log, "journey_step", "adding the journey step", err)
	}

	var req JourneyStepRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "journey_step", "adding the journey step", apperror.Validationf("invalid request body"))
	}
	if req.Name == nil || *req.Name == "" {
		return writeError(c, log, "journey_step", "adding the journey step", apperror.Validationf("name is required"))
	}
	if req.Channel != nil && !validCampaignChannels[*req.Channel] {
		return writeError(c, log, "journey_step", "adding the journey step", apperror.Validationf("unknown channel %q", *req.Channel))
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var journey model.Journey
	if err := database.First(db, &journey, "journey", "id = ?", journeyID); err != nil {
		return writeError(c, log, "journey_step", "adding the journey step", err)
	}

	step := model.JourneyStep{JourneyID: journeyID}
	req.applyTo(&step)
	if req.Order == nil {
		var maxOrder int
		db.Model(&model.JourneyStep{}).Where("journey_id = ?", journeyID).
			Select("COALESCE(MAX(step_order), 0)").Scan(&maxOrder)
		step.Order = maxOrder + 1
	}

	if err := database.Create(db, &step); err != nil {
		return writeError(c, log, "journey_step", "adding the journey step", err)
	}

	recordOp("journey_step", "create")
	log.Info("Journey step added",
		zap.String("journey_id", journeyID.String()),
		zap.String("step_id", step.ID.String()),
		zap.Int("order", step.Order))
	return c.JSON(http.StatusCreated, step)
}

// PatchJourneyStep applies a partial update to a step of a journey.
func PatchJourneyStep(c echo.Context) error {
	log := logger.FromEcho(c)
	journeyID, err := pathID(c)
	if err != nil {
		return writeError(c, log, "journey_step", "updating the journey step", err)
	}
	stepID, err := uuid.Parse(c.Param("stepId"))
	if err != nil {
		return writeError(c, log, "journey_step", "updating the journey step", apperror.Validationf("invalid step id"))
	}

	var req JourneyStepRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "journey_step", "updating the journey step", apperror.Validationf("invalid request body"))
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var step model.JourneyStep
	if err := database.First(db, &step, "journey step", "id = ? AND journey_id = ?", stepID, journeyID); err != nil {
		return writeError(c, log, "journey_step", "updating the journey step", err)
	}

	req.applyTo(&step)
	if req.RowVersion != nil {
		step.RowVersion = *req.RowVersion
	}
	if err := database.Update(db, &step); err != nil {
		return writeError(c, log, "journey_step", "updating the journey step", err)
	}

	recordOp("journey_step", "update")
	return c.JSON(http.StatusOK, step)
}

// DeleteJourneyStep soft deletes a step of a journey.
func DeleteJourneyStep(c echo.Context) error {
	log := logger.FromEcho(c)
	journeyID, err := pathID(c)
	if err != nil {
		return writeError(c, log, "journey_step", "deleting the journey step", err)
	}
	stepID, err := uuid.Parse(c.Param("stepId"))
	if err != nil {
		return writeError(c, log, "journey_step", "deleting the journey step", apperror.Validationf("invalid step id"))
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var step model.JourneyStep
	if err := database.First(db, &step, "journey step", "id = ? AND journey_id = ?", stepID, journeyID); err != nil {
		return writeError(c, log, "journey_step", "deleting the journey step", err)
	}
	if err := database.SoftDelete(db, &step); err != nil {
		return writeError(c, log, "journey_step", "deleting the journey step", err)
	}

	recordOp("journey_step", "delete")
	return c.NoContent(http.StatusNoContent)
}
