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

var campaignExpands = map[string]string{
	"segment": "Segment",
	"coupons": "Coupons",
}

var campaignSorts = map[string]string{
	"name":       "name",
	"status":     "status",
	"channel":    "channel",
	"start_date": "start_date",
	"revenue":    "revenue",
	"roas":       "roas",
	"created_at": "created_at",
}

var validCampaignStatuses = map[model.CampaignStatus]bool{
	model.CampaignDraft: true, model.CampaignScheduled: true,
	model.CampaignActive: true, model.CampaignPaused: true,
	model.CampaignCompleted: true, model.CampaignCancelled: true,
}

var validCampaignChannels = map[model.CampaignChannel]bool{
	model.ChannelDirectMail: true, model.ChannelEmail: true,
	model.ChannelSMS: true, model.ChannelMeta: true,
	model.ChannelLandingPage: true, model.ChannelPhone: true,
}

// CampaignRequest carries the writable fields of a Campaign.
type CampaignRequest struct {
	SegmentID   *uuid.UUID             `json:"segment_id"`
	Name        *string                `json:"name"`
	Description *string                `json:"description"`
	Status      *model.CampaignStatus  `json:"status"`
	Channel     *model.CampaignChannel `json:"channel"`
	StartDate   *time.Time             `json:"start_date"`
	EndDate     *time.Time             `json:"end_date"`

	Budget         *float64 `json:"budget"`
	Spent          *float64 `json:"spent"`
	TargetAudience *int     `json:"target_audience"`
	Sent           *int     `json:"sent"`
	Delivered      *int     `json:"delivered"`
	Opened         *int     `json:"opened"`
	Clicked        *int     `json:"clicked"`

	RowVersion *int64 `json:"row_version"`
}

func (r *CampaignRequest) validate() error {
	if r.Status != nil && !validCampaignStatuses[*r.Status] {
		return apperror.Validationf("unknown campaign status %q", *r.Status)
	}
	if r.Channel != nil && !validCampaignChannels[*r.Channel] {
		return apperror.Validationf("unknown campaign channel %q", *r.Channel)
	}
	return nil
}

func (r *CampaignRequest) applyTo(campaign *model.Campaign) {
	if r.SegmentID != nil {
		campaign.SegmentID = r.SegmentID
	}
	if r.Name != nil {
		campaign.Name = *r.Name
	}
	if r.Description != nil {
		campaign.Description = *r.Description
	}
	if r.Status != nil {
		campaign.Status = *r.Status
	}
	if r.Channel != nil {
		campaign.Channel = *r.Channel
	}
	if r.StartDate != nil {
		campaign.StartDate = r.StartDate
	}
	if r.EndDate != nil {
		campaign.EndDate = r.EndDate
	}
	if r.Budget != nil {
		campaign.Budget = *r.Budget
	}
	if r.Spent != nil {
		campaign.Spent = *r.Spent
	}
	if r.TargetAudience != nil {
		campaign.TargetAudience = *r.TargetAudience
	}
	if r.Sent != nil {
		campaign.Sent = *r.Sent
	}
	if r.Delivered != nil {
		campaign.Delivered = *r.Delivered
	}
	if r.Opened != nil {
		campaign.Opened = *r.Opened
	}
	if r.Clicked != nil {
		campaign.Clicked = *r.Clicked
	}
	if campaign.Spent > 0 {
		campaign.ROAS = campaign.Revenue / campaign.Spent
	}
}

// ListCampaigns returns the tenant's campaigns with status and channel
// filters.
func ListCampaigns(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB().WithContext(c.Request().Context())

	query := db.Model(&model.Campaign{})
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if channel := c.QueryParam("channel"); channel != "" {
		query = query.Where("channel = ?", channel)
	}
	if segmentID := c.QueryParam("segment_id"); segmentID != "" {
		query = query.Where("segment_id = ?", segmentID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return writeError(c, log, "campaign", "listing campaigns", err)
	}

	query, err := applyExpand(query, c, campaignExpands)
	if err != nil {
		return writeError(c, log, "campaign", "listing campaigns", err)
	}
	query, err = applySort(query, c, campaignSorts)
	if err != nil {
		return writeError(c, log, "campaign", "listing campaigns", err)
	}

	p := pagination(c)
	var campaigns []model.Campaign
	if err := p.apply(query).Find(&campaigns).Error; err != nil {
		return writeError(c, log, "campaign", "listing campaigns", err)
	}
	return listEnvelope(c, campaigns, count, p)
}

// GetCampaign returns a single campaign with optional expansions.
func GetCampaign(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "campaign", "retrieving the campaign", err)
	}

	query := database.GetDB().WithContext(c.Request().Context())
	query, err = applyExpand(query, c, campaignExpands)
	if err != nil {
		return writeError(c, log, "campaign", "retrieving the campaign", err)
	}

	var campaign model.Campaign
	if err := database.First(query, &campaign, "campaign", "id = ?", id); err != nil {
		return writeError(c, log, "campaign", "retrieving the campaign", err)
	}
	return c.JSON(http.StatusOK, campaign)
}

// CreateCampaign creates a campaign in Draft status unless the request says
// otherwise. A targeted segment must be visible to the request tenant.
func CreateCampaign(c echo.Context) error {
	log := logger.FromEcho(c)

	var req CampaignRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "campaign", "creating the campaign", apperror.Validationf("invalid request body"))
	}
	if req.Name == nil || *req.Name == "" {
		return writeError(c, log, "campaign", "creating the campaign", apperror.Validationf("name is required"))
	}
	if err := req.validate(); err != nil {
		return writeError(c, log, "campaign", "creating the campaign", err)
	}

	db := database.GetDB().WithContext(c.Request().Context())
	if req.SegmentID != nil {
		var segment model.Segment
		if err := database.First(db, &segment, "segment", "id = ?", *req.SegmentID); err != nil {
			return writeError(c, log, "campaign", "creating the campaign", err)
		}
	}

	campaign := model.Campaign{Status: model.CampaignDraft}
	req.applyTo(&campaign)

	if err := database.Create(db, &campaign); err != nil {
		return writeError(c, log, "campaign", "creating the campaign", err)
	}

	recordOp("campaign", "create")
	log.Info("Campaign created",
		zap.String("campaign_id", campaign.ID.String()),
		zap.String("name", campaign.Name),
		zap.String("channel", string(campaign.Channel)))
	return c.JSON(http.StatusCreated, campaign)
}

// PatchCampaign applies a partial update. Revenue and redemption counters
// are owned by the visit flow and not writable here.
func PatchCampaign(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "campaign", "updating the campaign", err)
	}

	var req CampaignRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "campaign", "updating the campaign", apperror.Validationf("invalid request body"))
	}
	if err := req.validate(); err != nil {
		return writeError(c, log, "campaign", "updating the campaign", err)
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var campaign model.Campaign
	if err := database.First(db, &campaign, "campaign", "id = ?", id); err != nil {
		return writeError(c, log, "campaign", "updating the campaign", err)
	}

	req.applyTo(&campaign)
	if req.RowVersion != nil {
		campaign.RowVersion = *req.RowVersion
	}
	if err := database.Update(db, &campaign); err != nil {
		return writeError(c, log, "campaign", "updating the campaign", err)
	}

	recordOp("campaign", "update")
	log.Info("Campaign updated", zap.String("campaign_id", id.String()))
	return c.JSON(http.StatusOK, campaign)
}

// DeleteCampaign soft deletes a campaign.
func DeleteCampaign(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "campaign", "deleting the campaign", err)
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var campaign model.Campaign
	if err := database.First(db, &campaign, "campaign", "id = ?", id); err != nil {
		return writeError(c, log, "campaign", "deleting the campaign", err)
	}
	if err := database.SoftDelete(db, &campaign); err != nil {
		return writeError(c, log, "campaign", "deleting the campaign", err)
	}

	recordOp("campaign", "delete")
	log.Info("Campaign soft deleted", zap.String("campaign_id", id.String()))
	return c.NoContent(http.StatusNoContent)
}
