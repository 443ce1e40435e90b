package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"crm-service/internal/apperror"
	"crm-service/internal/model"
	"crm-service/pkg/database"
	"crm-service/pkg/logger"
)

var segmentExpands = map[string]string{
	"members":   "CustomerSegments.Customer",
	"campaigns": "Campaigns",
	"journeys":  "Journeys",
}

var segmentSorts = map[string]string{
	"name":           "name",
	"type":           "type",
	"customer_count": "customer_count",
	"created_at":     "created_at",
}

// SegmentRequest carries the writable fields of a Segment.
type SegmentRequest struct {
	Name        *string            `json:"name"`
	Description *string            `json:"description"`
	Type        *model.SegmentType `json:"type"`
	RulesJSON   *string            `json:"rules_json"`
	IsActive    *bool              `json:"is_active"`
	RowVersion  *int64             `json:"row_version"`
}

func (r *SegmentRequest) applyTo(segment *model.Segment) {
	if r.Name != nil {
		segment.Name = *r.Name
	}
	if r.Description != nil {
		segment.Description = *r.Description
	}
	if r.Type != nil {
		segment.Type = *r.Type
	}
	if r.RulesJSON != nil {
		segment.RulesJSON = *r.RulesJSON
	}
	if r.IsActive != nil {
		segment.IsActive = *r.IsActive
	}
}

// ListSegments returns the tenant's segments.
func ListSegments(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB().WithContext(c.Request().Context())

	query := db.Model(&model.Segment{})
	if typ := c.QueryParam("type"); typ != "" {
		query = query.Where("type = ?", typ)
	}
	if active := c.QueryParam("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return writeError(c, log, "segment", "listing segments", err)
	}

	query, err := applyExpand(query, c, segmentExpands)
	if err != nil {
		return writeError(c, log, "segment", "listing segments", err)
	}
	query, err = applySort(query, c, segmentSorts)
	if err != nil {
		return writeError(c, log, "segment", "listing segments", err)
	}

	p := pagination(c)
	var segments []model.Segment
	if err := p.apply(query).Find(&segments).Error; err != nil {
		return writeError(c, log, "segment", "listing segments", err)
	}
	return listEnvelope(c, segments, count, p)
}

// GetSegment returns a single segment with optional expansions.
func GetSegment(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "segment", "retrieving the segment", err)
	}

	query := database.GetDB().WithContext(c.Request().Context())
	query, err = applyExpand(query, c, segmentExpands)
	if err != nil {
		return writeError(c, log, "segment", "retrieving the segment", err)
	}

	var segment model.Segment
	if err := database.First(query, &segment, "segment", "id = ?", id); err != nil {
		return writeError(c, log, "segment", "retrieving the segment", err)
	}
	return c.JSON(http.StatusOK, segment)
}

// CreateSegment creates a customer grouping. Dynamic segments carry their
// membership rules as a JSON document.
func CreateSegment(c echo.Context) error {
	log := logger.FromEcho(c)

	var req SegmentRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "segment", "creating the segment", apperror.Validationf("invalid request body"))
	}
	if req.Name == nil || *req.Name == "" {
		return writeError(c, log, "segment", "creating the segment", apperror.Validationf("name is required"))
	}
	if req.Type != nil && *req.Type != model.SegmentStatic && *req.Type != model.SegmentDynamic {
		return writeError(c, log, "segment", "creating the segment", apperror.Validationf("unknown segment type %q", *req.Type))
	}

	segment := model.Segment{Type: model.SegmentDynamic, IsActive: true}
	req.applyTo(&segment)

	db := database.GetDB().WithContext(c.Request().Context())
	if err := database.Create(db, &segment); err != nil {
		return writeError(c, log, "segment", "creating the segment", err)
	}

	recordOp("segment", "create")
	log.Info("Segment created",
		zap.String("segment_id", segment.ID.String()),
		zap.String("name", segment.Name),
		zap.String("type", string(segment.Type)))
	return c.JSON(http.StatusCreated, segment)
}

// PatchSegment applies a partial update to a segment.
func PatchSegment(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "segment", "updating the segment", err)
	}

	var req SegmentRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "segment", "updating the segment", apperror.Validationf("invalid request body"))
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var segment model.Segment
	if err := database.First(db, &segment, "segment", "id = ?", id); err != nil {
		return writeError(c, log, "segment", "updating the segment", err)
	}

	req.applyTo(&segment)
	if req.RowVersion != nil {
		segment.RowVersion = *req.RowVersion
	}
	if err := database.Update(db, &segment); err != nil {
		return writeError(c, log, "segment", "updating the segment", err)
	}

	recordOp("segment", "update")
	log.Info("Segment updated", zap.String("segment_id", id.String()))
	return c.JSON(http.StatusOK, segment)
}

// DeleteSegment soft deletes a segment.
func DeleteSegment(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "segment", "deleting the segment", err)
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var segment model.Segment
	if err := database.First(db, &segment, "segment", "id = ?", id); err != nil {
		return writeError(c, log, "segment", "deleting the segment", err)
	}
	if err := database.SoftDelete(db, &segment); err != nil {
		return writeError(c, log, "segment", "deleting the segment", err)
	}

	recordOp("segment", "delete")
	log.Info("Segment soft deleted", zap.String("segment_id", id.String()))
	return c.NoContent(http.StatusNoContent)
}

// SegmentMemberRequest identifies the customer to add to a segment.
type SegmentMemberRequest struct {
	CustomerID uuid.UUID `json:"customer_id"`
}

// AddSegmentMember adds a customer to a segment and bumps the member count.
// Adding a customer who is already a member is a no-op.
func AddSegmentMember(c echo.Context) error {
	log := logger.FromEcho(c)
	segmentID, err := pathID(c)
	if err != nil {
		return writeError(c, log, "segment", "adding the segment member", err)
	}

	var req SegmentMemberRequest
	if err := c.Bind(&req); err != nil || req.CustomerID == uuid.Nil {
		return writeError(c, log, "segment", "adding the segment member", apperror.Validationf("customer_id is required"))
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var membership model.CustomerSegment
	err = db.Transaction(func(tx *gorm.DB) error {
		var segment model.Segment
		if err := database.First(tx, &segment, "segment", "id = ?", segmentID); err != nil {
			return err
		}
		var customer model.Customer
		if err := database.First(tx, &customer, "customer", "id = ?", req.CustomerID); err != nil {
			return err
		}

		err := database.First(tx, &membership, "segment membership",
			"segment_id = ? AND customer_id = ?", segmentID, req.CustomerID)
		if err == nil {
			return nil // already a member
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return err
		}

		membership = model.CustomerSegment{
			CustomerID: req.CustomerID,
			SegmentID:  segmentID,
			AddedAt:    time.Now().UTC(),
		}
		if err := database.Create(tx, &membership); err != nil {
			return err
		}

		segment.CustomerCount++
		return database.Update(tx, &segment)
	})
	if err != nil {
		return writeError(c, log, "segment", "adding the segment member", err)
	}

	recordOp("segment", "add_member")
	log.Info("Segment member added",
		zap.String("segment_id", segmentID.String()),
		zap.String("customer_id", req.CustomerID.String()))
	return c.JSON(http.StatusOK, membership)
}

// RemoveSegmentMember removes a customer from a segment.
func RemoveSegmentMember(c echo.Context) error {
	log := logger.FromEcho(c)
	segmentID, err := pathID(c)
	if err != nil {
		return writeError(c, log, "segment", "removing the segment member", err)
	}
	customerID, err := uuid.Parse(c.Param("customerId"))
	if err != nil {
		return writeError(c, log, "segment", "removing the segment member", apperror.Validationf("invalid customer id"))
	}

	db := database.GetDB().WithContext(c.Request().Context())
	err = db.Transaction(func(tx *gorm.DB) error {
		var membership model.CustomerSegment
		if err := database.First(tx, &membership, "segment membership",
			"segment_id = ? AND customer_id = ?", segmentID, customerID); err != nil {
			return err
		}
		if err := database.SoftDelete(tx, &membership); err != nil {
			return err
		}

		var segment model.Segment
		if err := database.First(tx, &segment, "segment", "id = ?", segmentID); err != nil {
			return err
		}
		if segment.CustomerCount > 0 {
			segment.CustomerCount--
		}
		return database.Update(tx, &segment)
	})
	if err != nil {
		return writeError(c, log, "segment", "removing the segment member", err)
	}

	recordOp("segment", "remove_member")
	log.Info("Segment member removed",
		zap.String("segment_id", segmentID.String()),
		zap.String("customer_id", customerID.String()))
	return c.NoContent(http.StatusNoContent)
}
