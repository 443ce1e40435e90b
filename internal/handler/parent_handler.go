package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"crm-service/internal/apperror"
	"crm-service/internal/model"
	"crm-service/pkg/database"
	"crm-service/pkg/logger"
)

var parentExpands = map[string]string{
	"stores":    "Stores",
	"segments":  "Segments",
	"campaigns": "Campaigns",
}

var parentSorts = map[string]string{
	"name":       "name",
	"brand_name": "brand_name",
	"created_at": "created_at",
}

// ParentRequest carries the writable fields of a Parent.
type ParentRequest struct {
	Name       *string `json:"name"`
	BrandName  *string `json:"brand_name"`
	LogoURL    *string `json:"logo_url"`
	IsActive   *bool   `json:"is_active"`
	RowVersion *int64  `json:"row_version"`
}

func (r *ParentRequest) applyTo(parent *model.Parent) {
	if r.Name != nil {
		parent.Name = *r.Name
	}
	if r.BrandName != nil {
		parent.BrandName = *r.BrandName
	}
	if r.LogoURL != nil {
		parent.LogoURL = *r.LogoURL
	}
	if r.IsActive != nil {
		parent.IsActive = *r.IsActive
	}
}

// ListParents returns all tenants. Parents are the partition roots and are
// not themselves tenant-scoped.
func ListParents(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB().WithContext(c.Request().Context())

	query := db.Model(&model.Parent{})
	if active := c.QueryParam("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return writeError(c, log, "parent", "listing parents", err)
	}

	query, err := applyExpand(query, c, parentExpands)
	if err != nil {
		return writeError(c, log, "parent", "listing parents", err)
	}
	query, err = applySort(query, c, parentSorts)
	if err != nil {
		return writeError(c, log, "parent", "listing parents", err)
	}

	p := pagination(c)
	var parents []model.Parent
	if err := p.apply(query).Find(&parents).Error; err != nil {
		return writeError(c, log, "parent", "listing parents", err)
	}
	return listEnvelope(c, parents, count, p)
}

// GetParent returns a single tenant by id.
func GetParent(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "parent", "retrieving the parent", err)
	}

	query := database.GetDB().WithContext(c.Request().Context())
	query, err = applyExpand(query, c, parentExpands)
	if err != nil {
		return writeError(c, log, "parent", "retrieving the parent", err)
	}

	var parent model.Parent
	if err := database.First(query, &parent, "parent", "id = ?", id); err != nil {
		return writeError(c, log, "parent", "retrieving the parent", err)
	}
	return c.JSON(http.StatusOK, parent)
}

// CreateParent provisions a new tenant.
func CreateParent(c echo.Context) error {
	log := logger.FromEcho(c)

	var req ParentRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "parent", "creating the parent", apperror.Validationf("invalid request body"))
	}
	if req.Name == nil || *req.Name == "" {
		return writeError(c, log, "parent", "creating the parent", apperror.Validationf("name is required"))
	}

	parent := model.Parent{IsActive: true}
	req.applyTo(&parent)

	db := database.GetDB().WithContext(c.Request().Context())
	if err := database.Create(db, &parent); err != nil {
		return writeError(c, log, "parent", "creating the parent", err)
	}

	recordOp("parent", "create")
	log.Info("Parent created",
		zap.String("parent_id", parent.ID.String()),
		zap.String("name", parent.Name))
	return c.JSON(http.StatusCreated, parent)
}

// PatchParent applies a partial update to a tenant.
func PatchParent(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "parent", "updating the parent", err)
	}

	var req ParentRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "parent", "updating the parent", apperror.Validationf("invalid request body"))
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var parent model.Parent
	if err := database.First(db, &parent, "parent", "id = ?", id); err != nil {
		return writeError(c, log, "parent", "updating the parent", err)
	}

	req.applyTo(&parent)
	if req.RowVersion != nil {
		parent.RowVersion = *req.RowVersion
	}
	if err := database.Update(db, &parent); err != nil {
		return writeError(c, log, "parent", "updating the parent", err)
	}

	recordOp("parent", "update")
	log.Info("Parent updated", zap.String("parent_id", id.String()))
	return c.JSON(http.StatusOK, parent)
}

// DeleteParent soft deletes a tenant.
func DeleteParent(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "parent", "deleting the parent", err)
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var parent model.Parent
	if err := database.First(db, &parent, "parent", "id = ?", id); err != nil {
		return writeError(c, log, "parent", "deleting the parent", err)
	}
	if err := database.SoftDelete(db, &parent); err != nil {
		return writeError(c, log, "parent", "deleting the parent", err)
	}

	recordOp("parent", "delete")
	log.Info("Parent soft deleted", zap.String("parent_id", id.String()))
	return c.NoContent(http.StatusNoContent)
}
