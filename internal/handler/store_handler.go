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

var storeExpands = map[string]string{
	"visits": "Visits",
}

var storeSorts = map[string]string{
	"name":         "name",
	"store_number": "store_number",
	"city":         "city",
	"state":        "state",
	"created_at":   "created_at",
}

// StoreRequest carries the writable fields of a Store.
type StoreRequest struct {
	Name        *string `json:"name"`
	StoreNumber *string `json:"store_number"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	ZipCode     *string `json:"zip_code"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	IsActive    *bool   `json:"is_active"`
	RowVersion  *int64  `json:"row_version"`
}

func (r *StoreRequest) applyTo(store *model.Store) {
	if r.Name != nil {
		store.Name = *r.Name
	}
	if r.StoreNumber != nil {
		store.StoreNumber = *r.StoreNumber
	}
	if r.Address != nil {
		store.Address = *r.Address
	}
	if r.City != nil {
		store.City = *r.City
	}
	if r.State != nil {
		store.State = *r.State
	}
	if r.ZipCode != nil {
		store.ZipCode = *r.ZipCode
	}
	if r.Phone != nil {
		store.Phone = *r.Phone
	}
	if r.Email != nil {
		store.Email = *r.Email
	}
	if r.IsActive != nil {
		store.IsActive = *r.IsActive
	}
}

// ListStores returns the tenant's store locations.
func ListStores(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB().WithContext(c.Request().Context())

	query := db.Model(&model.Store{})
	if active := c.QueryParam("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}
	if state := c.QueryParam("state"); state != "" {
		query = query.Where("state = ?", state)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return writeError(c, log, "store", "listing stores", err)
	}

	query, err := applyExpand(query, c, storeExpands)
	if err != nil {
		return writeError(c, log, "store", "listing stores", err)
	}
	query, err = applySort(query, c, storeSorts)
	if err != nil {
		return writeError(c, log, "store", "listing stores", err)
	}

	p := pagination(c)
	var stores []model.Store
	if err := p.apply(query).Find(&stores).Error; err != nil {
		return writeError(c, log, "store", "listing stores", err)
	}
	return listEnvelope(c, stores, count, p)
}

// GetStore returns a single store.
func GetStore(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "store", "retrieving the store", err)
	}

	var store model.Store
	db := database.GetDB().WithContext(c.Request().Context())
	if err := database.First(db, &store, "store", "id = ?", id); err != nil {
		return writeError(c, log, "store", "retrieving the store", err)
	}
	return c.JSON(http.StatusOK, store)
}

// CreateStore adds a store location under the request tenant.
func CreateStore(c echo.Context) error {
	log := logger.FromEcho(c)

	var req StoreRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "store", "creating the store", apperror.Validationf("invalid request body"))
	}
	if req.Name == nil || *req.Name == "" {
		return writeError(c, log, "store", "creating the store", apperror.Validationf("name is required"))
	}

	store := model.Store{IsActive: true}
	req.applyTo(&store)

	db := database.GetDB().WithContext(c.Request().Context())
	if err := database.Create(db, &store); err != nil {
		return writeError(c, log, "store", "creating the store", err)
	}

	recordOp("store", "create")
	log.Info("Store created",
		zap.String("store_id", store.ID.String()),
		zap.String("name", store.Name))
	return c.JSON(http.StatusCreated, store)
}

// PatchStore applies a partial update to a store.
func PatchStore(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "store", "updating the store", err)
	}

	var req StoreRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "store", "updating the store", apperror.Validationf("invalid request body"))
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var store model.Store
	if err := database.First(db, &store, "store", "id = ?", id); err != nil {
		return writeError(c, log, "store", "updating the store", err)
	}

	req.applyTo(&store)
	if req.RowVersion != nil {
		store.RowVersion = *req.RowVersion
	}
	if err := database.Update(db, &store); err != nil {
		return writeError(c, log, "store", "updating the store", err)
	}

	recordOp("store", "update")
	log.Info("Store updated", zap.String("store_id", id.String()))
	return c.JSON(http.StatusOK, store)
}

// DeleteStore soft deletes a store.
func DeleteStore(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "store", "deleting the store", err)
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var store model.Store
	if err := database.First(db, &store, "store", "id = ?", id); err != nil {
		return writeError(c, log, "store", "deleting the store", err)
	}
	if err := database.SoftDelete(db, &store); err != nil {
		return writeError(c, log, "store", "deleting the store", err)
	}

	recordOp("store", "delete")
	log.Info("Store soft deleted", zap.String("store_id", id.String()))
	return c.NoContent(http.StatusNoContent)
}
