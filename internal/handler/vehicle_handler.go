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

var vehicleSorts = map[string]string{
	"make":       "make",
	"model":      "model",
	"year":       "year",
	"created_at": "created_at",
}

// VehicleRequest carries the writable fields of a Vehicle.
type VehicleRequest struct {
	CustomerID   *uuid.UUID `json:"customer_id"`
	Make         *string    `json:"make"`
	Model        *string    `json:"model"`
	Year         *int       `json:"year"`
	Color        *string    `json:"color"`
	LicensePlate *string    `json:"license_plate"`
	VIN          *string    `json:"vin"`
	Mileage      *int       `json:"mileage"`
	IsPrimary    *bool      `json:"is_primary"`
	RowVersion   *int64     `json:"row_version"`
}

func (r *VehicleRequest) applyTo(vehicle *model.Vehicle) {
	if r.Make != nil {
		vehicle.Make = *r.Make
	}
	if r.Model != nil {
		vehicle.Model = *r.Model
	}
	if r.Year != nil {
		vehicle.Year = r.Year
	}
	if r.Color != nil {
		vehicle.Color = *r.Color
	}
	if r.LicensePlate != nil {
		vehicle.LicensePlate = *r.LicensePlate
	}
	if r.VIN != nil {
		vehicle.VIN = *r.VIN
	}
	if r.Mileage != nil {
		vehicle.Mileage = r.Mileage
	}
	if r.IsPrimary != nil {
		vehicle.IsPrimary = *r.IsPrimary
	}
}

// ListVehicles returns the tenant's vehicles, optionally filtered by owner.
func ListVehicles(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB().WithContext(c.Request().Context())

	query := db.Model(&model.Vehicle{})
	if customerID := c.QueryParam("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return writeError(c, log, "vehicle", "listing vehicles", err)
	}

	query, err := applySort(query, c, vehicleSorts)
	if err != nil {
		return writeError(c, log, "vehicle", "listing vehicles", err)
	}

	p := pagination(c)
	var vehicles []model.Vehicle
	if err := p.apply(query).Find(&vehicles).Error; err != nil {
		return writeError(c, log, "vehicle", "listing vehicles", err)
	}
	return listEnvelope(c, vehicles, count, p)
}

// GetVehicle returns a single vehicle.
func GetVehicle(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "vehicle", "retrieving the vehicle", err)
	}

	var vehicle model.Vehicle
	db := database.GetDB().WithContext(c.Request().Context())
	if err := database.First(db, &vehicle, "vehicle", "id = ?", id); err != nil {
		return writeError(c, log, "vehicle", "retrieving the vehicle", err)
	}
	return c.JSON(http.StatusOK, vehicle)
}

// CreateVehicle registers a vehicle to a customer. The owning customer must
// be visible to the request tenant.
func CreateVehicle(c echo.Context) error {
	log := logger.FromEcho(c)

	var req VehicleRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "vehicle", "creating the vehicle", apperror.Validationf("invalid request body"))
	}
	if req.CustomerID == nil {
		return writeError(c, log, "vehicle", "creating the vehicle", apperror.Validationf("customer_id is required"))
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var owner model.Customer
	if err := database.First(db, &owner, "customer", "id = ?", *req.CustomerID); err != nil {
		return writeError(c, log, "vehicle", "creating the vehicle", err)
	}

	vehicle := model.Vehicle{CustomerID: *req.CustomerID}
	req.applyTo(&vehicle)

	if err := database.Create(db, &vehicle); err != nil {
		return writeError(c, log, "vehicle", "creating the vehicle", err)
	}

	recordOp("vehicle", "create")
	log.Info("Vehicle created",
		zap.String("vehicle_id", vehicle.ID.String()),
		zap.String("customer_id", vehicle.CustomerID.String()))
	return c.JSON(http.StatusCreated, vehicle)
}

// PatchVehicle applies a partial update to a vehicle.
func PatchVehicle(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "vehicle", "updating the vehicle", err)
	}

	var req VehicleRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "vehicle", "updating the vehicle", apperror.Validationf("invalid request body"))
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var vehicle model.Vehicle
	if err := database.First(db, &vehicle, "vehicle", "id = ?", id); err != nil {
		return writeError(c, log, "vehicle", "updating the vehicle", err)
	}

	req.applyTo(&vehicle)
	if req.RowVersion != nil {
		vehicle.RowVersion = *req.RowVersion
	}
	if err := database.Update(db, &vehicle); err != nil {
		return writeError(c, log, "vehicle", "updating the vehicle", err)
	}

	recordOp("vehicle", "update")
	log.Info("Vehicle updated", zap.String("vehicle_id", id.String()))
	return c.JSON(http.StatusOK, vehicle)
}

// DeleteVehicle soft deletes a vehicle.
func DeleteVehicle(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "vehicle", "deleting the vehicle", err)
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var vehicle model.Vehicle
	if err := database.First(db, &vehicle, "vehicle", "id = ?", id); err != nil {
		return writeError(c, log, "vehicle", "deleting the vehicle", err)
	}
	if err := database.SoftDelete(db, &vehicle); err != nil {
		return writeError(c, log, "vehicle", "deleting the vehicle", err)
	}

	recordOp("vehicle", "delete")
	log.Info("Vehicle soft deleted", zap.String("vehicle_id", id.String()))
	return c.NoContent(http.StatusNoContent)
}
