package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"crm-service/internal/apperror"
	"crm-service/internal/model"
	"crm-service/pkg/database"
	"crm-service/pkg/logger"
)

var customerExpands = map[string]string{
	"vehicles": "Vehicles",
	"visits":   "Visits",
	"segments": "CustomerSegments.Segment",
}

var customerSorts = map[string]string{
	"first_name":      "first_name",
	"last_name":       "last_name",
	"email":           "email",
	"lifecycle_stage": "lifecycle_stage",
	"last_visit_date": "last_visit_date",
	"total_spent":     "total_spent",
	"total_visits":    "total_visits",
	"created_at":      "created_at",
}

// CustomerRequest carries the writable customer fields. Pointer fields are
// applied only when present, so the same shape serves create and patch.
type CustomerRequest struct {
	FirstName   *string    `json:"first_name"`
	LastName    *string    `json:"last_name"`
	Email       *string    `json:"email"`
	Phone       *string    `json:"phone"`
	Address     *string    `json:"address"`
	City        *string    `json:"city"`
	State       *string    `json:"state"`
	ZipCode     *string    `json:"zip_code"`
	DateOfBirth *time.Time `json:"date_of_birth"`

	LifecycleStage *model.CustomerLifecycleStage `json:"lifecycle_stage"`

	EmailOptIn      *bool `json:"email_opt_in"`
	SmsOptIn        *bool `json:"sms_opt_in"`
	DirectMailOptIn *bool `json:"direct_mail_opt_in"`
	IsActive        *bool `json:"is_active"`

	RowVersion *int64 `json:"row_version"`
}

func (r *CustomerRequest) applyTo(customer *model.Customer) {
	if r.FirstName != nil {
		customer.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		customer.LastName = *r.LastName
	}
	if r.Email != nil {
		customer.Email = *r.Email
	}
	if r.Phone != nil {
		customer.Phone = *r.Phone
	}
	if r.Address != nil {
		customer.Address = *r.Address
	}
	if r.City != nil {
		customer.City = *r.City
	}
	if r.State != nil {
		customer.State = *r.State
	}
	if r.ZipCode != nil {
		customer.ZipCode = *r.ZipCode
	}
	if r.DateOfBirth != nil {
		customer.DateOfBirth = r.DateOfBirth
	}
	if r.LifecycleStage != nil {
		customer.LifecycleStage = *r.LifecycleStage
	}
	if r.EmailOptIn != nil {
		customer.EmailOptIn = *r.EmailOptIn
	}
	if r.SmsOptIn != nil {
		customer.SmsOptIn = *r.SmsOptIn
	}
	if r.DirectMailOptIn != nil {
		customer.DirectMailOptIn = *r.DirectMailOptIn
	}
	if r.IsActive != nil {
		customer.IsActive = *r.IsActive
	}
}

// ListCustomers returns the tenant's customers with filtering, sorting,
// expansion and pagination.
func ListCustomers(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB().WithContext(c.Request().Context())

	query := db.Model(&model.Customer{})
	if stage := c.QueryParam("lifecycle_stage"); stage != "" {
		query = query.Where("lifecycle_stage = ?", stage)
	}
	if active := c.QueryParam("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}
	if email := c.QueryParam("email"); email != "" {
		query = query.Where("email = ?", email)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return writeError(c, log, "customer", "listing customers", err)
	}

	query, err := applyExpand(query, c, customerExpands)
	if err != nil {
		return writeError(c, log, "customer", "listing customers", err)
	}
	query, err = applySort(query, c, customerSorts)
	if err != nil {
		return writeError(c, log, "customer", "listing customers", err)
	}

	p := pagination(c)
	var customers []model.Customer
	if err := p.apply(query).Find(&customers).Error; err != nil {
		return writeError(c, log, "customer", "listing customers", err)
	}

	log.Info("Customers listed", zap.Int("count", len(customers)), zap.Int64("total", count))
	return listEnvelope(c, customers, count, p)
}

// GetCustomer returns a single customer with optional expansions.
func GetCustomer(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "customer", "retrieving the customer", err)
	}

	query := database.GetDB().WithContext(c.Request().Context())
	query, err = applyExpand(query, c, customerExpands)
	if err != nil {
		return writeError(c, log, "customer", "retrieving the customer", err)
	}

	var customer model.Customer
	if err := database.First(query, &customer, "customer", "id = ?", id); err != nil {
		return writeError(c, log, "customer", "retrieving the customer", err)
	}
	return c.JSON(http.StatusOK, customer)
}

// CreateCustomer inserts a new customer under the request tenant.
func CreateCustomer(c echo.Context) error {
	log := logger.FromEcho(c)

	var req CustomerRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "customer", "creating the customer", apperror.Validationf("invalid request body"))
	}
	if req.FirstName == nil || *req.FirstName == "" || req.LastName == nil || *req.LastName == "" {
		return writeError(c, log, "customer", "creating the customer", apperror.Validationf("first_name and last_name are required"))
	}
	if req.Email == nil || *req.Email == "" {
		return writeError(c, log, "customer", "creating the customer", apperror.Validationf("email is required"))
	}

	customer := model.Customer{
		LifecycleStage:  model.LifecycleNew,
		EmailOptIn:      true,
		DirectMailOptIn: true,
		IsActive:        true,
	}
	req.applyTo(&customer)

	db := database.GetDB().WithContext(c.Request().Context())
	if err := database.Create(db, &customer); err != nil {
		return writeError(c, log, "customer", "creating the customer", err)
	}

	recordOp("customer", "create")
	log.Info("Customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("email", customer.Email))
	return c.JSON(http.StatusCreated, customer)
}

// PatchCustomer applies a partial update. Audit and tenant fields are not
// writable through the request body.
func PatchCustomer(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "customer", "updating the customer", err)
	}

	var req CustomerRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "customer", "updating the customer", apperror.Validationf("invalid request body"))
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var customer model.Customer
	if err := database.First(db, &customer, "customer", "id = ?", id); err != nil {
		return writeError(c, log, "customer", "updating the customer", err)
	}

	req.applyTo(&customer)
	if req.RowVersion != nil {
		customer.RowVersion = *req.RowVersion
	}
	if err := database.Update(db, &customer); err != nil {
		return writeError(c, log, "customer", "updating the customer", err)
	}

	recordOp("customer", "update")
	log.Info("Customer updated", zap.String("customer_id", id.String()))
	return c.JSON(http.StatusOK, customer)
}

// DeleteCustomer soft deletes a customer. The row is retained with the
// deletion stamp and disappears from every read path.
func DeleteCustomer(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "customer", "deleting the customer", err)
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var customer model.Customer
	if err := database.First(db, &customer, "customer", "id = ?", id); err != nil {
		return writeError(c, log, "customer", "deleting the customer", err)
	}
	if err := database.SoftDelete(db, &customer); err != nil {
		return writeError(c, log, "customer", "deleting the customer", err)
	}

	recordOp("customer", "delete")
	log.Info("Customer soft deleted", zap.String("customer_id", id.String()))
	return c.NoContent(http.StatusNoContent)
}
