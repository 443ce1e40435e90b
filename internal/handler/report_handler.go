package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"crm-service/internal/apperror"
	"crm-service/internal/model"
	"crm-service/internal/report"
	"crm-service/pkg/database"
	"crm-service/pkg/logger"
)

var reportTemplateSorts = map[string]string{
	"name":        "name",
	"category":    "category",
	"times_run":   "times_run",
	"last_run_at": "last_run_at",
	"created_at":  "created_at",
}

// ReportTemplateRequest carries the writable fields of a ReportTemplate.
type ReportTemplateRequest struct {
	Name              *string               `json:"name"`
	Description       *string               `json:"description"`
	Category          *model.ReportCategory `json:"category"`
	Type              *model.ReportType     `json:"type"`
	ConfigurationJSON *string               `json:"configuration_json"`
	VisualizationJSON *string               `json:"visualization_json"`
	IsPublic          *bool                 `json:"is_public"`
	IsActive          *bool                 `json:"is_active"`
	RowVersion        *int64                `json:"row_version"`
}

func (r *ReportTemplateRequest) applyTo(tpl *model.ReportTemplate) {
	if r.Name != nil {
		tpl.Name = *r.Name
	}
	if r.Description != nil {
		tpl.Description = *r.Description
	}
	if r.Category != nil {
		tpl.Category = *r.Category
	}
	if r.Type != nil {
		tpl.Type = *r.Type
	}
	if r.ConfigurationJSON != nil {
		tpl.ConfigurationJSON = *r.ConfigurationJSON
	}
	if r.VisualizationJSON != nil {
		tpl.VisualizationJSON = *r.VisualizationJSON
	}
	if r.IsPublic != nil {
		tpl.IsPublic = *r.IsPublic
	}
	if r.IsActive != nil {
		tpl.IsActive = *r.IsActive
	}
}

// ListReportTemplates returns the tenant's report templates.
func ListReportTemplates(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB().WithContext(c.Request().Context())

	query := db.Model(&model.ReportTemplate{})
	if category := c.QueryParam("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if active := c.QueryParam("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return writeError(c, log, "report_template", "listing report templates", err)
	}

	query, err := applySort(query, c, reportTemplateSorts)
	if err != nil {
		return writeError(c, log, "report_template", "listing report templates", err)
	}

	p := pagination(c)
	var templates []model.ReportTemplate
	if err := p.apply(query).Find(&templates).Error; err != nil {
		return writeError(c, log, "report_template", "listing report templates", err)
	}
	return listEnvelope(c, templates, count, p)
}

// ListSystemReportTemplates returns the built-in catalog. These are served
// from code and are identical for every tenant.
func ListSystemReportTemplates(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"value": report.SystemTemplates(uuid.Nil),
	})
}

// GetReportTemplate returns a single report template.
func GetReportTemplate(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "report_template", "retrieving the report template", err)
	}

	var tpl model.ReportTemplate
	db := database.GetDB().WithContext(c.Request().Context())
	if err := database.First(db, &tpl, "report template", "id = ?", id); err != nil {
		return writeError(c, log, "report_template", "retrieving the report template", err)
	}
	return c.JSON(http.StatusOK, tpl)
}

// CreateReportTemplate validates the embedded configuration and stores a
// user-defined template.
func CreateReportTemplate(c echo.Context) error {
	log := logger.FromEcho(c)

	var req ReportTemplateRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "report_template", "creating the report template", apperror.Validationf("invalid request body"))
	}
	if req.Name == nil || *req.Name == "" {
		return writeError(c, log, "report_template", "creating the report template", apperror.Validationf("name is required"))
	}
	if req.ConfigurationJSON == nil {
		return writeError(c, log, "report_template", "creating the report template", apperror.Validationf("configuration_json is required"))
	}
	if _, err := report.ParseConfiguration(*req.ConfigurationJSON); err != nil {
		return writeError(c, log, "report_template", "creating the report template", err)
	}

	tpl := model.ReportTemplate{
		Category: model.ReportCategoryCustom,
		Type:     model.ReportTypeTable,
		IsActive: true,
	}
	req.applyTo(&tpl)

	db := database.GetDB().WithContext(c.Request().Context())
	if err := database.Create(db, &tpl); err != nil {
		return writeError(c, log, "report_template", "creating the report template", err)
	}

	recordOp("report_template", "create")
	log.Info("Report template created",
		zap.String("template_id", tpl.ID.String()),
		zap.String("name", tpl.Name))
	return c.JSON(http.StatusCreated, tpl)
}

// PatchReportTemplate applies a partial update. System templates are
// read-only.
func PatchReportTemplate(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "report_template", "updating the report template", err)
	}

	var req ReportTemplateRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "report_template", "updating the report template", apperror.Validationf("invalid request body"))
	}
	if req.ConfigurationJSON != nil {
		if _, err := report.ParseConfiguration(*req.ConfigurationJSON); err != nil {
			return writeError(c, log, "report_template", "updating the report template", err)
		}
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var tpl model.ReportTemplate
	if err := database.First(db, &tpl, "report template", "id = ?", id); err != nil {
		return writeError(c, log, "report_template", "updating the report template", err)
	}
	if tpl.IsSystemTemplate {
		return writeError(c, log, "report_template", "updating the report template",
			apperror.Validationf("system templates cannot be modified"))
	}

	req.applyTo(&tpl)
	if req.RowVersion != nil {
		tpl.RowVersion = *req.RowVersion
	}
	if err := database.Update(db, &tpl); err != nil {
		return writeError(c, log, "report_template", "updating the report template", err)
	}

	recordOp("report_template", "update")
	return c.JSON(http.StatusOK, tpl)
}

// DeleteReportTemplate soft deletes a user template. System templates are
// read-only.
func DeleteReportTemplate(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "report_template", "deleting the report template", err)
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var tpl model.ReportTemplate
	if err := database.First(db, &tpl, "report template", "id = ?", id); err != nil {
		return writeError(c, log, "report_template", "deleting the report template", err)
	}
	if tpl.IsSystemTemplate {
		return writeError(c, log, "report_template", "deleting the report template",
			apperror.Validationf("system templates cannot be deleted"))
	}
	if err := database.SoftDelete(db, &tpl); err != nil {
		return writeError(c, log, "report_template", "deleting the report template", err)
	}

	recordOp("report_template", "delete")
	return c.NoContent(http.StatusNoContent)
}

// ReportScheduleRequest carries the writable fields of a ReportSchedule.
type ReportScheduleRequest struct {
	ReportTemplateID *uuid.UUID             `json:"report_template_id"`
	Name             *string                `json:"name"`
	Frequency        *model.ReportFrequency `json:"frequency"`
	CronExpression   *string                `json:"cron_expression"`
	NextRunAt        *time.Time             `json:"next_run_at"`
	ParametersJSON   *string                `json:"parameters_json"`
	EmailRecipients  *string                `json:"email_recipients"`
	OutputFormat     *model.ReportFormat    `json:"output_format"`
	IsActive         *bool                  `json:"is_active"`
	RowVersion       *int64                 `json:"row_version"`
}

func (r *ReportScheduleRequest) applyTo(sched *model.ReportSchedule) {
	if r.Name != nil {
		sched.Name = *r.Name
	}
	if r.Frequency != nil {
		sched.Frequency = *r.Frequency
	}
	if r.CronExpression != nil {
		sched.CronExpression = *r.CronExpression
	}
	if r.NextRunAt != nil {
		sched.NextRunAt = r.NextRunAt
	}
	if r.ParametersJSON != nil {
		sched.ParametersJSON = *r.ParametersJSON
	}
	if r.EmailRecipients != nil {
		sched.EmailRecipients = *r.EmailRecipients
	}
	if r.OutputFormat != nil {
		sched.OutputFormat = *r.OutputFormat
	}
	if r.IsActive != nil {
		sched.IsActive = *r.IsActive
	}
}

// ListReportSchedules returns the tenant's report schedules.
func ListReportSchedules(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB().WithContext(c.Request().Context())

	query := db.Model(&model.ReportSchedule{})
	if templateID := c.QueryParam("report_template_id"); templateID != "" {
		query = query.Where("report_template_id = ?", templateID)
	}
	if active := c.QueryParam("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return writeError(c, log, "report_schedule", "listing report schedules", err)
	}

	p := pagination(c)
	var schedules []model.ReportSchedule
	if err := p.apply(query.Order("next_run_at")).Find(&schedules).Error; err != nil {
		return writeError(c, log, "report_schedule", "listing report schedules", err)
	}
	return listEnvelope(c, schedules, count, p)
}

// CreateReportSchedule attaches a recurring run to a template.
func CreateReportSchedule(c echo.Context) error {
	log := logger.FromEcho(c)

	var req ReportScheduleRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "report_schedule", "creating the report schedule", apperror.Validationf("invalid request body"))
	}
	if req.ReportTemplateID == nil {
		return writeError(c, log, "report_schedule", "creating the report schedule", apperror.Validationf("report_template_id is required"))
	}
	if req.Name == nil || *req.Name == "" {
		return writeError(c, log, "report_schedule", "creating the report schedule", apperror.Validationf("name is required"))
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var tpl model.ReportTemplate
	if err := database.First(db, &tpl, "report template", "id = ?", *req.ReportTemplateID); err != nil {
		return writeError(c, log, "report_schedule", "creating the report schedule", err)
	}

	sched := model.ReportSchedule{
		ReportTemplateID: *req.ReportTemplateID,
		Frequency:        model.FrequencyManual,
		OutputFormat:     model.ReportFormatPDF,
		IsActive:         true,
	}
	req.applyTo(&sched)

	if err := database.Create(db, &sched); err != nil {
		return writeError(c, log, "report_schedule", "creating the report schedule", err)
	}

	recordOp("report_schedule", "create")
	log.Info("Report schedule created",
		zap.String("schedule_id", sched.ID.String()),
		zap.String("template_id", sched.ReportTemplateID.String()),
		zap.String("frequency", string(sched.Frequency)))
	return c.JSON(http.StatusCreated, sched)
}

// GetReportSchedule returns a single report schedule.
func GetReportSchedule(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "report_schedule", "retrieving the report schedule", err)
	}

	var sched model.ReportSchedule
	db := database.GetDB().WithContext(c.Request().Context())
	if err := database.First(db, &sched, "report schedule", "id = ?", id); err != nil {
		return writeError(c, log, "report_schedule", "retrieving the report schedule", err)
	}
	return c.JSON(http.StatusOK, sched)
}

// PatchReportSchedule applies a partial update to a schedule. Enabling and
// disabling go through here via is_active.
func PatchReportSchedule(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "report_schedule", "updating the report schedule", err)
	}

	var req ReportScheduleRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "report_schedule", "updating the report schedule", apperror.Validationf("invalid request body"))
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var sched model.ReportSchedule
	if err := database.First(db, &sched, "report schedule", "id = ?", id); err != nil {
		return writeError(c, log, "report_schedule", "updating the report schedule", err)
	}

	req.applyTo(&sched)
	if req.RowVersion != nil {
		sched.RowVersion = *req.RowVersion
	}
	if err := database.Update(db, &sched); err != nil {
		return writeError(c, log, "report_schedule", "updating the report schedule", err)
	}

	recordOp("report_schedule", "update")
	return c.JSON(http.StatusOK, sched)
}

// DeleteReportSchedule soft deletes a schedule.
func DeleteReportSchedule(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "report_schedule", "deleting the report schedule", err)
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var sched model.ReportSchedule
	if err := database.First(db, &sched, "report schedule", "id = ?", id); err != nil {
		return writeError(c, log, "report_schedule", "deleting the report schedule", err)
	}
	if err := database.SoftDelete(db, &sched); err != nil {
		return writeError(c, log, "report_schedule", "deleting the report schedule", err)
	}

	recordOp("report_schedule", "delete")
	return c.NoContent(http.StatusNoContent)
}

// ListReportExecutions returns the tenant's recent report runs, newest
// first.
func ListReportExecutions(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB().WithContext(c.Request().Context())

	query := db.Model(&model.ReportExecution{})
	if templateID := c.QueryParam("report_template_id"); templateID != "" {
		query = query.Where("report_template_id = ?", templateID)
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return writeError(c, log, "report_execution", "listing report executions", err)
	}

	p := pagination(c)
	var executions []model.ReportExecution
	if err := p.apply(query.Order("created_at DESC")).Find(&executions).Error; err != nil {
		return writeError(c, log, "report_execution", "listing report executions", err)
	}
	return listEnvelope(c, executions, count, p)
}

// GetReportExecution returns one execution including its cached result.
func GetReportExecution(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "report_execution", "retrieving the report execution", err)
	}

	var execution model.ReportExecution
	db := database.GetDB().WithContext(c.Request().Context())
	if err := database.First(db, &execution, "report execution", "id = ?", id); err != nil {
		return writeError(c, log, "report_execution", "retrieving the report execution", err)
	}
	return c.JSON(http.StatusOK, execution)
}

// ReportDataSourceRequest carries the writable fields of a ReportDataSource.
type ReportDataSourceRequest struct {
	Name              *string               `json:"name"`
	Description       *string               `json:"description"`
	Type              *model.DataSourceType `json:"type"`
	EntityName        *string               `json:"entity_name"`
	CustomQuery       *string               `json:"custom_query"`
	FieldMappingsJSON *string               `json:"field_mappings_json"`
	IsActive          *bool                 `json:"is_active"`
	RowVersion        *int64                `json:"row_version"`
}

func (r *ReportDataSourceRequest) applyTo(ds *model.ReportDataSource) {
	if r.Name != nil {
		ds.Name = *r.Name
	}
	if r.Description != nil {
		ds.Description = *r.Description
	}
	if r.Type != nil {
		ds.Type = *r.Type
	}
	if r.EntityName != nil {
		ds.EntityName = *r.EntityName
	}
	if r.CustomQuery != nil {
		ds.CustomQuery = *r.CustomQuery
	}
	if r.FieldMappingsJSON != nil {
		ds.FieldMappingsJSON = *r.FieldMappingsJSON
	}
	if r.IsActive != nil {
		ds.IsActive = *r.IsActive
	}
}

// ListReportDataSources returns the tenant's report data sources.
func ListReportDataSources(c echo.Context) error {
	log := logger.FromEcho(c)
	db := database.GetDB().WithContext(c.Request().Context())

	query := db.Model(&model.ReportDataSource{})
	if active := c.QueryParam("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return writeError(c, log, "report_data_source", "listing report data sources", err)
	}

	p := pagination(c)
	var sources []model.ReportDataSource
	if err := p.apply(query.Order("name")).Find(&sources).Error; err != nil {
		return writeError(c, log, "report_data_source", "listing report data sources", err)
	}
	return listEnvelope(c, sources, count, p)
}

// CreateReportDataSource registers a data source for report configurations.
func CreateReportDataSource(c echo.Context) error {
	log := logger.FromEcho(c)

	var req ReportDataSourceRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "report_data_source", "creating the report data source", apperror.Validationf("invalid request body"))
	}
	if req.Name == nil || *req.Name == "" {
		return writeError(c, log, "report_data_source", "creating the report data source", apperror.Validationf("name is required"))
	}

	ds := model.ReportDataSource{Type: model.DataSourceEntity, IsActive: true}
	req.applyTo(&ds)

	db := database.GetDB().WithContext(c.Request().Context())
	if err := database.Create(db, &ds); err != nil {
		return writeError(c, log, "report_data_source", "creating the report data source", err)
	}

	recordOp("report_data_source", "create")
	log.Info("Report data source created",
		zap.String("data_source_id", ds.ID.String()),
		zap.String("name", ds.Name))
	return c.JSON(http.StatusCreated, ds)
}

// GetReportDataSource returns a single report data source.
func GetReportDataSource(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "report_data_source", "retrieving the report data source", err)
	}

	var ds model.ReportDataSource
	db := database.GetDB().WithContext(c.Request().Context())
	if err := database.First(db, &ds, "report data source", "id = ?", id); err != nil {
		return writeError(c, log, "report_data_source", "retrieving the report data source", err)
	}
	return c.JSON(http.StatusOK, ds)
}

// PatchReportDataSource applies a partial update to a data source.
func PatchReportDataSource(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "report_data_source", "updating the report data source", err)
	}

	var req ReportDataSourceRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, log, "report_data_source", "updating the report data source", apperror.Validationf("invalid request body"))
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var ds model.ReportDataSource
	if err := database.First(db, &ds, "report data source", "id = ?", id); err != nil {
		return writeError(c, log, "report_data_source", "updating the report data source", err)
	}

	req.applyTo(&ds)
	if req.RowVersion != nil {
		ds.RowVersion = *req.RowVersion
	}
	if err := database.Update(db, &ds); err != nil {
		return writeError(c, log, "report_data_source", "updating the report data source", err)
	}

	recordOp("report_data_source", "update")
	return c.JSON(http.StatusOK, ds)
}

// DeleteReportDataSource soft deletes a data source.
func DeleteReportDataSource(c echo.Context) error {
	log := logger.FromEcho(c)
	id, err := pathID(c)
	if err != nil {
		return writeError(c, log, "report_data_source", "deleting the report data source", err)
	}

	db := database.GetDB().WithContext(c.Request().Context())
	var ds model.ReportDataSource
	if err := database.First(db, &ds, "report data source", "id = ?", id); err != nil {
		return writeError(c, log, "report_data_source", "deleting the report data source", err)
	}
	if err := database.SoftDelete(db, &ds); err != nil {
		return writeError(c, log, "report_data_source", "deleting the report data source", err)
	}

	recordOp("report_data_source", "delete")
	return c.NoContent(http.StatusNoContent)
}
