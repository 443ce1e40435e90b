package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-service/internal/model"
	"crm-service/pkg/database"
)

const minimalReportConfig = `{
	"data_source": "customers",
	"fields": [{"field_name": "email", "display_name": "Email", "data_type": "string", "is_visible": true, "order": 1}]
}`

func TestCreateReportTemplate(t *testing.T) {
	setupTestDB(t)

	c, rec := newTestContext(t, http.MethodPost, "/api/report-templates", map[string]any{
		"name":               "Customer Emails",
		"configuration_json": minimalReportConfig,
	}, uuid.New())
	require.NoError(t, CreateReportTemplate(c))
	requireStatus(t, rec, http.StatusCreated)

	var got model.ReportTemplate
	decodeJSON(t, rec, &got)
	assert.Equal(t, model.ReportCategoryCustom, got.Category)
	assert.Equal(t, model.ReportTypeTable, got.Type)
	assert.True(t, got.IsActive)
	assert.False(t, got.IsSystemTemplate)
}

func TestCreateReportTemplateRejectsBadConfiguration(t *testing.T) {
	setupTestDB(t)

	// Structurally invalid: no fields.
	c, rec := newTestContext(t, http.MethodPost, "/api/report-templates", map[string]any{
		"name":               "Broken",
		"configuration_json": `{"data_source": "customers", "fields": []}`,
	}, uuid.New())
	require.NoError(t, CreateReportTemplate(c))
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestSystemReportTemplateIsReadOnly(t *testing.T) {
	db := setupTestDB(t)
	parentID := uuid.New()
	ctx := testTenantCtx(parentID)

	tpl := &model.ReportTemplate{
		Name:              "Built In",
		ConfigurationJSON: minimalReportConfig,
		Category:          model.ReportCategoryCustomer,
		Type:              model.ReportTypeTable,
		IsSystemTemplate:  true,
		IsActive:          true,
	}
	require.NoError(t, database.Create(db.WithContext(ctx), tpl))

	c, rec := newTestContext(t, http.MethodPatch, "/api/report-templates/"+tpl.ID.String(), map[string]any{
		"name": "Hijacked",
	}, parentID, "id", tpl.ID.String())
	require.NoError(t, PatchReportTemplate(c))
	requireStatus(t, rec, http.StatusBadRequest)

	c, rec = newTestContext(t, http.MethodDelete, "/api/report-templates/"+tpl.ID.String(), nil, parentID,
		"id", tpl.ID.String())
	require.NoError(t, DeleteReportTemplate(c))
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestListSystemReportTemplates(t *testing.T) {
	setupTestDB(t)

	c, rec := newTestContext(t, http.MethodGet, "/api/report-templates/system", nil, uuid.New())
	require.NoError(t, ListSystemReportTemplates(c))
	requireStatus(t, rec, http.StatusOK)

	var envelope struct {
		Value []model.ReportTemplate `json:"value"`
	}
	decodeJSON(t, rec, &envelope)
	assert.Len(t, envelope.Value, 10)
	for _, tpl := range envelope.Value {
		assert.True(t, tpl.IsSystemTemplate)
	}
}

func TestCreateReportScheduleRequiresTemplate(t *testing.T) {
	setupTestDB(t)

	c, rec := newTestContext(t, http.MethodPost, "/api/report-schedules", map[string]any{
		"name":               "Nightly",
		"report_template_id": uuid.New(),
	}, uuid.New())
	require.NoError(t, CreateReportSchedule(c))
	requireStatus(t, rec, http.StatusNotFound)
}
