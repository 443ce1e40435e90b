package model

import (
	"time"

	"github.com/google/uuid"
)

// ReportCategory groups templates in the report catalog.
type ReportCategory string

const (
	ReportCategoryCustomer  ReportCategory = "Customer"
	ReportCategoryCampaign  ReportCategory = "Campaign"
	ReportCategoryRevenue   ReportCategory = "Revenue"
	ReportCategoryLifecycle ReportCategory = "Lifecycle"
	ReportCategoryStore     ReportCategory = "Store"
	ReportCategoryExecutive ReportCategory = "Executive"
	ReportCategoryCustom    ReportCategory = "Custom"
)

// ReportType is the presentation style of a report.
type ReportType string

const (
	ReportTypeTable      ReportType = "Table"
	ReportTypeChart      ReportType = "Chart"
	ReportTypeDashboard  ReportType = "Dashboard"
	ReportTypeKPI        ReportType = "KPI"
	ReportTypeComparison ReportType = "Comparison"
	ReportTypeTrend      ReportType = "Trend"
)

// ReportFormat is an export file format.
type ReportFormat string

const (
	ReportFormatPDF   ReportFormat = "PDF"
	ReportFormatExcel ReportFormat = "Excel"
	ReportFormatCSV   ReportFormat = "CSV"
	ReportFormatJSON  ReportFormat = "JSON"
	ReportFormatHTML  ReportFormat = "HTML"
)

// ReportFrequency is how often a schedule fires.
type ReportFrequency string

const (
	FrequencyManual    ReportFrequency = "Manual"
	FrequencyDaily     ReportFrequency = "Daily"
	FrequencyWeekly    ReportFrequency = "Weekly"
	FrequencyMonthly   ReportFrequency = "Monthly"
	FrequencyQuarterly ReportFrequency = "Quarterly"
	FrequencyCustom    ReportFrequency = "Custom"
)

// ReportExecutionStatus tracks a single run: Queued -> Running ->
// Completed | Failed | Cancelled.
type ReportExecutionStatus string

const (
	ExecutionQueued    ReportExecutionStatus = "Queued"
	ExecutionRunning   ReportExecutionStatus = "Running"
	ExecutionCompleted ReportExecutionStatus = "Completed"
	ExecutionFailed    ReportExecutionStatus = "Failed"
	ExecutionCancelled ReportExecutionStatus = "Cancelled"
)

// DataSourceType classifies where a report data source pulls rows from.
type DataSourceType string

const (
	DataSourceEntity          DataSourceType = "Entity"
	DataSourceCustomSQL       DataSourceType = "CustomSQL"
	DataSourceStoredProcedure DataSourceType = "StoredProcedure"
	DataSourceAPI             DataSourceType = "API"
)

// ReportTemplate is a declarative report definition. ConfigurationJSON holds
// a serialized report.Configuration; no component here interprets it beyond
// structural validation.
type ReportTemplate struct {
	TenantEntity
	Name              string         `json:"name" gorm:"type:varchar(200);not null"`
	Description       string         `json:"description,omitempty" gorm:"type:varchar(1000)"`
	Category          ReportCategory `json:"category" gorm:"type:varchar(20);index"`
	Type              ReportType     `json:"type" gorm:"type:varchar(20)"`
	ConfigurationJSON string         `json:"configuration_json" gorm:"type:text;not null"`
	VisualizationJSON string         `json:"visualization_json,omitempty" gorm:"type:text"`
	IsSystemTemplate  bool           `json:"is_system_template" gorm:"index"`
	IsPublic          bool           `json:"is_public"`
	CreatedByUserID   *uuid.UUID     `json:"created_by_user_id,omitempty" gorm:"type:uuid"`
	TimesRun          int            `json:"times_run"`
	LastRunAt         *time.Time     `json:"last_run_at,omitempty"`
	IsActive          bool           `json:"is_active" gorm:"default:true"`

	Schedules  []ReportSchedule  `json:"schedules,omitempty" gorm:"foreignKey:ReportTemplateID"`
	Executions []ReportExecution `json:"executions,omitempty" gorm:"foreignKey:ReportTemplateID"`
}

func (ReportTemplate) TableName() string { return "report_templates" }

// ReportSchedule is the recurring-run configuration for a template.
type ReportSchedule struct {
	TenantEntity
	ReportTemplateID uuid.UUID       `json:"report_template_id" gorm:"type:uuid;not null;index"`
	Name             string          `json:"name" gorm:"type:varchar(200);not null"`
	Frequency        ReportFrequency `json:"frequency" gorm:"type:varchar(20)"`
	CronExpression   string          `json:"cron_expression,omitempty" gorm:"type:varchar(100)"`
	NextRunAt        *time.Time      `json:"next_run_at,omitempty" gorm:"index"`
	LastRunAt        *time.Time      `json:"last_run_at,omitempty"`
	ParametersJSON   string          `json:"parameters_json,omitempty" gorm:"type:text"`
	EmailRecipients  string          `json:"email_recipients,omitempty" gorm:"type:varchar(1000)"`
	OutputFormat     ReportFormat    `json:"output_format" gorm:"type:varchar(10);default:PDF"`
	IsActive         bool            `json:"is_active" gorm:"default:true;index"`
	CreatedByUserID  *uuid.UUID      `json:"created_by_user_id,omitempty" gorm:"type:uuid"`

	ReportTemplate *ReportTemplate   `json:"report_template,omitempty" gorm:"foreignKey:ReportTemplateID"`
	Executions     []ReportExecution `json:"executions,omitempty" gorm:"foreignKey:ReportScheduleID"`
}

func (ReportSchedule) TableName() string { return "report_schedules" }

// ReportExecution records the outcome of one report run, whether manual or
// scheduled.
type ReportExecution struct {
	TenantEntity
	ReportTemplateID uuid.UUID  `json:"report_template_id" gorm:"type:uuid;not null;index"`
	ReportScheduleID *uuid.UUID `json:"report_schedule_id,omitempty" gorm:"type:uuid;index"`
	ExecutedByUserID *uuid.UUID `json:"executed_by_user_id,omitempty" gorm:"type:uuid"`

	Status      ReportExecutionStatus `json:"status" gorm:"type:varchar(20);default:Queued;index"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
	DurationMs  int                   `json:"duration_ms"`
	RowCount    int                   `json:"row_count"`

	ParametersJSON string       `json:"parameters_json,omitempty" gorm:"type:text"`
	ResultDataJSON string       `json:"result_data_json,omitempty" gorm:"type:text"`
	ErrorMessage   string       `json:"error_message,omitempty" gorm:"type:varchar(2000)"`
	OutputFileURL  string       `json:"output_file_url,omitempty" gorm:"type:varchar(500)"`
	OutputFormat   ReportFormat `json:"output_format,omitempty" gorm:"type:varchar(10)"`
	FileSizeBytes  *int64       `json:"file_size_bytes,omitempty"`

	ReportTemplate *ReportTemplate `json:"report_template,omitempty" gorm:"foreignKey:ReportTemplateID"`
	ReportSchedule *ReportSchedule `json:"report_schedule,omitempty" gorm:"foreignKey:ReportScheduleID"`
}

func (ReportExecution) TableName() string { return "report_executions" }

// ReportDataSource is a tenant-defined source of report rows: a mapped
// entity, a custom query, or an external endpoint.
type ReportDataSource struct {
	TenantEntity
	Name              string         `json:"name" gorm:"type:varchar(200);not null"`
	Description       string         `json:"description,omitempty" gorm:"type:varchar(1000)"`
	Type              DataSourceType `json:"type" gorm:"type:varchar(20)"`
	EntityName        string         `json:"entity_name,omitempty" gorm:"type:varchar(100)"`
	CustomQuery       string         `json:"custom_query,omitempty" gorm:"type:text"`
	FieldMappingsJSON string         `json:"field_mappings_json,omitempty" gorm:"type:text"`
	IsActive          bool           `json:"is_active" gorm:"default:true;index"`
	CreatedByUserID   *uuid.UUID     `json:"created_by_user_id,omitempty" gorm:"type:uuid"`
}

func (ReportDataSource) TableName() string { return "report_data_sources" }
