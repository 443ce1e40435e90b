package report

import (
	"context"

	"github.com/google/uuid"

	"crm-service/internal/model"
)

// Engine executes reports and manages templates. Implementations are
// expected to enforce MaxExecutionTimeSeconds and MaxResultRowCount and to
// scope every query to the tenant carried in ctx.
type Engine interface {
	// ExecuteTemplate runs a stored template with optional runtime
	// parameter values keyed by parameter name.
	ExecuteTemplate(ctx context.Context, templateID uuid.UUID, params map[string]any) (*Result, error)

	// ExecuteAdHoc runs a configuration that is not backed by a stored
	// template.
	ExecuteAdHoc(ctx context.Context, cfg *Configuration, params map[string]any) (*Result, error)

	// Export renders a completed execution into the requested format. The
	// output must not exceed MaxExportFileSizeBytes.
	Export(ctx context.Context, executionID uuid.UUID, format model.ReportFormat) ([]byte, error)

	// SystemTemplates returns the built-in templates available to every
	// tenant.
	SystemTemplates(ctx context.Context) ([]model.ReportTemplate, error)

	// CreateTemplate validates and persists a new template.
	CreateTemplate(ctx context.Context, tpl *model.ReportTemplate) error
}

// Scheduler manages recurring report runs.
type Scheduler interface {
	CreateSchedule(ctx context.Context, sched *model.ReportSchedule) error
	ActiveSchedules(ctx context.Context) ([]model.ReportSchedule, error)
	SchedulesByTemplate(ctx context.Context, templateID uuid.UUID) ([]model.ReportSchedule, error)
	EnableSchedule(ctx context.Context, scheduleID uuid.UUID) error
	DisableSchedule(ctx context.Context, scheduleID uuid.UUID) error

	// ExecuteDue runs every schedule whose next run time has passed.
	// Called from a background worker on a timer.
	ExecuteDue(ctx context.Context) error
}

// Repository provides the specialized template and execution queries the
// engine needs beyond plain CRUD.
type Repository interface {
	SystemTemplates(ctx context.Context) ([]model.ReportTemplate, error)
	UserTemplates(ctx context.Context, parentID uuid.UUID) ([]model.ReportTemplate, error)
	RecentExecutions(ctx context.Context, parentID uuid.UUID, count int) ([]model.ReportExecution, error)
	ExecutionWithResult(ctx context.Context, executionID uuid.UUID) (*model.ReportExecution, error)
	TemplateByID(ctx context.Context, templateID uuid.UUID) (*model.ReportTemplate, error)
	AddTemplate(ctx context.Context, tpl *model.ReportTemplate) error
	UpdateTemplate(ctx context.Context, tpl *model.ReportTemplate) error
	DeleteTemplate(ctx context.Context, templateID uuid.UUID) error
}
