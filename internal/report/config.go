// Package report holds the declarative report configuration model and the
// contracts for the execution engine. Configurations are stored as JSON on
// report templates and validated structurally before persistence; actual
// query execution lives behind the Engine interface.
package report

import (
	"encoding/json"
	"strings"

	"crm-service/internal/apperror"
)

// Execution limits and pagination bounds for the report engine.
const (
	MaxExecutionTimeSeconds = 300
	MaxResultRowCount       = 10000
	MaxExportFileSizeBytes  = 52428800 // 50 MB

	DefaultPageSize = 25
	MaxPageSize     = 1000
)

// Filter operators understood by the report engine.
const (
	OpEquals             = "Equals"
	OpNotEquals          = "NotEquals"
	OpContains           = "Contains"
	OpStartsWith         = "StartsWith"
	OpEndsWith           = "EndsWith"
	OpGreaterThan        = "GreaterThan"
	OpGreaterThanOrEqual = "GreaterThanOrEqual"
	OpLessThan           = "LessThan"
	OpLessThanOrEqual    = "LessThanOrEqual"
	OpBetween            = "Between"
	OpIn                 = "In"
	OpNotIn              = "NotIn"
	OpIsNull             = "IsNull"
	OpIsNotNull          = "IsNotNull"
)

// Date intervals for grouping date fields.
const (
	IntervalDay     = "day"
	IntervalWeek    = "week"
	IntervalMonth   = "month"
	IntervalQuarter = "quarter"
	IntervalYear    = "year"
)

// AggregationType is the aggregate function applied to a field.
type AggregationType string

const (
	AggNone       AggregationType = "None"
	AggCount      AggregationType = "Count"
	AggSum        AggregationType = "Sum"
	AggAverage    AggregationType = "Average"
	AggMin        AggregationType = "Min"
	AggMax        AggregationType = "Max"
	AggPercentage AggregationType = "Percentage"
	AggGrowth     AggregationType = "Growth"
)

// ChartType selects the rendering for chart reports.
type ChartType string

const (
	ChartBar      ChartType = "Bar"
	ChartLine     ChartType = "Line"
	ChartPie      ChartType = "Pie"
	ChartDoughnut ChartType = "Doughnut"
	ChartArea     ChartType = "Area"
	ChartScatter  ChartType = "Scatter"
	ChartFunnel   ChartType = "Funnel"
	ChartGauge    ChartType = "Gauge"
)

var validOperators = map[string]bool{
	OpEquals: true, OpNotEquals: true, OpContains: true,
	OpStartsWith: true, OpEndsWith: true,
	OpGreaterThan: true, OpGreaterThanOrEqual: true,
	OpLessThan: true, OpLessThanOrEqual: true,
	OpBetween: true, OpIn: true, OpNotIn: true,
	OpIsNull: true, OpIsNotNull: true,
}

var validIntervals = map[string]bool{
	IntervalDay: true, IntervalWeek: true, IntervalMonth: true,
	IntervalQuarter: true, IntervalYear: true,
}

// Configuration is the complete data-query definition for a report: source,
// field selection, filtering, grouping, sorting, calculations and pagination.
type Configuration struct {
	DataSource   string        `json:"data_source"`
	Fields       []Field       `json:"fields"`
	Filters      []Filter      `json:"filters,omitempty"`
	GroupBy      []GroupBy     `json:"group_by,omitempty"`
	Sorting      []Sort        `json:"sorting,omitempty"`
	Calculations []Calculation `json:"calculations,omitempty"`
	Pagination   *Pagination   `json:"pagination,omitempty"`
}

// Field is one column in the report output.
type Field struct {
	FieldName   string          `json:"field_name"`
	DisplayName string          `json:"display_name"`
	DataType    string          `json:"data_type,omitempty"`
	Format      string          `json:"format,omitempty"`
	Aggregation AggregationType `json:"aggregation,omitempty"`
	IsVisible   bool            `json:"is_visible"`
	Order       int             `json:"order"`
}

// Filter is one predicate on the data query. Value2 is only used by the
// Between operator; LogicalOperator combines this filter with the next one.
type Filter struct {
	FieldName       string `json:"field_name"`
	Operator        string `json:"operator"`
	Value           any    `json:"value,omitempty"`
	Value2          any    `json:"value2,omitempty"`
	LogicalOperator string `json:"logical_operator,omitempty"`
}

// GroupBy is one grouping dimension. DateInterval applies to date fields.
type GroupBy struct {
	FieldName    string `json:"field_name"`
	DateInterval string `json:"date_interval,omitempty"`
}

// Sort orders the result rows.
type Sort struct {
	FieldName  string `json:"field_name"`
	Descending bool   `json:"descending"`
}

// Calculation is a derived field computed from an expression, for example
// "Revenue / Spent" for ROAS.
type Calculation struct {
	Name        string          `json:"name"`
	Expression  string          `json:"expression"`
	Format      string          `json:"format,omitempty"`
	Aggregation AggregationType `json:"aggregation,omitempty"`
}

// Pagination bounds the result set. CurrentPage is 1-based; TotalCount is
// populated after the query runs.
type Pagination struct {
	PageSize    int `json:"page_size"`
	CurrentPage int `json:"current_page"`
	TotalCount  int `json:"total_count"`
}

// Parameter is a runtime input referenced by filters or expressions.
type Parameter struct {
	Name         string            `json:"name"`
	DisplayName  string            `json:"display_name"`
	DataType     string            `json:"data_type"`
	Value        any               `json:"value,omitempty"`
	DefaultValue any               `json:"default_value,omitempty"`
	IsRequired   bool              `json:"is_required"`
	Options      []ParameterOption `json:"options,omitempty"`
}

// ParameterOption is a predefined choice for a dropdown parameter.
type ParameterOption struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// Visualization configures the chart rendering of a report result.
type Visualization struct {
	ChartType      ChartType `json:"chart_type"`
	XAxisField     string    `json:"x_axis_field,omitempty"`
	YAxisFields    []string  `json:"y_axis_fields"`
	Colors         []string  `json:"colors,omitempty"`
	ShowLegend     bool      `json:"show_legend"`
	ShowDataLabels bool      `json:"show_data_labels"`
	Title          string    `json:"title,omitempty"`
	Height         *int      `json:"height,omitempty"`
	Width          *int      `json:"width,omitempty"`
	XAxisLabel     string    `json:"x_axis_label,omitempty"`
	YAxisLabel     string    `json:"y_axis_label,omitempty"`
}

// Result carries the outcome of one report execution.
type Result struct {
	ExecutionID string           `json:"execution_id"`
	ReportName  string           `json:"report_name"`
	ExecutedAt  string           `json:"executed_at"`
	DurationMs  int              `json:"duration_ms"`
	RowCount    int              `json:"row_count"`
	Data        []map[string]any `json:"data"`
	Columns     []Field          `json:"columns"`
	Visual      *Visualization   `json:"visualization,omitempty"`
	Summary     map[string]any   `json:"summary,omitempty"`
}

// Validate performs a structural check of the configuration. It does not
// verify that field names exist on the data source; the engine does that at
// execution time.
func (c *Configuration) Validate() error {
	if strings.TrimSpace(c.DataSource) == "" {
		return apperror.Validationf("report configuration requires a data source")
	}
	if len(c.Fields) == 0 {
		return apperror.Validationf("report configuration requires at least one field")
	}
	for _, f := range c.Fields {
		if strings.TrimSpace(f.FieldName) == "" {
			return apperror.Validationf("report field is missing a field name")
		}
	}
	for _, f := range c.Filters {
		if strings.TrimSpace(f.FieldName) == "" {
			return apperror.Validationf("report filter is missing a field name")
		}
		if !validOperators[f.Operator] {
			return apperror.Validationf("unknown filter operator %q", f.Operator)
		}
		if f.Operator == OpBetween && (f.Value == nil || f.Value2 == nil) {
			return apperror.Validationf("filter on %q: Between requires two values", f.FieldName)
		}
		if lo := strings.ToUpper(f.LogicalOperator); lo != "" && lo != "AND" && lo != "OR" {
			return apperror.Validationf("unknown logical operator %q", f.LogicalOperator)
		}
	}
	for _, g := range c.GroupBy {
		if strings.TrimSpace(g.FieldName) == "" {
			return apperror.Validationf("report grouping is missing a field name")
		}
		if g.DateInterval != "" && !validIntervals[g.DateInterval] {
			return apperror.Validationf("unknown date interval %q", g.DateInterval)
		}
	}
	for _, s := range c.Sorting {
		if strings.TrimSpace(s.FieldName) == "" {
			return apperror.Validationf("report sort is missing a field name")
		}
	}
	for _, calc := range c.Calculations {
		if strings.TrimSpace(calc.Name) == "" || strings.TrimSpace(calc.Expression) == "" {
			return apperror.Validationf("report calculation requires a name and an expression")
		}
	}
	if p := c.Pagination; p != nil {
		if p.PageSize < 1 || p.PageSize > MaxPageSize {
			return apperror.Validationf("report page size must be between 1 and %d", MaxPageSize)
		}
		if p.CurrentPage < 1 {
			return apperror.Validationf("report page number must be at least 1")
		}
	}
	return nil
}

// ParseConfiguration decodes and validates a stored configuration document.
func ParseConfiguration(raw string) (*Configuration, error) {
	var cfg Configuration
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, apperror.Validationf("invalid report configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
