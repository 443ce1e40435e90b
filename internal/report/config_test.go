package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-service/internal/apperror"
)

func validConfig() *Configuration {
	return &Configuration{
		DataSource: "Customer",
		Fields: []Field{
			{FieldName: "FirstName", DisplayName: "First Name", Order: 1, IsVisible: true},
			{FieldName: "TotalSpent", DisplayName: "Lifetime Value", Order: 2, IsVisible: true, Format: "$#,##0.00"},
		},
		Filters: []Filter{
			{FieldName: "IsActive", Operator: OpEquals, Value: true},
		},
		Sorting: []Sort{{FieldName: "TotalSpent", Descending: true}},
	}
}

func TestConfigurationValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfigurationRequiresDataSource(t *testing.T) {
	cfg := validConfig()
	cfg.DataSource = "  "
	err := cfg.Validate()

	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestConfigurationRequiresFields(t *testing.T) {
	cfg := validConfig()
	cfg.Fields = nil

	assert.ErrorIs(t, cfg.Validate(), apperror.ErrValidation)
}

func TestConfigurationRejectsUnknownOperator(t *testing.T) {
	cfg := validConfig()
	cfg.Filters = []Filter{{FieldName: "IsActive", Operator: "Like", Value: "x"}}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Like")
}

func TestConfigurationBetweenRequiresTwoValues(t *testing.T) {
	cfg := validConfig()
	cfg.Filters = []Filter{{FieldName: "TotalSpent", Operator: OpBetween, Value: 100}}

	assert.ErrorIs(t, cfg.Validate(), apperror.ErrValidation)

	cfg.Filters[0].Value2 = 500
	assert.NoError(t, cfg.Validate())
}

func TestConfigurationRejectsUnknownDateInterval(t *testing.T) {
	cfg := validConfig()
	cfg.GroupBy = []GroupBy{{FieldName: "VisitDate", DateInterval: "fortnight"}}

	assert.ErrorIs(t, cfg.Validate(), apperror.ErrValidation)
}

func TestConfigurationPaginationBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Pagination = &Pagination{PageSize: MaxPageSize + 1, CurrentPage: 1}
	assert.ErrorIs(t, cfg.Validate(), apperror.ErrValidation)

	cfg.Pagination = &Pagination{PageSize: 25, CurrentPage: 0}
	assert.ErrorIs(t, cfg.Validate(), apperror.ErrValidation)

	cfg.Pagination = &Pagination{PageSize: MaxPageSize, CurrentPage: 1}
	assert.NoError(t, cfg.Validate())
}

func TestParseConfiguration(t *testing.T) {
	cfg, err := ParseConfiguration(`{
		"data_source": "Visit",
		"fields": [{"field_name": "NetAmount", "display_name": "Revenue", "aggregation": "Sum", "is_visible": true}],
		"group_by": [{"field_name": "VisitDate", "date_interval": "month"}]
	}`)

	require.NoError(t, err)
	assert.Equal(t, "Visit", cfg.DataSource)
	require.Len(t, cfg.Fields, 1)
	assert.Equal(t, AggSum, cfg.Fields[0].Aggregation)
	assert.Equal(t, IntervalMonth, cfg.GroupBy[0].DateInterval)
}

func TestParseConfigurationRejectsMalformedJSON(t *testing.T) {
	_, err := ParseConfiguration(`{"data_source": `)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
