package report

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"crm-service/internal/model"
)

// SystemTemplates returns the built-in report templates seeded for every
// tenant. They are owned by ownerID (the system tenant), flagged as system
// templates, and cannot be modified or deleted through the API.
func SystemTemplates(ownerID uuid.UUID) []model.ReportTemplate {
	return []model.ReportTemplate{
		customerLifecycleDistribution(ownerID),
		campaignROASAnalysis(ownerID),
		monthlyRevenueTrend(ownerID),
		topCustomersByLifetimeValue(ownerID),
		storePerformanceComparison(ownerID),
		atRiskCustomerAlert(ownerID),
		campaignChannelComparison(ownerID),
		dailyVisitsSummary(ownerID),
		customerAcquisitionFunnel(ownerID),
		segmentPerformanceReport(ownerID),
	}
}

func systemTemplate(ownerID uuid.UUID, name, desc string, cat model.ReportCategory, typ model.ReportType, cfg *Configuration, vis *Visualization) model.ReportTemplate {
	cfgJSON, _ := json.Marshal(cfg)
	tpl := model.ReportTemplate{
		Name:              name,
		Description:       desc,
		Category:          cat,
		Type:              typ,
		ConfigurationJSON: string(cfgJSON),
		IsSystemTemplate:  true,
		IsPublic:          true,
		IsActive:          true,
	}
	tpl.ID = uuid.New()
	tpl.ParentID = ownerID
	tpl.CreatedAt = time.Now().UTC()
	if vis != nil {
		visJSON, _ := json.Marshal(vis)
		tpl.VisualizationJSON = string(visJSON)
	}
	return tpl
}

func customerLifecycleDistribution(ownerID uuid.UUID) model.ReportTemplate {
	cfg := &Configuration{
		DataSource: "Customer",
		Fields: []Field{
			{FieldName: "LifecycleStage", DisplayName: "Lifecycle Stage", Order: 1, IsVisible: true},
			{FieldName: "Id", DisplayName: "Count", Aggregation: AggCount, Order: 2, IsVisible: true, Format: "#,##0"},
		},
		GroupBy: []GroupBy{{FieldName: "LifecycleStage"}},
		Sorting: []Sort{{FieldName: "LifecycleStage"}},
	}
	vis := &Visualization{
		ChartType:      ChartPie,
		XAxisField:     "LifecycleStage",
		YAxisFields:    []string{"Count"},
		Colors:         []string{"#00A3E0", "#002D72", "#FFC72C", "#FF6B6B", "#95E1D3"},
		ShowLegend:     true,
		ShowDataLabels: true,
		Title:          "Customer Lifecycle Distribution",
	}
	return systemTemplate(ownerID, "Customer Lifecycle Distribution",
		"Shows the distribution of customers across lifecycle stages (New, Active, At Risk, Lapsed, Lost)",
		model.ReportCategoryLifecycle, model.ReportTypeChart, cfg, vis)
}

func campaignROASAnalysis(ownerID uuid.UUID) model.ReportTemplate {
	cfg := &Configuration{
		DataSource: "Campaign",
		Fields: []Field{
			{FieldName: "Name", DisplayName: "Campaign Name", Order: 1, IsVisible: true},
			{FieldName: "Channel", DisplayName: "Channel", Order: 2, IsVisible: true},
			{FieldName: "Sent", DisplayName: "Sent", Order: 3, IsVisible: true, Format: "#,##0"},
			{FieldName: "Redeemed", DisplayName: "Redeemed", Order: 4, IsVisible: true, Format: "#,##0"},
			{FieldName: "Spent", DisplayName: "Spent", Order: 5, IsVisible: true, Format: "$#,##0.00"},
			{FieldName: "Revenue", DisplayName: "Revenue", Order: 6, IsVisible: true, Format: "$#,##0.00"},
			{FieldName: "ROAS", DisplayName: "ROAS", Order: 7, IsVisible: true, Format: "0.00x"},
		},
		Filters: []Filter{
			{FieldName: "Status", Operator: OpIn, Value: []string{"Active", "Completed"}},
		},
		Sorting: []Sort{{FieldName: "ROAS", Descending: true}},
	}
	return systemTemplate(ownerID, "Campaign Performance - ROAS Analysis",
		"Detailed analysis of campaign performance with ROAS calculations showing return on advertising spend",
		model.ReportCategoryCampaign, model.ReportTypeTable, cfg, nil)
}

func monthlyRevenueTrend(ownerID uuid.UUID) model.ReportTemplate {
	cfg := &Configuration{
		DataSource: "Visit",
		Fields: []Field{
			{FieldName: "VisitDate", DisplayName: "Month", Order: 1, IsVisible: true, Format: "MMM yyyy"},
			{FieldName: "NetAmount", DisplayName: "Revenue", Aggregation: AggSum, Format: "$#,##0.00", Order: 2, IsVisible: true},
			{FieldName: "Id", DisplayName: "Visit Count", Aggregation: AggCount, Order: 3, IsVisible: true, Format: "#,##0"},
		},
		GroupBy: []GroupBy{{FieldName: "VisitDate", DateInterval: IntervalMonth}},
		Sorting: []Sort{{FieldName: "VisitDate"}},
	}
	vis := &Visualization{
		ChartType:   ChartLine,
		XAxisField:  "VisitDate",
		YAxisFields: []string{"Revenue"},
		Colors:      []string{"#00A3E0"},
		Title:       "Monthly Revenue Trend",
		XAxisLabel:  "Month",
		YAxisLabel:  "Revenue ($)",
	}
	return systemTemplate(ownerID, "Monthly Revenue Trend",
		"Track revenue trends over time by month with visit counts",
		model.ReportCategoryRevenue, model.ReportTypeTrend, cfg, vis)
}

func topCustomersByLifetimeValue(ownerID uuid.UUID) model.ReportTemplate {
	cfg := &Configuration{
		DataSource: "Customer",
		Fields: []Field{
			{FieldName: "FirstName", DisplayName: "First Name", Order: 1, IsVisible: true},
			{FieldName: "LastName", DisplayName: "Last Name", Order: 2, IsVisible: true},
			{FieldName: "Email", DisplayName: "Email", Order: 3, IsVisible: true},
			{FieldName: "TotalSpent", DisplayName: "Lifetime Value", Order: 4, IsVisible: true, Format: "$#,##0.00"},
			{FieldName: "TotalVisits", DisplayName: "Total Visits", Order: 5, IsVisible: true, Format: "#,##0"},
			{FieldName: "AverageOrderValue", DisplayName: "Avg Order Value", Order: 6, IsVisible: true, Format: "$#,##0.00"},
			{FieldName: "LastVisitDate", DisplayName: "Last Visit", Order: 7, IsVisible: true, Format: "MMM dd, yyyy"},
		},
		Filters:    []Filter{{FieldName: "IsActive", Operator: OpEquals, Value: true}},
		Sorting:    []Sort{{FieldName: "TotalSpent", Descending: true}},
		Pagination: &Pagination{PageSize: 50, CurrentPage: 1},
	}
	return systemTemplate(ownerID, "Top Customers by Lifetime Value",
		"Ranked list of customers by total lifetime spending with visit history",
		model.ReportCategoryCustomer, model.ReportTypeTable, cfg, nil)
}

func storePerformanceComparison(ownerID uuid.UUID) model.ReportTemplate {
	cfg := &Configuration{
		DataSource: "Visit",
		Fields: []Field{
			{FieldName: "StoreId", DisplayName: "Store", Order: 1, IsVisible: true},
			{FieldName: "NetAmount", DisplayName: "Revenue", Aggregation: AggSum, Format: "$#,##0.00", Order: 2, IsVisible: true},
			{FieldName: "Id", DisplayName: "Visit Count", Aggregation: AggCount, Order: 3, IsVisible: true, Format: "#,##0"},
		},
		GroupBy: []GroupBy{{FieldName: "StoreId"}},
		Sorting: []Sort{{FieldName: "Revenue", Descending: true}},
	}
	vis := &Visualization{
		ChartType:      ChartBar,
		XAxisField:     "StoreId",
		YAxisFields:    []string{"Revenue"},
		Colors:         []string{"#002D72"},
		ShowDataLabels: true,
		Title:          "Store Performance Comparison",
		XAxisLabel:     "Store",
		YAxisLabel:     "Revenue ($)",
	}
	return systemTemplate(ownerID, "Store Performance Comparison",
		"Compare revenue and visit counts across all store locations",
		model.ReportCategoryStore, model.ReportTypeComparison, cfg, vis)
}

func atRiskCustomerAlert(ownerID uuid.UUID) model.ReportTemplate {
	cfg := &Configuration{
		DataSource: "Customer",
		Fields: []Field{
			{FieldName: "FirstName", DisplayName: "First Name", Order: 1, IsVisible: true},
			{FieldName: "LastName", DisplayName: "Last Name", Order: 2, IsVisible: true},
			{FieldName: "Email", DisplayName: "Email", Order: 3, IsVisible: true},
			{FieldName: "Phone", DisplayName: "Phone", Order: 4, IsVisible: true},
			{FieldName: "LastVisitDate", DisplayName: "Last Visit", Order: 5, IsVisible: true, Format: "MMM dd, yyyy"},
			{FieldName: "DaysSinceLastVisit", DisplayName: "Days Since Visit", Order: 6, IsVisible: true, Format: "#,##0"},
			{FieldName: "TotalSpent", DisplayName: "Lifetime Value", Order: 7, IsVisible: true, Format: "$#,##0.00"},
		},
		Filters: []Filter{
			{FieldName: "LifecycleStage", Operator: OpEquals, Value: "AtRisk"},
			{FieldName: "IsActive", Operator: OpEquals, Value: true, LogicalOperator: "AND"},
		},
		Sorting: []Sort{{FieldName: "TotalSpent", Descending: true}},
	}
	return systemTemplate(ownerID, "At-Risk Customer Alert",
		"Identifies valuable customers who haven't visited recently and are at risk of lapsing",
		model.ReportCategoryLifecycle, model.ReportTypeTable, cfg, nil)
}

func campaignChannelComparison(ownerID uuid.UUID) model.ReportTemplate {
	cfg := &Configuration{
		DataSource: "Campaign",
		Fields: []Field{
			{FieldName: "Channel", DisplayName: "Channel", Order: 1, IsVisible: true},
			{FieldName: "Sent", DisplayName: "Total Sent", Aggregation: AggSum, Order: 2, IsVisible: true, Format: "#,##0"},
			{FieldName: "Redeemed", DisplayName: "Total Redeemed", Aggregation: AggSum, Order: 3, IsVisible: true, Format: "#,##0"},
			{FieldName: "Revenue", DisplayName: "Total Revenue", Aggregation: AggSum, Order: 4, IsVisible: true, Format: "$#,##0.00"},
			{FieldName: "ROAS", DisplayName: "Avg ROAS", Aggregation: AggAverage, Order: 5, IsVisible: true, Format: "0.00x"},
		},
		GroupBy: []GroupBy{{FieldName: "Channel"}},
		Sorting: []Sort{{FieldName: "Revenue", Descending: true}},
	}
	vis := &Visualization{
		ChartType:      ChartBar,
		XAxisField:     "Channel",
		YAxisFields:    []string{"Revenue"},
		Colors:         []string{"#FFC72C"},
		ShowDataLabels: true,
		Title:          "Campaign Channel Performance",
		XAxisLabel:     "Channel",
		YAxisLabel:     "Revenue ($)",
	}
	return systemTemplate(ownerID, "Campaign Channel Comparison",
		"Compare performance metrics across different marketing channels (Email, SMS, Direct Mail, etc.)",
		model.ReportCategoryCampaign, model.ReportTypeComparison, cfg, vis)
}

func dailyVisitsSummary(ownerID uuid.UUID) model.ReportTemplate {
	cfg := &Configuration{
		DataSource: "Visit",
		Fields: []Field{
			{FieldName: "VisitDate", DisplayName: "Date", Order: 1, IsVisible: true, Format: "MMM dd, yyyy"},
			{FieldName: "Id", DisplayName: "Visit Count", Aggregation: AggCount, Order: 2, IsVisible: true, Format: "#,##0"},
			{FieldName: "NetAmount", DisplayName: "Revenue", Aggregation: AggSum, Order: 3, IsVisible: true, Format: "$#,##0.00"},
			{FieldName: "NetAmount", DisplayName: "Avg Ticket", Aggregation: AggAverage, Order: 4, IsVisible: true, Format: "$#,##0.00"},
		},
		GroupBy:    []GroupBy{{FieldName: "VisitDate", DateInterval: IntervalDay}},
		Sorting:    []Sort{{FieldName: "VisitDate", Descending: true}},
		Pagination: &Pagination{PageSize: 30, CurrentPage: 1},
	}
	return systemTemplate(ownerID, "Daily Visits Summary",
		"Daily breakdown of visit counts, revenue, and average ticket value",
		model.ReportCategoryExecutive, model.ReportTypeTable, cfg, nil)
}

func customerAcquisitionFunnel(ownerID uuid.UUID) model.ReportTemplate {
	cfg := &Configuration{
		DataSource: "Customer",
		Fields: []Field{
			{FieldName: "LifecycleStage", DisplayName: "Stage", Order: 1, IsVisible: true},
			{FieldName: "Id", DisplayName: "Count", Aggregation: AggCount, Order: 2, IsVisible: true, Format: "#,##0"},
		},
		Filters: []Filter{
			{FieldName: "LifecycleStage", Operator: OpIn, Value: []string{"New", "Active"}},
		},
		GroupBy: []GroupBy{{FieldName: "LifecycleStage"}},
		Sorting: []Sort{{FieldName: "LifecycleStage"}},
	}
	vis := &Visualization{
		ChartType:      ChartFunnel,
		XAxisField:     "LifecycleStage",
		YAxisFields:    []string{"Count"},
		Colors:         []string{"#00A3E0", "#002D72"},
		ShowLegend:     true,
		ShowDataLabels: true,
		Title:          "Customer Acquisition Funnel",
	}
	return systemTemplate(ownerID, "Customer Acquisition Funnel",
		"Visualize customer progression through acquisition and activation stages",
		model.ReportCategoryCustomer, model.ReportTypeChart, cfg, vis)
}

func segmentPerformanceReport(ownerID uuid.UUID) model.ReportTemplate {
	cfg := &Configuration{
		DataSource: "Segment",
		Fields: []Field{
			{FieldName: "Name", DisplayName: "Segment Name", Order: 1, IsVisible: true},
			{FieldName: "Type", DisplayName: "Type", Order: 2, IsVisible: true},
			{FieldName: "CustomerCount", DisplayName: "Customer Count", Order: 3, IsVisible: true, Format: "#,##0"},
			{FieldName: "Description", DisplayName: "Description", Order: 4, IsVisible: true},
		},
		Filters: []Filter{{FieldName: "IsActive", Operator: OpEquals, Value: true}},
		Sorting: []Sort{{FieldName: "CustomerCount", Descending: true}},
	}
	return systemTemplate(ownerID, "Segment Performance Report",
		"Overview of all customer segments with member counts and definitions",
		model.ReportCategoryCustomer, model.ReportTypeTable, cfg, nil)
}
