package main

import (
	"crm-service/internal/handler"
	mid "crm-service/internal/middleware"
	"crm-service/internal/seed"
	"crm-service/pkg/config"
	"crm-service/pkg/database"
	"crm-service/pkg/jwtutil"
	"crm-service/pkg/logger"
	"crm-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting crm-service", appConfig.LogConfig()...)

	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	if err := database.InitDB(appConfig); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	if appConfig.Seed.Enabled {
		if err := seed.Run(database.GetDB()); err != nil {
			log.Fatal("Failed to seed sample data", zap.Error(err))
		}
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(mid.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())
	e.Use(mid.TenantContextMiddleware)

	e.GET("/metrics", prometheus.Handler())
	e.GET("/health", handler.HealthCheck)

	api := e.Group("/api", mid.AuthMiddleware)

	parents := api.Group("/parents")
	parents.GET("", handler.ListParents)
	parents.GET("/:id", handler.GetParent)
	parents.POST("", handler.CreateParent)
	parents.PATCH("/:id", handler.PatchParent)
	parents.DELETE("/:id", handler.DeleteParent)

	stores := api.Group("/stores")
	stores.GET("", handler.ListStores)
	stores.GET("/:id", handler.GetStore)
	stores.POST("", handler.CreateStore)
	stores.PATCH("/:id", handler.PatchStore)
	stores.DELETE("/:id", handler.DeleteStore)

	customers := api.Group("/customers")
	customers.GET("", handler.ListCustomers)
	customers.GET("/:id", handler.GetCustomer)
	customers.POST("", handler.CreateCustomer)
	customers.PATCH("/:id", handler.PatchCustomer)
	customers.DELETE("/:id", handler.DeleteCustomer)

	vehicles := api.Group("/vehicles")
	vehicles.GET("", handler.ListVehicles)
	vehicles.GET("/:id", handler.GetVehicle)
	vehicles.POST("", handler.CreateVehicle)
	vehicles.PATCH("/:id", handler.PatchVehicle)
	vehicles.DELETE("/:id", handler.DeleteVehicle)

	visits := api.Group("/visits")
	visits.GET("", handler.ListVisits)
	visits.GET("/:id", handler.GetVisit)
	visits.POST("", handler.CreateVisit)
	visits.PATCH("/:id", handler.PatchVisit)
	visits.DELETE("/:id", handler.DeleteVisit)

	campaigns := api.Group("/campaigns")
	campaigns.GET("", handler.ListCampaigns)
	campaigns.GET("/:id", handler.GetCampaign)
	campaigns.POST("", handler.CreateCampaign)
	campaigns.PATCH("/:id", handler.PatchCampaign)
	campaigns.DELETE("/:id", handler.DeleteCampaign)

	coupons := api.Group("/coupons")
	coupons.GET("", handler.ListCoupons)
	coupons.GET("/:id", handler.GetCoupon)
	coupons.POST("", handler.CreateCoupon)
	coupons.PATCH("/:id", handler.PatchCoupon)
	coupons.DELETE("/:id", handler.DeleteCoupon)

	segments := api.Group("/segments")
	segments.GET("", handler.ListSegments)
	segments.GET("/:id", handler.GetSegment)
	segments.POST("", handler.CreateSegment)
	segments.PATCH("/:id", handler.PatchSegment)
	segments.DELETE("/:id", handler.DeleteSegment)
	segments.POST("/:id/customers", handler.AddSegmentMember)
	segments.DELETE("/:id/customers/:customerId", handler.RemoveSegmentMember)

	journeys := api.Group("/journeys")
	journeys.GET("", handler.ListJourneys)
	journeys.GET("/:id", handler.GetJourney)
	journeys.POST("", handler.CreateJourney)
	journeys.PATCH("/:id", handler.PatchJourney)
	journeys.DELETE("/:id", handler.DeleteJourney)
	journeys.GET("/:id/steps", handler.ListJourneySteps)
	journeys.POST("/:id/steps", handler.AddJourneyStep)
	journeys.PATCH("/:id/steps/:stepId", handler.PatchJourneyStep)
	journeys.DELETE("/:id/steps/:stepId", handler.DeleteJourneyStep)

	reportTemplates := api.Group("/report-templates")
	reportTemplates.GET("", handler.ListReportTemplates)
	reportTemplates.GET("/system", handler.ListSystemReportTemplates)
	reportTemplates.GET("/:id", handler.GetReportTemplate)
	reportTemplates.POST("", handler.CreateReportTemplate)
	reportTemplates.PATCH("/:id", handler.PatchReportTemplate)
	reportTemplates.DELETE("/:id", handler.DeleteReportTemplate)

	reportSchedules := api.Group("/report-schedules")
	reportSchedules.GET("", handler.ListReportSchedules)
	reportSchedules.GET("/:id", handler.GetReportSchedule)
	reportSchedules.POST("", handler.CreateReportSchedule)
	reportSchedules.PATCH("/:id", handler.PatchReportSchedule)
	reportSchedules.DELETE("/:id", handler.DeleteReportSchedule)

	reportExecutions := api.Group("/report-executions")
	reportExecutions.GET("", handler.ListReportExecutions)
	reportExecutions.GET("/:id", handler.GetReportExecution)

	reportDataSources := api.Group("/report-data-sources")
	reportDataSources.GET("", handler.ListReportDataSources)
	reportDataSources.GET("/:id", handler.GetReportDataSource)
	reportDataSources.POST("", handler.CreateReportDataSource)
	reportDataSources.PATCH("/:id", handler.PatchReportDataSource)
	reportDataSources.DELETE("/:id", handler.DeleteReportDataSource)

	dashboard := api.Group("/dashboard")
	dashboard.GET("/summary", handler.GetDashboardSummary)
	dashboard.GET("/roas", handler.GetROASSummary)
	dashboard.GET("/lifecycle-distribution", handler.GetLifecycleDistribution)
	dashboard.GET("/revenue-trends", handler.GetRevenueTrends)

	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
