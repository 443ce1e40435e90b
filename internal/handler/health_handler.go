package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"crm-service/pkg/database"
	"crm-service/pkg/logger"
)

// HealthCheck reports service liveness; pass ?check=db to also ping the
// database.
func HealthCheck(c echo.Context) error {
	log := logger.FromEcho(c)

	response := echo.Map{
		"status":  "ok",
		"service": "crm-service",
		"time":    time.Now().UTC().Format(time.RFC3339),
	}

	if c.QueryParam("check") == "db" {
		sqlDB, err := database.GetDB().DB()
		if err != nil {
			log.Error("Database connection error", zap.Error(err))
			response["status"] = "error"
			response["db_status"] = "error"
			return c.JSON(http.StatusInternalServerError, response)
		}
		if err := sqlDB.Ping(); err != nil {
			log.Error("Database ping error", zap.Error(err))
			response["status"] = "error"
			response["db_status"] = "error"
			return c.JSON(http.StatusInternalServerError, response)
		}
		response["db_status"] = "ok"
	}

	return c.JSON(http.StatusOK, response)
}
