package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"crm-service/internal/model"
	"crm-service/pkg/config"
)

var DB *gorm.DB

// InitDB opens the PostgreSQL connection, configures the pool, registers the
// tenant-scope callbacks, and migrates the schema.
func InitDB(cfg *config.Config) error {
	// DisableAutoPrepare prevents "prepared statement already exists" errors
	// behind connection poolers
	pgConfig := postgres.Config{
		DSN:                  cfg.DB.GetDSN(),
		PreferSimpleProtocol: true,
	}

	db, err := gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.DB.LogLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	if cfg.DB.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	}
	if cfg.DB.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	}
	if cfg.DB.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
	}

	if err := Setup(db); err != nil {
		return err
	}

	DB = db
	return nil
}

// Setup registers gateway callbacks and migrates the schema. Split out of
// InitDB so tests can run the same setup against another dialect.
func Setup(db *gorm.DB) error {
	if err := RegisterTenantScope(db); err != nil {
		return fmt.Errorf("failed to register tenant scope: %w", err)
	}

	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func allModels() []any {
	return []any{
		&model.Parent{},
		&model.Store{},
		&model.Customer{},
		&model.Vehicle{},
		&model.Visit{},
		&model.Campaign{},
		&model.Coupon{},
		&model.Segment{},
		&model.CustomerSegment{},
		&model.Journey{},
		&model.JourneyStep{},
		&model.ReportTemplate{},
		&model.ReportSchedule{},
		&model.ReportExecution{},
		&model.ReportDataSource{},
	}
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
