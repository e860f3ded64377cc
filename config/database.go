package config

import (
	"fmt"
	"time"

	"qrmenu-api/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDatabase connects to the configured driver. sqlite is meant for local
// development and tests; it has no row-level locks, so concurrent checkouts
// are only serialized on postgres.
func OpenDatabase(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.PostgresDSN())
	default:
		dialector = sqlite.Open(cfg.DBSource)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}

	if cfg.DBDriver == "postgres" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	return db, nil
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Restaurant{},
		&models.Table{},
		&models.MenuVisit{},
		&models.Category{},
		&models.Product{},
		&models.ProductVariation{},
		&models.Order{},
		&models.OrderLine{},
		&models.Earnings{},
		&models.OrderStatusHistory{},
		&models.Rider{},
		&models.DeliveryRequest{},
		&models.Delivery{},
		&models.UserCode{},
		&models.Wallet{},
		&models.TopUpRequest{},
	)
}
