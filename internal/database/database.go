package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"superteam-earn/internal/models"
)

var DB *gorm.DB

// Connect establishes a connection to the PostgreSQL database
func Connect(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
	})

	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	zap.L().Info("database connection established")
	return nil
}

// AutoMigrate runs automatic migrations for all models on the global handle
func AutoMigrate() error {
	return Migrate(DB)
}

type modelGroup struct {
	name   string
	models []interface{}
}

func modelGroups() []modelGroup {
	return []modelGroup{
		{"accounts", []interface{}{
			&models.User{},
			&models.Sponsor{},
			&models.UserSponsor{},
			&models.EmailSettings{},
			&models.UnsubscribedEmail{},
		}},
		{"listings", []interface{}{
			&models.Listing{},
			&models.Submission{},
			&models.Comment{},
			&models.PoW{},
		}},
		{"grants", []interface{}{
			&models.Grant{},
			&models.GrantApplication{},
		}},
		{"credits", []interface{}{
			&models.CreditLedger{},
		}},
		{"admin", []interface{}{
			&models.AdminLog{},
		}},
	}
}

// Migrate runs automatic migrations for all models on db
func Migrate(db *gorm.DB) error {
	for _, group := range modelGroups() {
		for _, model := range group.models {
			if err := db.AutoMigrate(model); err != nil {
				return fmt.Errorf("migrate %s %T: %w", group.name, model, err)
			}
		}
	}

	zap.L().Info("database migrations completed")
	return nil
}

// AllModels lists every persisted model, for tests that need a full schema
func AllModels() []interface{} {
	var all []interface{}
	for _, group := range modelGroups() {
		all = append(all, group.models...)
	}
	return all
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
