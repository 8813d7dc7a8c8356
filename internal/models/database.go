package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the database used by the backend.
var DB *gorm.DB

// ErrResourceNotFound is returned when a referenced resource does not exist.
var ErrResourceNotFound = errors.New("there is no resource for the ID you specified")

// Connect opens the sqlite database and migrates all models.
func Connect(dsn string) error {
	config := &gorm.Config{
		// Set generated timestamps in UTC
		NowFunc: func() time.Time {
			return time.Now().In(time.UTC)
		},
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dsn), config)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		Account{},
		Balance{},
		Transaction{},
		TransactionHistory{},
		Category{},
		Budget{},
		BudgetAlert{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	DB = db
	return nil
}
