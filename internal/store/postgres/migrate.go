package postgres

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// messageRow mirrors the messages table for schema migration. The runtime
// store uses database/sql; gorm is only the DDL tool.
type messageRow struct {
	ID               string `gorm:"type:uuid;primaryKey"`
	Destination      string `gorm:"not null;index"`
	Body             string `gorm:"not null"`
	State            string `gorm:"not null;index;default:queued"`
	ProviderID       string
	CorrelationID    string `gorm:"index"`
	RawResponse      string
	LastError        string
	RetryCount       int `gorm:"not null;default:0"`
	LinkedModel      string
	LinkedID         int64
	PinnedProviderID string
	LeaseUntil       *time.Time `gorm:"type:timestamptz"`
	CreatedAt        time.Time  `gorm:"type:timestamptz;not null;index"`
	UpdatedAt        time.Time  `gorm:"type:timestamptz;not null"`
}

func (messageRow) TableName() string { return "messages" }

// Migrate creates or updates the messages table.
func Migrate(dsn string) error {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("open gorm: %w", err)
	}

	if err := db.AutoMigrate(&messageRow{}); err != nil {
		return fmt.Errorf("migrate messages: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("unwrap db: %w", err)
	}
	return sqlDB.Close()
}
