package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// FiscalStatus tracks the lifecycle of the persisted fiscal record.
type FiscalStatus string

const (
	FiscalStatusEmitted   FiscalStatus = "EMITTED"
	FiscalStatusPrinted   FiscalStatus = "PRINTED"
	FiscalStatusCancelled FiscalStatus = "CANCELLED"
)

// FiscalRecord is the persisted fiscal footprint of a sale.
type FiscalRecord struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	SaleID    snowflake.ID `gorm:"not null;uniqueIndex"`
	AccessKey string       `gorm:"type:text"`
	XML       []byte       `gorm:"type:bytea"`
	CouponID  *int64       `gorm:""`
	Status    FiscalStatus `gorm:"type:text;not null;default:'EMITTED'"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (FiscalRecord) TableName() string { return "fiscal_records" }
