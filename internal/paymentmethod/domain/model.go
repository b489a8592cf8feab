// Package domain holds the per-installation mapping from generic payment
// kinds to the fiscal printer's fixed payment constants.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	printerdomain "github.com/pdvlabs/fiscal/internal/printer/domain"
	saledomain "github.com/pdvlabs/fiscal/internal/sale/domain"
)

// MethodMapping is one configured translation. CustomCode is only meaningful
// when Method is PaymentCustom: it is the slot programmed on the printer.
type MethodMapping struct {
	ID         snowflake.ID                `gorm:"primaryKey"`
	Kind       saledomain.PaymentKind      `gorm:"type:text;not null;uniqueIndex"`
	Method     printerdomain.PaymentMethod `gorm:"not null"`
	CustomCode int                         `gorm:"not null;default:0"`
	CreatedAt  time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (MethodMapping) TableName() string { return "payment_method_mappings" }

// Mapping is the resolved translation handed to the coupon layer.
type Mapping struct {
	Method     printerdomain.PaymentMethod
	CustomCode int
}

// Map resolves a payment kind to the printer constant; a nil result means no
// mapping is configured for the kind.
type Map interface {
	Lookup(ctx context.Context, kind saledomain.PaymentKind) (*Mapping, error)
}

type Service interface {
	Map
	Put(ctx context.Context, kind saledomain.PaymentKind, method printerdomain.PaymentMethod, customCode int) error
}
