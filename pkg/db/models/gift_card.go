package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/castellan-io/backoffice/pkg/enums"
	"github.com/castellan-io/backoffice/pkg/types"
)

// GiftCard is the monetary instrument at the center of the ledger.
// Invariant: 0 <= current_balance <= initial_value.
type GiftCard struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code           string                `gorm:"column:code;type:text;not null;uniqueIndex:idx_gift_cards_code"`
	InitialValue   decimal.Decimal       `gorm:"column:initial_value;type:numeric(12,2);not null"`
	CurrentBalance decimal.Decimal       `gorm:"column:current_balance;type:numeric(12,2);not null"`
	Currency       string                `gorm:"column:currency;not null;default:'Rs'"`
	ExpirationType enums.ExpirationType  `gorm:"column:expiration_type;type:text;not null;default:'none'"`
	ExpirationDate *time.Time            `gorm:"column:expiration_date"`
	Customer       types.CustomerContact `gorm:"column:customer;type:jsonb;serializer:json"`
	Notes          string                `gorm:"column:notes;type:text"`
	Status         enums.GiftCardStatus  `gorm:"column:status;type:text;not null;default:'active'"`
	Transactions   []GiftCardTransaction `gorm:"foreignKey:GiftCardID;constraint:OnDelete:CASCADE"`
	Comments       []GiftCardComment     `gorm:"foreignKey:GiftCardID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
