package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/castellan-io/backoffice/pkg/enums"
)

// GiftCardTransaction records an immutable balance mutation on a gift card.
// Rows are append-only and totally ordered by (created_at, id).
type GiftCardTransaction struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GiftCardID   uuid.UUID             `gorm:"column:gift_card_id;type:uuid;not null;index"`
	Kind         enums.TransactionKind `gorm:"column:kind;type:text;not null"`
	Amount       decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	BalanceAfter decimal.Decimal       `gorm:"column:balance_after;type:numeric(12,2);not null"`
	OrderID      *string               `gorm:"column:order_id"`
	Note         string                `gorm:"column:note;type:text"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
}
