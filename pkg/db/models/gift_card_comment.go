package models

import (
	"time"

	"github.com/google/uuid"
)

// GiftCardComment is a staff annotation on a gift card, addressed by
// positional index. Positions are dense and assigned on insert; deletion
// reindexes the remainder.
type GiftCardComment struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GiftCardID uuid.UUID `gorm:"column:gift_card_id;type:uuid;not null;index"`
	AuthorName string    `gorm:"column:author_name;not null;default:'Staff'"`
	Body       string    `gorm:"column:body;type:text;not null"`
	Position   int       `gorm:"column:position;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
