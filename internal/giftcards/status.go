package giftcards

import (
	"time"

	"github.com/castellan-io/backoffice/pkg/db/models"
	"github.com/castellan-io/backoffice/pkg/enums"
)

// DeriveDisplayStatus returns the status a reader should see at now.
// A stored-active card with a fixed expiration date in the past reads as
// expired; the stored row is not mutated here. Every read path and the
// debit gate go through this derivation.
func DeriveDisplayStatus(card *models.GiftCard, now time.Time) enums.GiftCardStatus {
	if card == nil {
		return ""
	}
	if card.Status == enums.GiftCardStatusActive &&
		card.ExpirationType == enums.ExpirationTypeFixedDate &&
		card.ExpirationDate != nil &&
		card.ExpirationDate.Before(now) {
		return enums.GiftCardStatusExpired
	}
	return card.Status
}
