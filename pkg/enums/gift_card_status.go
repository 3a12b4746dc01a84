package enums

import "fmt"

// GiftCardStatus is the lifecycle state stored in gift_cards.status.
type GiftCardStatus string

const (
	GiftCardStatusActive      GiftCardStatus = "active"
	GiftCardStatusUsed        GiftCardStatus = "used"
	GiftCardStatusExpired     GiftCardStatus = "expired"
	GiftCardStatusDeactivated GiftCardStatus = "deactivated"
)

var validGiftCardStatuses = []GiftCardStatus{
	GiftCardStatusActive,
	GiftCardStatusUsed,
	GiftCardStatusExpired,
	GiftCardStatusDeactivated,
}

// IsValid reports whether the value matches the canonical status enum.
func (s GiftCardStatus) IsValid() bool {
	for _, candidate := range validGiftCardStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsClientSettable reports whether staff may set the status directly.
// used and expired are system-derived and never accepted from a patch.
func (s GiftCardStatus) IsClientSettable() bool {
	return s == GiftCardStatusActive || s == GiftCardStatusDeactivated
}

// ParseGiftCardStatus converts raw input into GiftCardStatus.
func ParseGiftCardStatus(value string) (GiftCardStatus, error) {
	for _, candidate := range validGiftCardStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gift card status %q", value)
}
