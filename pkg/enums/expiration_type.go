package enums

import "fmt"

// ExpirationType is the expiry scheme stored in gift_cards.expiration_type.
type ExpirationType string

const (
	ExpirationTypeNone      ExpirationType = "none"
	ExpirationTypeFixedDate ExpirationType = "fixed_date"
)

var validExpirationTypes = []ExpirationType{
	ExpirationTypeNone,
	ExpirationTypeFixedDate,
}

// IsValid reports whether the value matches the canonical expiration enum.
func (e ExpirationType) IsValid() bool {
	for _, candidate := range validExpirationTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseExpirationType converts raw input into ExpirationType.
func ParseExpirationType(value string) (ExpirationType, error) {
	for _, candidate := range validExpirationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid expiration type %q", value)
}
