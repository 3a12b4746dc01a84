package types

import "strings"

// CustomerContact holds the contact details embedded on a gift card.
// Stored as jsonb; patched field-by-field rather than replaced wholesale.
type CustomerContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// CustomerContactPatch carries the optional fields of a contact update.
type CustomerContactPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// Merge applies the non-nil patch fields onto the existing contact.
func (c CustomerContact) Merge(patch CustomerContactPatch) CustomerContact {
	merged := c
	if patch.Name != nil {
		merged.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		merged.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.Phone != nil {
		merged.Phone = strings.TrimSpace(*patch.Phone)
	}
	return merged
}

// IsZero reports whether the patch carries no fields.
func (p CustomerContactPatch) IsZero() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil
}
