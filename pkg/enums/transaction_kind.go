package enums

import "fmt"

// TransactionKind is the ledger entry kind stored in gift_card_transactions.kind.
type TransactionKind string

const (
	TransactionKindCreated    TransactionKind = "created"
	TransactionKindUsed       TransactionKind = "used"
	TransactionKindRefund     TransactionKind = "refund"
	TransactionKindAdjustment TransactionKind = "adjustment"
)

var validTransactionKinds = []TransactionKind{
	TransactionKindCreated,
	TransactionKindUsed,
	TransactionKindRefund,
	TransactionKindAdjustment,
}

// IsValid reports whether the value matches the canonical transaction enum.
func (k TransactionKind) IsValid() bool {
	for _, candidate := range validTransactionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseTransactionKind converts raw input into TransactionKind.
func ParseTransactionKind(value string) (TransactionKind, error) {
	for _, candidate := range validTransactionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction kind %q", value)
}
