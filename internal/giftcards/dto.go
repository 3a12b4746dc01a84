package giftcards

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/castellan-io/backoffice/pkg/db/models"
	"github.com/castellan-io/backoffice/pkg/enums"
	"github.com/castellan-io/backoffice/pkg/types"
)

// CreateRequest carries the payload for issuing a new gift card.
type CreateRequest struct {
	Code           string                `json:"code" validate:"required"`
	InitialValue   decimal.Decimal       `json:"initialValue" validate:"required"`
	Currency       string                `json:"currency,omitempty"`
	ExpirationType enums.ExpirationType  `json:"expirationType,omitempty"`
	ExpirationDate *time.Time            `json:"expirationDate,omitempty"`
	Customer       types.CustomerContact `json:"customer,omitempty"`
	Notes          string                `json:"notes,omitempty"`
}

// CommentInput is a staff annotation appended through an update call.
type CommentInput struct {
	AuthorName string `json:"authorName,omitempty"`
	Body       string `json:"body"`
}

// UpdateRequest is a partial patch. Nil fields are left untouched.
// AddComment and DeleteCommentAt are mutually exclusive per call.
type UpdateRequest struct {
	Code            *string                     `json:"code,omitempty"`
	InitialValue    *decimal.Decimal            `json:"initialValue,omitempty"`
	Currency        *string                     `json:"currency,omitempty"`
	ExpirationType  *enums.ExpirationType       `json:"expirationType,omitempty"`
	ExpirationDate  *time.Time                  `json:"expirationDate,omitempty"`
	Customer        *types.CustomerContactPatch `json:"customer,omitempty"`
	Notes           *string                     `json:"notes,omitempty"`
	Status          *enums.GiftCardStatus       `json:"status,omitempty"`
	AddComment      *CommentInput               `json:"addComment,omitempty"`
	DeleteCommentAt *int                        `json:"deleteCommentAt,omitempty"`
}

// DebitRequest carries a redemption against a card's balance.
type DebitRequest struct {
	Amount  decimal.Decimal `json:"amount" validate:"required"`
	OrderID *string         `json:"orderId,omitempty"`
	Note    string          `json:"note,omitempty"`
}

// TransactionDTO is the transport shape of one ledger entry.
type TransactionDTO struct {
	ID           uuid.UUID             `json:"id"`
	Kind         enums.TransactionKind `json:"kind"`
	Amount       decimal.Decimal       `json:"amount"`
	BalanceAfter decimal.Decimal       `json:"balanceAfter"`
	OrderID      *string               `json:"orderId,omitempty"`
	Note         string                `json:"note,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
}

// CommentDTO is the transport shape of one staff comment.
type CommentDTO struct {
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"createdAt"`
}

// GiftCardDTO is the full card entity returned by the API. Status is the
// derived display status, not necessarily the stored one.
type GiftCardDTO struct {
	ID             uuid.UUID             `json:"id"`
	Code           string                `json:"code"`
	InitialValue   decimal.Decimal       `json:"initialValue"`
	CurrentBalance decimal.Decimal       `json:"currentBalance"`
	Currency       string                `json:"currency"`
	ExpirationType enums.ExpirationType  `json:"expirationType"`
	ExpirationDate *time.Time            `json:"expirationDate,omitempty"`
	Customer       types.CustomerContact `json:"customer"`
	Notes          string                `json:"notes,omitempty"`
	Status         enums.GiftCardStatus  `json:"status"`
	Transactions   []TransactionDTO      `json:"transactions"`
	Comments       []CommentDTO          `json:"comments"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// Stats aggregates the ledger for the list endpoint.
type Stats struct {
	TotalBalance      decimal.Decimal `json:"totalBalance"`
	TotalInitialValue decimal.Decimal `json:"totalInitialValue"`
	ActiveCount       int64           `json:"activeCount"`
	UsedCount         int64           `json:"usedCount"`
	ExpiredCount      int64           `json:"expiredCount"`
}

// ListResult bundles one page of cards with totals and stats.
type ListResult struct {
	GiftCards []GiftCardDTO `json:"giftCards"`
	Total     int64         `json:"total"`
	Page      int           `json:"page"`
	PageCount int           `json:"pageCount"`
	Stats     *Stats        `json:"stats"`
}

// DeleteResult acknowledges a hard delete.
type DeleteResult struct {
	Deleted bool `json:"deleted"`
}

// FromModel maps a card to its transport shape, deriving display status at now.
func FromModel(card *models.GiftCard, now time.Time) *GiftCardDTO {
	if card == nil {
		return nil
	}

	transactions := make([]TransactionDTO, 0, len(card.Transactions))
	for _, txn := range card.Transactions {
		transactions = append(transactions, TransactionDTO{
			ID:           txn.ID,
			Kind:         txn.Kind,
			Amount:       txn.Amount,
			BalanceAfter: txn.BalanceAfter,
			OrderID:      txn.OrderID,
			Note:         txn.Note,
			CreatedAt:    txn.CreatedAt,
		})
	}

	comments := make([]CommentDTO, 0, len(card.Comments))
	for _, comment := range card.Comments {
		comments = append(comments, CommentDTO{
			AuthorName: comment.AuthorName,
			Body:       comment.Body,
			Position:   comment.Position,
			CreatedAt:  comment.CreatedAt,
		})
	}

	return &GiftCardDTO{
		ID:             card.ID,
		Code:           card.Code,
		InitialValue:   card.InitialValue,
		CurrentBalance: card.CurrentBalance,
		Currency:       card.Currency,
		ExpirationType: card.ExpirationType,
		ExpirationDate: card.ExpirationDate,
		Customer:       card.Customer,
		Notes:          card.Notes,
		Status:         DeriveDisplayStatus(card, now),
		Transactions:   transactions,
		Comments:       comments,
		CreatedAt:      card.CreatedAt,
		UpdatedAt:      card.UpdatedAt,
	}
}
