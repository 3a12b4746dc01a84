package giftcards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/castellan-io/backoffice/pkg/db"
	"github.com/castellan-io/backoffice/pkg/db/models"
	"github.com/castellan-io/backoffice/pkg/enums"
	pkgerrors "github.com/castellan-io/backoffice/pkg/errors"
	"github.com/castellan-io/backoffice/pkg/pagination"
	"github.com/castellan-io/backoffice/pkg/types"
)

const (
	giftCardCodeConstraint = "idx_gift_cards_code"
	defaultCurrency        = "Rs"
	defaultCommentAuthor   = "Staff"
	cardNotFoundMessage    = "gift card not found"
)

// ListQuery carries the list endpoint's filters.
type ListQuery struct {
	Status string
	Search string
	Page   int
	Limit  int
}

// Service defines the gift card ledger operations.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*GiftCardDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*GiftCardDTO, error)
	List(ctx context.Context, query ListQuery) (*ListResult, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*GiftCardDTO, error)
	Debit(ctx context.Context, id uuid.UUID, req DebitRequest) (*GiftCardDTO, error)
	Delete(ctx context.Context, id uuid.UUID) (*DeleteResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RepoFactory builds a repository bound to the given transaction. A nil
// transaction yields the base repository.
type RepoFactory func(tx *gorm.DB) Repository

// ServiceParams packages the dependencies for the ledger service.
type ServiceParams struct {
	TxRunner    txRunner
	RepoFactory RepoFactory
}

type service struct {
	tx    txRunner
	repos RepoFactory
}

// NewService wires a gift card service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.RepoFactory == nil {
		return nil, fmt.Errorf("repo factory required")
	}
	return &service{
		tx:    params.TxRunner,
		repos: params.RepoFactory,
	}, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*GiftCardDTO, error) {
	now := time.Now().UTC()

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if !req.InitialValue.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initialValue must be greater than zero")
	}

	expType := req.ExpirationType
	if expType == "" {
		expType = enums.ExpirationTypeNone
	}
	expDate := req.ExpirationDate
	if err := validateExpiration(expType, expDate, now); err != nil {
		return nil, err
	}
	if expType == enums.ExpirationTypeNone {
		expDate = nil
	}

	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = defaultCurrency
	}

	customer := types.CustomerContact{
		Name:  strings.TrimSpace(req.Customer.Name),
		Email: strings.ToLower(strings.TrimSpace(req.Customer.Email)),
		Phone: strings.TrimSpace(req.Customer.Phone),
	}

	var cardID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repos(tx)

		taken, err := repo.CodeTaken(ctx, code, uuid.Nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check code uniqueness")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, "code already in use")
		}

		card := &models.GiftCard{
			Code:           code,
			InitialValue:   req.InitialValue,
			CurrentBalance: req.InitialValue,
			Currency:       currency,
			ExpirationType: expType,
			ExpirationDate: expDate,
			Customer:       customer,
			Notes:          strings.TrimSpace(req.Notes),
			Status:         enums.GiftCardStatusActive,
		}
		if err := repo.Create(ctx, card); err != nil {
			// unique index is the backstop for concurrent creates
			if db.IsUniqueViolation(err, giftCardCodeConstraint) {
				return pkgerrors.New(pkgerrors.CodeConflict, "code already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create gift card")
		}

		initial := &models.GiftCardTransaction{
			GiftCardID:   card.ID,
			Kind:         enums.TransactionKindCreated,
			Amount:       req.InitialValue,
			BalanceAfter: req.InitialValue,
		}
		if err := repo.AppendTransaction(ctx, initial); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record initial transaction")
		}

		cardID = card.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadDTO(ctx, cardID, now)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*GiftCardDTO, error) {
	return s.loadDTO(ctx, id, time.Now().UTC())
}

func (s *service) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	now := time.Now().UTC()
	repo := s.repos(nil)

	var status enums.GiftCardStatus
	if trimmed := strings.TrimSpace(query.Status); trimmed != "" {
		parsed, err := enums.ParseGiftCardStatus(trimmed)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
		}
		status = parsed
	}

	params := pagination.Params{
		Page:  pagination.NormalizePage(query.Page),
		Limit: pagination.NormalizeLimit(query.Limit),
	}

	cards, total, err := repo.List(ctx, ListFilter{
		Status: status,
		Search: query.Search,
		Params: params,
		Now:    now,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list gift cards")
	}

	stats, err := repo.Stats(ctx, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate gift card stats")
	}

	dtos := make([]GiftCardDTO, 0, len(cards))
	for i := range cards {
		dtos = append(dtos, *FromModel(&cards[i], now))
	}

	return &ListResult{
		GiftCards: dtos,
		Total:     total,
		Page:      params.Page,
		PageCount: pagination.PageCount(total, params.Limit),
		Stats:     stats,
	}, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*GiftCardDTO, error) {
	now := time.Now().UTC()

	if req.AddComment != nil && req.DeleteCommentAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			"addComment and deleteCommentAt are mutually exclusive")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repos(tx)

		card, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, cardNotFoundMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load gift card")
		}

		// reconcile lazy expiry before applying the patch
		if card.Status == enums.GiftCardStatusActive &&
			DeriveDisplayStatus(card, now) == enums.GiftCardStatusExpired {
			card.Status = enums.GiftCardStatusExpired
		}

		recognized := false

		if req.Code != nil {
			code := strings.TrimSpace(*req.Code)
			if code == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "code cannot be empty")
			}
			if code != card.Code {
				taken, err := repo.CodeTaken(ctx, code, id)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check code uniqueness")
				}
				if taken {
					return pkgerrors.New(pkgerrors.CodeConflict, "code already in use")
				}
			}
			card.Code = code
			recognized = true
		}

		if req.InitialValue != nil {
			value := *req.InitialValue
			if !value.IsPositive() {
				return pkgerrors.New(pkgerrors.CodeValidation, "initialValue must be greater than zero")
			}
			if value.LessThan(card.CurrentBalance) {
				return pkgerrors.New(pkgerrors.CodeValidation, "initialValue cannot be below current balance")
			}
			card.InitialValue = value
			recognized = true
		}

		if req.Currency != nil {
			currency := strings.TrimSpace(*req.Currency)
			if currency == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "currency cannot be empty")
			}
			card.Currency = currency
			recognized = true
		}

		if req.ExpirationType != nil || req.ExpirationDate != nil {
			expType := card.ExpirationType
			if req.ExpirationType != nil {
				expType = *req.ExpirationType
			}
			expDate := card.ExpirationDate
			if req.ExpirationDate != nil {
				expDate = req.ExpirationDate
			}
			if err := validateExpiration(expType, expDate, now); err != nil {
				return err
			}
			if expType == enums.ExpirationTypeNone {
				expDate = nil
			}
			card.ExpirationType = expType
			card.ExpirationDate = expDate
			recognized = true
		}

		if req.Customer != nil && !req.Customer.IsZero() {
			card.Customer = card.Customer.Merge(*req.Customer)
			recognized = true
		}

		if req.Notes != nil {
			card.Notes = strings.TrimSpace(*req.Notes)
			recognized = true
		}

		if req.Status != nil {
			status := *req.Status
			if !status.IsValid() || !status.IsClientSettable() {
				return pkgerrors.New(pkgerrors.CodeValidation,
					"status can only be set to active or deactivated")
			}
			card.Status = status
			recognized = true
		}

		if req.AddComment != nil {
			body := strings.TrimSpace(req.AddComment.Body)
			if body == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "comment body is required")
			}
			author := strings.TrimSpace(req.AddComment.AuthorName)
			if author == "" {
				author = defaultCommentAuthor
			}
			comment := &models.GiftCardComment{
				GiftCardID: id,
				AuthorName: author,
				Body:       body,
			}
			if err := repo.AppendComment(ctx, comment); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append comment")
			}
			recognized = true
		}

		if req.DeleteCommentAt != nil {
			position := *req.DeleteCommentAt
			if position < 0 || position >= len(card.Comments) {
				return pkgerrors.New(pkgerrors.CodeValidation, "comment index out of range")
			}
			deleted, err := repo.DeleteCommentAt(ctx, id, position)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete comment")
			}
			if !deleted {
				return pkgerrors.New(pkgerrors.CodeValidation, "comment index out of range")
			}
			recognized = true
		}

		if !recognized {
			return pkgerrors.New(pkgerrors.CodeEmptyPatch, "no recognized fields in patch")
		}

		if err := repo.Save(ctx, card); err != nil {
			if db.IsUniqueViolation(err, giftCardCodeConstraint) {
				return pkgerrors.New(pkgerrors.CodeConflict, "code already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save gift card")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadDTO(ctx, id, now)
}

func (s *service) Debit(ctx context.Context, id uuid.UUID, req DebitRequest) (*GiftCardDTO, error) {
	now := time.Now().UTC()

	if !req.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}

	repo := s.repos(nil)
	card, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, cardNotFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load gift card")
	}

	display := DeriveDisplayStatus(card, now)
	if display != enums.GiftCardStatusActive {
		if display == enums.GiftCardStatusExpired && card.Status == enums.GiftCardStatusActive {
			// reconcile the stored status now that expiry is observed
			if err := repo.MarkExpired(ctx, id); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark gift card expired")
			}
		}
		return nil, pkgerrors.New(pkgerrors.CodeCardUnusable, unusableMessage(display))
	}
	if !card.CurrentBalance.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeCardUnusable, "gift card has no remaining balance")
	}
	if req.Amount.GreaterThan(card.CurrentBalance) {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "debit amount exceeds balance")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repos(tx)

		applied, err := txRepo.ApplyDebit(ctx, id, req.Amount)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply debit")
		}
		if !applied {
			// a concurrent debit or status change won the race
			fresh, err := txRepo.FindByID(ctx, id)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload gift card")
			}
			if fresh.Status == enums.GiftCardStatusActive && req.Amount.GreaterThan(fresh.CurrentBalance) {
				return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "debit amount exceeds balance")
			}
			return unusableError(fresh, now)
		}

		fresh, err := txRepo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload gift card")
		}

		txn := &models.GiftCardTransaction{
			GiftCardID:   id,
			Kind:         enums.TransactionKindUsed,
			Amount:       req.Amount.Neg(),
			BalanceAfter: fresh.CurrentBalance,
			OrderID:      req.OrderID,
			Note:         strings.TrimSpace(req.Note),
		}
		if err := txRepo.AppendTransaction(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record debit transaction")
		}

		if fresh.CurrentBalance.IsZero() {
			if err := txRepo.MarkUsedIfDrained(ctx, id); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark gift card used")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadDTO(ctx, id, now)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	repo := s.repos(nil)

	card, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, cardNotFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load gift card")
	}

	if card.CurrentBalance.LessThan(card.InitialValue) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "card has been used, deactivate it instead")
	}

	deleted, err := repo.Delete(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete gift card")
	}
	if !deleted {
		// a debit landed between the read above and the delete
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "card has been used, deactivate it instead")
	}
	return &DeleteResult{Deleted: true}, nil
}

func (s *service) loadDTO(ctx context.Context, id uuid.UUID, now time.Time) (*GiftCardDTO, error) {
	card, err := s.repos(nil).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, cardNotFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load gift card")
	}
	return FromModel(card, now), nil
}

func validateExpiration(expType enums.ExpirationType, expDate *time.Time, now time.Time) error {
	if !expType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid expiration type")
	}
	if expType == enums.ExpirationTypeFixedDate {
		if expDate == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "expirationDate is required for fixed_date")
		}
		if expDate.Before(now) {
			return pkgerrors.New(pkgerrors.CodeValidation, "expirationDate cannot be in the past")
		}
	}
	return nil
}

func unusableMessage(status enums.GiftCardStatus) string {
	switch status {
	case enums.GiftCardStatusExpired:
		return "gift card is expired"
	case enums.GiftCardStatusUsed:
		return "gift card is fully used"
	case enums.GiftCardStatusDeactivated:
		return "gift card is deactivated"
	default:
		return "gift card is not usable"
	}
}

func unusableError(card *models.GiftCard, now time.Time) error {
	return pkgerrors.New(pkgerrors.CodeCardUnusable, unusableMessage(DeriveDisplayStatus(card, now)))
}
