package giftcards

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/castellan-io/backoffice/pkg/db/models"
	"github.com/castellan-io/backoffice/pkg/enums"
	"github.com/castellan-io/backoffice/pkg/pagination"
)

// displayExpired matches cards whose stored status is active but whose fixed
// expiration date has already passed. Must stay in sync with DeriveDisplayStatus.
const displayExpired = "(status = 'active' AND expiration_type = 'fixed_date' AND expiration_date IS NOT NULL AND expiration_date < ?)"

// ListFilter bounds a paged card listing.
type ListFilter struct {
	Status enums.GiftCardStatus
	Search string
	Params pagination.Params
	Now    time.Time
}

// Repository manages persistence for gift cards and their child rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, card *models.GiftCard) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.GiftCard, error)
	CodeTaken(ctx context.Context, code string, excludeID uuid.UUID) (bool, error)
	Save(ctx context.Context, card *models.GiftCard) error
	AppendTransaction(ctx context.Context, txn *models.GiftCardTransaction) error
	AppendComment(ctx context.Context, comment *models.GiftCardComment) error
	DeleteCommentAt(ctx context.Context, cardID uuid.UUID, position int) (bool, error)
	ApplyDebit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error)
	MarkUsedIfDrained(ctx context.Context, id uuid.UUID) error
	MarkExpired(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]models.GiftCard, int64, error)
	Stats(ctx context.Context, now time.Time) (*Stats, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a gift card repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, card *models.GiftCard) error {
	return r.db.WithContext(ctx).Create(card).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.GiftCard, error) {
	var card models.GiftCard
	err := r.db.WithContext(ctx).
		Preload("Transactions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&card, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *repository) CodeTaken(ctx context.Context, code string, excludeID uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.GiftCard{}).Where("code = ?", code)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) Save(ctx context.Context, card *models.GiftCard) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(card).Error
}

func (r *repository) AppendTransaction(ctx context.Context, txn *models.GiftCardTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// AppendComment inserts the comment at the next free position for its card.
// The position is assigned in SQL so concurrent appends cannot both claim the
// same slot; the unique (gift_card_id, position) index backstops the race.
func (r *repository) AppendComment(ctx context.Context, comment *models.GiftCardComment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO gift_card_comments (id, gift_card_id, author_name, body, position, created_at)
		 SELECT ?, ?, ?, ?, COALESCE(MAX(position) + 1, 0), ?
		 FROM gift_card_comments WHERE gift_card_id = ?`,
		comment.ID, comment.GiftCardID, comment.AuthorName, comment.Body,
		comment.CreatedAt, comment.GiftCardID,
	).Error
}

// DeleteCommentAt removes the comment at the given position and compacts the
// positions above it. The row is resolved to its primary key before deleting
// so the positional lookup can never remove more than one comment.
func (r *repository) DeleteCommentAt(ctx context.Context, cardID uuid.UUID, position int) (bool, error) {
	var comment models.GiftCardComment
	err := r.db.WithContext(ctx).
		Select("id").
		Where("gift_card_id = ? AND position = ?", cardID, position).
		First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	res := r.db.WithContext(ctx).Delete(&models.GiftCardComment{}, "id = ?", comment.ID)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	err = r.db.WithContext(ctx).
		Model(&models.GiftCardComment{}).
		Where("gift_card_id = ? AND position > ?", cardID, position).
		UpdateColumn("position", gorm.Expr("position - 1")).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

// ApplyDebit performs the conditional balance decrement. A false return means
// the guard failed: the card is no longer active or another debit drained the
// balance first.
func (r *repository) ApplyDebit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.GiftCard{}).
		Where("id = ? AND status = ? AND current_balance >= ?", id, enums.GiftCardStatusActive, amount).
		Updates(map[string]any{
			"current_balance": gorm.Expr("current_balance - ?", amount),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) MarkUsedIfDrained(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.GiftCard{}).
		Where("id = ? AND status = ? AND current_balance = 0", id, enums.GiftCardStatusActive).
		Update("status", enums.GiftCardStatusUsed).Error
}

func (r *repository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.GiftCard{}).
		Where("id = ? AND status = ?", id, enums.GiftCardStatusActive).
		Update("status", enums.GiftCardStatusExpired).Error
}

// Delete removes a card only while it is still untouched. The balance guard is
// part of the statement so a debit committing after the caller's read cannot
// slip a consumed card past the check. A false return means the guard failed.
// Transactions and comments ride the ON DELETE CASCADE foreign keys.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND current_balance = initial_value", id).
		Delete(&models.GiftCard{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.GiftCard, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.GiftCard{})
	q = applyDisplayStatusFilter(q, filter.Status, filter.Now)

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where(
			"lower(code) LIKE ? OR lower(customer ->> 'name') LIKE ? OR lower(customer ->> 'email') LIKE ?",
			like, like, like,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var cards []models.GiftCard
	err := q.
		Preload("Transactions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at DESC").
		Offset(filter.Params.Offset()).
		Limit(pagination.NormalizeLimit(filter.Params.Limit)).
		Find(&cards).Error
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

func applyDisplayStatusFilter(q *gorm.DB, status enums.GiftCardStatus, now time.Time) *gorm.DB {
	switch status {
	case enums.GiftCardStatusActive:
		return q.Where("status = 'active' AND NOT "+displayExpired, now)
	case enums.GiftCardStatusExpired:
		return q.Where("status = 'expired' OR "+displayExpired, now)
	case enums.GiftCardStatusUsed, enums.GiftCardStatusDeactivated:
		return q.Where("status = ?", status)
	default:
		return q
	}
}

func (r *repository) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	var row struct {
		TotalBalance      decimal.Decimal
		TotalInitialValue decimal.Decimal
		ActiveCount       int64
		UsedCount         int64
		ExpiredCount      int64
	}

	err := r.db.WithContext(ctx).
		Model(&models.GiftCard{}).
		Select(`
			COALESCE(SUM(current_balance), 0) AS total_balance,
			COALESCE(SUM(initial_value), 0) AS total_initial_value,
			COALESCE(SUM(CASE WHEN status = 'active' AND NOT `+displayExpired+` THEN 1 ELSE 0 END), 0) AS active_count,
			COALESCE(SUM(CASE WHEN status = 'used' THEN 1 ELSE 0 END), 0) AS used_count,
			COALESCE(SUM(CASE WHEN status = 'expired' OR `+displayExpired+` THEN 1 ELSE 0 END), 0) AS expired_count`,
			now, now).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalBalance:      row.TotalBalance,
		TotalInitialValue: row.TotalInitialValue,
		ActiveCount:       row.ActiveCount,
		UsedCount:         row.UsedCount,
		ExpiredCount:      row.ExpiredCount,
	}, nil
}
