package giftcards

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/castellan-io/backoffice/pkg/db/models"
	"github.com/castellan-io/backoffice/pkg/enums"
	pkgerrors "github.com/castellan-io/backoffice/pkg/errors"
	"github.com/castellan-io/backoffice/pkg/types"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// fakeRepo mirrors the repository semantics in memory.
type fakeRepo struct {
	cards        map[uuid.UUID]*models.GiftCard
	transactions map[uuid.UUID][]models.GiftCardTransaction
	comments     map[uuid.UUID][]models.GiftCardComment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		cards:        map[uuid.UUID]*models.GiftCard{},
		transactions: map[uuid.UUID][]models.GiftCardTransaction{},
		comments:     map[uuid.UUID][]models.GiftCardComment{},
	}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, card *models.GiftCard) error {
	card.ID = uuid.New()
	card.CreatedAt = time.Now().UTC()
	card.UpdatedAt = card.CreatedAt
	stored := *card
	f.cards[card.ID] = &stored
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.GiftCard, error) {
	stored, ok := f.cards[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	card := *stored
	card.Transactions = append([]models.GiftCardTransaction(nil), f.transactions[id]...)
	comments := append([]models.GiftCardComment(nil), f.comments[id]...)
	sort.Slice(comments, func(i, j int) bool { return comments[i].Position < comments[j].Position })
	card.Comments = comments
	return &card, nil
}

func (f *fakeRepo) CodeTaken(ctx context.Context, code string, excludeID uuid.UUID) (bool, error) {
	for id, card := range f.cards {
		if card.Code == code && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) Save(ctx context.Context, card *models.GiftCard) error {
	stored, ok := f.cards[card.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	updated := *card
	updated.Transactions = nil
	updated.Comments = nil
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	f.cards[card.ID] = &updated
	return nil
}

func (f *fakeRepo) AppendTransaction(ctx context.Context, txn *models.GiftCardTransaction) error {
	txn.ID = uuid.New()
	txn.CreatedAt = time.Now().UTC()
	f.transactions[txn.GiftCardID] = append(f.transactions[txn.GiftCardID], *txn)
	return nil
}

func (f *fakeRepo) AppendComment(ctx context.Context, comment *models.GiftCardComment) error {
	comment.ID = uuid.New()
	comment.CreatedAt = time.Now().UTC()
	// position is repo-assigned, mirroring the SQL MAX(position)+1
	comment.Position = 0
	for _, c := range f.comments[comment.GiftCardID] {
		if c.Position >= comment.Position {
			comment.Position = c.Position + 1
		}
	}
	f.comments[comment.GiftCardID] = append(f.comments[comment.GiftCardID], *comment)
	return nil
}

func (f *fakeRepo) DeleteCommentAt(ctx context.Context, cardID uuid.UUID, position int) (bool, error) {
	comments := f.comments[cardID]
	found := false
	kept := make([]models.GiftCardComment, 0, len(comments))
	for _, c := range comments {
		if c.Position == position {
			found = true
			continue
		}
		if c.Position > position {
			c.Position--
		}
		kept = append(kept, c)
	}
	if !found {
		return false, nil
	}
	f.comments[cardID] = kept
	return true, nil
}

func (f *fakeRepo) ApplyDebit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	card, ok := f.cards[id]
	if !ok {
		return false, nil
	}
	if card.Status != enums.GiftCardStatusActive || card.CurrentBalance.LessThan(amount) {
		return false, nil
	}
	card.CurrentBalance = card.CurrentBalance.Sub(amount)
	return true, nil
}

func (f *fakeRepo) MarkUsedIfDrained(ctx context.Context, id uuid.UUID) error {
	if card, ok := f.cards[id]; ok {
		if card.Status == enums.GiftCardStatusActive && card.CurrentBalance.IsZero() {
			card.Status = enums.GiftCardStatusUsed
		}
	}
	return nil
}

func (f *fakeRepo) MarkExpired(ctx context.Context, id uuid.UUID) error {
	if card, ok := f.cards[id]; ok && card.Status == enums.GiftCardStatusActive {
		card.Status = enums.GiftCardStatusExpired
	}
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	card, ok := f.cards[id]
	if !ok || !card.CurrentBalance.Equal(card.InitialValue) {
		return false, nil
	}
	delete(f.cards, id)
	delete(f.transactions, id)
	delete(f.comments, id)
	return true, nil
}

func (f *fakeRepo) List(ctx context.Context, filter ListFilter) ([]models.GiftCard, int64, error) {
	var matched []models.GiftCard
	for id := range f.cards {
		card, _ := f.FindByID(ctx, id)
		display := DeriveDisplayStatus(card, filter.Now)
		if filter.Status != "" && display != filter.Status {
			continue
		}
		if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
			if !strings.Contains(strings.ToLower(card.Code), search) &&
				!strings.Contains(strings.ToLower(card.Customer.Name), search) &&
				!strings.Contains(strings.ToLower(card.Customer.Email), search) {
				continue
			}
		}
		matched = append(matched, *card)
	}
	return matched, int64(len(matched)), nil
}

func (f *fakeRepo) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	stats := &Stats{
		TotalBalance:      decimal.Zero,
		TotalInitialValue: decimal.Zero,
	}
	for _, card := range f.cards {
		stats.TotalBalance = stats.TotalBalance.Add(card.CurrentBalance)
		stats.TotalInitialValue = stats.TotalInitialValue.Add(card.InitialValue)
		switch DeriveDisplayStatus(card, now) {
		case enums.GiftCardStatusActive:
			stats.ActiveCount++
		case enums.GiftCardStatusUsed:
			stats.UsedCount++
		case enums.GiftCardStatusExpired:
			stats.ExpiredCount++
		}
	}
	return stats, nil
}

func newTestService(t *testing.T) (Service, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	svc, err := NewService(ServiceParams{
		TxRunner:    stubTxRunner{},
		RepoFactory: func(tx *gorm.DB) Repository { return repo },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func dec(value int64) decimal.Decimal { return decimal.NewFromInt(value) }

func mustCreate(t *testing.T, svc Service, code string, value int64) *GiftCardDTO {
	t.Helper()
	card, err := svc.Create(context.Background(), CreateRequest{Code: code, InitialValue: dec(value)})
	if err != nil {
		t.Fatalf("create card %s: %v", code, err)
	}
	return card
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func TestCreateSeedsBalanceAndLedger(t *testing.T) {
	svc, _ := newTestService(t)

	card, err := svc.Create(context.Background(), CreateRequest{
		Code:         "GC-100",
		InitialValue: dec(500),
		Customer:     types.CustomerContact{Name: " Asha ", Email: " ASHA@Example.COM "},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if !card.CurrentBalance.Equal(dec(500)) {
		t.Fatalf("expected balance 500, got %s", card.CurrentBalance)
	}
	if card.Status != enums.GiftCardStatusActive {
		t.Fatalf("expected active status, got %s", card.Status)
	}
	if card.Currency != "Rs" {
		t.Fatalf("expected default currency, got %s", card.Currency)
	}
	if card.Customer.Name != "Asha" || card.Customer.Email != "asha@example.com" {
		t.Fatalf("customer not normalized: %+v", card.Customer)
	}
	if len(card.Transactions) != 1 {
		t.Fatalf("expected one synthetic transaction, got %d", len(card.Transactions))
	}
	txn := card.Transactions[0]
	if txn.Kind != enums.TransactionKindCreated ||
		!txn.Amount.Equal(dec(500)) || !txn.BalanceAfter.Equal(dec(500)) {
		t.Fatalf("unexpected initial transaction: %+v", txn)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	past := time.Now().UTC().Add(-24 * time.Hour)
	fixed := enums.ExpirationTypeFixedDate

	cases := []struct {
		name string
		req  CreateRequest
	}{
		{"empty code", CreateRequest{Code: "  ", InitialValue: dec(10)}},
		{"zero value", CreateRequest{Code: "GC-1", InitialValue: dec(0)}},
		{"negative value", CreateRequest{Code: "GC-1", InitialValue: dec(-5)}},
		{"fixed date missing", CreateRequest{Code: "GC-1", InitialValue: dec(10), ExpirationType: fixed}},
		{"fixed date past", CreateRequest{Code: "GC-1", InitialValue: dec(10), ExpirationType: fixed, ExpirationDate: &past}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req)
			assertCode(t, err, pkgerrors.CodeValidation)
		})
	}
}

func TestCreateDuplicateCode(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, "GC-DUP", 100)

	_, err := svc.Create(context.Background(), CreateRequest{Code: "GC-DUP", InitialValue: dec(50)})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestUpdatePatchesFields(t *testing.T) {
	svc, _ := newTestService(t)
	card := mustCreate(t, svc, "GC-PATCH", 100)

	currency := "USD"
	notes := "  vip customer  "
	email := "new@example.com"
	updated, err := svc.Update(context.Background(), card.ID, UpdateRequest{
		Currency: &currency,
		Notes:    &notes,
		Customer: &types.CustomerContactPatch{Email: &email},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Currency != "USD" {
		t.Fatalf("currency not updated: %s", updated.Currency)
	}
	if updated.Notes != "vip customer" {
		t.Fatalf("notes not trimmed: %q", updated.Notes)
	}
	if updated.Customer.Email != "new@example.com" {
		t.Fatalf("customer email not merged: %+v", updated.Customer)
	}
}

func TestUpdateCustomerMergesFieldByField(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), CreateRequest{
		Code:         "GC-CUST",
		InitialValue: dec(100),
		Customer:     types.CustomerContact{Name: "Asha", Phone: "555-0100"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	email := "asha@example.com"
	updated, err := svc.Update(context.Background(), created.ID, UpdateRequest{
		Customer: &types.CustomerContactPatch{Email: &email},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Customer.Name != "Asha" || updated.Customer.Phone != "555-0100" {
		t.Fatalf("untouched customer fields lost: %+v", updated.Customer)
	}
	if updated.Customer.Email != "asha@example.com" {
		t.Fatalf("patched field missing: %+v", updated.Customer)
	}
}

func TestUpdateStatusOnlyClientSettable(t *testing.T) {
	svc, _ := newTestService(t)
	card := mustCreate(t, svc, "GC-STATUS", 100)

	deactivated := enums.GiftCardStatusDeactivated
	updated, err := svc.Update(context.Background(), card.ID, UpdateRequest{Status: &deactivated})
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if updated.Status != enums.GiftCardStatusDeactivated {
		t.Fatalf("expected deactivated, got %s", updated.Status)
	}

	used := enums.GiftCardStatusUsed
	_, err = svc.Update(context.Background(), card.ID, UpdateRequest{Status: &used})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateInitialValueCannotUndershootBalance(t *testing.T) {
	svc, _ := newTestService(t)
	card := mustCreate(t, svc, "GC-IV", 100)

	low := dec(40)
	if _, err := svc.Debit(context.Background(), card.ID, DebitRequest{Amount: dec(30)}); err != nil {
		t.Fatalf("debit: %v", err)
	}

	_, err := svc.Update(context.Background(), card.ID, UpdateRequest{InitialValue: &low})
	assertCode(t, err, pkgerrors.CodeValidation)

	ok := dec(80)
	updated, err := svc.Update(context.Background(), card.ID, UpdateRequest{InitialValue: &ok})
	if err != nil {
		t.Fatalf("raise initial value: %v", err)
	}
	if !updated.InitialValue.Equal(dec(80)) {
		t.Fatalf("initial value not updated: %s", updated.InitialValue)
	}
	if !updated.CurrentBalance.Equal(dec(70)) {
		t.Fatalf("balance must stay untouched: %s", updated.CurrentBalance)
	}
}

func TestUpdateCodeConflict(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, "GC-A", 10)
	second := mustCreate(t, svc, "GC-B", 10)

	taken := "GC-A"
	_, err := svc.Update(context.Background(), second.ID, UpdateRequest{Code: &taken})
	assertCode(t, err, pkgerrors.CodeConflict)

	// keeping your own code is not a conflict
	own := "GC-B"
	if _, err := svc.Update(context.Background(), second.ID, UpdateRequest{Code: &own}); err != nil {
		t.Fatalf("same-code update: %v", err)
	}
}

func TestUpdateEmptyPatch(t *testing.T) {
	svc, _ := newTestService(t)
	card := mustCreate(t, svc, "GC-EMPTY", 10)

	_, err := svc.Update(context.Background(), card.ID, UpdateRequest{})
	assertCode(t, err, pkgerrors.CodeEmptyPatch)

	// a customer patch with no fields is not a recognized mutation
	_, err = svc.Update(context.Background(), card.ID, UpdateRequest{
		Customer: &types.CustomerContactPatch{},
	})
	assertCode(t, err, pkgerrors.CodeEmptyPatch)
}

func TestUpdateCommentAppendAndDelete(t *testing.T) {
	svc, _ := newTestService(t)
	card := mustCreate(t, svc, "GC-COMMENT", 10)

	first, err := svc.Update(context.Background(), card.ID, UpdateRequest{
		AddComment: &CommentInput{Body: " first note "},
	})
	if err != nil {
		t.Fatalf("append comment: %v", err)
	}
	if len(first.Comments) != 1 || first.Comments[0].Position != 0 {
		t.Fatalf("unexpected comments: %+v", first.Comments)
	}
	if first.Comments[0].AuthorName != "Staff" {
		t.Fatalf("expected default author, got %s", first.Comments[0].AuthorName)
	}
	if first.Comments[0].Body != "first note" {
		t.Fatalf("body not trimmed: %q", first.Comments[0].Body)
	}

	if _, err := svc.Update(context.Background(), card.ID, UpdateRequest{
		AddComment: &CommentInput{AuthorName: "Raj", Body: "second"},
	}); err != nil {
		t.Fatalf("append second comment: %v", err)
	}
	if _, err := svc.Update(context.Background(), card.ID, UpdateRequest{
		AddComment: &CommentInput{Body: "third"},
	}); err != nil {
		t.Fatalf("append third comment: %v", err)
	}

	zero := 0
	afterDelete, err := svc.Update(context.Background(), card.ID, UpdateRequest{DeleteCommentAt: &zero})
	if err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	if len(afterDelete.Comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(afterDelete.Comments))
	}
	// positions must stay dense after deletion
	for i, comment := range afterDelete.Comments {
		if comment.Position != i {
			t.Fatalf("position gap at %d: %+v", i, afterDelete.Comments)
		}
	}
	if afterDelete.Comments[0].Body != "second" {
		t.Fatalf("wrong comment deleted: %+v", afterDelete.Comments)
	}
}

func TestUpdateCommentValidation(t *testing.T) {
	svc, _ := newTestService(t)
	card := mustCreate(t, svc, "GC-CV", 10)

	_, err := svc.Update(context.Background(), card.ID, UpdateRequest{
		AddComment: &CommentInput{Body: "   "},
	})
	assertCode(t, err, pkgerrors.CodeValidation)

	five := 5
	_, err = svc.Update(context.Background(), card.ID, UpdateRequest{DeleteCommentAt: &five})
	assertCode(t, err, pkgerrors.CodeValidation)

	zero := 0
	_, err = svc.Update(context.Background(), card.ID, UpdateRequest{
		AddComment:      &CommentInput{Body: "note"},
		DeleteCommentAt: &zero,
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestDebitReducesBalanceAndRecordsLedger(t *testing.T) {
	svc, _ := newTestService(t)
	card := mustCreate(t, svc, "GC-DEBIT", 100)

	orderID := "ORD-77"
	updated, err := svc.Debit(context.Background(), card.ID, DebitRequest{
		Amount:  dec(40),
		OrderID: &orderID,
		Note:    "register 3",
	})
	if err != nil {
		t.Fatalf("debit: %v", err)
	}

	if !updated.CurrentBalance.Equal(dec(60)) {
		t.Fatalf("expected balance 60, got %s", updated.CurrentBalance)
	}
	if updated.Status != enums.GiftCardStatusActive {
		t.Fatalf("partial debit must keep card active, got %s", updated.Status)
	}
	if len(updated.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(updated.Transactions))
	}
	debit := updated.Transactions[1]
	if debit.Kind != enums.TransactionKindUsed ||
		!debit.Amount.Equal(dec(-40)) || !debit.BalanceAfter.Equal(dec(60)) {
		t.Fatalf("unexpected debit transaction: %+v", debit)
	}
	if debit.OrderID == nil || *debit.OrderID != "ORD-77" {
		t.Fatalf("order id not recorded: %+v", debit)
	}
}

func TestDebitToZeroFlipsStatusUsed(t *testing.T) {
	svc, _ := newTestService(t)
	card := mustCreate(t, svc, "GC-DRAIN", 50)

	updated, err := svc.Debit(context.Background(), card.ID, DebitRequest{Amount: dec(50)})
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if !updated.CurrentBalance.IsZero() {
		t.Fatalf("expected zero balance, got %s", updated.CurrentBalance)
	}
	if updated.Status != enums.GiftCardStatusUsed {
		t.Fatalf("expected used status, got %s", updated.Status)
	}

	_, err = svc.Debit(context.Background(), card.ID, DebitRequest{Amount: dec(1)})
	assertCode(t, err, pkgerrors.CodeCardUnusable)
}

func TestDebitInsufficientBalance(t *testing.T) {
	svc, _ := newTestService(t)
	card := mustCreate(t, svc, "GC-SHORT", 30)

	_, err := svc.Debit(context.Background(), card.ID, DebitRequest{Amount: dec(31)})
	assertCode(t, err, pkgerrors.CodeInsufficientBalance)

	// failed debit must leave the ledger untouched
	fresh, err := svc.Get(context.Background(), card.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !fresh.CurrentBalance.Equal(dec(30)) || len(fresh.Transactions) != 1 {
		t.Fatalf("failed debit mutated the card: %+v", fresh)
	}
}

func TestDebitValidation(t *testing.T) {
	svc, _ := newTestService(t)
	card := mustCreate(t, svc, "GC-AMZ", 30)

	_, err := svc.Debit(context.Background(), card.ID, DebitRequest{Amount: dec(0)})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Debit(context.Background(), card.ID, DebitRequest{Amount: dec(-3)})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Debit(context.Background(), uuid.New(), DebitRequest{Amount: dec(1)})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestDebitDeactivatedCard(t *testing.T) {
	svc, _ := newTestService(t)
	card := mustCreate(t, svc, "GC-OFF", 30)

	deactivated := enums.GiftCardStatusDeactivated
	if _, err := svc.Update(context.Background(), card.ID, UpdateRequest{Status: &deactivated}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := svc.Debit(context.Background(), card.ID, DebitRequest{Amount: dec(10)})
	assertCode(t, err, pkgerrors.CodeCardUnusable)
}

func TestLazyExpiryOnReadAndDebit(t *testing.T) {
	svc, repo := newTestService(t)
	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	created, err := svc.Create(context.Background(), CreateRequest{
		Code:           "GC-EXP",
		InitialValue:   dec(100),
		ExpirationType: enums.ExpirationTypeFixedDate,
		ExpirationDate: &future,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// simulate the date passing without any write
	repo.cards[created.ID].ExpirationDate = &past

	got, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != enums.GiftCardStatusExpired {
		t.Fatalf("read must derive expired, got %s", got.Status)
	}
	if repo.cards[created.ID].Status != enums.GiftCardStatusActive {
		t.Fatalf("plain read must not mutate stored status")
	}

	_, err = svc.Debit(context.Background(), created.ID, DebitRequest{Amount: dec(10)})
	assertCode(t, err, pkgerrors.CodeCardUnusable)
	if repo.cards[created.ID].Status != enums.GiftCardStatusExpired {
		t.Fatalf("debit gate must reconcile stored status, got %s", repo.cards[created.ID].Status)
	}
}

func TestDeleteRules(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Delete(context.Background(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)

	used := mustCreate(t, svc, "GC-USED", 50)
	if _, err := svc.Debit(context.Background(), used.ID, DebitRequest{Amount: dec(10)}); err != nil {
		t.Fatalf("debit: %v", err)
	}
	_, err = svc.Delete(context.Background(), used.ID)
	assertCode(t, err, pkgerrors.CodeConflict)

	pristine := mustCreate(t, svc, "GC-NEW", 50)
	res, err := svc.Delete(context.Background(), pristine.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !res.Deleted {
		t.Fatal("expected deleted=true")
	}
	_, err = svc.Get(context.Background(), pristine.ID)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

// debitDuringDeleteRepo lands a debit between the service's pre-read and the
// guarded delete statement.
type debitDuringDeleteRepo struct{ *fakeRepo }

func (r debitDuringDeleteRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if card, ok := r.cards[id]; ok {
		card.CurrentBalance = card.CurrentBalance.Sub(dec(1))
	}
	return r.fakeRepo.Delete(ctx, id)
}

func TestDeleteLosesRaceToDebit(t *testing.T) {
	repo := newFakeRepo()
	svc, err := NewService(ServiceParams{
		TxRunner:    stubTxRunner{},
		RepoFactory: func(tx *gorm.DB) Repository { return debitDuringDeleteRepo{repo} },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	card := mustCreate(t, svc, "GC-RACE", 50)
	_, err = svc.Delete(context.Background(), card.ID)
	assertCode(t, err, pkgerrors.CodeConflict)

	// the consumed card must survive
	if _, ok := repo.cards[card.ID]; !ok {
		t.Fatal("card hard-deleted despite the debit")
	}
}

func TestListFiltersAndStats(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, "GC-L1", 100)
	drained := mustCreate(t, svc, "GC-L2", 20)
	if _, err := svc.Debit(context.Background(), drained.ID, DebitRequest{Amount: dec(20)}); err != nil {
		t.Fatalf("debit: %v", err)
	}

	all, err := svc.List(context.Background(), ListQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all.Total != 2 || all.Page != 1 || all.PageCount != 1 {
		t.Fatalf("unexpected paging: %+v", all)
	}
	if !all.Stats.TotalBalance.Equal(dec(100)) || !all.Stats.TotalInitialValue.Equal(dec(120)) {
		t.Fatalf("unexpected stats: %+v", all.Stats)
	}
	if all.Stats.ActiveCount != 1 || all.Stats.UsedCount != 1 {
		t.Fatalf("unexpected counts: %+v", all.Stats)
	}

	usedOnly, err := svc.List(context.Background(), ListQuery{Status: "used"})
	if err != nil {
		t.Fatalf("list used: %v", err)
	}
	if usedOnly.Total != 1 || usedOnly.GiftCards[0].Code != "GC-L2" {
		t.Fatalf("status filter failed: %+v", usedOnly)
	}

	_, err = svc.List(context.Background(), ListQuery{Status: "bogus"})
	assertCode(t, err, pkgerrors.CodeValidation)
}
