package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/cashflow/internal/database/dbtest"
	"github.com/MrJamesThe3rd/cashflow/internal/directory"
	dirstore "github.com/MrJamesThe3rd/cashflow/internal/directory/store"
	"github.com/MrJamesThe3rd/cashflow/internal/transaction"
	"github.com/MrJamesThe3rd/cashflow/internal/transaction/store"
	"github.com/MrJamesThe3rd/cashflow/internal/validation"
)

var msk = time.FixedZone("MSK", 3*60*60)

type fixture struct {
	dirs *directory.Service
	txs  *store.Store
	svc  *transaction.Service

	business  *directory.Status
	expense   *directory.Type
	income    *directory.Type
	marketing *directory.Category
	salary    *directory.Category
	ads       *directory.Subcategory
	bonus     *directory.Subcategory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	db := dbtest.Open(t)

	f := &fixture{
		dirs: directory.NewService(dirstore.New(db)),
		txs:  store.New(db),
	}
	f.svc = transaction.NewService(f.txs, f.dirs)

	var err error

	f.business, err = f.dirs.CreateStatus(ctx, "Business")
	require.NoError(t, err)

	f.expense, err = f.dirs.CreateType(ctx, "Expense")
	require.NoError(t, err)

	f.income, err = f.dirs.CreateType(ctx, "Income")
	require.NoError(t, err)

	f.marketing, err = f.dirs.CreateCategory(ctx, directory.CategoryParams{Name: "Marketing", TypeID: f.expense.ID})
	require.NoError(t, err)

	f.salary, err = f.dirs.CreateCategory(ctx, directory.CategoryParams{Name: "Salary", TypeID: f.income.ID})
	require.NoError(t, err)

	f.ads, err = f.dirs.CreateSubcategory(ctx, directory.SubcategoryParams{Name: "Ads", CategoryID: f.marketing.ID})
	require.NoError(t, err)

	f.bonus, err = f.dirs.CreateSubcategory(ctx, directory.SubcategoryParams{Name: "Bonus", CategoryID: f.salary.ID})
	require.NoError(t, err)

	return f
}

func (f *fixture) adsAt(date time.Time, comment string) *transaction.Transaction {
	return &transaction.Transaction{
		Date:          date,
		StatusID:      f.business.ID,
		TypeID:        f.expense.ID,
		CategoryID:    f.marketing.ID,
		SubcategoryID: f.ads.ID,
		Amount:        decimal.RequireFromString("1000.50"),
		Comment:       comment,
	}
}

func (f *fixture) create(t *testing.T, tx *transaction.Transaction) *transaction.Transaction {
	t.Helper()
	require.NoError(t, f.txs.CreateTransaction(context.Background(), tx))

	return tx
}

func ids(txs []*transaction.Transaction) []int64 {
	out := make([]int64, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}

	return out
}

func TestStore_CreateTransaction_BrokenChain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	type testCase struct {
		name       string
		mutate     func(tx *transaction.Transaction)
		constraint string
	}

	tests := []testCase{
		{
			name:       "CategoryOfOtherType",
			mutate:     func(tx *transaction.Transaction) { tx.CategoryID, tx.SubcategoryID = f.salary.ID, f.bonus.ID },
			constraint: "transactions_category_type_fkey",
		},
		{
			name:       "SubcategoryOfOtherCategory",
			mutate:     func(tx *transaction.Transaction) { tx.SubcategoryID = f.bonus.ID },
			constraint: "transactions_subcategory_category_fkey",
		},
		{
			name:       "UnknownStatus",
			mutate:     func(tx *transaction.Transaction) { tx.StatusID = 999 },
			constraint: "transactions_status_fkey",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := f.adsAt(time.Date(2024, 3, 5, 12, 0, 0, 0, msk), "")
			tt.mutate(tx)

			err := f.txs.CreateTransaction(ctx, tx)
			require.ErrorIs(t, err, transaction.ErrStaleHierarchy)
			assert.ErrorContains(t, err, tt.constraint)
		})
	}

	n, err := f.txs.CountTransactions(ctx, transaction.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_ListTransactions_Order(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	noon := time.Date(2024, 3, 5, 12, 0, 0, 0, msk)

	first := f.create(t, f.adsAt(noon, "first"))
	second := f.create(t, f.adsAt(noon, "second"))
	older := f.create(t, f.adsAt(noon.AddDate(0, 0, -1), "older"))
	newest := f.create(t, f.adsAt(noon.Add(time.Hour), "newest"))

	txs, err := f.txs.ListTransactions(ctx, transaction.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{newest.ID, second.ID, first.ID, older.ID}, ids(txs))

	txs, err = f.txs.ListTransactions(ctx, transaction.ListFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{second.ID, first.ID}, ids(txs))
}

func TestStore_ListTransactions_Filter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	day := time.Date(2024, 3, 5, 0, 0, 0, 0, msk)

	justAfterMidnight := f.create(t, f.adsAt(day.Add(30*time.Minute), "50% off"))
	lastMinute := f.create(t, f.adsAt(day.Add(24*time.Hour-time.Minute), "5000 off"))
	f.create(t, f.adsAt(day.Add(-time.Minute), "previous day"))
	f.create(t, f.adsAt(day.Add(24*time.Hour), "next day"))

	type testCase struct {
		name   string
		filter transaction.ListFilter
		want   []int64
	}

	tests := []testCase{
		{
			name:   "LocalDay",
			filter: transaction.ListFilter{Date: new(day.Add(15 * time.Hour))},
			want:   []int64{lastMinute.ID, justAfterMidnight.ID},
		},
		{
			name:   "CommentWithWildcard",
			filter: transaction.ListFilter{Query: "50%"},
			want:   []int64{justAfterMidnight.ID},
		},
		{
			name:   "CommentCaseInsensitive",
			filter: transaction.ListFilter{Query: "OFF", Date: new(day)},
			want:   []int64{lastMinute.ID, justAfterMidnight.ID},
		},
		{
			name:   "OtherType",
			filter: transaction.ListFilter{TypeID: &f.income.ID},
			want:   []int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs, err := f.txs.ListTransactions(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(txs))

			n, err := f.txs.CountTransactions(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), n)
		})
	}
}

func TestStore_UpdateTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx := f.create(t, f.adsAt(time.Date(2024, 3, 5, 12, 0, 0, 0, msk), "draft"))
	require.Nil(t, tx.UpdatedAt)

	tx.Comment = "final"
	tx.Amount = decimal.RequireFromString("-20.05")
	require.NoError(t, f.txs.UpdateTransaction(ctx, tx))
	assert.NotNil(t, tx.UpdatedAt)

	got, err := f.txs.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Comment)
	assert.True(t, decimal.RequireFromString("-20.05").Equal(got.Amount))

	tx.TypeID = f.income.ID
	assert.ErrorIs(t, f.txs.UpdateTransaction(ctx, tx), transaction.ErrStaleHierarchy)

	require.NoError(t, f.txs.DeleteTransaction(ctx, tx.ID))
	_, err = f.txs.GetTransaction(ctx, tx.ID)
	assert.ErrorIs(t, err, transaction.ErrNotFound)
}

func TestService_CreateBatch_RollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	good := transaction.CreateParams{
		Date:          time.Date(2024, 3, 5, 12, 0, 0, 0, msk),
		StatusID:      f.business.ID,
		TypeID:        f.expense.ID,
		CategoryID:    f.marketing.ID,
		SubcategoryID: f.ads.ID,
		Amount:        decimal.RequireFromString("10"),
	}
	bad := good
	bad.SubcategoryID = f.bonus.ID

	_, err := f.svc.CreateBatch(ctx, []transaction.CreateParams{good, bad})
	require.ErrorIs(t, err, transaction.ErrStaleHierarchy)

	n, err := f.txs.CountTransactions(ctx, transaction.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)

	created, err := f.svc.CreateBatch(ctx, []transaction.CreateParams{good, good})
	require.NoError(t, err)
	assert.Len(t, created, 2)
}

func TestService_BusinessExpenseScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	opts, err := f.svc.FormOptions(ctx, transaction.Form{Type: directory.FormatID(f.expense.ID)})
	require.NoError(t, err)
	require.Len(t, opts.Categories, 1)
	assert.Equal(t, "Marketing", opts.Categories[0].Name)

	form := transaction.Form{
		Date:        "2024-03-05",
		Status:      directory.FormatID(f.business.ID),
		Type:        directory.FormatID(f.expense.ID),
		Category:    directory.FormatID(f.marketing.ID),
		Subcategory: directory.FormatID(f.ads.ID),
		Amount:      "1000.50",
		Comment:     " Facebook campaign ",
	}

	tx, err := f.svc.Create(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, "Business", tx.Status)
	assert.Equal(t, "Expense", tx.Type)
	assert.Equal(t, "Marketing", tx.Category)
	assert.Equal(t, "Ads", tx.Subcategory)
	assert.Equal(t, "Facebook campaign", tx.Comment)
	assert.True(t, decimal.RequireFromString("1000.50").Equal(tx.Amount))

	f.create(t, f.adsAt(time.Date(2024, 3, 1, 12, 0, 0, 0, msk), "older"))

	page, err := f.svc.List(ctx, transaction.ListFilter{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, tx.ID, page.Transactions[0].ID)

	_, err = f.dirs.CreateCategory(ctx, directory.CategoryParams{Name: "Marketing", TypeID: f.income.ID})
	require.NoError(t, err)

	_, err = f.dirs.CreateSubcategory(ctx, directory.SubcategoryParams{Name: "Ads", CategoryID: f.marketing.ID})
	assert.ErrorIs(t, err, directory.ErrDuplicateKey)

	form.Type = directory.FormatID(f.income.ID)
	_, err = f.svc.Create(ctx, form)

	errs, ok := validation.As(err)
	require.True(t, ok)
	assert.Equal(t, validation.ReasonNotInHierarchy, errs.Reason("category"))

	assert.ErrorIs(t, f.dirs.DeleteType(ctx, f.expense.ID), directory.ErrReferenced)
}
