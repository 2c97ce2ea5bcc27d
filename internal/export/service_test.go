package export_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/cashflow/internal/export"
	"github.com/MrJamesThe3rd/cashflow/internal/transaction"
)

func TestService_WriteXLSX(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)
	svc := export.NewService(transaction.NewService(repo, transaction.NewMockHierarchy(ctrl)))

	statusID := int64(1)
	filter := transaction.ListFilter{StatusID: &statusID}

	repo.EXPECT().
		ListTransactions(gomock.Any(), filter).
		Return([]*transaction.Transaction{
			{
				ID:          2,
				Date:        time.Date(2024, 3, 6, 0, 0, 0, 0, time.Local),
				Status:      "Business",
				Type:        "Expense",
				Category:    "Marketing",
				Subcategory: "Ads",
				Amount:      decimal.RequireFromString("1000.50"),
				Comment:     "Spring campaign",
			},
			{
				ID:          1,
				Date:        time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local),
				Status:      "Business",
				Type:        "Income",
				Category:    "Маркетинг",
				Subcategory: "Реклама",
				Amount:      decimal.RequireFromString("-20"),
			},
		}, nil)

	var buf bytes.Buffer

	n, err := svc.WriteXLSX(context.Background(), filter, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, export.Headers, rows[0])
	assert.Equal(t, []string{"06.03.2024", "Business", "Expense", "Marketing", "Ads", "1000.5", "Spring campaign"}, rows[1])
	assert.Equal(t, []string{"05.03.2024", "Business", "Income", "Маркетинг", "Реклама", "-20"}, rows[2])
}

func TestService_WriteXLSX_Unmatched(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)
	svc := export.NewService(transaction.NewService(repo, transaction.NewMockHierarchy(ctrl)))

	var buf bytes.Buffer

	n, err := svc.WriteXLSX(context.Background(), transaction.ListFilter{Unmatched: true}, &buf)
	require.NoError(t, err)
	assert.Zero(t, n)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestService_WriteXLSX_ListError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)
	svc := export.NewService(transaction.NewService(repo, transaction.NewMockHierarchy(ctrl)))

	repo.EXPECT().ListTransactions(gomock.Any(), gomock.Any()).Return(nil, errors.New("db error"))

	var buf bytes.Buffer

	_, err := svc.WriteXLSX(context.Background(), transaction.ListFilter{}, &buf)
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	assert.Equal(t, "cashflow_20240305_140709.xlsx", export.Filename(now))
}
