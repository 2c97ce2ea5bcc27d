package export_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/cashflow/internal/export"
	exporthttp "github.com/MrJamesThe3rd/cashflow/internal/http/export"
	"github.com/MrJamesThe3rd/cashflow/internal/transaction"
)

func newRouter(t *testing.T) (http.Handler, *transaction.MockRepository) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)
	svc := export.NewService(transaction.NewService(repo, transaction.NewMockHierarchy(ctrl)))

	r := chi.NewRouter()
	r.Route("/export", exporthttp.NewHandler(svc).Routes)

	return r, repo
}

func TestHandler_Download(t *testing.T) {
	h, repo := newRouter(t)

	categoryID := int64(10)

	repo.EXPECT().
		ListTransactions(gomock.Any(), transaction.ListFilter{CategoryID: &categoryID, Query: "ads", Page: 1}).
		Return([]*transaction.Transaction{{
			ID:          1,
			Date:        time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local),
			Status:      "Business",
			Type:        "Expense",
			Category:    "Marketing",
			Subcategory: "Ads",
			Amount:      decimal.RequireFromString("10.25"),
		}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/export?category=10&q=ads", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, export.ContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), `attachment; filename="cashflow_`)
	assert.Equal(t, "1", rr.Header().Get("X-Export-Rows"))
	assert.Equal(t, strconv.Itoa(rr.Body.Len()), rr.Header().Get("Content-Length"))

	f, err := excelize.OpenReader(rr.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "05.03.2024", rows[1][0])
}

func TestHandler_Download_MalformedFilter(t *testing.T) {
	h, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/export?status=abc", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0", rr.Header().Get("X-Export-Rows"))
}

func TestHandler_Download_Error(t *testing.T) {
	h, repo := newRouter(t)

	repo.EXPECT().ListTransactions(gomock.Any(), gomock.Any()).Return(nil, errors.New("db error"))

	req := httptest.NewRequest(http.MethodGet, "/export", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Empty(t, rr.Header().Get("X-Export-Rows"))
}
