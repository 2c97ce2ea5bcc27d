package importfile_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/cashflow/internal/directory"
	"github.com/MrJamesThe3rd/cashflow/internal/http/importfile"
	"github.com/MrJamesThe3rd/cashflow/internal/importer"
	"github.com/MrJamesThe3rd/cashflow/internal/transaction"
	"github.com/MrJamesThe3rd/cashflow/internal/validation"
)

const csvFile = "Date;Status;Type;Category;Subcategory;Amount;Comment\n" +
	"2024-03-05;Business;Expense;Marketing;Ads;1000.50;Spring campaign\n"

func newRouter(t *testing.T) (http.Handler, *importer.MockTransactions) {
	t.Helper()

	ctrl := gomock.NewController(t)
	txs := importer.NewMockTransactions(ctrl)
	dir := importer.NewMockDirectory(ctrl)

	dir.EXPECT().Overview(gomock.Any()).Return(&directory.Overview{}, nil).AnyTimes()

	r := chi.NewRouter()
	r.Route("/import", importfile.NewHandler(importer.NewService(txs, dir)).Routes)

	return r, txs
}

func upload(t *testing.T, h http.Handler, filename, content string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)

	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	return rr
}

func TestHandler_Upload(t *testing.T) {
	type testCase struct {
		name       string
		filename   string
		content    string
		setupMock  func(m *importer.MockTransactions)
		wantStatus int
		check      func(t *testing.T, rr *httptest.ResponseRecorder)
	}

	tests := []testCase{
		{
			name:     "Imported",
			filename: "march.csv",
			content:  csvFile,
			setupMock: func(m *importer.MockTransactions) {
				m.EXPECT().Validate(gomock.Any(), gomock.Any()).Return(transaction.CreateParams{}, nil)
				m.EXPECT().
					CreateBatch(gomock.Any(), gomock.Len(1)).
					DoAndReturn(func(_ context.Context, params []transaction.CreateParams) ([]*transaction.Transaction, error) {
						return []*transaction.Transaction{{ID: 1}}, nil
					})
			},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, rr *httptest.ResponseRecorder) {
				var got map[string]any
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.InDelta(t, 1, got["imported"], 0)
				assert.NotEmpty(t, got["batch_id"])
				assert.NotContains(t, got, "errors")
			},
		},
		{
			name:     "RowErrors",
			filename: "march.csv",
			content:  csvFile,
			setupMock: func(m *importer.MockTransactions) {
				m.EXPECT().
					Validate(gomock.Any(), gomock.Any()).
					Return(transaction.CreateParams{}, validation.Errors{{Field: "status", Reason: validation.ReasonInvalidChoice}})
			},
			wantStatus: http.StatusUnprocessableEntity,
			check: func(t *testing.T, rr *httptest.ResponseRecorder) {
				var got struct {
					Imported int                 `json:"imported"`
					Errors   []importer.RowError `json:"errors"`
				}
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.Zero(t, got.Imported)
				assert.Equal(t, []importer.RowError{{Line: 2, Field: "status", Reason: validation.ReasonInvalidChoice}}, got.Errors)
			},
		},
		{
			name:       "UnsupportedExtension",
			filename:   "march.pdf",
			content:    csvFile,
			setupMock:  func(m *importer.MockTransactions) {},
			wantStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:       "HeaderOnly",
			filename:   "march.csv",
			content:    "Date;Status;Type;Category;Subcategory;Amount;Comment\n",
			setupMock:  func(m *importer.MockTransactions) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, txs := newRouter(t)
			tt.setupMock(txs)

			rr := upload(t, h, tt.filename, tt.content)
			assert.Equal(t, tt.wantStatus, rr.Code)

			if tt.check != nil {
				tt.check(t, rr)
			}
		})
	}
}

func TestHandler_Upload_MissingFile(t *testing.T) {
	h, _ := newRouter(t)

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "no file"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
