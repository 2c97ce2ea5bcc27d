package web_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/cashflow/internal/directory"
	"github.com/MrJamesThe3rd/cashflow/internal/http/web"
	"github.com/MrJamesThe3rd/cashflow/internal/importer"
	"github.com/MrJamesThe3rd/cashflow/internal/transaction"
)

type fixture struct {
	router  http.Handler
	txRepo  *transaction.MockRepository
	dirRepo *directory.MockRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	txRepo := transaction.NewMockRepository(ctrl)
	dirRepo := directory.NewMockRepository(ctrl)
	seedDirectory(dirRepo)

	dirSvc := directory.NewService(dirRepo)
	txSvc := transaction.NewService(txRepo, dirSvc)

	h, err := web.NewHandler(txSvc, dirSvc, importer.NewService(txSvc, dirSvc))
	require.NoError(t, err)

	r := chi.NewRouter()
	h.Routes(r)

	return &fixture{router: r, txRepo: txRepo, dirRepo: dirRepo}
}

var (
	statuses = []*directory.Status{{ID: 1, Name: "Business"}}
	types    = []*directory.Type{{ID: 1, Name: "Expense"}, {ID: 2, Name: "Income"}}

	categories = []*directory.Category{
		{ID: 10, Name: "Marketing", TypeID: 1, TypeName: "Expense"},
		{ID: 20, Name: "Salary", TypeID: 2, TypeName: "Income"},
	}
	subcategories = []*directory.Subcategory{
		{ID: 100, Name: "Ads", CategoryID: 10, CategoryName: "Marketing", TypeID: 1, TypeName: "Expense"},
		{ID: 200, Name: "Bonus", CategoryID: 20, CategoryName: "Salary", TypeID: 2, TypeName: "Income"},
	}
)

// seedDirectory answers every read of the directory from the fixtures above.
func seedDirectory(m *directory.MockRepository) {
	m.EXPECT().ListStatuses(gomock.Any()).Return(statuses, nil).AnyTimes()
	m.EXPECT().ListTypes(gomock.Any()).Return(types, nil).AnyTimes()

	m.EXPECT().ListCategories(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f directory.CategoryFilter) ([]*directory.Category, error) {
			var out []*directory.Category
			for _, c := range categories {
				if f.TypeID == nil || *f.TypeID == c.TypeID {
					out = append(out, c)
				}
			}

			return out, nil
		}).AnyTimes()

	m.EXPECT().ListSubcategories(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f directory.SubcategoryFilter) ([]*directory.Subcategory, error) {
			var out []*directory.Subcategory
			for _, sc := range subcategories {
				if f.CategoryID == nil || *f.CategoryID == sc.CategoryID {
					out = append(out, sc)
				}
			}

			return out, nil
		}).AnyTimes()

	m.EXPECT().GetStatus(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id int64) (*directory.Status, error) {
			return find(statuses, id, func(v *directory.Status) int64 { return v.ID })
		}).AnyTimes()
	m.EXPECT().GetType(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id int64) (*directory.Type, error) {
			return find(types, id, func(v *directory.Type) int64 { return v.ID })
		}).AnyTimes()
	m.EXPECT().GetCategory(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id int64) (*directory.Category, error) {
			return find(categories, id, func(v *directory.Category) int64 { return v.ID })
		}).AnyTimes()
	m.EXPECT().GetSubcategory(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id int64) (*directory.Subcategory, error) {
			return find(subcategories, id, func(v *directory.Subcategory) int64 { return v.ID })
		}).AnyTimes()
}

func find[T any](items []*T, id int64, idOf func(*T) int64) (*T, error) {
	for _, v := range items {
		if idOf(v) == id {
			return v, nil
		}
	}

	return nil, directory.ErrNotFound
}

func (f *fixture) get(target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))

	return rr
}

func (f *fixture) post(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	return rr
}

func TestPages_ListTransactions(t *testing.T) {
	f := newFixture(t)

	f.txRepo.EXPECT().CountTransactions(gomock.Any(), gomock.Any()).Return(1, nil)
	f.txRepo.EXPECT().ListTransactions(gomock.Any(), gomock.Any()).Return([]*transaction.Transaction{{
		ID:          1,
		Date:        time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local),
		Status:      "Business",
		Type:        "Expense",
		Category:    "Marketing",
		Subcategory: "Ads",
		Amount:      decimal.RequireFromString("1000.5"),
		Comment:     "Spring campaign",
	}}, nil)

	rr := f.get("/?type=1&category=10")
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, "05.03.2024")
	assert.Contains(t, body, "1000.50")
	assert.Contains(t, body, "Spring campaign")
	assert.Contains(t, body, `<option value="10" selected>Marketing</option>`)
	assert.Contains(t, body, `<option value="100">Ads</option>`)
	assert.NotContains(t, body, "Salary")
	assert.Contains(t, body, "/export?category=10")
	assert.Contains(t, body, "Page 1 of 1 (1 total)")
}

func TestPages_ListTransactions_MalformedFilter(t *testing.T) {
	f := newFixture(t)

	rr := f.get("/?status=abc")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No transactions found.")
}

func TestPages_CreateTransaction(t *testing.T) {
	valid := url.Values{
		"date":        {"2024-03-05"},
		"status":      {"1"},
		"type":        {"1"},
		"category":    {"10"},
		"subcategory": {"100"},
		"amount":      {"1000.50"},
	}

	type testCase struct {
		name       string
		form       url.Values
		setupMock  func(m *transaction.MockRepository)
		wantStatus int
		wantBody   []string
	}

	tests := []testCase{
		{
			name: "Saved",
			form: valid,
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantStatus: http.StatusSeeOther,
		},
		{
			name: "Rejected",
			form: url.Values{
				"date":        {"2024-03-05"},
				"status":      {"1"},
				"type":        {"2"},
				"category":    {"10"},
				"subcategory": {"100"},
				"amount":      {"12.345"},
			},
			setupMock:  func(m *transaction.MockRepository) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody: []string{
				"Selected value does not belong to its parent.",
				"Enter a valid value.",
				`value="12.345"`,
				`<option value="20">Salary</option>`,
			},
		},
		{
			name:       "MissingFields",
			form:       url.Values{"date": {"2024-03-05"}},
			setupMock:  func(m *transaction.MockRepository) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   []string{"This field is required."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f.txRepo)

			rr := f.post("/transactions/new", tt.form)
			assert.Equal(t, tt.wantStatus, rr.Code)

			if tt.wantStatus == http.StatusSeeOther {
				assert.Equal(t, "/", rr.Header().Get("Location"))
			}

			for _, want := range tt.wantBody {
				assert.Contains(t, rr.Body.String(), want)
			}
		})
	}
}

func TestPages_NewTransaction(t *testing.T) {
	f := newFixture(t)

	rr := f.get("/transactions/new")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `hx-get="/ajax/categories"`)
}

func TestPages_EditTransaction(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		f := newFixture(t)

		f.txRepo.EXPECT().GetTransaction(gomock.Any(), int64(3)).Return(&transaction.Transaction{
			ID:            3,
			Date:          time.Date(2024, 3, 5, 9, 30, 0, 0, time.Local),
			StatusID:      1,
			TypeID:        1,
			CategoryID:    10,
			SubcategoryID: 100,
			Amount:        decimal.RequireFromString("-20"),
		}, nil)

		rr := f.get("/transactions/3/edit")
		require.Equal(t, http.StatusOK, rr.Code)

		body := rr.Body.String()
		assert.Contains(t, body, `action="/transactions/3/edit"`)
		assert.Contains(t, body, `<option value="100" selected>Ads</option>`)
		assert.Contains(t, body, `value="-20.00"`)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newFixture(t)

		f.txRepo.EXPECT().GetTransaction(gomock.Any(), int64(99)).Return(nil, transaction.ErrNotFound)

		rr := f.get("/transactions/99/edit")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestPages_DeleteTransaction(t *testing.T) {
	f := newFixture(t)

	f.txRepo.EXPECT().DeleteTransaction(gomock.Any(), int64(5)).Return(nil)

	rr := f.post("/transactions/5/delete", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
}

func TestPages_AjaxOptions(t *testing.T) {
	f := newFixture(t)

	rr := f.get("/ajax/categories?type=1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.Contains(t, rr.Body.String(), `<option value="10">Marketing</option>`)
	assert.NotContains(t, rr.Body.String(), "Salary")

	rr = f.get("/ajax/subcategories?category_id=abc")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `<option value="">---------</option>`)
	assert.NotContains(t, rr.Body.String(), "Ads")
}

func TestPages_Directories(t *testing.T) {
	f := newFixture(t)

	rr := f.get("/directories/")
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	for _, name := range []string{"Business", "Income", "Salary", "Bonus"} {
		assert.Contains(t, body, name)
	}
}

func TestPages_SaveEntry(t *testing.T) {
	type testCase struct {
		name       string
		target     string
		form       url.Values
		setupMock  func(m *directory.MockRepository)
		wantStatus int
		wantBody   string
	}

	tests := []testCase{
		{
			name:   "AddCategory",
			target: "/directories/category/add",
			form:   url.Values{"name": {"Office"}, "parent": {"1"}},
			setupMock: func(m *directory.MockRepository) {
				m.EXPECT().
					CreateCategory(gomock.Any(), &directory.Category{Name: "Office", TypeID: 1, TypeName: "Expense"}).
					Return(nil)
			},
			wantStatus: http.StatusSeeOther,
		},
		{
			name:   "Duplicate",
			target: "/directories/status/add",
			form:   url.Values{"name": {"Business"}},
			setupMock: func(m *directory.MockRepository) {
				m.EXPECT().CreateStatus(gomock.Any(), gomock.Any()).Return(directory.ErrDuplicateKey)
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "An entry with this name already exists here.",
		},
		{
			name:       "MissingParent",
			target:     "/directories/subcategory/add",
			form:       url.Values{"name": {"Print"}, "parent": {"x"}},
			setupMock:  func(m *directory.MockRepository) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "This field is required.",
		},
		{
			name:   "MoveReferenced",
			target: "/directories/category/10/edit",
			form:   url.Values{"name": {"Marketing"}, "parent": {"2"}},
			setupMock: func(m *directory.MockRepository) {
				m.EXPECT().UpdateCategory(gomock.Any(), gomock.Any()).Return(directory.ErrReferenced)
			},
			wantStatus: http.StatusConflict,
			wantBody:   "Cannot move: transactions still reference this entry.",
		},
		{
			name:       "UnknownKind",
			target:     "/directories/accounts/add",
			form:       url.Values{"name": {"Cash"}},
			setupMock:  func(m *directory.MockRepository) {},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f.dirRepo)

			rr := f.post(tt.target, tt.form)
			assert.Equal(t, tt.wantStatus, rr.Code)

			if tt.wantStatus == http.StatusSeeOther {
				assert.Equal(t, "/directories/", rr.Header().Get("Location"))
			}

			if tt.wantBody != "" {
				assert.Contains(t, rr.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestPages_DeleteEntry(t *testing.T) {
	t.Run("Deleted", func(t *testing.T) {
		f := newFixture(t)
		f.dirRepo.EXPECT().DeleteSubcategory(gomock.Any(), int64(200)).Return(nil)

		rr := f.post("/directories/subcategory/200/delete", url.Values{})
		assert.Equal(t, http.StatusSeeOther, rr.Code)
	})

	t.Run("Referenced", func(t *testing.T) {
		f := newFixture(t)
		f.dirRepo.EXPECT().DeleteCategory(gomock.Any(), int64(10)).Return(directory.ErrReferenced)

		rr := f.post("/directories/category/10/delete", url.Values{})
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, rr.Body.String(), "Cannot delete: transactions still reference this entry or one of its children.")
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newFixture(t)

		rr := f.get("/directories/type/9/delete")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestPages_Import(t *testing.T) {
	f := newFixture(t)

	rr := f.get("/import")
	require.Equal(t, http.StatusOK, rr.Code)

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "march.csv")
	require.NoError(t, err)

	_, err = part.Write([]byte("Date;Status;Type;Category;Subcategory;Amount;Comment\n" +
		"2024-03-05;Private;Expense;Marketing;Ads;10;\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr = httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "march.csv was rejected")
	assert.Contains(t, rr.Body.String(), "Select a valid choice.")
}
