package directory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/cashflow/internal/directory"
)

func TestService_CategoriesForType(t *testing.T) {
	type testCase struct {
		name      string
		typeID    string
		setupMock func(m *directory.MockRepository)
		wantNames []string
		wantErr   bool
	}

	tests := []testCase{
		{
			name:   "ChildrenOfType",
			typeID: "1",
			setupMock: func(m *directory.MockRepository) {
				m.EXPECT().
					ListCategories(gomock.Any(), directory.CategoryFilter{TypeID: new(int64(1))}).
					Return([]*directory.Category{
						{ID: 11, Name: "Marketing", TypeID: 1},
						{ID: 12, Name: "Rent", TypeID: 1},
					}, nil)
			},
			wantNames: []string{"Marketing", "Rent"},
		},
		{
			name:   "UnknownType",
			typeID: "404",
			setupMock: func(m *directory.MockRepository) {
				m.EXPECT().ListCategories(gomock.Any(), gomock.Any()).Return(nil, nil)
			},
			wantNames: []string{},
		},
		{name: "Absent", typeID: "", wantNames: []string{}},
		{name: "Malformed", typeID: "abc", wantNames: []string{}},
		{name: "Negative", typeID: "-3", wantNames: []string{}},
		{name: "Zero", typeID: "0", wantNames: []string{}},
		{
			name:   "RepoError",
			typeID: "1",
			setupMock: func(m *directory.MockRepository) {
				m.EXPECT().ListCategories(gomock.Any(), gomock.Any()).Return(nil, errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newService(t)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			got, err := svc.CategoriesForType(context.Background(), tt.typeID)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)

			names := make([]string, 0, len(got))
			for _, c := range got {
				names = append(names, c.Name)
			}

			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestService_SubcategoriesForCategory(t *testing.T) {
	t.Run("ChildrenOfCategory", func(t *testing.T) {
		svc, repo := newService(t)

		repo.EXPECT().
			ListSubcategories(gomock.Any(), directory.SubcategoryFilter{CategoryID: new(int64(10))}).
			Return([]*directory.Subcategory{{ID: 100, Name: "Ads", CategoryID: 10}}, nil)

		got, err := svc.SubcategoriesForCategory(context.Background(), " 10 ")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Ads", got[0].Name)
	})

	t.Run("Malformed", func(t *testing.T) {
		svc, _ := newService(t)

		got, err := svc.SubcategoriesForCategory(context.Background(), "1.5")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestService_Options(t *testing.T) {
	t.Run("NoSelection", func(t *testing.T) {
		svc, _ := newService(t)

		got, err := svc.Options(context.Background(), directory.Selection{})
		require.NoError(t, err)
		assert.Empty(t, got.Categories)
		assert.Empty(t, got.Subcategories)
	})

	t.Run("TypeOnly", func(t *testing.T) {
		svc, repo := newService(t)

		repo.EXPECT().
			ListCategories(gomock.Any(), directory.CategoryFilter{TypeID: new(int64(1))}).
			Return([]*directory.Category{{ID: 10, Name: "Marketing", TypeID: 1}}, nil)

		got, err := svc.Options(context.Background(), directory.Selection{TypeID: "1"})
		require.NoError(t, err)
		assert.Len(t, got.Categories, 1)
		assert.Empty(t, got.Subcategories)
	})

	t.Run("FullPath", func(t *testing.T) {
		svc, repo := newService(t)

		repo.EXPECT().
			ListCategories(gomock.Any(), directory.CategoryFilter{TypeID: new(int64(1))}).
			Return([]*directory.Category{{ID: 10, Name: "Marketing", TypeID: 1}}, nil)
		repo.EXPECT().
			ListSubcategories(gomock.Any(), directory.SubcategoryFilter{CategoryID: new(int64(10))}).
			Return([]*directory.Subcategory{{ID: 100, Name: "Ads", CategoryID: 10}}, nil)

		got, err := svc.Options(context.Background(), directory.Selection{TypeID: "1", CategoryID: "10"})
		require.NoError(t, err)
		assert.Len(t, got.Categories, 1)
		assert.Len(t, got.Subcategories, 1)
	})
}

func TestParseID(t *testing.T) {
	type testCase struct {
		in     string
		want   int64
		wantOK bool
	}

	tests := []testCase{
		{in: "42", want: 42, wantOK: true},
		{in: " 7\t", want: 7, wantOK: true},
		{in: "", wantOK: false},
		{in: "0", wantOK: false},
		{in: "-1", wantOK: false},
		{in: "x1", wantOK: false},
		{in: "99999999999999999999", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := directory.ParseID(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
