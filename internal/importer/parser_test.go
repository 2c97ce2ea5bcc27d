package importer_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/cashflow/internal/importer"
)

func TestCSVParser_English(t *testing.T) {
	csv := `Cash flow export;2024
Generated;05.03.2024

Date;Status;Type;Category;Subcategory;Amount;Comment
2024-03-05;Business;Expense;Marketing;Ads;1000.50;Spring campaign
06.03.2024; Personal ;Income;Salary;Bonus;"1 234,56";

`

	rows, err := importer.NewCSVParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, importer.Row{
		Line:        5,
		Date:        "2024-03-05",
		Status:      "Business",
		Type:        "Expense",
		Category:    "Marketing",
		Subcategory: "Ads",
		Amount:      "1000.50",
		Comment:     "Spring campaign",
	}, rows[0])

	assert.Equal(t, 6, rows[1].Line)
	assert.Equal(t, "Personal", rows[1].Status)
	assert.Equal(t, "1234.56", rows[1].Amount)
	assert.Empty(t, rows[1].Comment)
}

func TestCSVParser_RussianWindows1251(t *testing.T) {
	csv := "Дата;Статус;Тип;Категория;Подкатегория;Сумма;Комментарий\n" +
		"05.03.2024;Бизнес;Расход;Маркетинг;Реклама;1.000,50;Рекламная кампания в социальных сетях\n" +
		strings.Repeat("06.03.2024;Бизнес;Расход;Маркетинг;Реклама;250;Баннеры на улицах города\n", 8)

	encoded, err := charmap.Windows1251.NewEncoder().String(csv)
	require.NoError(t, err)

	rows, err := importer.NewCSVParser().Parse(strings.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, rows, 9)

	assert.Equal(t, "Маркетинг", rows[0].Category)
	assert.Equal(t, "Реклама", rows[0].Subcategory)
	assert.Equal(t, "1000.50", rows[0].Amount)
	assert.Equal(t, "250", rows[1].Amount)
}

func TestCSVParser_CommaDelimited(t *testing.T) {
	csv := "date,status,type,category,subcategory,amount\n" +
		"2024-03-05,Business,Expense,Marketing,Ads,-12.30\n"

	rows, err := importer.NewCSVParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "-12.30", rows[0].Amount)
	assert.Equal(t, 2, rows[0].Line)
}

func TestCSVParser_NoHeader(t *testing.T) {
	csv := "Date;Amount\n2024-03-05;10\n"

	_, err := importer.NewCSVParser().Parse(strings.NewReader(csv))
	assert.ErrorIs(t, err, importer.ErrNoHeader)
}

func TestXLSXParser(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Date", "Status", "Type", "Category", "Subcategory", "Amount", "Comment"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{
		time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), "Business", "Expense", "Marketing", "Ads", 1000.5, "Spring campaign",
	}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"06.03.2024", "Business", "Expense", "Marketing", "Ads", "250,00", ""}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := importer.NewXLSXParser().Parse(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "2024-03-05", rows[0].Date)
	assert.Equal(t, "1000.5", rows[0].Amount)
	assert.Equal(t, "Spring campaign", rows[0].Comment)

	assert.Equal(t, "06.03.2024", rows[1].Date)
	assert.Equal(t, "250.00", rows[1].Amount)
}

func TestXLSXParser_Amounts(t *testing.T) {
	type testCase struct {
		name    string
		raw     string
		numeric bool
		want    string
	}

	tests := []testCase{
		{name: "FloatNoise", raw: "1234.5600000000001", numeric: true, want: "1234.56"},
		{name: "FloatNoiseBelow", raw: "-1234.5599999999999", numeric: true, want: "-1234.56"},
		{name: "SmallFloatNoise", raw: "20.050000000000001", numeric: true, want: "20.05"},
		{name: "PlainNumber", raw: "1000.5", numeric: true, want: "1000.5"},
		{name: "TextThreeDecimals", raw: "1.500", want: "1.500"},
		{name: "TextLongFraction", raw: "12.3456", want: "12.3456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := excelize.NewFile()
			defer f.Close()

			sheet := f.GetSheetName(0)
			require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Date", "Status", "Type", "Category", "Subcategory", "Amount", "Comment"}))
			require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"2024-03-05", "Business", "Expense", "Marketing", "Ads"}))

			if tt.numeric {
				require.NoError(t, f.SetCellDefault(sheet, "F2", tt.raw))
			} else {
				require.NoError(t, f.SetCellStr(sheet, "F2", tt.raw))
			}

			var buf bytes.Buffer
			require.NoError(t, f.Write(&buf))

			rows, err := importer.NewXLSXParser().Parse(&buf)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.want, rows[0].Amount)
		})
	}
}

func TestFormatFromFilename(t *testing.T) {
	got, err := importer.FormatFromFilename("March.XLSX")
	require.NoError(t, err)
	assert.Equal(t, importer.FormatXLSX, got)

	got, err = importer.FormatFromFilename("march.csv")
	require.NoError(t, err)
	assert.Equal(t, importer.FormatCSV, got)

	_, err = importer.FormatFromFilename("march.pdf")
	assert.ErrorIs(t, err, importer.ErrUnknownFormat)
}
