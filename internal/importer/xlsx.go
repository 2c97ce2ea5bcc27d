package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXParser reads the first sheet of an Excel workbook.
type XLSXParser struct{}

func NewXLSXParser() *XLSXParser {
	return &XLSXParser{}
}

func (p *XLSXParser) Parse(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %w", ErrMalformed, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}

	cells, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	rows, err := parseTable(cells, nil)
	if err != nil {
		return nil, err
	}

	for i := range rows {
		rows[i].Date = excelDate(rows[i].Date)
		rows[i].Amount = excelNumber(rows[i].Amount)
	}

	return rows, nil
}

// excelDate converts a serial date cell to ISO form. Text dates are kept.
func excelDate(v string) string {
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}

	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return v
	}

	if t.Hour() == 0 && t.Minute() == 0 {
		return t.Format("2006-01-02")
	}

	return t.Format("2006-01-02T15:04")
}

// floatNoiseDigits is the significant digit count at which float64 rounding
// noise appears in a raw numeric cell.
const floatNoiseDigits = 15

// excelNumber drops binary float noise such as "1234.5600000000001". Only
// values that look like an unrounded float64 are touched; text such as
// "1.500" is kept as written for the validator to judge.
func excelNumber(v string) string {
	if !strings.Contains(v, ".") || strings.ContainsAny(v, "eE") || strings.HasSuffix(v, "0") {
		return v
	}

	if significantDigits(v) < floatNoiseDigits {
		return v
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

func significantDigits(v string) int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}

		return -1
	}, v)

	return len(strings.TrimLeft(digits, "0"))
}
