package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/cashflow/internal/transaction"
)

const (
	SheetName   = "Transactions"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Headers match the columns the importer recognizes, so an export can be
// edited and imported back.
var Headers = []string{"Date", "Status", "Type", "Category", "Subcategory", "Amount", "Comment"}

// Service writes filtered transaction lists as Excel workbooks.
type Service struct {
	transactions *transaction.Service
}

func NewService(txService *transaction.Service) *Service {
	return &Service{transactions: txService}
}

// Filename is the suggested download name for an export made at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("cashflow_%s.xlsx", now.Format("20060102_150405"))
}

// WriteXLSX writes every transaction matching filter, newest first, and
// returns how many rows were written.
func (s *Service) WriteXLSX(ctx context.Context, filter transaction.ListFilter, w io.Writer) (int, error) {
	txs, err := s.transactions.ListAll(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("listing transactions: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return 0, fmt.Errorf("naming sheet: %w", err)
	}

	for i, header := range Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return 0, fmt.Errorf("header cell: %w", err)
		}

		if err := f.SetCellValue(SheetName, cell, header); err != nil {
			return 0, fmt.Errorf("writing header: %w", err)
		}
	}

	for i, tx := range txs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, fmt.Errorf("row cell: %w", err)
		}

		row := []any{
			tx.Date.Format(transaction.DisplayDateLayout),
			tx.Status,
			tx.Type,
			tx.Category,
			tx.Subcategory,
			tx.Amount.InexactFloat64(),
			tx.Comment,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return 0, fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return 0, fmt.Errorf("writing workbook: %w", err)
	}

	return len(txs), nil
}
