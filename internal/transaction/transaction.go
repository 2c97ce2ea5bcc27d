package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("transaction not found")
	// ErrStaleHierarchy is returned when a referenced status or hierarchy row
	// disappeared between validation and the write.
	ErrStaleHierarchy = errors.New("referenced status or hierarchy entry no longer exists")
)

// Transaction represents a cash movement classified by Type, Category and Subcategory.
type Transaction struct {
	ID            int64
	Date          time.Time
	StatusID      int64
	TypeID        int64
	CategoryID    int64
	SubcategoryID int64
	Status        string // Loaded via JOIN
	Type          string // Loaded via JOIN
	Category      string // Loaded via JOIN
	Subcategory   string // Loaded via JOIN
	Amount        decimal.Decimal
	Comment       string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

// CreateParams is a validated transaction payload ready to be stored.
type CreateParams struct {
	Date          time.Time
	StatusID      int64
	TypeID        int64
	CategoryID    int64
	SubcategoryID int64
	Amount        decimal.Decimal
	Comment       string
}

func (p CreateParams) transaction() *Transaction {
	return &Transaction{
		Date:          p.Date,
		StatusID:      p.StatusID,
		TypeID:        p.TypeID,
		CategoryID:    p.CategoryID,
		SubcategoryID: p.SubcategoryID,
		Amount:        p.Amount,
		Comment:       p.Comment,
	}
}
