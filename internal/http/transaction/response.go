package transaction

import (
	"time"

	"github.com/MrJamesThe3rd/cashflow/internal/transaction"
)

type transactionResponse struct {
	ID            int64      `json:"id"`
	Date          time.Time  `json:"date"`
	StatusID      int64      `json:"status_id"`
	Status        string     `json:"status"`
	TypeID        int64      `json:"type_id"`
	Type          string     `json:"type"`
	CategoryID    int64      `json:"category_id"`
	Category      string     `json:"category"`
	SubcategoryID int64      `json:"subcategory_id"`
	Subcategory   string     `json:"subcategory"`
	Amount        string     `json:"amount"`
	Comment       string     `json:"comment"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

type pageResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	Page         int                   `json:"page"`
	TotalPages   int                   `json:"total_pages"`
	Total        int                   `json:"total"`
}

func toResponse(tx *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:            tx.ID,
		Date:          tx.Date,
		StatusID:      tx.StatusID,
		Status:        tx.Status,
		TypeID:        tx.TypeID,
		Type:          tx.Type,
		CategoryID:    tx.CategoryID,
		Category:      tx.Category,
		SubcategoryID: tx.SubcategoryID,
		Subcategory:   tx.Subcategory,
		Amount:        tx.Amount.StringFixed(transaction.AmountDecimalPlaces),
		Comment:       tx.Comment,
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
	}
}

func toPageResponse(p *transaction.Page) pageResponse {
	resp := pageResponse{
		Transactions: make([]transactionResponse, len(p.Transactions)),
		Page:         p.Number,
		TotalPages:   p.TotalPages,
		Total:        p.Total,
	}
	for i, tx := range p.Transactions {
		resp.Transactions[i] = toResponse(tx)
	}

	return resp
}
