package view

import (
	"context"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cashflow/internal/transaction"
)

const dbTimeout = 5 * time.Second

// FormatAmount formats an amount with two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(transaction.AmountDecimalPlaces)
}

// FormatDate formats a time.Time as DD.MM.YYYY.
func FormatDate(t time.Time) string {
	return t.Format(transaction.DisplayDateLayout)
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func errorStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(s)
}

func successStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render(s)
}
