package transaction

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cashflow/internal/directory"
	"github.com/MrJamesThe3rd/cashflow/internal/validation"
)

const (
	// AmountMaxDigits and AmountDecimalPlaces mirror the NUMERIC(12, 2) column.
	AmountMaxDigits     = 12
	AmountDecimalPlaces = 2

	// DisplayDateLayout is how dates are shown in lists and accepted back from forms.
	DisplayDateLayout = "02.01.2006"
)

var ErrInvalidAmount = errors.New("invalid amount")

var amountPattern = regexp.MustCompile(`^([+-]?)(\d*)(?:\.(\d*))?$`)

var dateLayouts = []string{
	time.DateOnly,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.DateTime,
	DisplayDateLayout,
}

// Form is a submitted transaction payload as raw field values.
type Form struct {
	Date        string `json:"date"`
	Status      string `json:"status"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Amount      string `json:"amount"`
	Comment     string `json:"comment"`
}

// Selection is the parent choice the form's dependent fields are resolved from.
func (f Form) Selection() directory.Selection {
	return directory.Selection{TypeID: f.Type, CategoryID: f.Category}
}

// FormFromTransaction pre-fills a form with a stored transaction.
func FormFromTransaction(tx *Transaction) Form {
	return Form{
		Date:        tx.Date.Format("2006-01-02T15:04"),
		Status:      directory.FormatID(tx.StatusID),
		Type:        directory.FormatID(tx.TypeID),
		Category:    directory.FormatID(tx.CategoryID),
		Subcategory: directory.FormatID(tx.SubcategoryID),
		Amount:      tx.Amount.StringFixed(AmountDecimalPlaces),
		Comment:     tx.Comment,
	}
}

// Validator checks a Form against the current state of the hierarchy. It
// never consults which options were offered to the client.
type Validator struct {
	hierarchy Hierarchy
}

func NewValidator(h Hierarchy) *Validator {
	return &Validator{hierarchy: h}
}

// Validate returns the params to store, or validation.Errors listing every
// rejected field. Lookup failures other than a missing row are returned as is.
func (v *Validator) Validate(ctx context.Context, f Form) (CreateParams, error) {
	var (
		params CreateParams
		errs   validation.Errors
	)

	if strings.TrimSpace(f.Date) == "" {
		errs.Add("date", validation.ReasonRequired)
	} else if d, err := ParseDate(f.Date); err != nil {
		errs.Add("date", validation.ReasonInvalidFormat)
	} else {
		params.Date = d
	}

	if strings.TrimSpace(f.Status) == "" {
		errs.Add("status", validation.ReasonRequired)
	} else {
		st, err := lookup(ctx, f.Status, v.hierarchy.Status)
		if err != nil {
			return CreateParams{}, fmt.Errorf("looking up status: %w", err)
		}

		if st == nil {
			errs.Add("status", validation.ReasonInvalidChoice)
		} else {
			params.StatusID = st.ID
		}
	}

	var typ *directory.Type

	if strings.TrimSpace(f.Type) == "" {
		errs.Add("type", validation.ReasonRequired)
	} else {
		t, err := lookup(ctx, f.Type, v.hierarchy.Type)
		if err != nil {
			return CreateParams{}, fmt.Errorf("looking up type: %w", err)
		}

		if t == nil {
			errs.Add("type", validation.ReasonInvalidChoice)
		} else {
			typ = t
			params.TypeID = t.ID
		}
	}

	var category *directory.Category

	if strings.TrimSpace(f.Category) == "" {
		errs.Add("category", validation.ReasonRequired)
	} else {
		c, err := lookup(ctx, f.Category, v.hierarchy.Category)
		if err != nil {
			return CreateParams{}, fmt.Errorf("looking up category: %w", err)
		}

		switch {
		case c == nil:
			errs.Add("category", validation.ReasonInvalidChoice)
		case typ != nil && c.TypeID != typ.ID:
			errs.Add("category", validation.ReasonNotInHierarchy)
		default:
			category = c
			params.CategoryID = c.ID
		}
	}

	if strings.TrimSpace(f.Subcategory) == "" {
		errs.Add("subcategory", validation.ReasonRequired)
	} else {
		sc, err := lookup(ctx, f.Subcategory, v.hierarchy.Subcategory)
		if err != nil {
			return CreateParams{}, fmt.Errorf("looking up subcategory: %w", err)
		}

		switch {
		case sc == nil:
			errs.Add("subcategory", validation.ReasonInvalidChoice)
		case category != nil && sc.CategoryID != category.ID:
			errs.Add("subcategory", validation.ReasonNotInHierarchy)
		default:
			params.SubcategoryID = sc.ID
		}
	}

	if strings.TrimSpace(f.Amount) == "" {
		errs.Add("amount", validation.ReasonRequired)
	} else if amount, err := ParseAmount(f.Amount); err != nil {
		errs.Add("amount", validation.ReasonInvalidFormat)
	} else {
		params.Amount = amount
	}

	params.Comment = strings.TrimSpace(f.Comment)

	if err := errs.Err(); err != nil {
		return CreateParams{}, err
	}

	return params, nil
}

// lookup resolves a raw id with get. A malformed id or a missing row yields nil.
func lookup[T any](ctx context.Context, raw string, get func(context.Context, int64) (*T, error)) (*T, error) {
	id, ok := directory.ParseID(raw)
	if !ok {
		return nil, nil
	}

	v, err := get(ctx, id)
	if errors.Is(err, directory.ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return v, nil
}

// ParseAmount parses a decimal of any sign with at most AmountDecimalPlaces
// fractional digits and AmountMaxDigits digits in total. Digits are counted as
// written, ignoring leading zeros of the whole part, so "1.500" is rejected.
func ParseAmount(raw string) (decimal.Decimal, error) {
	m := amountPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil || (m[2] == "" && m[3] == "") {
		return decimal.Decimal{}, ErrInvalidAmount
	}

	sign, whole, frac := m[1], strings.TrimLeft(m[2], "0"), m[3]

	if len(frac) > AmountDecimalPlaces || len(whole) > AmountMaxDigits-AmountDecimalPlaces {
		return decimal.Decimal{}, ErrInvalidAmount
	}

	normalized := whole
	if normalized == "" {
		normalized = "0"
	}

	if frac != "" {
		normalized += "." + frac
	}

	if sign == "-" {
		normalized = "-" + normalized
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}

	return d, nil
}

// ParseDate accepts an ISO date, an ISO date with minutes or seconds, RFC 3339
// or the dd.mm.yyyy display form. Values without a zone are local time.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
