package transaction

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/cashflow/internal/directory"
)

// PageSize is the number of transactions per list page.
const PageSize = 25

// ListFilter holds exact-match criteria for listing transactions. Nil fields
// impose no constraint.
type ListFilter struct {
	Date          *time.Time // matches the calendar day in Date's location
	StatusID      *int64
	TypeID        *int64
	CategoryID    *int64
	SubcategoryID *int64
	Query         string // case-insensitive substring of the comment

	// Unmatched is set when a criterion could not be parsed. Nothing matches it.
	Unmatched bool

	Page   int // 1-based, set by callers of Service.List
	Limit  int // 0 means no limit
	Offset int
}

// ParseListFilter reads list criteria from query parameters. Empty values are
// ignored and malformed ones make the filter unmatched; it never fails.
func ParseListFilter(q url.Values) ListFilter {
	var f ListFilter

	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		d, err := ParseDate(raw)
		if err != nil {
			f.Unmatched = true
		} else {
			f.Date = &d
		}
	}

	f.StatusID = parseIDParam(q, "status", &f.Unmatched)
	f.TypeID = parseIDParam(q, "type", &f.Unmatched)
	f.CategoryID = parseIDParam(q, "category", &f.Unmatched)
	f.SubcategoryID = parseIDParam(q, "subcategory", &f.Unmatched)
	f.Query = strings.TrimSpace(q.Get("q"))

	f.Page = 1
	if p, err := strconv.Atoi(strings.TrimSpace(q.Get("page"))); err == nil && p > 0 {
		f.Page = p
	}

	return f
}

func parseIDParam(q url.Values, key string, unmatched *bool) *int64 {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil
	}

	id, ok := directory.ParseID(raw)
	if !ok {
		*unmatched = true
		return nil
	}

	return &id
}

// Values renders the criteria back to query parameters, without the page.
func (f ListFilter) Values() url.Values {
	q := url.Values{}

	if f.Date != nil {
		q.Set("date", f.Date.Format(time.DateOnly))
	}

	setID := func(key string, id *int64) {
		if id != nil {
			q.Set(key, strconv.FormatInt(*id, 10))
		}
	}

	setID("status", f.StatusID)
	setID("type", f.TypeID)
	setID("category", f.CategoryID)
	setID("subcategory", f.SubcategoryID)

	if f.Query != "" {
		q.Set("q", f.Query)
	}

	return q
}

// Page is one page of a filtered transaction list.
type Page struct {
	Transactions []*Transaction
	Number       int
	TotalPages   int
	Total        int
}

func (p *Page) HasPrev() bool { return p.Number > 1 }
func (p *Page) HasNext() bool { return p.Number < p.TotalPages }
func (p *Page) Prev() int     { return p.Number - 1 }
func (p *Page) Next() int     { return p.Number + 1 }

func emptyPage() *Page {
	return &Page{Transactions: []*Transaction{}, Number: 1, TotalPages: 1}
}
