package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/cashflow/internal/directory"
	"github.com/MrJamesThe3rd/cashflow/internal/transaction"
	"github.com/MrJamesThe3rd/cashflow/internal/validation"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=importer
type Transactions interface {
	Validate(ctx context.Context, f transaction.Form) (transaction.CreateParams, error)
	CreateBatch(ctx context.Context, params []transaction.CreateParams) ([]*transaction.Transaction, error)
}

type Directory interface {
	Overview(ctx context.Context) (*directory.Overview, error)
}

type Service struct {
	transactions Transactions
	directory    Directory
	parsers      map[Format]Parser
}

func NewService(txs Transactions, dir Directory) *Service {
	return &Service{
		transactions: txs,
		directory:    dir,
		parsers: map[Format]Parser{
			FormatCSV:  NewCSVParser(),
			FormatXLSX: NewXLSXParser(),
		},
	}
}

// RowError is a rejected field of one import line.
type RowError struct {
	Line   int    `json:"line"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type Result struct {
	BatchID  uuid.UUID
	Imported []*transaction.Transaction
	Errors   []RowError
}

// Import parses r and stores every row, or none of them when any row is
// rejected. Rejections are reported in Result.Errors, not as an error.
func (s *Service) Import(ctx context.Context, format Format, r io.Reader) (*Result, error) {
	parser, ok := s.parsers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	rows, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", format, err)
	}

	if len(rows) == 0 {
		return nil, ErrEmpty
	}

	overview, err := s.directory.Overview(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading directory: %w", err)
	}

	res := newResolver(overview)
	result := &Result{BatchID: uuid.New()}
	params := make([]transaction.CreateParams, 0, len(rows))

	for _, row := range rows {
		p, err := s.transactions.Validate(ctx, res.form(row))
		if err != nil {
			errs, ok := validation.As(err)
			if !ok {
				return nil, fmt.Errorf("validating line %d: %w", row.Line, err)
			}

			for _, fe := range errs {
				result.Errors = append(result.Errors, RowError{Line: row.Line, Field: fe.Field, Reason: fe.Reason})
			}

			continue
		}

		params = append(params, p)
	}

	if len(result.Errors) > 0 {
		slog.Info("import rejected", "batch", result.BatchID, "rows", len(rows), "errors", len(result.Errors))
		return result, nil
	}

	imported, err := s.transactions.CreateBatch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("storing batch %s: %w", result.BatchID, err)
	}

	result.Imported = imported

	slog.Info("import finished", "batch", result.BatchID, "rows", len(imported))

	return result, nil
}

// resolver turns hierarchy names into ids, scoping each level by its parent.
// Statuses and types have no parent and are indexed under noParent.
type resolver struct {
	statuses      nameIndex
	types         nameIndex
	categories    nameIndex
	subcategories nameIndex
	// any-parent fallbacks so a category under the wrong type reaches the
	// validator and is reported as not_in_hierarchy rather than unknown
	anyCategory    map[string]int64
	anySubcategory map[string]int64
}

const noParent int64 = 0

type scopedName struct {
	parent int64
	name   string
}

func nameKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// nameIndex finds rows by name under a parent. Names are unique per parent
// only as written, so "Ads" and "ads" may both exist.
type nameIndex struct {
	exact  map[scopedName]int64
	folded map[scopedName][]int64
}

func newNameIndex(size int) nameIndex {
	return nameIndex{
		exact:  make(map[scopedName]int64, size),
		folded: make(map[scopedName][]int64, size),
	}
}

func (ix nameIndex) add(parent int64, name string, id int64) {
	ix.exact[scopedName{parent, strings.TrimSpace(name)}] = id

	k := scopedName{parent, nameKey(name)}
	ix.folded[k] = append(ix.folded[k], id)
}

// find prefers an exact match and then a case-insensitive one. ambiguous is
// set when several rows under parent differ from name only by case.
func (ix nameIndex) find(parent int64, name string) (id int64, ok, ambiguous bool) {
	if id, ok := ix.exact[scopedName{parent, strings.TrimSpace(name)}]; ok {
		return id, true, false
	}

	switch ids := ix.folded[scopedName{parent, nameKey(name)}]; len(ids) {
	case 0:
		return 0, false, false
	case 1:
		return ids[0], true, false
	default:
		return 0, false, true
	}
}

func newResolver(o *directory.Overview) *resolver {
	r := &resolver{
		statuses:       newNameIndex(len(o.Statuses)),
		types:          newNameIndex(len(o.Types)),
		categories:     newNameIndex(len(o.Categories)),
		subcategories:  newNameIndex(len(o.Subcategories)),
		anyCategory:    make(map[string]int64, len(o.Categories)),
		anySubcategory: make(map[string]int64, len(o.Subcategories)),
	}

	for _, st := range o.Statuses {
		r.statuses.add(noParent, st.Name, st.ID)
	}

	for _, t := range o.Types {
		r.types.add(noParent, t.Name, t.ID)
	}

	for _, c := range o.Categories {
		r.categories.add(c.TypeID, c.Name, c.ID)
		if _, ok := r.anyCategory[nameKey(c.Name)]; !ok {
			r.anyCategory[nameKey(c.Name)] = c.ID
		}
	}

	for _, sc := range o.Subcategories {
		r.subcategories.add(sc.CategoryID, sc.Name, sc.ID)
		if _, ok := r.anySubcategory[nameKey(sc.Name)]; !ok {
			r.anySubcategory[nameKey(sc.Name)] = sc.ID
		}
	}

	return r
}

// unknownID is a syntactically valid id no row has, so the validator reports
// an unresolved name as invalid_choice.
const unknownID = "0"

func (r *resolver) form(row Row) transaction.Form {
	f := transaction.Form{
		Date:    row.Date,
		Amount:  row.Amount,
		Comment: row.Comment,
	}

	f.Status = resolveName(row.Status, func(name string) (int64, bool) {
		id, ok, _ := r.statuses.find(noParent, name)
		return id, ok
	})

	typeID, typeOK, _ := r.types.find(noParent, row.Type)
	f.Type = resolveName(row.Type, func(string) (int64, bool) { return typeID, typeOK })

	categoryID, categoryOK := findScoped(r.categories, r.anyCategory, typeID, row.Category)
	f.Category = resolveName(row.Category, func(string) (int64, bool) { return categoryID, categoryOK })

	f.Subcategory = resolveName(row.Subcategory, func(name string) (int64, bool) {
		return findScoped(r.subcategories, r.anySubcategory, categoryID, name)
	})

	return f
}

// findScoped looks name up under parent and then under any parent. A name
// that is ambiguous under parent stays unresolved.
func findScoped(ix nameIndex, anyParent map[string]int64, parent int64, name string) (int64, bool) {
	id, ok, ambiguous := ix.find(parent, name)
	if ok || ambiguous {
		return id, ok
	}

	id, ok = anyParent[nameKey(name)]

	return id, ok
}

func resolveName(name string, find func(name string) (int64, bool)) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}

	if id, ok := find(name); ok {
		return directory.FormatID(id)
	}

	return unknownID
}
