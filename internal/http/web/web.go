// Package web serves the server-rendered management UI.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cashflow/internal/directory"
	"github.com/MrJamesThe3rd/cashflow/internal/importer"
	"github.com/MrJamesThe3rd/cashflow/internal/transaction"
	"github.com/MrJamesThe3rd/cashflow/internal/validation"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageNames = []string{
	"transactions",
	"transaction_form",
	"transaction_delete",
	"directories",
	"entry_form",
	"entry_delete",
	"import",
}

type Handler struct {
	transactions *transaction.Service
	directory    *directory.Service
	importer     *importer.Service

	pages   map[string]*template.Template
	options *template.Template
	now     func() time.Time
}

func NewHandler(
	txSvc *transaction.Service,
	dirSvc *directory.Service,
	importSvc *importer.Service,
) (*Handler, error) {
	h := &Handler{
		transactions: txSvc,
		directory:    dirSvc,
		importer:     importSvc,
		pages:        make(map[string]*template.Template, len(pageNames)),
		now:          time.Now,
	}

	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}

		h.pages[name] = t
	}

	options, err := template.New("options").Funcs(funcs).ParseFS(templatesFS, "templates/options.html")
	if err != nil {
		return nil, fmt.Errorf("parsing options template: %w", err)
	}

	h.options = options

	return h, nil
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.listTransactions)

	r.Route("/transactions", func(r chi.Router) {
		r.Get("/new", h.newTransaction)
		r.Post("/new", h.createTransaction)
		r.Get("/{id}/edit", h.editTransaction)
		r.Post("/{id}/edit", h.updateTransaction)
		r.Get("/{id}/delete", h.confirmDeleteTransaction)
		r.Post("/{id}/delete", h.deleteTransaction)
	})

	r.Route("/ajax", func(r chi.Router) {
		r.Get("/categories", h.categoryOptions)
		r.Get("/subcategories", h.subcategoryOptions)
	})

	r.Route("/directories", func(r chi.Router) {
		r.Get("/", h.directories)
		r.Get("/{kind}/add", h.newEntry)
		r.Post("/{kind}/add", h.createEntry)
		r.Get("/{kind}/{id}/edit", h.editEntry)
		r.Post("/{kind}/{id}/edit", h.updateEntry)
		r.Get("/{kind}/{id}/delete", h.confirmDeleteEntry)
		r.Post("/{kind}/{id}/delete", h.deleteEntry)
	})

	r.Get("/import", h.importForm)
	r.Post("/import", h.importFile)
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format(transaction.DisplayDateLayout)
	},
	"amount": func(d decimal.Decimal) string {
		return d.StringFixed(transaction.AmountDecimalPlaces)
	},
	"id":      directory.FormatID,
	"message": validation.Message,
	"fieldError": func(errs validation.Errors, field string) string {
		return validation.Message(errs.Reason(field))
	},
	"selected": func(raw string, id int64) bool {
		return raw == directory.FormatID(id)
	},
	"pageURL": pageURL,
}

// pageURL links to page n of a list filtered by q.
func pageURL(q url.Values, n int) string {
	v := url.Values{}
	for key, vals := range q {
		v[key] = vals
	}

	v.Set("page", strconv.Itoa(n))

	return "/?" + v.Encode()
}

func (h *Handler) render(w http.ResponseWriter, status int, page string, data any) {
	t, ok := h.pages[page]
	if !ok {
		slog.Error("unknown page", "page", page)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render page", "page", page, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write page", "page", page, "error", err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func parseID(r *http.Request) (int64, bool) {
	return directory.ParseID(chi.URLParam(r, "id"))
}
