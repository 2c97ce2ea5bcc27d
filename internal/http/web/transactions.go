package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/MrJamesThe3rd/cashflow/internal/directory"
	"github.com/MrJamesThe3rd/cashflow/internal/transaction"
	"github.com/MrJamesThe3rd/cashflow/internal/validation"
)

// listFilters echoes the raw filter inputs back into the filter form.
type listFilters struct {
	Date        string
	Status      string
	Type        string
	Category    string
	Subcategory string
	Query       string
}

type listPage struct {
	Filters   listFilters
	Page      *transaction.Page
	Query     url.Values
	Statuses  []*directory.Status
	Types     []*directory.Type
	Options   *directory.Options
	ExportURL string
}

type formPage struct {
	Title    string
	Action   string
	Form     transaction.Form
	Errors   validation.Errors
	Statuses []*directory.Status
	Types    []*directory.Type
	Options  *directory.Options
}

type deletePage struct {
	Transaction *transaction.Transaction
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := transaction.ParseListFilter(q)

	page, err := h.transactions.List(r.Context(), filter)
	if err != nil {
		h.serverError(w, "failed to list transactions", err)
		return
	}

	filters := listFilters{
		Date:        strings.TrimSpace(q.Get("date")),
		Status:      strings.TrimSpace(q.Get("status")),
		Type:        strings.TrimSpace(q.Get("type")),
		Category:    strings.TrimSpace(q.Get("category")),
		Subcategory: strings.TrimSpace(q.Get("subcategory")),
		Query:       strings.TrimSpace(q.Get("q")),
	}

	data := listPage{
		Filters: filters,
		Page:    page,
		Query:   filterQuery(q),
	}
	data.ExportURL = "/export?" + data.Query.Encode()

	if err := h.loadChoices(r, &data.Statuses, &data.Types); err != nil {
		h.serverError(w, "failed to load filter choices", err)
		return
	}

	data.Options, err = h.directory.Options(r.Context(), directory.Selection{
		TypeID:     filters.Type,
		CategoryID: filters.Category,
	})
	if err != nil {
		h.serverError(w, "failed to resolve filter options", err)
		return
	}

	h.render(w, http.StatusOK, "transactions", data)
}

// filterQuery keeps the non-empty filter inputs of q, dropping the page.
func filterQuery(q url.Values) url.Values {
	out := url.Values{}

	for _, key := range []string{"date", "status", "type", "category", "subcategory", "q"} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			out.Set(key, v)
		}
	}

	return out
}

func (h *Handler) newTransaction(w http.ResponseWriter, r *http.Request) {
	form := transaction.Form{Date: h.now().Format("2006-01-02T15:04")}
	h.renderForm(w, r, http.StatusOK, "New transaction", "/transactions/new", form, nil)
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	form, ok := parseTransactionForm(w, r)
	if !ok {
		return
	}

	_, err := h.transactions.Create(r.Context(), form)
	if err != nil {
		h.formError(w, r, "New transaction", "/transactions/new", form, err)
		return
	}

	redirect(w, r, "/")
}

func (h *Handler) editTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.loadTransaction(w, r)
	if !ok {
		return
	}

	action := "/transactions/" + directory.FormatID(tx.ID) + "/edit"
	h.renderForm(w, r, http.StatusOK, "Edit transaction", action, transaction.FormFromTransaction(tx), nil)
}

func (h *Handler) updateTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.loadTransaction(w, r)
	if !ok {
		return
	}

	form, ok := parseTransactionForm(w, r)
	if !ok {
		return
	}

	action := "/transactions/" + directory.FormatID(tx.ID) + "/edit"

	if _, err := h.transactions.Update(r.Context(), tx.ID, form); err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			http.NotFound(w, r)
			return
		}

		h.formError(w, r, "Edit transaction", action, form, err)

		return
	}

	redirect(w, r, "/")
}

func (h *Handler) confirmDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.loadTransaction(w, r)
	if !ok {
		return
	}

	h.render(w, http.StatusOK, "transaction_delete", deletePage{Transaction: tx})
}

func (h *Handler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := h.transactions.Delete(r.Context(), id); err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			http.NotFound(w, r)
			return
		}

		h.serverError(w, "failed to delete transaction", err)

		return
	}

	redirect(w, r, "/")
}

func (h *Handler) loadTransaction(w http.ResponseWriter, r *http.Request) (*transaction.Transaction, bool) {
	id, ok := parseID(r)
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}

	tx, err := h.transactions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			http.NotFound(w, r)
			return nil, false
		}

		h.serverError(w, "failed to load transaction", err)

		return nil, false
	}

	return tx, true
}

func parseTransactionForm(w http.ResponseWriter, r *http.Request) (transaction.Form, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return transaction.Form{}, false
	}

	return transaction.Form{
		Date:        r.PostForm.Get("date"),
		Status:      r.PostForm.Get("status"),
		Type:        r.PostForm.Get("type"),
		Category:    r.PostForm.Get("category"),
		Subcategory: r.PostForm.Get("subcategory"),
		Amount:      r.PostForm.Get("amount"),
		Comment:     r.PostForm.Get("comment"),
	}, true
}

// formError re-renders the form with the rejected fields marked. The
// dependent choices are rebuilt from the submitted type and category.
func (h *Handler) formError(w http.ResponseWriter, r *http.Request, title, action string, form transaction.Form, err error) {
	errs, ok := validation.As(err)

	switch {
	case ok:
	case errors.Is(err, transaction.ErrStaleHierarchy):
		errs = validation.Errors{{Field: "subcategory", Reason: validation.ReasonInvalidChoice}}
	default:
		h.serverError(w, "failed to save transaction", err)
		return
	}

	h.renderForm(w, r, http.StatusUnprocessableEntity, title, action, form, errs)
}

func (h *Handler) renderForm(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	title, action string,
	form transaction.Form,
	errs validation.Errors,
) {
	data := formPage{Title: title, Action: action, Form: form, Errors: errs}

	if err := h.loadChoices(r, &data.Statuses, &data.Types); err != nil {
		h.serverError(w, "failed to load form choices", err)
		return
	}

	opts, err := h.transactions.FormOptions(r.Context(), form)
	if err != nil {
		h.serverError(w, "failed to resolve form options", err)
		return
	}

	data.Options = opts

	h.render(w, status, "transaction_form", data)
}

func (h *Handler) loadChoices(r *http.Request, statuses *[]*directory.Status, types *[]*directory.Type) error {
	var err error

	if *statuses, err = h.directory.Statuses(r.Context()); err != nil {
		return err
	}

	*types, err = h.directory.Types(r.Context())

	return err
}
