package web

import (
	"bytes"
	"net/http"
)

type option struct {
	ID   int64
	Name string
}

// categoryOptions renders the categories of ?type_id= as <option> elements.
// The form posts the select under its own name, so ?type= is accepted too.
func (h *Handler) categoryOptions(w http.ResponseWriter, r *http.Request) {
	categories, err := h.directory.CategoriesForType(r.Context(), param(r, "type_id", "type"))
	if err != nil {
		h.serverError(w, "failed to list category options", err)
		return
	}

	opts := make([]option, len(categories))
	for i, c := range categories {
		opts[i] = option{ID: c.ID, Name: c.Name}
	}

	h.renderOptions(w, opts)
}

// subcategoryOptions renders the subcategories of ?category_id= as <option> elements.
func (h *Handler) subcategoryOptions(w http.ResponseWriter, r *http.Request) {
	subcategories, err := h.directory.SubcategoriesForCategory(r.Context(), param(r, "category_id", "category"))
	if err != nil {
		h.serverError(w, "failed to list subcategory options", err)
		return
	}

	opts := make([]option, len(subcategories))
	for i, sc := range subcategories {
		opts[i] = option{ID: sc.ID, Name: sc.Name}
	}

	h.renderOptions(w, opts)
}

func (h *Handler) renderOptions(w http.ResponseWriter, opts []option) {
	var buf bytes.Buffer
	if err := h.options.ExecuteTemplate(&buf, "options", opts); err != nil {
		h.serverError(w, "failed to render options", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	_, _ = buf.WriteTo(w)
}

// param returns the first non-empty query value among keys.
func param(r *http.Request, keys ...string) string {
	q := r.URL.Query()

	for _, key := range keys {
		if v := q.Get(key); v != "" {
			return v
		}
	}

	return ""
}
