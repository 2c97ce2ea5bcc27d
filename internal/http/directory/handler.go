package directory

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/cashflow/internal/directory"
	"github.com/MrJamesThe3rd/cashflow/internal/http/respond"
	"github.com/MrJamesThe3rd/cashflow/internal/validation"
)

// reasonReferenced is reported when a delete or move is blocked by
// transactions that still point at the entry.
const reasonReferenced = "referenced"

type Handler struct {
	svc *directory.Service
}

func NewHandler(svc *directory.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.overview)
	r.Route("/{kind}", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type entryRequest struct {
	Name     string `json:"name"`
	ParentID int64  `json:"parent_id"`
}

type optionResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type optionsResponse struct {
	Categories    []optionResponse `json:"categories"`
	Subcategories []optionResponse `json:"subcategories"`
}

type overviewResponse map[string][]directory.Entry

// Options answers both dependent option sets for an explicit type and
// category selection. Missing or malformed ids give empty sets.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts, err := h.svc.Options(r.Context(), directory.Selection{
		TypeID:     q.Get("type_id"),
		CategoryID: q.Get("category_id"),
	})
	if err != nil {
		slog.Error("failed to resolve options", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	resp := optionsResponse{
		Categories:    make([]optionResponse, len(opts.Categories)),
		Subcategories: make([]optionResponse, len(opts.Subcategories)),
	}
	for i, c := range opts.Categories {
		resp.Categories[i] = optionResponse{ID: c.ID, Name: c.Name}
	}

	for i, sc := range opts.Subcategories {
		resp.Subcategories[i] = optionResponse{ID: sc.ID, Name: sc.Name}
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	resp := make(overviewResponse, len(directory.Kinds))

	for _, kind := range directory.Kinds {
		entries, err := h.svc.Entries(r.Context(), kind, nil)
		if err != nil {
			writeError(w, err)
			return
		}

		resp[kind.Plural()] = entries
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}

	var parentID *int64

	if parent, ok := kind.Parent(); ok {
		raw, present := parentParam(r, parent)
		if present {
			id, valid := directory.ParseID(raw)
			if !valid {
				respond.JSON(w, http.StatusOK, []directory.Entry{})
				return
			}

			parentID = &id
		}
	}

	entries, err := h.svc.Entries(r.Context(), kind, parentID)
	if err != nil {
		writeError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, entries)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	e, err := h.svc.Entry(r.Context(), kind, id)
	if err != nil {
		writeError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, e)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, 0, http.StatusCreated)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	h.save(w, r, id, http.StatusOK)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, id int64, status int) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	e, err := h.svc.SaveEntry(r.Context(), kind, id, directory.EntryParams{Name: req.Name, ParentID: req.ParentID})
	if err != nil {
		writeError(w, err)
		return
	}

	respond.JSON(w, status, e)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteEntry(r.Context(), kind, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parentParam reads ?type_id= or ?category_id=, falling back to ?parent_id=.
func parentParam(r *http.Request, parent directory.Kind) (string, bool) {
	q := r.URL.Query()

	for _, key := range []string{string(parent) + "_id", "parent_id"} {
		if q.Has(key) {
			return q.Get(key), true
		}
	}

	return "", false
}

func parseKind(w http.ResponseWriter, r *http.Request) (directory.Kind, bool) {
	kind, ok := directory.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		http.Error(w, "unknown directory", http.StatusNotFound)
	}

	return kind, ok
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}

	return id, true
}

func writeError(w http.ResponseWriter, err error) {
	if errs, ok := validation.As(err); ok {
		respond.Invalid(w, errs)
		return
	}

	switch {
	case errors.Is(err, directory.ErrDuplicateKey):
		respond.Conflict(w, "name", validation.ReasonDuplicate)
	case errors.Is(err, directory.ErrReferenced):
		respond.Conflict(w, "id", reasonReferenced)
	case errors.Is(err, directory.ErrNotFound), errors.Is(err, directory.ErrUnknownKind):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		slog.Error("directory request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
