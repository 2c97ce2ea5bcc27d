package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/cashflow/internal/directory"
	"github.com/MrJamesThe3rd/cashflow/internal/validation"
)

const (
	msgReferencedDelete = "Cannot delete: transactions still reference this entry or one of its children."
	msgReferencedMove   = "Cannot move: transactions still reference this entry."
)

type directorySection struct {
	Kind    directory.Kind
	Entries []directory.Entry
}

type directoriesPage struct {
	Sections []directorySection
}

type entryFormPage struct {
	Kind        directory.Kind
	Title       string
	Action      string
	Name        string
	ParentID    string
	ParentField string
	Parents     []directory.Entry
	Errors      validation.Errors
	Message     string
}

type entryDeletePage struct {
	Entry   *directory.Entry
	Message string
}

func (h *Handler) directories(w http.ResponseWriter, r *http.Request) {
	data := directoriesPage{Sections: make([]directorySection, 0, len(directory.Kinds))}

	for _, kind := range directory.Kinds {
		entries, err := h.directory.Entries(r.Context(), kind, nil)
		if err != nil {
			h.serverError(w, "failed to list directory", err)
			return
		}

		data.Sections = append(data.Sections, directorySection{Kind: kind, Entries: entries})
	}

	h.render(w, http.StatusOK, "directories", data)
}

func (h *Handler) newEntry(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}

	data := entryFormPage{
		Kind:     kind,
		Title:    "Add " + kind.Label(),
		Action:   "/directories/" + string(kind) + "/add",
		ParentID: strings.TrimSpace(r.URL.Query().Get("parent")),
	}

	h.renderEntryForm(w, r, http.StatusOK, data)
}

func (h *Handler) createEntry(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}

	data := entryFormPage{
		Kind:   kind,
		Title:  "Add " + kind.Label(),
		Action: "/directories/" + string(kind) + "/add",
	}

	h.saveEntry(w, r, 0, data)
}

func (h *Handler) editEntry(w http.ResponseWriter, r *http.Request) {
	kind, e, ok := h.loadEntry(w, r)
	if !ok {
		return
	}

	data := entryFormPage{
		Kind:     kind,
		Title:    "Edit " + kind.Label(),
		Action:   entryPath(e) + "/edit",
		Name:     e.Name,
		ParentID: directory.FormatID(e.ParentID),
	}

	h.renderEntryForm(w, r, http.StatusOK, data)
}

func (h *Handler) updateEntry(w http.ResponseWriter, r *http.Request) {
	kind, e, ok := h.loadEntry(w, r)
	if !ok {
		return
	}

	data := entryFormPage{
		Kind:   kind,
		Title:  "Edit " + kind.Label(),
		Action: entryPath(e) + "/edit",
	}

	h.saveEntry(w, r, e.ID, data)
}

func (h *Handler) saveEntry(w http.ResponseWriter, r *http.Request, id int64, data entryFormPage) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	data.Name = r.PostForm.Get("name")
	data.ParentID = r.PostForm.Get("parent")

	params := directory.EntryParams{Name: data.Name}
	if _, hasParent := data.Kind.Parent(); hasParent {
		// a malformed parent is reported as required by the service
		params.ParentID, _ = directory.ParseID(data.ParentID)
	}

	_, err := h.directory.SaveEntry(r.Context(), data.Kind, id, params)
	if err == nil {
		redirect(w, r, "/directories/")
		return
	}

	status := http.StatusUnprocessableEntity

	if errs, ok := validation.As(err); ok {
		data.Errors = errs
	} else {
		switch {
		case errors.Is(err, directory.ErrDuplicateKey):
			data.Errors = validation.Errors{{Field: "name", Reason: validation.ReasonDuplicate}}
		case errors.Is(err, directory.ErrReferenced):
			data.Message = msgReferencedMove
			status = http.StatusConflict
		case errors.Is(err, directory.ErrNotFound):
			http.NotFound(w, r)
			return
		default:
			h.serverError(w, "failed to save directory entry", err)
			return
		}
	}

	h.renderEntryForm(w, r, status, data)
}

func (h *Handler) renderEntryForm(w http.ResponseWriter, r *http.Request, status int, data entryFormPage) {
	if parent, ok := data.Kind.Parent(); ok {
		parents, err := h.directory.Entries(r.Context(), parent, nil)
		if err != nil {
			h.serverError(w, "failed to list parent entries", err)
			return
		}

		data.Parents = parents
		data.ParentField = string(parent)
	}

	h.render(w, status, "entry_form", data)
}

func (h *Handler) confirmDeleteEntry(w http.ResponseWriter, r *http.Request) {
	_, e, ok := h.loadEntry(w, r)
	if !ok {
		return
	}

	h.render(w, http.StatusOK, "entry_delete", entryDeletePage{Entry: e})
}

func (h *Handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	kind, e, ok := h.loadEntry(w, r)
	if !ok {
		return
	}

	if err := h.directory.DeleteEntry(r.Context(), kind, e.ID); err != nil {
		switch {
		case errors.Is(err, directory.ErrReferenced):
			h.render(w, http.StatusConflict, "entry_delete", entryDeletePage{Entry: e, Message: msgReferencedDelete})
		case errors.Is(err, directory.ErrNotFound):
			http.NotFound(w, r)
		default:
			h.serverError(w, "failed to delete directory entry", err)
		}

		return
	}

	redirect(w, r, "/directories/")
}

func (h *Handler) loadEntry(w http.ResponseWriter, r *http.Request) (directory.Kind, *directory.Entry, bool) {
	kind, ok := kindParam(w, r)
	if !ok {
		return "", nil, false
	}

	id, ok := parseID(r)
	if !ok {
		http.NotFound(w, r)
		return "", nil, false
	}

	e, err := h.directory.Entry(r.Context(), kind, id)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			http.NotFound(w, r)
			return "", nil, false
		}

		h.serverError(w, "failed to load directory entry", err)

		return "", nil, false
	}

	return kind, e, true
}

func kindParam(w http.ResponseWriter, r *http.Request) (directory.Kind, bool) {
	kind, ok := directory.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		http.NotFound(w, r)
	}

	return kind, ok
}

func entryPath(e *directory.Entry) string {
	return "/directories/" + string(e.Kind) + "/" + directory.FormatID(e.ID)
}
