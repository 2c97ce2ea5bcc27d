package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/cashflow/internal/export"
	"github.com/MrJamesThe3rd/cashflow/internal/transaction"
)

type Handler struct {
	svc *export.Service
	now func() time.Time
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Download)
}

// Download sends the transactions matching the list filters in the query
// string as an xlsx attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	filter := transaction.ParseListFilter(r.URL.Query())

	// buffered so a failure can still produce a proper status code
	var buf bytes.Buffer

	n, err := h.svc.WriteXLSX(r.Context(), filter, &buf)
	if err != nil {
		slog.Error("failed to export transactions", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename(h.now())))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Export-Rows", strconv.Itoa(n))

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write export", "error", err)
	}
}
