package importfile

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/cashflow/internal/http/respond"
	"github.com/MrJamesThe3rd/cashflow/internal/importer"
)

// MaxUploadSize bounds the multipart body of an import request.
const MaxUploadSize = 10 << 20

type Handler struct {
	svc *importer.Service
}

func NewHandler(svc *importer.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.upload)
}

type importResponse struct {
	BatchID  uuid.UUID           `json:"batch_id"`
	Imported int                 `json:"imported"`
	Errors   []importer.RowError `json:"errors,omitempty"`
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)

	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	format, err := importer.FormatFromFilename(header.Filename)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}

	result, err := h.svc.Import(r.Context(), format, file)
	if err != nil {
		if isInputError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		slog.Error("import failed", "file", header.Filename, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	resp := importResponse{
		BatchID:  result.BatchID,
		Imported: len(result.Imported),
		Errors:   result.Errors,
	}

	if len(result.Errors) > 0 {
		respond.JSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	respond.JSON(w, http.StatusCreated, resp)
}

// isInputError reports whether err is caused by the uploaded file itself.
func isInputError(err error) bool {
	return errors.Is(err, importer.ErrEmpty) ||
		errors.Is(err, importer.ErrNoHeader) ||
		errors.Is(err, importer.ErrUnknownFormat) ||
		errors.Is(err, importer.ErrMalformed)
}
