package web

import (
	"errors"
	"net/http"

	"github.com/MrJamesThe3rd/cashflow/internal/importer"
)

const maxUploadSize = 10 << 20

type importPage struct {
	Filename string
	Imported int
	Errors   []importer.RowError
	Message  string
}

func (h *Handler) importForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "import", importPage{})
}

func (h *Handler) importFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.render(w, http.StatusBadRequest, "import", importPage{Message: "The upload could not be read."})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.render(w, http.StatusBadRequest, "import", importPage{Message: "Choose a file to import."})
		return
	}
	defer file.Close()

	data := importPage{Filename: header.Filename}

	format, err := importer.FormatFromFilename(header.Filename)
	if err != nil {
		data.Message = "Only .csv and .xlsx files can be imported."
		h.render(w, http.StatusBadRequest, "import", data)

		return
	}

	result, err := h.importer.Import(r.Context(), format, file)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrEmpty):
			data.Message = "The file contains no transactions."
		case errors.Is(err, importer.ErrNoHeader):
			data.Message = "No header row with the expected columns was found."
		case errors.Is(err, importer.ErrMalformed):
			data.Message = "The file could not be parsed."
		default:
			h.serverError(w, "failed to import file", err)
			return
		}

		h.render(w, http.StatusBadRequest, "import", data)

		return
	}

	data.Imported = len(result.Imported)
	data.Errors = result.Errors

	status := http.StatusOK
	if len(result.Errors) > 0 {
		status = http.StatusUnprocessableEntity
	}

	h.render(w, status, "import", data)
}
