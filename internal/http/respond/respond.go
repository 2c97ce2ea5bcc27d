// Package respond writes the JSON bodies shared by the API handlers.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/cashflow/internal/validation"
)

type errorsResponse struct {
	Errors validation.Errors `json:"errors"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Invalid writes field errors as 422 {"errors":[{"field","reason"}]}.
func Invalid(w http.ResponseWriter, errs validation.Errors) {
	JSON(w, http.StatusUnprocessableEntity, errorsResponse{Errors: errs})
}

// Conflict writes a single field error as 409.
func Conflict(w http.ResponseWriter, field, reason string) {
	JSON(w, http.StatusConflict, errorsResponse{Errors: validation.Errors{{Field: field, Reason: reason}}})
}
