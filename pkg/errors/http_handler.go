package errors

import (
	"encoding/json"
	"net/http"
)

// WriteError renders any error as the canonical JSON error envelope.
// Non-AppError values are masked as internal errors so storage details
// never leak to callers.
func WriteError(w http.ResponseWriter, err error) error {
	appErr := AsAppError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())

	return json.NewEncoder(w).Encode(ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}
