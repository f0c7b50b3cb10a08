package middleware

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	apperrors "github.com/hyperterse/dbmcp/core/shared/errors"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WriteError writes err as a JSON body with the AppError status, or 500 for
// anything else.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) && appErr.Status != 0 {
		status = appErr.Status
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{
		Error: apperrors.MessageOf(err),
		Code:  string(apperrors.CodeOf(err)),
	})
}
