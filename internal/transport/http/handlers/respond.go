package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mklancir/orbit/internal/apperr"
	"github.com/mklancir/orbit/pkg/validator"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":   "VALIDATION_ERROR",
			"fields": errs,
		},
	})
}

// writeAppError maps the error taxonomy onto HTTP statuses. Validation,
// permission, and not-found failures carry their message verbatim; anything
// unclassified is an internal error and only gets logged.
func writeAppError(w http.ResponseWriter, log *zap.SugaredLogger, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, apperr.ErrPermission):
		writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, apperr.ErrConflict):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, apperr.ErrTransient):
		log.Warnw("transient failure", "error", err)
		writeError(w, http.StatusServiceUnavailable, "RETRY_LATER", "Temporarily unavailable, retry")
	default:
		log.Errorw("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}
