package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/isdelr/contacts-api/internal/common"
	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}

func writeErrorMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]interface{}{
		"status":  "error",
		"code":    code,
		"message": msg,
	})
}

func writeSuccess(w http.ResponseWriter, code int, data interface{}) {
	writeJSON(w, code, map[string]interface{}{
		"status": "success",
		"code":   code,
		"data":   data,
	})
}

// writeError maps a service error to a status code. Messages of unexpected
// errors are never sent to the client.
func writeError(w http.ResponseWriter, err error, notFound string) {
	var validationErr *common.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeErrorMessage(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, common.ErrAlreadyVerified):
		writeErrorMessage(w, http.StatusBadRequest, "Verification has already been passed")
	case errors.Is(err, common.ErrConflict):
		writeErrorMessage(w, http.StatusConflict, "Email or username already in use")
	case errors.Is(err, common.ErrUnauthorized):
		writeErrorMessage(w, http.StatusUnauthorized, "Incorrect email or password")
	case errors.Is(err, common.ErrForbidden):
		writeErrorMessage(w, http.StatusForbidden, "Email not verified")
	case errors.Is(err, common.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, notFound)
	default:
		log.Error().Err(err).Msg("Request failed")
		writeErrorMessage(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	// An empty body decodes to the zero value and is left to validation.
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
