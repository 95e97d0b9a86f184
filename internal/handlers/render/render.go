package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nkiryanov/sup/internal/service/validate"
)

const InternalErrorMessage = "Internal server error"

type ErrorResponse struct {
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, data any) {
	JSONWithStatus(w, data, http.StatusOK)
}

// Render ServiceError
func ServiceError(w http.ResponseWriter, message string, code int) {
	JSONWithStatus(w, ErrorResponse{Message: message}, code)
}

// Render json DecodeError
func DecodeError(w http.ResponseWriter, err error) {
	var decodeErr *validate.DecodeError
	if errors.As(err, &decodeErr) {
		ServiceError(w, decodeErr.Error(), http.StatusBadRequest)
		return
	}

	ServiceError(w, fmt.Sprintf("Failed to parse JSON: %s", err.Error()), http.StatusBadRequest)
}

// Render validation result
// Field errors go as 422 with verbatim message, body errors as 400
func ValidationError(w http.ResponseWriter, err error) {
	var fieldErr *validate.FieldError
	if errors.As(err, &fieldErr) {
		ServiceError(w, fieldErr.Error(), http.StatusUnprocessableEntity)
		return
	}

	DecodeError(w, err)
}

func InternalError(w http.ResponseWriter) {
	ServiceError(w, InternalErrorMessage, http.StatusInternalServerError)
}

// JSONWithStatus sends data as json and enforces status code
func JSONWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
