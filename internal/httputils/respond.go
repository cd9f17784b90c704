package httputils

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON document returned for every failed request
type ErrorBody struct {
	Detail string       `json:"detail"`
	Errors []FieldError `json:"errors,omitempty"`
}

// FieldError describes one rejected input field
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
}

// WriteJSON writes v as a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(v)
}

// WriteError writes a JSON error body with a generic detail message
func WriteError(w http.ResponseWriter, status int, detail string) {
	_ = WriteJSON(w, status, ErrorBody{Detail: detail})
}

// WriteUnauthorized writes a 401 with a Bearer challenge
func WriteUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	WriteError(w, http.StatusUnauthorized, "Invalid authentication credentials")
}

// WriteForbidden writes a 403 that does not reveal which rule failed
func WriteForbidden(w http.ResponseWriter) {
	WriteError(w, http.StatusForbidden, "Insufficient access")
}

// WriteValidation writes a 422 listing the rejected fields
func WriteValidation(w http.ResponseWriter, detail string, fields []FieldError) {
	_ = WriteJSON(w, http.StatusUnprocessableEntity, ErrorBody{Detail: detail, Errors: fields})
}
