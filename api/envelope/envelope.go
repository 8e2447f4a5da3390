// Package envelope writes the backend's JSON response envelopes:
// {success, data, message} on success and {code, message, details} on error.
package envelope

import (
	"encoding/json"
	"io"
	"net/http"
)

// Error codes returned by the backend
const (
	CodeInvalidJSON        = "INVALID_JSON"
	CodeValidation         = "VALIDATION_ERROR"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInternal           = "INTERNAL_ERROR"
)

// Success is the envelope of a 2xx response
type Success struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Error is the envelope of an error response
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// WriteJSON writes v with the given status
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope
func WriteSuccess(w http.ResponseWriter, status int, data interface{}, message string) {
	WriteJSON(w, status, Success{Success: true, Data: data, Message: message})
}

// WriteError writes an error envelope
func WriteError(w http.ResponseWriter, status int, code, message, details string) {
	WriteJSON(w, status, Error{Code: code, Message: message, Details: details})
}

// Decode reads at most limit bytes of JSON from r into v
func Decode(r *http.Request, limit int64, v interface{}) error {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, limit))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}
