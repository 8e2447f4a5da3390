package backend

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// CodeEmailAlreadyExists is the structured duplicate-email error code
const CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"

// APIError is a non-2xx backend answer decoded from the error envelope
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("HTTP %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// DuplicateEmail reports whether the backend rejected the registration
// because the email is already registered. The structured code and the
// 409 status decide; message matching only applies to legacy responses
// that carry no code.
func (e *APIError) DuplicateEmail() bool {
	if e.Code == CodeEmailAlreadyExists || e.Status == http.StatusConflict {
		return true
	}
	if e.Code == "" && e.Status == http.StatusBadRequest {
		return legacyDuplicateMessage(e.Message)
	}
	return false
}

// legacyDuplicateMessage matches the wording of older backends that
// report duplicates as plain 400 responses.
func legacyDuplicateMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, phrase := range []string{
		"already registered",
		"email already exists",
		"email is already",
		"duplicate email",
		"email address already",
	} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// AsAPIError extracts an *APIError from err's chain
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if stderrors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsDuplicateEmail reports whether err is a duplicate-email rejection
func IsDuplicateEmail(err error) bool {
	ae, ok := AsAPIError(err)
	return ok && ae.DuplicateEmail()
}

func decodeAPIError(status int, body []byte, url string) *APIError {
	ae := &APIError{Status: status, URL: url}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		ae.Code = env.Code
		ae.Message = env.Message
		if ae.Message == "" {
			ae.Message = env.Error
		}
		ae.Details = detailsString(env.Details)
	} else if text := strings.TrimSpace(string(body)); text != "" {
		ae.Message = text
	}

	if ae.Message == "" {
		ae.Message = http.StatusText(status)
	}
	return ae
}

func detailsString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
