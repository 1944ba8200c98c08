package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"quickbidz-storefront/internal/storefronterrors"
)

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

// NewAPIError builds the error for a non-2xx status and its raw body.
func NewAPIError(status int, body []byte) *APIError {
	return &APIError{Status: status, Message: messageFrom(body), Body: body}
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded %d", e.Status)
	}
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}

// Unwrap lets errors.Is match the storefront sentinels for the statuses the
// UI treats specially.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return storefronterrors.ErrUnauthorized
	case http.StatusForbidden:
		return storefronterrors.ErrForbidden
	case http.StatusNotFound:
		return storefronterrors.ErrNotFound
	default:
		return nil
	}
}

// messageFrom pulls a human message out of an error body. The backend uses
// {message} (sometimes an array of validation messages) and occasionally {error}.
func messageFrom(body []byte) string {
	var envelope struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if len(envelope.Message) > 0 {
		var single string
		if err := json.Unmarshal(envelope.Message, &single); err == nil {
			return single
		}
		var many []string
		if err := json.Unmarshal(envelope.Message, &many); err == nil {
			return strings.Join(many, "; ")
		}
	}
	return envelope.Error
}
