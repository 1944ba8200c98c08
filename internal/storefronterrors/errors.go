package storefronterrors

import "errors"

// backend-facing errors
var (
	ErrUnauthorized       = errors.New("authentication token missing or expired")
	ErrForbidden          = errors.New("access denied")
	ErrNotFound           = errors.New("resource not found")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// form and business-rule errors
var (
	ErrInvalidBid     = errors.New("invalid bid")
	ErrBidTooLow      = errors.New("bid amount must be higher than current price")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUploadRejected = errors.New("upload rejected")
)

// InputError is a rejected request carrying the message shown to the user.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// Invalid returns an InputError with message.
func Invalid(message string) error {
	return &InputError{Message: message}
}
