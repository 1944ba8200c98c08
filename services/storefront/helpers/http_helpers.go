package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"quickbidz-storefront/internal/backend"
	"quickbidz-storefront/internal/storefronterrors"
	"quickbidz-storefront/internal/upload"
	"quickbidz-storefront/utils"

	"github.com/gin-gonic/gin"
)

// Messages shared by the routes and the pages.
const (
	MsgUnauthenticated = "Authentication token missing or expired"
	MsgBidTooLow       = "Bid amount must be higher than current price"
	MsgInvalidBid      = "Please enter a valid bid amount"
	MsgInternal        = "internal server error"
)

// NextBidHeader carries the amount to offer after a successful bid.
const NextBidHeader = "X-Next-Bid"

// Toast messages shown on pages, keyed by backend outcome.
const (
	ToastSessionExpired = "Session expired. Please login again."
	ToastForbidden      = "Access denied."
	ToastNotFound       = "Resource not found."
	ToastServerError    = "Server error. Please try again later."
	ToastNetworkError   = "Network error. Please check your connection."
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	LogBindError(c, handlerName, err)
}

// LogBindError records a request that did not bind cleanly.
func LogBindError(c *gin.Context, handlerName string, err error) {
	utils.Warn(handlerName+": binding error", map[string]any{
		"path":  c.Request.URL.Path,
		"error": err.Error(),
	})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message.
// Backend errors keep their status; the message is empty when the backend
// sent none, so callers can substitute their route's fallback.
func MapErrorToHTTP(err error) (int, string) {
	var apiErr *backend.APIError
	var inputErr *storefronterrors.InputError
	var rejectedErr *upload.RejectedError

	switch {
	case errors.As(err, &apiErr):
		return apiErr.Status, apiErr.Message
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, inputErr.Message
	case errors.As(err, &rejectedErr):
		return http.StatusBadRequest, rejectedErr.Message
	case errors.Is(err, storefronterrors.ErrBidTooLow):
		return http.StatusBadRequest, MsgBidTooLow
	case errors.Is(err, storefronterrors.ErrInvalidBid):
		return http.StatusBadRequest, MsgInvalidBid
	case errors.Is(err, storefronterrors.ErrUnauthorized):
		return http.StatusUnauthorized, MsgUnauthenticated
	case errors.Is(err, storefronterrors.ErrForbidden):
		return http.StatusForbidden, ToastForbidden
	case errors.Is(err, storefronterrors.ErrNotFound):
		return http.StatusNotFound, ToastNotFound
	case errors.Is(err, storefronterrors.ErrBackendUnavailable):
		return http.StatusInternalServerError, ""
	default:
		return http.StatusInternalServerError, ""
	}
}

// RespondError writes the {message} envelope for err, using fallback when no
// better message is known, and logs the failure.
func RespondError(c *gin.Context, handlerName string, err error, fallback string) int {
	status, message := MapErrorToHTTP(err)
	if message == "" {
		message = fallback
	}
	if message == "" {
		message = MsgInternal
	}
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	fields := map[string]any{
		"handler": handlerName,
		"status":  status,
		"path":    c.Request.URL.Path,
		"error":   err.Error(),
	}
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", fields)
	} else {
		utils.Warn(handlerName+": request rejected", fields)
	}
	return status
}

// ToastMessage is the message a page shows for a failed action.
func ToastMessage(err error) string {
	if errors.Is(err, storefronterrors.ErrBackendUnavailable) {
		return ToastNetworkError
	}
	status, message := MapErrorToHTTP(err)
	switch {
	case status == http.StatusUnauthorized:
		return ToastSessionExpired
	case status == http.StatusForbidden:
		return ToastForbidden
	case status == http.StatusNotFound:
		return ToastNotFound
	case status >= http.StatusInternalServerError:
		return ToastServerError
	case message != "":
		return message
	default:
		return ToastServerError
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
