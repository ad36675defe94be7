package utils

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies a failure reported to API clients.
type ErrorKind string

const (
	KindValidation         ErrorKind = "ValidationError"
	KindNotFound           ErrorKind = "NotFound"
	KindProductNotFound    ErrorKind = "ProductNotFound"
	KindNotAuthorized      ErrorKind = "NotAuthorized"
	KindForbidden          ErrorKind = "Forbidden"
	KindUnauthenticated    ErrorKind = "Unauthenticated"
	KindInvalidCredentials ErrorKind = "InvalidCredentials"
	KindIncorrectPassword  ErrorKind = "IncorrectPassword"
	KindEmailNotVerified   ErrorKind = "EmailNotVerified"
	KindInvalidToken       ErrorKind = "InvalidOrExpiredToken"
	KindInsufficientStock  ErrorKind = "InsufficientStock"
	KindProductInactive    ErrorKind = "ProductInactive"
	KindAlreadyReviewed    ErrorKind = "AlreadyReviewed"
	KindAlreadyInWishlist  ErrorKind = "AlreadyInWishlist"
	KindAlreadyDelivered   ErrorKind = "AlreadyDelivered"
	KindUserExists         ErrorKind = "UserExists"
	KindServiceUnavailable ErrorKind = "ServiceUnavailable"
	KindInternal           ErrorKind = "InternalError"
)

var kindStatus = map[ErrorKind]int{
	KindValidation:         http.StatusBadRequest,
	KindNotFound:           http.StatusNotFound,
	KindProductNotFound:    http.StatusNotFound,
	KindNotAuthorized:      http.StatusUnauthorized,
	KindForbidden:          http.StatusForbidden,
	KindUnauthenticated:    http.StatusUnauthorized,
	KindInvalidCredentials: http.StatusUnauthorized,
	KindIncorrectPassword:  http.StatusUnauthorized,
	KindEmailNotVerified:   http.StatusUnauthorized,
	KindInvalidToken:       http.StatusBadRequest,
	KindInsufficientStock:  http.StatusBadRequest,
	KindProductInactive:    http.StatusBadRequest,
	KindAlreadyReviewed:    http.StatusBadRequest,
	KindAlreadyInWishlist:  http.StatusBadRequest,
	KindAlreadyDelivered:   http.StatusBadRequest,
	KindUserExists:         http.StatusBadRequest,
	KindServiceUnavailable: http.StatusServiceUnavailable,
	KindInternal:           http.StatusInternalServerError,
}

// APIError is an error with a client-facing message and a fixed HTTP status.
type APIError struct {
	Kind    ErrorKind
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Status returns the HTTP status for the error's kind.
func (e *APIError) Status() int {
	if s, ok := kindStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func NewError(kind ErrorKind, format string, args ...interface{}) *APIError {
	return &APIError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
