// Package domain defines the core domain models for the storefront.
package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// DomainError is an error the API reports to clients. Code has the form
// SF-<AREA>-<status><n>; "SF-PROD-4040" is the first 404 of the product
// area. Two DomainErrors match under errors.Is when their codes match.
type DomainError struct {
	Code    string
	Message string
	Details string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Details == "" {
		return "[" + e.Code + "] " + e.Message
	}
	return "[" + e.Code + "] " + e.Message + ": " + e.Details
}

func (e *DomainError) Unwrap() error { return e.Cause }

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// Status is the HTTP status carried by the code.
func (e *DomainError) Status() int { return HTTPStatus(e.Code) }

// NewDomainError returns an error with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WithDetails returns a copy carrying client-visible details.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// WithDetailsf is WithDetails with a format string.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy wrapping cause. The cause is logged but never
// sent to clients.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Cause = cause
	return &c
}

// CodeOf returns the code of the first DomainError in err's chain, or "".
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// HasCode reports whether err carries a DomainError with the given code.
// An empty code matches any DomainError.
func HasCode(err error, code string) bool {
	got := CodeOf(err)
	return got != "" && (code == "" || got == code)
}

// HTTPStatus reads the status out of the trailing digit group of a code.
// Codes without a 4xx or 5xx status map to 500.
func HTTPStatus(code string) int {
	if len(code) < 4 {
		return http.StatusInternalServerError
	}
	n, err := strconv.Atoi(code[len(code)-4 : len(code)-1])
	if err != nil || n < 400 || n > 599 {
		return http.StatusInternalServerError
	}
	return n
}

// System.
var (
	ErrBadRequest         = NewDomainError("SF-SYS-4000", "bad request")
	ErrRouteNotFound      = NewDomainError("SF-SYS-4040", "route not found")
	ErrPayloadTooLarge    = NewDomainError("SF-SYS-4130", "request entity too large")
	ErrUnsupportedMedia   = NewDomainError("SF-SYS-4150", "unsupported media type")
	ErrRateLimited        = NewDomainError("SF-SYS-4290", "too many requests")
	ErrInternalServer     = NewDomainError("SF-SYS-5000", "internal server error")
	ErrStorageError       = NewDomainError("SF-SYS-5001", "storage error")
	ErrServiceUnavailable = NewDomainError("SF-SYS-5030", "service unavailable")
)

// Request arguments.
var (
	ErrInvalidArgument = NewDomainError("SF-ARG-4001", "invalid argument")
	ErrMissingArgument = NewDomainError("SF-ARG-4002", "missing required argument")
)

// Accounts.
var (
	ErrWeakPassword       = NewDomainError("SF-USER-4001", "password too weak")
	ErrInvalidCredentials = NewDomainError("SF-USER-4010", "invalid credentials")
	ErrUserNotFound       = NewDomainError("SF-USER-4040", "user not found")
	ErrUserExists         = NewDomainError("SF-USER-4090", "user already exists")
)

// Catalog.
var (
	ErrProductValidation = NewDomainError("SF-PROD-4001", "product validation failed")
	ErrProductNotFound   = NewDomainError("SF-PROD-4040", "product not found")
)

// Carts and orders.
var (
	ErrCartEmpty          = NewDomainError("SF-CART-4001", "cart is empty")
	ErrInvalidOrderStatus = NewDomainError("SF-ORDR-4001", "invalid order status")
	ErrOrderNotFound      = NewDomainError("SF-ORDR-4040", "order not found")
)
