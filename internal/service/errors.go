package service

import (
	"errors"
	"net/http"
)

// Client-facing messages. They never carry store or runtime detail.
const (
	MsgInvalidDataFormat = "invalid data format"
	MsgLookupFailed      = "product lookup failed"
	MsgPasswordRequired  = "password must be set"
	MsgInvalidStatus     = "status must be FOR_SALE or SOLD_OUT"
	MsgNotAuthorized     = "not authorized to modify this product"
	MsgInternal          = "internal server error"
)

var (
	// ErrIDExhausted is returned when every generated product id collided with a stored one.
	ErrIDExhausted = errors.New("could not reserve a unique product id")
)

// Error is a failure with a client-safe message and the HTTP status it maps to.
// Err keeps the internal cause for logging; it is never rendered to clients.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code int, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// missingProduct reports a lookup that matched nothing.
// An empty id is a malformed request, any other id is unknown.
func missingProduct(productID string) *Error {
	if productID == "" {
		return newError(http.StatusBadRequest, MsgInvalidDataFormat, nil)
	}
	return newError(http.StatusNotFound, MsgLookupFailed, nil)
}
