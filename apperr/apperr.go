package apperr

import (
	"errors"
	"net/http"
)

// Error is a typed application error carrying the HTTP status it maps to.
// Handlers surface these as {status, message} JSON via utils.RespondWithAppError.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func Validation(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Message: msg}
}

// Conflict covers insufficient stock and coupon rejections. The original API
// reports these as 400, not 409.
func Conflict(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

func Auth(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Message: msg}
}

func Signature(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

func Upstream(msg string) *Error {
	return &Error{Status: http.StatusBadGateway, Message: msg}
}

// Status returns the HTTP status for err, or 500 for untyped errors.
func Status(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return http.StatusInternalServerError
}
