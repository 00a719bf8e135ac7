// Package apperrors defines the error kinds surfaced by the API.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a stable, client-visible error category
type Kind string

const (
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindInvalidCategory    Kind = "INVALID_CATEGORY"
	KindCapacityExceeded   Kind = "CAPACITY_EXCEEDED"
	KindNotFound           Kind = "NOT_FOUND"
	KindAlreadyExists      Kind = "ALREADY_EXISTS"
	KindConfiguration      Kind = "CONFIGURATION_ERROR"
	KindUpstream           Kind = "UPSTREAM_ERROR"
	KindStore              Kind = "STORE_ERROR"
	KindBadRequest         Kind = "BAD_REQUEST"
	KindInternal           Kind = "INTERNAL_ERROR"
)

// Error carries a kind, a human readable message and an optional cause
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinels below work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Sentinels for errors.Is comparisons
var (
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrInvalidCategory    = &Error{Kind: KindInvalidCategory}
	ErrCapacityExceeded   = &Error{Kind: KindCapacityExceeded}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrAlreadyExists      = &Error{Kind: KindAlreadyExists}
	ErrConfiguration      = &Error{Kind: KindConfiguration}
	ErrUpstream           = &Error{Kind: KindUpstream}
	ErrStore              = &Error{Kind: KindStore}
	ErrBadRequest         = &Error{Kind: KindBadRequest}
)

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func InvalidCredentials() *Error {
	return New(KindInvalidCredentials, "invalid email or password")
}

func Unauthorized(msg string) *Error {
	return New(KindUnauthorized, msg)
}

func InvalidCategory(category string) *Error {
	return New(KindInvalidCategory, fmt.Sprintf("invalid category %q", category))
}

func CapacityExceeded(category string, current, incoming, max int) *Error {
	return New(KindCapacityExceeded, fmt.Sprintf(
		"category %s holds %d of %d images, cannot add %d more", category, current, max, incoming))
}

func NotFound(msg string) *Error {
	return New(KindNotFound, msg)
}

func AlreadyExists(name string) *Error {
	return New(KindAlreadyExists, fmt.Sprintf("%s already exists", name))
}

func Configuration(msg string) *Error {
	return New(KindConfiguration, msg)
}

func Upstream(msg string, err error) *Error {
	return Wrap(KindUpstream, msg, err)
}

func Store(msg string, err error) *Error {
	return Wrap(KindStore, msg, err)
}

func BadRequest(msg string) *Error {
	return New(KindBadRequest, msg)
}

// KindOf extracts the kind of err, KindInternal when err is not an *Error
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps a kind to its response status code
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidCredentials, KindUnauthorized:
		return http.StatusUnauthorized
	case KindInvalidCategory, KindBadRequest:
		return http.StatusBadRequest
	case KindCapacityExceeded, KindAlreadyExists:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream, KindStore:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to send to clients. Configuration and
// internal failures are reported generically.
func PublicMessage(err error) string {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return "internal server error"
	}
	switch appErr.Kind {
	case KindConfiguration:
		return "service is not configured"
	case KindInternal:
		return "internal server error"
	}
	return appErr.Message
}
