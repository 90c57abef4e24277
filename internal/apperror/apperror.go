// Package apperror defines the operational errors the API reports to
// clients.  Every error built here is "operational": its message is safe to
// show.  Anything else reaching the HTTP layer is treated as unexpected and
// masked in production.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Codes of the error taxonomy.
const (
	CodeConfig             = "CONFIG_ERROR"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeRevokedToken       = "REVOKED_TOKEN"
	CodeTooManyAttempts    = "TOO_MANY_ATTEMPTS"
	CodeLotteryUnavailable = "LOTTERY_NOT_FOUND_OR_EXPIRED"
	CodeLookup             = "LOOKUP_ERROR"
	CodePersistence        = "PERSISTENCE_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
)

// Error is an operational error with an HTTP status.
type Error struct {
	Code       string
	Status     int
	Message    string
	RetryAfter int   // seconds, only set for TOO_MANY_ATTEMPTS
	Err        error // underlying cause, never shown to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so callers can write errors.Is(err, apperror.ErrRevokedToken).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// New builds an operational error.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches a cause to a copy of the error.
func Wrap(e *Error, cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// Templates used with errors.Is.
var (
	ErrConfig             = New(CodeConfig, http.StatusInternalServerError, "Server is misconfigured")
	ErrInvalidCredentials = New(CodeInvalidCredentials, http.StatusUnauthorized, "Invalid email or password")
	ErrInvalidToken       = New(CodeInvalidToken, http.StatusUnauthorized, "Invalid token")
	ErrRevokedToken       = New(CodeRevokedToken, http.StatusUnauthorized, "Invalid or revoked token")
	ErrTooManyAttempts    = New(CodeTooManyAttempts, http.StatusTooManyRequests, "Too many attempts")
	ErrLotteryUnavailable = New(CodeLotteryUnavailable, http.StatusBadRequest, "Lottery not found")
	ErrLookup             = New(CodeLookup, http.StatusInternalServerError, "Failed to find purchase")
	ErrPersistence        = New(CodePersistence, http.StatusInternalServerError, "Failed to persist data")
)

// Config reports a missing or unusable setting, e.g. an unset signing secret.
func Config(message string) *Error {
	return New(CodeConfig, http.StatusInternalServerError, message)
}

func InvalidCredentials() *Error { return Wrap(ErrInvalidCredentials, nil) }

func InvalidToken(message string) *Error {
	if message == "" {
		message = ErrInvalidToken.Message
	}
	return New(CodeInvalidToken, http.StatusUnauthorized, message)
}

func RevokedToken() *Error { return Wrap(ErrRevokedToken, nil) }

// TooManyAttempts carries the number of seconds the caller has to wait.
func TooManyAttempts(retrySeconds int) *Error {
	e := New(CodeTooManyAttempts, http.StatusTooManyRequests,
		fmt.Sprintf("Too many attempts. Please try again in %d seconds", retrySeconds))
	e.RetryAfter = retrySeconds
	return e
}

func LotteryNotFoundOrExpired() *Error { return Wrap(ErrLotteryUnavailable, nil) }

func Lookup(message string, cause error) *Error {
	return &Error{Code: CodeLookup, Status: http.StatusInternalServerError, Message: message, Err: cause}
}

func Persistence(message string, cause error) *Error {
	return &Error{Code: CodePersistence, Status: http.StatusInternalServerError, Message: message, Err: cause}
}

func BadRequest(message string) *Error {
	return New(CodeBadRequest, http.StatusBadRequest, message)
}

func Unauthorized(message string) *Error {
	return New(CodeUnauthorized, http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(CodeForbidden, http.StatusForbidden, message)
}

func NotFound(message string) *Error {
	return New(CodeNotFound, http.StatusNotFound, message)
}

func Conflict(message string) *Error {
	return New(CodeConflict, http.StatusConflict, message)
}

func Internal(message string, cause error) *Error {
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: message, Err: cause}
}

// From extracts the operational error from err, if any.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Status maps any error to an HTTP status code.
func Status(err error) int {
	if e, ok := From(err); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}
