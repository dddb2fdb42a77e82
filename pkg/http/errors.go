package http

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is an error with the HTTP status and machine code the API reports
// for it.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

func BadRequestError(message string) *AppError {
	return newAppError(http.StatusBadRequest, "ERR_BAD_REQUEST", message)
}

func BadRequestErrorf(format string, a ...interface{}) *AppError {
	return BadRequestError(fmt.Sprintf(format, a...))
}

func NotFoundError(message string) *AppError {
	return newAppError(http.StatusNotFound, "ERR_NOT_FOUND", message)
}

// UpstreamError is a 502 for a price source that failed or is unavailable.
func UpstreamError(message string) *AppError {
	return newAppError(http.StatusBadGateway, "ERR_UPSTREAM", message)
}

func InternalError(message string) *AppError {
	return newAppError(http.StatusInternalServerError, "ERR_INTERNAL", message)
}

func InternalErrorf(format string, a ...interface{}) *AppError {
	return InternalError(fmt.Sprintf(format, a...))
}

// ErrorRule maps errors matching Target (errors.Is) to a status and code.
type ErrorRule struct {
	Target error
	Status int
	Code   string
}

// ErrorMapper turns arbitrary errors into AppErrors. The first matching rule
// wins; Fallback applies when none match.
type ErrorMapper struct {
	Rules    []ErrorRule
	Fallback ErrorRule
}

// Map returns err as an AppError carrying err's message. An AppError already
// in the chain is returned unchanged.
func (m ErrorMapper) Map(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	rule := m.Fallback
	for _, r := range m.Rules {
		if errors.Is(err, r.Target) {
			rule = r
			break
		}
	}
	if rule.Status == 0 {
		rule.Status, rule.Code = http.StatusInternalServerError, "ERR_INTERNAL"
	}
	e := newAppError(rule.Status, rule.Code, err.Error())
	e.Err = err
	return e
}
