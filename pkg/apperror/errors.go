package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses and, for queued
// work, decides whether a job may be retried.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

const (
	CodeInvalidRequest      = "LED_001"
	CodeNotFound            = "LED_002"
	CodeInsufficientBalance = "LED_003"
	CodeEventInvalid        = "PNT_001"
	CodeAlreadyEarned       = "PNT_002"
	CodeProvider            = "PRV_001"
	CodeProviderPermanent   = "PRV_002"
	CodeInternal            = "SYS_001"
	CodeLockTimeout         = "SYS_002"
	CodeUnavailable         = "SYS_003"
)

// ---- Ledger (LED) ----

func ErrInvalidRequest(message string) *AppError {
	return New(CodeInvalidRequest, message, http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrInsufficientBalance() *AppError {
	return New(CodeInsufficientBalance, "Insufficient balance in wallet", http.StatusPaymentRequired)
}

// ---- Points (PNT) ----

// Reasons carried by ErrEventInvalid.
const (
	EventNotFound   = "not_found"
	EventInactive   = "inactive"
	EventNotStarted = "not_started"
	EventEnded      = "ended"
)

func ErrEventInvalid(reason string) *AppError {
	return New(CodeEventInvalid, "Points event invalid: "+reason, http.StatusUnprocessableEntity)
}

func ErrAlreadyEarned() *AppError {
	return New(CodeAlreadyEarned, "Points already earned for this event", http.StatusConflict)
}

// ---- Providers (PRV) ----

// ErrProvider wraps a failed call to an external provider. It is treated as
// transient unless the saga classifier recognises the message.
func ErrProvider(provider string, err error) *AppError {
	return Wrap(CodeProvider, provider+" request failed", http.StatusBadGateway, err)
}

// ErrProviderPermanent marks a provider rejection that no retry can fix.
func ErrProviderPermanent(provider string, err error) *AppError {
	return Wrap(CodeProviderPermanent, provider+" rejected request", http.StatusUnprocessableEntity, err)
}

// ---- Security (SEC) ----

func ErrUnauthorized() *AppError {
	return New("SEC_001", "Unauthorized", http.StatusUnauthorized)
}

func ErrInvalidSignature() *AppError {
	return New("SEC_002", "Invalid signature", http.StatusUnauthorized)
}

func ErrTimestampExpired() *AppError {
	return New("SEC_003", "Request timestamp expired", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrLockTimeout(err error) *AppError {
	return Wrap(CodeLockTimeout, "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}

func ErrUnavailable(err error) *AppError {
	return Wrap(CodeUnavailable, "Dependency unavailable", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Code returns the code of the first AppError in err's chain, or "".
func Code(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ""
}

// Is reports whether err carries an AppError with the given code.
func Is(err error, code string) bool {
	return Code(err) == code
}

// IsTransient reports whether retrying the whole operation may succeed.
// Codes not listed here are business or input errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	switch Code(err) {
	case CodeLockTimeout, CodeProvider, CodeInternal, CodeUnavailable, "":
		return true
	}
	return false
}
