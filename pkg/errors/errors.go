package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrAuthRequired      = errors.New("authentication required")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrRemoteRejected    = errors.New("remote rejected request")
	ErrRemoteUnreachable = errors.New("remote unreachable")
	ErrInternal          = errors.New("internal error")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// AuthRequired signals that the caller must authenticate before retrying.
// It is always produced before any network call is made.
func AuthRequired(message string) *AppError {
	return &AppError{
		Code:    "AUTH_REQUIRED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrAuthRequired,
	}
}

// RemoteRejected wraps a non-2xx answer from the commerce API. Message is the
// server's own text and must be shown to the user unchanged.
func RemoteRejected(status int, message string) *AppError {
	return &AppError{
		Code:    "REMOTE_REJECTED",
		Message: message,
		Status:  status,
		Err:     ErrRemoteRejected,
	}
}

// RemoteUnreachable wraps network and decoding failures.
func RemoteUnreachable(cause error) *AppError {
	return &AppError{
		Code:    "REMOTE_UNREACHABLE",
		Message: "the store is unreachable, please try again later",
		Status:  http.StatusBadGateway,
		Err:     errors.Join(ErrRemoteUnreachable, cause),
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// StockError reports a requested quantity above the available stock.
type StockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("INSUFFICIENT_STOCK: product %s: requested %d, only %d available",
		e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}

// InsufficientStock creates a StockError.
func InsufficientStock(productID string, requested, available int) *StockError {
	return &StockError{ProductID: productID, Requested: requested, Available: available}
}

// UserMessage returns the text that should be shown to an end user for err.
// Remote rejections keep the server's message verbatim.
func UserMessage(err error) string {
	var stockErr *StockError
	if errors.As(err, &stockErr) {
		return fmt.Sprintf("only %d left in stock", stockErr.Available)
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// Process exit codes reported by ExitCode.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitAuth        = 3
	ExitStock       = 4
	ExitNotFound    = 5
	ExitRejected    = 6
	ExitUnreachable = 7
)

// ExitCode maps err to the process exit code of a storefront command.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrInvalidInput):
		return ExitUsage
	case errors.Is(err, ErrAuthRequired):
		return ExitAuth
	case errors.Is(err, ErrInsufficientStock):
		return ExitStock
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ErrRemoteRejected):
		return ExitRejected
	case errors.Is(err, ErrRemoteUnreachable):
		return ExitUnreachable
	default:
		return ExitFailure
	}
}

// RemoteStatus returns the HTTP status the commerce API answered with, or 0
// when err did not come from a remote rejection.
func RemoteStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && errors.Is(appErr.Err, ErrRemoteRejected) {
		return appErr.Status
	}
	return 0
}
