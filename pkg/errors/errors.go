package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNetwork indicates the remote endpoint could not be reached
	ErrorTypeNetwork ErrorType = "NETWORK"

	// ErrorTypeAPIKey indicates the Sheets API rejected the configured key
	ErrorTypeAPIKey ErrorType = "API_KEY"

	// ErrorTypeTimeout indicates a request exceeded its deadline
	ErrorTypeTimeout ErrorType = "TIMEOUT"

	// ErrorTypeFetch indicates a generic fetch failure
	ErrorTypeFetch ErrorType = "FETCH"

	// ErrorTypeDataFormat indicates a malformed upstream response
	ErrorTypeDataFormat ErrorType = "DATA_FORMAT"

	// ErrorTypeValidation indicates a row failed validation
	ErrorTypeValidation ErrorType = "VALIDATION"
)

// Error codes surfaced to API consumers.
const (
	CodeNetworkError         = "NETWORK_ERROR"
	CodeAPIKeyError          = "API_KEY_ERROR"
	CodeRequestTimeout       = "REQUEST_TIMEOUT"
	CodeFetchErrorRetrying   = "FETCH_ERROR_RETRYING"
	CodeFetchErrorMaxRetries = "FETCH_ERROR_MAX_RETRIES"
	CodeDataFormatError      = "DATA_FORMAT_ERROR"
	CodeValidationError      = "VALIDATION_ERROR"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Code    string
	Message string
	Details string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another fetch attempt can plausibly succeed.
// Timeouts, key rejections, and malformed data only repeat on retry.
func (e *AppError) Retryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeFetch:
		return true
	default:
		return false
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message, details string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Code:    CodeValidationError,
		Message: message,
		Details: details,
	}
}

// NewDataFormatError creates a new data format error
func NewDataFormatError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeDataFormat,
		Code:    CodeDataFormatError,
		Message: message,
		Err:     err,
	}
}

// NewAPIKeyError creates a new API key error
func NewAPIKeyError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeAPIKey,
		Code:    CodeAPIKeyError,
		Message: message,
		Err:     err,
	}
}

// NewTimeoutError creates a new request timeout error
func NewTimeoutError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeTimeout,
		Code:    CodeRequestTimeout,
		Message: message,
		Err:     err,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeNetwork,
		Code:    CodeNetworkError,
		Message: message,
		Err:     err,
	}
}

// Classify inspects an error and maps it to a structured AppError following
// the fetch taxonomy. retryCount is the number of retries already performed
// against maxRetries; it decides between the RETRYING and MAX_RETRIES codes
// for generic fetch failures.
func Classify(err error, retryCount, maxRetries int) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	msg := strings.ToLower(err.Error())

	switch {
	case isTimeout(err) || strings.Contains(msg, "timeout"):
		return NewTimeoutError("request timed out", err)
	case strings.Contains(msg, "api key") || strings.Contains(msg, "403"):
		return NewAPIKeyError("sheets api rejected the request", err)
	case isNetwork(err) || strings.Contains(msg, "failed to fetch") || strings.Contains(msg, "network"):
		return NewNetworkError("upstream endpoint unreachable", err)
	}

	code := CodeFetchErrorRetrying
	if retryCount >= maxRetries {
		code = CodeFetchErrorMaxRetries
	}
	return &AppError{
		Type:    ErrorTypeFetch,
		Code:    code,
		Message: "fetch failed",
		Err:     err,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isNetwork(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
