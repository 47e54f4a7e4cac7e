package jsonph

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrorKind classifies every failure surfaced by the client.
type ErrorKind int

const (
	// ErrorKindUnknown is anything that could not be classified.
	ErrorKindUnknown ErrorKind = iota
	// ErrorKindAPI means the upstream responded with an error status.
	ErrorKindAPI
	// ErrorKindValidation means caller data was rejected before dispatch.
	ErrorKindValidation
	// ErrorKindNetwork means no response was received.
	ErrorKindNetwork
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindAPI:
		return "api"
	case ErrorKindValidation:
		return "validation"
	case ErrorKindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by the client. Kind decides which
// of the remaining fields are populated.
type Error struct {
	Kind    ErrorKind
	Message string

	// API only.
	StatusCode   int
	ResponseBody []byte
	URL          string

	// Validation only, keyed by field name.
	ValidationErrors map[string][]string

	// Network only.
	Timeout  bool
	Canceled bool

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case ErrorKindAPI:
		return fmt.Sprintf("api error: %s (status: %d, url: %s)", e.Message, e.StatusCode, e.URL)
	case ErrorKindValidation:
		if len(e.ValidationErrors) == 0 {
			return "validation error: " + e.Message
		}

		return fmt.Sprintf("validation error: %s: %s", e.Message, formatFieldErrors(e.ValidationErrors))
	case ErrorKindNetwork:
		return "network error: " + e.Message
	default:
		return "unknown error: " + e.Message
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Static errors for err113 compliance.
var (
	ErrConfigRequired       = errors.New("config is required")
	ErrTransportRequired    = errors.New("transport is required")
	ErrCacheMiss            = errors.New("cache miss")
	ErrCacheDisabled        = errors.New("cache disabled")
	ErrCacheClosed          = errors.New("cache closed")
	ErrUnsupportedCacheType = errors.New("unsupported cache type")
	ErrRedisConfigRequired  = errors.New("redis configuration required for redis cache")
	ErrNATSConfigRequired   = errors.New("NATS configuration required for NATS cache")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidPost          = errors.New("invalid post")
)

// NewAPIError builds an API error from an upstream response.
func NewAPIError(statusCode int, body []byte, sourceURL string) *Error {
	return &Error{
		Kind:         ErrorKindAPI,
		Message:      fmt.Sprintf("request failed with status %d", statusCode),
		StatusCode:   statusCode,
		ResponseBody: body,
		URL:          sourceURL,
	}
}

// NewNetworkError builds a network error from a failure that produced no response.
func NewNetworkError(err error) *Error {
	netErr := &Error{
		Kind:     ErrorKindNetwork,
		Err:      err,
		Canceled: errors.Is(err, context.Canceled),
		Timeout:  errors.Is(err, context.DeadlineExceeded),
	}

	var timeoutErr net.Error
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		netErr.Timeout = true
	}

	switch {
	case netErr.Canceled:
		netErr.Message = "request canceled"
	case netErr.Timeout:
		netErr.Message = "request timed out"
	default:
		netErr.Message = "no response received"
	}

	if err != nil {
		netErr.Message += ": " + err.Error()
	}

	return netErr
}

// NewValidationError builds a validation error. A validation.Errors cause is
// flattened into per-field messages.
func NewValidationError(message string, err error) *Error {
	return &Error{
		Kind:             ErrorKindValidation,
		Message:          message,
		ValidationErrors: fieldErrors(err),
		Err:              err,
	}
}

// NewUnknownError wraps err unchanged.
func NewUnknownError(err error) *Error {
	message := "unclassified error"
	if err != nil {
		message = err.Error()
	}

	return &Error{
		Kind:    ErrorKindUnknown,
		Message: message,
		Err:     err,
	}
}

// KindOf returns the kind of err, or ErrorKindUnknown when err is not an *Error.
func KindOf(err error) ErrorKind {
	sdkErr := &Error{}
	if errors.As(err, &sdkErr) {
		return sdkErr.Kind
	}

	return ErrorKindUnknown
}

// StatusCode returns the upstream status carried by an API error, or 0.
func StatusCode(err error) int {
	sdkErr := &Error{}
	if errors.As(err, &sdkErr) && sdkErr.Kind == ErrorKindAPI {
		return sdkErr.StatusCode
	}

	return 0
}

// IsAPIError reports whether err is an API error.
func IsAPIError(err error) bool {
	return KindOf(err) == ErrorKindAPI
}

// IsNetworkError reports whether err is a network error.
func IsNetworkError(err error) bool {
	return KindOf(err) == ErrorKindNetwork
}

// IsValidationError reports whether err is a validation error.
func IsValidationError(err error) bool {
	return KindOf(err) == ErrorKindValidation
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return StatusCode(err) == http.StatusForbidden
}

// NormalizeError maps a pipeline failure onto one of the four error kinds.
// A non-2xx response becomes an API error; a failure with no response becomes
// a network error; existing *Error values are returned unchanged.
func NormalizeError(req *Request, resp *Response, err error) error {
	if resp != nil && !resp.IsSuccess() {
		return NewAPIError(resp.StatusCode, resp.Body, req.Path)
	}

	if err == nil {
		return nil
	}

	sdkErr := &Error{}
	if errors.As(err, &sdkErr) {
		return sdkErr
	}

	if resp == nil && isTransportFailure(err) {
		return NewNetworkError(err)
	}

	return NewUnknownError(err)
}

func isTransportFailure(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}

func fieldErrors(err error) map[string][]string {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return nil
	}

	fields := make(map[string][]string, len(errs))

	for field, fieldErr := range errs {
		if fieldErr == nil {
			continue
		}

		var nested validation.Errors
		if errors.As(fieldErr, &nested) {
			for nestedField, msgs := range fieldErrors(nested) {
				fields[field+"."+nestedField] = msgs
			}

			continue
		}

		fields[field] = append(fields[field], fieldErr.Error())
	}

	return fields
}

func formatFieldErrors(fields map[string][]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}

	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(fields[name], ", "))
	}

	return strings.Join(parts, "; ")
}
