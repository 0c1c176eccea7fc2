package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents transport and timeout failures
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeHTTPStatus represents non-2xx responses
	ErrorTypeHTTPStatus ErrorType = "http_status"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeParsing represents extraction and HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeGeocode represents geocoding misses and service failures
	ErrorTypeGeocode ErrorType = "geocode"
	// ErrorTypeStorage represents persistence errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeConfiguration represents missing or invalid configuration.
	// The only fatal member of the taxonomy: a configuration error aborts
	// the whole invocation, everything else is per-source recoverable.
	ErrorTypeConfiguration ErrorType = "configuration"
)

// PipelineError represents a pipeline-specific error tied to a source
type PipelineError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is worth retrying on a later run
func (e *PipelineError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeGeocode, ErrorTypeStorage:
		return true
	default:
		return false
	}
}

// IsFatal returns true when the error must abort the whole invocation
func (e *PipelineError) IsFatal() bool {
	return e.Type == ErrorTypeConfiguration
}

// New creates a new PipelineError
func New(errType ErrorType, source, message string, err error) *PipelineError {
	return &PipelineError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(source, message string, err error) *PipelineError {
	return New(ErrorTypeNetwork, source, message, err)
}

// NewHTTPStatus creates an error for a non-2xx response
func NewHTTPStatus(source string, statusCode int) *PipelineError {
	return New(ErrorTypeHTTPStatus, source, fmt.Sprintf("unexpected status code %d", statusCode), nil)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(source, retryAfter string) *PipelineError {
	message := "rate limited"
	if retryAfter != "" {
		message = fmt.Sprintf("rate limited; retry after %s", retryAfter)
	}
	return New(ErrorTypeRateLimit, source, message, nil)
}

// NewParsing creates a new parsing error
func NewParsing(source, message string, err error) *PipelineError {
	return New(ErrorTypeParsing, source, message, err)
}

// NewGeocode creates a new geocoding error
func NewGeocode(location, message string, err error) *PipelineError {
	return New(ErrorTypeGeocode, location, message, err)
}

// NewStorage creates a new persistence error
func NewStorage(source, message string, err error) *PipelineError {
	return New(ErrorTypeStorage, source, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *PipelineError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsFatal reports whether err (anywhere in its chain) is a fatal
// configuration error.
func IsFatal(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.IsFatal()
	}
	return false
}
