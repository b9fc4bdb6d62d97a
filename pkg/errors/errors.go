package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrExternal indicates an external API or store failure
	ErrExternal = errors.New("external service error")
)

// Analytics pipeline errors

var (
	// ErrInsufficientArticles indicates fewer titled articles than the
	// selector needs for clustering
	ErrInsufficientArticles = errors.New("insufficient articles for clustering")

	// ErrTooManyArticles indicates the per-week article cap was exceeded
	ErrTooManyArticles = errors.New("too many articles in week bucket")

	// ErrLexiconUnavailable indicates the sentiment lexicon could not be loaded
	ErrLexiconUnavailable = errors.New("sentiment lexicon unavailable")

	// ErrMalformedDate indicates a date parameter that could not be parsed
	ErrMalformedDate = errors.New("malformed date")

	// ErrUnknownSector indicates a sector with no articles in the store
	ErrUnknownSector = errors.New("unknown sector")
)

// Predictor errors

var (
	// ErrNoPriceData indicates no OHLCV rows exist for the requested ticker
	ErrNoPriceData = errors.New("no price data for ticker")

	// ErrNoPredictionRow indicates the next Friday row is absent after resampling
	ErrNoPredictionRow = errors.New("no prediction row after reference date")

	// ErrModelUnavailable indicates a model failed to load or infer
	ErrModelUnavailable = errors.New("model unavailable")
)

// DomainError wraps an error with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsClientError reports whether err maps to a 4xx-class response at the
// HTTP boundary. Store outages and model failures are server-side.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrMalformedDate) ||
		errors.Is(err, ErrUnknownSector) ||
		errors.Is(err, ErrTooManyArticles) ||
		errors.Is(err, ErrNotFound)
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
