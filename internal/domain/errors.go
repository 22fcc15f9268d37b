package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrContentNotFound signals a missing content row.
	ErrContentNotFound = errors.New("content not found")
	// ErrDimensionMismatch signals a vector of the wrong length at ingestion.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingNotFound signals a similarity request for an item with no stored vector.
	ErrEmbeddingNotFound = errors.New("embedding not found")
	// ErrInvalidFilter signals a malformed filter predicate, rejected before any query runs.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidRequest signals malformed query parameters.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrLogEntryNotFound signals a missing query log entry.
	ErrLogEntryNotFound = errors.New("query log entry not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// DimensionMismatchError wraps ErrDimensionMismatch with the offending lengths.
type DimensionMismatchError struct {
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: got %d, want %d", ErrDimensionMismatch.Error(), e.Got, e.Want)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(got, want int) error {
	return &DimensionMismatchError{Got: got, Want: want}
}
