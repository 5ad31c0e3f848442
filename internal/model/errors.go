package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyText is returned when extraction is asked to process blank input.
var ErrEmptyText = errors.New("text is empty")

// ErrNotFound is returned by stores when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// ExtractionError reports a failed keyword extraction. Callers treat it as
// recoverable and continue with an empty keyword list.
type ExtractionError struct {
	Source SourceType
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract keywords from %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ParseError reports that a job description could not be turned into a query.
// It blocks the search it occurred in.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not parse job description: %v", e.Err)
	}
	return "could not parse job description"
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError names the input precondition a caller violated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PoolFetchError reports a failed read of one candidate pool.
type PoolFetchError struct {
	Pool PoolSource
	Err  error
}

func (e *PoolFetchError) Error() string {
	return fmt.Sprintf("fetch %s pool: %v", e.Pool, e.Err)
}

func (e *PoolFetchError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a failed history write. It is logged, never
// returned to the caller of a search.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
