// Package errors provides centralized error definitions for the scoring engine.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Kind classifies a failure for placeholder results and metrics labels
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import (
	"errors"
	"fmt"
)

// Circuit breaker errors.
var (
	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// Collaborator errors.
var (
	// ErrEncoderUnavailable indicates no text encoder could serve the request.
	ErrEncoderUnavailable = errors.New("text encoder unavailable")

	// ErrAnalyzerUnavailable indicates the linguistic analyzer is not configured or unreachable.
	ErrAnalyzerUnavailable = errors.New("linguistic analyzer unavailable")
)

// Metric errors.
var (
	// ErrEmptyVocabulary indicates a lexical vectorizer found no terms.
	ErrEmptyVocabulary = errors.New("empty vocabulary")

	// ErrDimensionMismatch indicates two vectors of different length were compared.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrMissingEmbedding indicates a statement was not present in the embedding cache.
	ErrMissingEmbedding = errors.New("embedding missing from cache")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownOperation indicates a transport asked for an operation outside the closed table.
	ErrUnknownOperation = errors.New("unknown operation")
)

// Kind classifies where a failure originated.
type Kind string

// Kind values.
const (
	KindEncoder  Kind = "encoder"
	KindAnalyzer Kind = "analyzer"
	KindMetric   Kind = "metric"
	KindPair     Kind = "pair"
	KindPanic    Kind = "panic"
	KindPool     Kind = "pool"
	KindInput    Kind = "input"
)

// ScoringError carries a failure kind and the operation that produced it.
type ScoringError struct {
	Kind Kind
	Op   string
	Err  error
}

// New wraps err with a kind and operation name. A nil err yields nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}

	return &ScoringError{Kind: kind, Op: op, Err: err}
}

func (e *ScoringError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}

	return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *ScoringError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first ScoringError in the chain, or KindPair when none is found.
func KindOf(err error) Kind {
	var se *ScoringError
	if errors.As(err, &se) {
		return se.Kind
	}

	return KindPair
}

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
