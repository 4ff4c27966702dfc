// Package engineerr defines the error taxonomy the retrieval core exposes:
// build errors, search errors, and parse warnings, per the error handling
// design.
package engineerr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when a caller-supplied argument fails validation
	// (e.g. k out of [1,100], empty fund_id on ingestion).
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned by the engine when no corpus generation is loaded.
	ErrNotFound = errors.New("not found")
	// ErrEmbeddingProvider is returned when the injected embedding capability fails.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrDeadlineExceeded is returned when a request's deadline elapses before
	// in-flight embedding/ANN/BM25 calls complete.
	ErrDeadlineExceeded = errors.New("deadline exceeded")
	// ErrBuildFailed is returned for fatal index-build errors (malformed row,
	// duplicate fund_id, embedding dimension mismatch, manifest mismatch).
	ErrBuildFailed = errors.New("index build failed")
	// ErrManifestMismatch names the case where persisted artifact sizes
	// disagree (vector count vs. id-mapping size). No loader in this module
	// performs that comparison, so nothing here returns it.
	ErrManifestMismatch = errors.New("manifest mismatch")
)

// ValidationError represents a rejected input row or field with context.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// RowError represents a rejected corpus row, carrying its source line for
// the build-time line-level error contract.
type RowError struct {
	Line    int
	FundID  string
	Message string
}

func (e *RowError) Error() string {
	if e.FundID != "" {
		return fmt.Sprintf("row %d (fund_id=%s): %s", e.Line, e.FundID, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Line, e.Message)
}

// Wrap wraps an error with additional context, matching the teacher's
// fmt.Errorf("%s: %w", ...) idiom in a single reusable helper.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
