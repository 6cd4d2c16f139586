package embedding

import (
	"errors"
	"fmt"
)

var (
	// ErrEmbeddingFailed is matched by every batch failure.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrInvalidOptions is returned by New for bad options.
	ErrInvalidOptions = errors.New("invalid embedding options")
)

// BatchError reports a failed provider call for one batch.
type BatchError struct {
	// Batch is the batch number.
	Batch int

	// SegmentIDs lists every segment of the batch.
	SegmentIDs []string

	// Err is the cause: the provider error, the context error or a
	// response shape violation.
	Err error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("embedding: batch %d (%d segments): %v", e.Batch, len(e.SegmentIDs), e.Err)
}

// Unwrap returns the underlying error.
func (e *BatchError) Unwrap() error { return e.Err }

// Is reports whether target is ErrEmbeddingFailed.
func (e *BatchError) Is(target error) bool { return target == ErrEmbeddingFailed }
