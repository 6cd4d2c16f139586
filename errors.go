package ragindex

import (
	"errors"
	"fmt"

	"github.com/hupe1980/ragindex/chunker"
	"github.com/hupe1980/ragindex/embedding"
	"github.com/hupe1980/ragindex/index"
	"github.com/hupe1980/ragindex/index/ivf"
	"github.com/hupe1980/ragindex/persistence"
)

var (
	// ErrInvalidConfig is returned for a Config that fails validation.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrInvalidChunkConfig is returned for chunk size/overlap violations.
	ErrInvalidChunkConfig = chunker.ErrInvalidChunkConfig

	// ErrEmbeddingFailed is matched by every failed embedding batch.
	ErrEmbeddingFailed = embedding.ErrEmbeddingFailed

	// ErrDimension is matched by every dimension mismatch.
	ErrDimension = index.ErrDimension

	// ErrEmptyIndex is returned when querying an index without entries.
	ErrEmptyIndex = index.ErrEmptyIndex

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = index.ErrInvalidK

	// ErrPersistenceIO is matched by every I/O failure while saving or loading.
	ErrPersistenceIO = persistence.ErrPersistenceIO

	// ErrCorruptIndexFile is returned for index files that fail verification.
	ErrCorruptIndexFile = persistence.ErrCorruptIndexFile
)

// ConfigError describes one invalid Config field.
type ConfigError struct {
	Field  string
	Reason string
	cause  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("ragindex: invalid config: %s %s", e.Field, e.Reason)
}

// Unwrap returns the underlying error, if any.
func (e *ConfigError) Unwrap() error { return e.cause }

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }

// translateError folds option errors of the sub-packages into ErrInvalidConfig.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrInvalidConfig) {
		return err
	}

	var ce *chunker.ConfigError
	if errors.As(err, &ce) {
		return &ConfigError{Field: "ChunkSize/ChunkOverlap", Reason: fmt.Sprintf("(%d/%d)", ce.Size, ce.Overlap), cause: err}
	}
	if errors.Is(err, embedding.ErrInvalidOptions) {
		return &ConfigError{Field: "BatchSize/EmbedTimeout", Reason: err.Error(), cause: err}
	}
	if errors.Is(err, ivf.ErrInvalidOptions) {
		return &ConfigError{Field: "IVF", Reason: err.Error(), cause: err}
	}
	if errors.Is(err, index.ErrInvalidMetric) {
		return &ConfigError{Field: "Metric", Reason: err.Error(), cause: err}
	}

	return err
}
