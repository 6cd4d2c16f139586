package ragindex

import (
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/ragindex/chunker"
	"github.com/hupe1980/ragindex/distance"
	"github.com/hupe1980/ragindex/index/ivf"
)

// IndexKind selects the index implementation.
type IndexKind int

const (
	// IndexFlat is the exact brute-force index.
	IndexFlat IndexKind = iota
	// IndexIVF is the approximate inverted-file index.
	IndexIVF
)

func (k IndexKind) String() string {
	switch k {
	case IndexFlat:
		return "flat"
	case IndexIVF:
		return "ivf"
	default:
		return fmt.Sprintf("IndexKind(%d)", int(k))
	}
}

// ParseIndexKind parses "flat" or "ivf".
func ParseIndexKind(s string) (IndexKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "flat":
		return IndexFlat, nil
	case "ivf":
		return IndexIVF, nil
	default:
		return IndexFlat, fmt.Errorf("ragindex: unknown index kind %q", s)
	}
}

// RetryPolicy controls re-embedding of failed batches.
// Backoff doubles after every attempt up to MaxBackoff.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first. 0 disables retries.
	MaxRetries int

	// Backoff is the delay before the first retry.
	Backoff time.Duration

	// MaxBackoff caps the delay. 0 means no cap.
	MaxBackoff time.Duration
}

// delay returns the wait before retry number attempt (1-based).
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.Backoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 {
		d = min(d, p.MaxBackoff)
	}
	return d
}

// IVFConfig tunes the IVF index. Zero fields take the ivf package defaults.
type IVFConfig struct {
	NumLists       int
	NProbes        int
	TrainThreshold int
	Seed           int64
}

// Config is the explicit configuration of a Pipeline.
type Config struct {
	// ChunkSize is the maximum segment length in runes.
	ChunkSize int

	// ChunkOverlap is the number of runes shared by consecutive segments.
	ChunkOverlap int

	// BatchSize is the maximum number of segments per provider call.
	BatchSize int

	// Metric is the index metric.
	Metric distance.Metric

	// Dimension fixes the vector dimension. 0 lets the first vector decide.
	Dimension int

	// IndexKind selects the index implementation.
	IndexKind IndexKind

	// IVF tunes the IVF index when IndexKind is IndexIVF.
	IVF IVFConfig

	// DocumentConcurrency is the number of documents processed at once.
	DocumentConcurrency int

	// BatchConcurrency is the number of batches of one document embedded at once.
	BatchConcurrency int

	// EmbedTimeout bounds each provider call. 0 means no timeout.
	EmbedTimeout time.Duration

	// Retry controls re-embedding of failed batches.
	Retry RetryPolicy

	// MaxConcurrentCalls bounds provider calls across all documents. 0 means
	// DocumentConcurrency * BatchConcurrency.
	MaxConcurrentCalls int

	// CallsPerSecond limits the provider request rate. 0 means unlimited.
	CallsPerSecond float64

	// MemoryLimitBytes bounds the text of documents in flight. 0 means unlimited.
	MemoryLimitBytes int64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize:           chunker.DefaultSize,
		ChunkOverlap:        chunker.DefaultOverlap,
		BatchSize:           32,
		Metric:              distance.MetricCosine,
		IndexKind:           IndexFlat,
		DocumentConcurrency: 4,
		BatchConcurrency:    2,
		EmbedTimeout:        60 * time.Second,
		Retry: RetryPolicy{
			MaxRetries: 2,
			Backoff:    500 * time.Millisecond,
			MaxBackoff: 10 * time.Second,
		},
	}
}

// Validate checks every field and returns the first violation as a
// *ConfigError.
func (c Config) Validate() error {
	if err := chunker.Validate(c.ChunkSize, c.ChunkOverlap); err != nil {
		return translateError(err)
	}

	checks := []struct {
		bad    bool
		field  string
		reason string
	}{
		{c.BatchSize < 1, "BatchSize", "must be >= 1"},
		{!c.Metric.Valid(), "Metric", "is unknown"},
		{c.Dimension < 0, "Dimension", "must be >= 0"},
		{c.IndexKind != IndexFlat && c.IndexKind != IndexIVF, "IndexKind", "is unknown"},
		{c.IVF.NumLists < 0 || c.IVF.NProbes < 0 || c.IVF.TrainThreshold < 0, "IVF", "values must be >= 0"},
		{c.DocumentConcurrency < 1, "DocumentConcurrency", "must be >= 1"},
		{c.BatchConcurrency < 1, "BatchConcurrency", "must be >= 1"},
		{c.EmbedTimeout < 0, "EmbedTimeout", "must be >= 0"},
		{c.Retry.MaxRetries < 0, "Retry.MaxRetries", "must be >= 0"},
		{c.Retry.Backoff < 0 || c.Retry.MaxBackoff < 0, "Retry.Backoff", "must be >= 0"},
		{c.MaxConcurrentCalls < 0, "MaxConcurrentCalls", "must be >= 0"},
		{c.CallsPerSecond < 0, "CallsPerSecond", "must be >= 0"},
		{c.MemoryLimitBytes < 0, "MemoryLimitBytes", "must be >= 0"},
	}
	for _, chk := range checks {
		if chk.bad {
			return &ConfigError{Field: chk.field, Reason: chk.reason}
		}
	}
	return nil
}

func (c Config) ivfOptions(o *ivf.Options) {
	o.Dimension = c.Dimension
	o.Metric = c.Metric
	if c.IVF.NumLists > 0 {
		o.NumLists = c.IVF.NumLists
	}
	if c.IVF.NProbes > 0 {
		o.NProbes = c.IVF.NProbes
	}
	if c.IVF.TrainThreshold > 0 {
		o.TrainThreshold = c.IVF.TrainThreshold
	}
	if c.IVF.Seed != 0 {
		o.Seed = c.IVF.Seed
	}
}
