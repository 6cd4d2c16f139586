package ragindex

import (
	"log/slog"

	"github.com/hupe1980/ragindex/persistence"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	persistence      []func(o *persistence.Options)
}

// Option configures New and Open.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &ragindex.BasicMetricsCollector{}
//	p, _ := ragindex.New(cfg, provider, ragindex.WithMetricsCollector(metrics))
//	// ... ingest ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := ragindex.NewJSONLogger(slog.LevelInfo)
//	p, _ := ragindex.New(cfg, provider, ragindex.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithPersistenceOptions configures Save, SaveBlob and Open.
//
// Example:
//
//	ragindex.WithPersistenceOptions(func(o *persistence.Options) {
//	    o.Compression = persistence.CompressionLZ4
//	})
func WithPersistenceOptions(optFns ...func(o *persistence.Options)) Option {
	return func(o *options) {
		o.persistence = append(o.persistence, optFns...)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
