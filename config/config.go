// Package config loads the application configuration of the ragindex
// command from YAML and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/ragindex"
	"github.com/hupe1980/ragindex/codec"
	"github.com/hupe1980/ragindex/distance"
	"github.com/hupe1980/ragindex/persistence"
)

// IVFConfig tunes the IVF index.
type IVFConfig struct {
	NumLists       int   `yaml:"num_lists"`
	NProbes        int   `yaml:"nprobes"`
	TrainThreshold int   `yaml:"train_threshold"`
	Seed           int64 `yaml:"seed"`
}

// IndexConfig describes the index and its file.
type IndexConfig struct {
	Path        string    `yaml:"path"`
	Kind        string    `yaml:"kind"`
	Metric      string    `yaml:"metric"`
	Dimension   int       `yaml:"dimension"`
	Compression string    `yaml:"compression"`
	Codec       string    `yaml:"codec"`
	IVF         IVFConfig `yaml:"ivf"`
}

// ChunkerConfig configures segmentation.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// HashingConfig configures the offline hashing embedder.
type HashingConfig struct {
	Dimension int  `yaml:"dimension"`
	Bigrams   bool `yaml:"bigrams"`
}

// OllamaConfig configures the Ollama embedder. The server address comes
// from OLLAMA_HOST.
type OllamaConfig struct {
	Model     string `yaml:"model"`
	KeepAlive string `yaml:"keep_alive"`
}

// OpenAIConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	Type        string        `yaml:"type"`
	BatchSize   int           `yaml:"batch_size"`
	TimeoutSecs int           `yaml:"timeout_secs"`
	Hashing     HashingConfig `yaml:"hashing"`
	Ollama      *OllamaConfig `yaml:"ollama,omitempty"`
	OpenAI      *OpenAIConfig `yaml:"openai,omitempty"`
}

// DirConfig configures the directory source.
type DirConfig struct {
	Root       string   `yaml:"root"`
	Extensions []string `yaml:"extensions"`
}

// SQLiteConfig configures the SQLite source.
type SQLiteConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// SourceConfig selects the document source.
type SourceConfig struct {
	Type   string        `yaml:"type"`
	Dir    *DirConfig    `yaml:"dir,omitempty"`
	SQLite *SQLiteConfig `yaml:"sqlite,omitempty"`
}

// S3Config configures the S3 store. A non-empty CommitTable publishes
// through DynamoDB.
type S3Config struct {
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Region      string `yaml:"region"`
	CommitTable string `yaml:"commit_table"`
}

// MinioConfig configures the MinIO store. Credentials are read from the
// named environment variables.
type MinioConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	AccessKeyEnv string `yaml:"access_key_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`
	UseSSL       bool   `yaml:"use_ssl"`
}

// StoreConfig selects where snapshots are published. An empty Type keeps
// the index in Index.Path only.
type StoreConfig struct {
	Type  string       `yaml:"type"`
	Name  string       `yaml:"name"`
	Local string       `yaml:"local"`
	S3    *S3Config    `yaml:"s3,omitempty"`
	Minio *MinioConfig `yaml:"minio,omitempty"`
}

// PipelineConfig tunes concurrency and retries.
type PipelineConfig struct {
	DocumentConcurrency int     `yaml:"document_concurrency"`
	BatchConcurrency    int     `yaml:"batch_concurrency"`
	MaxRetries          *int    `yaml:"max_retries"`
	BackoffMillis       int     `yaml:"backoff_ms"`
	MaxBackoffMillis    int     `yaml:"max_backoff_ms"`
	MaxConcurrentCalls  int     `yaml:"max_concurrent_calls"`
	CallsPerSecond      float64 `yaml:"calls_per_second"`
	MemoryLimitBytes    int64   `yaml:"memory_limit_bytes"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Index    IndexConfig    `yaml:"index"`
	Chunker  ChunkerConfig  `yaml:"chunker"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Source   SourceConfig   `yaml:"source"`
	Store    StoreConfig    `yaml:"store"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Log      LogConfig      `yaml:"log"`
}

// LoadEnv loads .env files into the process environment. Missing files are
// ignored; variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads a config from path. If the file does not exist, it returns
// the defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML and applies the defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Save writes the config to path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the default configuration: a flat cosine index fed from
// ./docs and embedded offline.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	def := ragindex.DefaultConfig()

	if cfg.Index.Path == "" {
		cfg.Index.Path = "index.rgx"
	}
	if cfg.Index.Kind == "" {
		cfg.Index.Kind = def.IndexKind.String()
	}
	if cfg.Index.Metric == "" {
		cfg.Index.Metric = def.Metric.String()
	}
	if cfg.Index.Compression == "" {
		cfg.Index.Compression = persistence.DefaultOptions.Compression.String()
	}
	if cfg.Index.Codec == "" {
		cfg.Index.Codec = codec.Default.Name()
	}

	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = def.ChunkSize
		if cfg.Chunker.Overlap == 0 {
			cfg.Chunker.Overlap = def.ChunkOverlap
		}
	}

	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hashing"
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = def.BatchSize
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = int(def.EmbedTimeout / time.Second)
	}
	if cfg.Embedder.Hashing.Dimension == 0 {
		cfg.Embedder.Hashing.Dimension = 256
		cfg.Embedder.Hashing.Bigrams = true
	}
	switch cfg.Embedder.Type {
	case "ollama":
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = &OllamaConfig{}
		}
		if cfg.Embedder.Ollama.Model == "" {
			cfg.Embedder.Ollama.Model = "nomic-embed-text"
		}
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIConfig{}
		}
		o := cfg.Embedder.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
	}

	if cfg.Source.Type == "" {
		cfg.Source.Type = "dir"
	}
	switch cfg.Source.Type {
	case "dir":
		if cfg.Source.Dir == nil {
			cfg.Source.Dir = &DirConfig{}
		}
		if cfg.Source.Dir.Root == "" {
			cfg.Source.Dir.Root = "docs"
		}
	case "sqlite":
		if cfg.Source.SQLite == nil {
			cfg.Source.SQLite = &SQLiteConfig{}
		}
		if cfg.Source.SQLite.Table == "" {
			cfg.Source.SQLite.Table = "documents"
		}
	}

	if cfg.Store.Type != "" && cfg.Store.Name == "" {
		cfg.Store.Name = filepath.Base(cfg.Index.Path)
	}
	if m := cfg.Store.Minio; m != nil {
		if m.AccessKeyEnv == "" {
			m.AccessKeyEnv = "MINIO_ACCESS_KEY"
		}
		if m.SecretKeyEnv == "" {
			m.SecretKeyEnv = "MINIO_SECRET_KEY"
		}
	}

	p := &cfg.Pipeline
	if p.DocumentConcurrency == 0 {
		p.DocumentConcurrency = def.DocumentConcurrency
	}
	if p.BatchConcurrency == 0 {
		p.BatchConcurrency = def.BatchConcurrency
	}
	if p.MaxRetries == nil {
		n := def.Retry.MaxRetries
		p.MaxRetries = &n
	}
	if p.BackoffMillis == 0 {
		p.BackoffMillis = int(def.Retry.Backoff / time.Millisecond)
	}
	if p.MaxBackoffMillis == 0 {
		p.MaxBackoffMillis = int(def.Retry.MaxBackoff / time.Millisecond)
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// PipelineConfig converts the application config to a ragindex.Config and
// validates it.
func (c *AppConfig) PipelineConfig() (ragindex.Config, error) {
	kind, err := ragindex.ParseIndexKind(c.Index.Kind)
	if err != nil {
		return ragindex.Config{}, err
	}
	metric, err := distance.Parse(c.Index.Metric)
	if err != nil {
		return ragindex.Config{}, err
	}

	cfg := ragindex.DefaultConfig()
	cfg.ChunkSize = c.Chunker.Size
	cfg.ChunkOverlap = c.Chunker.Overlap
	cfg.BatchSize = c.Embedder.BatchSize
	cfg.Metric = metric
	cfg.Dimension = c.Index.Dimension
	cfg.IndexKind = kind
	cfg.IVF = ragindex.IVFConfig{
		NumLists:       c.Index.IVF.NumLists,
		NProbes:        c.Index.IVF.NProbes,
		TrainThreshold: c.Index.IVF.TrainThreshold,
		Seed:           c.Index.IVF.Seed,
	}
	cfg.EmbedTimeout = time.Duration(c.Embedder.TimeoutSecs) * time.Second
	cfg.DocumentConcurrency = c.Pipeline.DocumentConcurrency
	cfg.BatchConcurrency = c.Pipeline.BatchConcurrency
	if c.Pipeline.MaxRetries != nil {
		cfg.Retry.MaxRetries = *c.Pipeline.MaxRetries
	}
	cfg.Retry.Backoff = time.Duration(c.Pipeline.BackoffMillis) * time.Millisecond
	cfg.Retry.MaxBackoff = time.Duration(c.Pipeline.MaxBackoffMillis) * time.Millisecond
	cfg.MaxConcurrentCalls = c.Pipeline.MaxConcurrentCalls
	cfg.CallsPerSecond = c.Pipeline.CallsPerSecond
	cfg.MemoryLimitBytes = c.Pipeline.MemoryLimitBytes

	if err := cfg.Validate(); err != nil {
		return ragindex.Config{}, err
	}
	return cfg, nil
}

// PersistenceOptions returns the save options named by the index section.
func (c *AppConfig) PersistenceOptions() (func(o *persistence.Options), error) {
	comp, err := persistence.ParseCompression(c.Index.Compression)
	if err != nil {
		return nil, err
	}
	cd, err := codec.Lookup(c.Index.Codec)
	if err != nil {
		return nil, err
	}
	return func(o *persistence.Options) {
		o.Compression = comp
		o.Codec = cd
	}, nil
}
