package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/ragindex"
	"github.com/hupe1980/ragindex/blobstore"
	minioblob "github.com/hupe1980/ragindex/blobstore/minio"
	s3blob "github.com/hupe1980/ragindex/blobstore/s3"
	"github.com/hupe1980/ragindex/config"
	"github.com/hupe1980/ragindex/embedding"
	"github.com/hupe1980/ragindex/embedding/hashing"
	"github.com/hupe1980/ragindex/embedding/ollama"
	"github.com/hupe1980/ragindex/embedding/openai"
	"github.com/hupe1980/ragindex/source"
	"github.com/hupe1980/ragindex/source/dir"
	"github.com/hupe1980/ragindex/source/sqlite"
)

func newProvider(cfg *config.AppConfig) (embedding.Provider, error) {
	e := cfg.Embedder
	switch e.Type {
	case "hashing":
		return hashing.New(e.Hashing.Dimension, func(o *hashing.Options) {
			o.Bigrams = e.Hashing.Bigrams
		})
	case "ollama":
		var keepAlive time.Duration
		if e.Ollama.KeepAlive != "" {
			d, err := time.ParseDuration(e.Ollama.KeepAlive)
			if err != nil {
				return nil, fmt.Errorf("ollama keep_alive: %w", err)
			}
			keepAlive = d
		}
		return ollama.NewFromEnvironment(e.Ollama.Model, func(o *ollama.Options) {
			o.KeepAlive = keepAlive
		})
	case "openai":
		return openai.NewClient(openai.Config{
			BaseURL:    e.OpenAI.BaseURL,
			APIKeyEnv:  e.OpenAI.APIKeyEnv,
			Model:      e.OpenAI.Model,
			Dimensions: e.OpenAI.Dimensions,
			Timeout:    time.Duration(e.OpenAI.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown embedder: %s", e.Type)
	}
}

// newSource returns the configured source and a function releasing it.
func newSource(cfg *config.AppConfig) (source.Source, func() error, error) {
	s := cfg.Source
	switch s.Type {
	case "dir":
		src := dir.New(s.Dir.Root, func(o *dir.Options) {
			if len(s.Dir.Extensions) > 0 {
				o.Extensions = s.Dir.Extensions
			}
		})
		return src, func() error { return nil }, nil
	case "sqlite":
		src, err := sqlite.Open(s.SQLite.DSN, func(o *sqlite.Options) {
			o.Table = s.SQLite.Table
		})
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown source: %s", s.Type)
	}
}

// newStore returns the configured snapshot store, or nil when none is set.
func newStore(ctx context.Context, cfg *config.AppConfig) (blobstore.BlobStore, error) {
	st := cfg.Store
	switch st.Type {
	case "":
		return nil, nil
	case "local":
		return blobstore.NewLocalStore(st.Local), nil
	case "s3":
		if st.S3 == nil || st.S3.Bucket == "" {
			return nil, fmt.Errorf("s3 store: bucket missing")
		}
		var optFns []func(*awsconfig.LoadOptions) error
		if st.S3.Region != "" {
			optFns = append(optFns, awsconfig.WithRegion(st.S3.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}

		store := s3blob.NewStore(awss3.NewFromConfig(awsCfg), st.S3.Bucket, st.S3.Prefix)
		if st.S3.CommitTable == "" {
			return store, nil
		}
		return s3blob.NewCommitStore(store, dynamodb.NewFromConfig(awsCfg), st.S3.CommitTable), nil
	case "minio":
		m := st.Minio
		if m == nil || m.Endpoint == "" || m.Bucket == "" {
			return nil, fmt.Errorf("minio store: endpoint and bucket required")
		}
		client, err := minio.New(m.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(os.Getenv(m.AccessKeyEnv), os.Getenv(m.SecretKeyEnv), ""),
			Secure: m.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return minioblob.NewStore(client, m.Bucket, m.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown store: %s", st.Type)
	}
}

func newLogger(cfg *config.AppConfig) (*ragindex.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return nil, err
	}
	switch cfg.Log.Format {
	case "json":
		return ragindex.NewJSONLogger(level), nil
	case "text":
		return ragindex.NewTextLogger(level), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", cfg.Log.Format)
	}
}

// pipelineOptions assembles the ragindex options shared by every command.
func pipelineOptions(cfg *config.AppConfig) ([]ragindex.Option, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	persist, err := cfg.PersistenceOptions()
	if err != nil {
		return nil, err
	}
	return []ragindex.Option{
		ragindex.WithLogger(logger),
		ragindex.WithPersistenceOptions(persist),
	}, nil
}
