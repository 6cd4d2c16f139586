// Package ollama provides an embedding provider backed by an Ollama server.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/ollama/ollama/api"
)

// Client is the subset of *api.Client used by Provider.
type Client interface {
	Embed(ctx context.Context, req *api.EmbedRequest) (*api.EmbedResponse, error)
}

// Options configures a Provider.
type Options struct {
	// KeepAlive controls how long the model stays loaded after a call.
	// 0 uses the server default.
	KeepAlive time.Duration

	// Truncate lets the server cut inputs longer than the model context.
	Truncate bool
}

// Provider embeds texts with the Ollama /api/embed endpoint.
type Provider struct {
	client Client
	model  string
	opts   Options
}

// New creates a provider for model.
func New(client Client, model string, optFns ...func(o *Options)) *Provider {
	opts := Options{Truncate: true}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, model: model, opts: opts}
}

// NewFromEnvironment creates a provider using OLLAMA_HOST
// (default http://127.0.0.1:11434).
func NewFromEnvironment(model string, optFns ...func(o *Options)) (*Provider, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	return New(client, model, optFns...), nil
}

// Model returns the model name.
func (p *Provider) Model() string { return p.model }

// Embed implements embedding.Provider.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	truncate := p.opts.Truncate
	req := &api.EmbedRequest{
		Model:    p.model,
		Input:    texts,
		Truncate: &truncate,
	}
	if p.opts.KeepAlive > 0 {
		req.KeepAlive = &api.Duration{Duration: p.opts.KeepAlive}
	}

	resp, err := p.client.Embed(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ollama: embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama: got %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}
