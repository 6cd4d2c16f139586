package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// ErrInjected is returned by Provider when a failure rule matches.
var ErrInjected = errors.New("injected embedding failure")

// Provider is a deterministic, scriptable embedding provider for tests.
// Each text maps to a fixed vector derived from its xxhash.
type Provider struct {
	// Dim is the output dimension.
	Dim int

	// FailContaining makes every batch holding a text with this substring fail.
	FailContaining string

	// FailTimes limits injected failures per batch; 0 fails forever.
	FailTimes int

	// Hook runs before each call. A non-nil error fails the call.
	Hook func(ctx context.Context, texts []string) error

	mu       sync.Mutex
	calls    int
	failures map[string]int
	batches  [][]string
}

// Embed implements the embedding provider contract.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	p.calls++
	p.batches = append(p.batches, append([]string(nil), texts...))
	hook := p.Hook
	p.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, texts); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.FailContaining != "" {
		for _, t := range texts {
			if strings.Contains(t, p.FailContaining) && p.shouldFail(texts) {
				return nil, ErrInjected
			}
		}
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = HashVector(t, p.Dim)
	}
	return out, nil
}

func (p *Provider) shouldFail(texts []string) bool {
	if p.FailTimes <= 0 {
		return true
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failures == nil {
		p.failures = make(map[string]int)
	}
	key := strings.Join(texts, "\x00")
	p.failures[key]++
	return p.failures[key] <= p.FailTimes
}

// Calls returns how many times Embed was invoked.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Batches returns the text batches received, in call order.
func (p *Provider) Batches() [][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]string, len(p.batches))
	copy(out, p.batches)
	return out
}

// HashVector returns a deterministic non-zero vector for text.
func HashVector(text string, dim int) []float32 {
	v := make([]float32, dim)
	seed := xxhash.Sum64String(text)
	for i := range v {
		// xorshift64
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		v[i] = float32(seed%2000)/1000 - 1
	}
	v[0] += 2 // keep the vector away from zero
	return v
}
