// Package hashing provides a deterministic feature-hashing embedding
// provider. It needs no network access and is meant for offline runs and
// tests.
package hashing

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/ragindex/distance"
)

// Provider embeds text by hashing lower-cased word tokens and their bigrams
// into a fixed number of signed buckets. The result is L2-normalized.
type Provider struct {
	dim     int
	bigrams bool
}

// Options configures a Provider.
type Options struct {
	// Bigrams adds adjacent token pairs as features.
	Bigrams bool
}

// New creates a provider producing vectors of dimension dim.
func New(dim int, optFns ...func(o *Options)) (*Provider, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("hashing: dimension must be positive, got %d", dim)
	}

	opts := Options{Bigrams: true}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Provider{dim: dim, bigrams: opts.Bigrams}, nil
}

// Dimension returns the output dimension.
func (p *Provider) Dimension() int { return p.dim }

// Embed implements embedding.Provider.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = p.vector(t)
	}
	return out, nil
}

func (p *Provider) vector(text string) []float32 {
	v := make([]float32, p.dim)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for i, tok := range tokens {
		p.add(v, tok)
		if p.bigrams && i > 0 {
			p.add(v, tokens[i-1]+" "+tok)
		}
	}

	if distance.NormalizeL2InPlace(v) {
		return v
	}
	// No features: a fixed unit vector keeps every metric defined.
	v[0] = 1
	return v
}

func (p *Provider) add(v []float32, feature string) {
	h := xxhash.Sum64String(feature)
	idx := h % uint64(p.dim)
	if h>>63 == 1 {
		v[idx]--
	} else {
		v[idx]++
	}
}
