// Package source defines where documents come from.
//
// A Source yields documents lazily. Ranging over the sequence twice reads the
// source twice and yields the same documents. Per-document errors are yielded
// alongside a zero Document and do not stop the sequence; consumers decide
// whether to continue.
package source

import (
	"context"
	"iter"

	"github.com/hupe1980/ragindex/model"
)

// Source yields raw documents.
type Source interface {
	LoadDocuments(ctx context.Context) iter.Seq2[model.Document, error]
}

// Slice is an in-memory Source.
type Slice []model.Document

// LoadDocuments yields the documents in order. It stops early when ctx is
// cancelled, yielding the context error last.
func (s Slice) LoadDocuments(ctx context.Context) iter.Seq2[model.Document, error] {
	return func(yield func(model.Document, error) bool) {
		for _, doc := range s {
			if err := ctx.Err(); err != nil {
				yield(model.Document{}, err)
				return
			}
			if !yield(doc, nil) {
				return
			}
		}
	}
}

// Func adapts a function to Source.
type Func func(ctx context.Context) iter.Seq2[model.Document, error]

// LoadDocuments calls f.
func (f Func) LoadDocuments(ctx context.Context) iter.Seq2[model.Document, error] {
	return f(ctx)
}
