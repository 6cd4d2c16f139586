package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragindex/model"
)

func TestSlice(t *testing.T) {
	docs := Slice{
		{ID: "a", Text: "alpha"},
		{ID: "b", Text: "beta"},
	}

	for range 2 {
		var ids []string
		for doc, err := range docs.LoadDocuments(context.Background()) {
			require.NoError(t, err)
			ids = append(ids, doc.ID)
		}
		assert.Equal(t, []string{"a", "b"}, ids)
	}
}

func TestSliceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var errs []error
	for doc, err := range (Slice{{ID: "a"}}).LoadDocuments(ctx) {
		assert.Equal(t, model.Document{}, doc)
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
}
