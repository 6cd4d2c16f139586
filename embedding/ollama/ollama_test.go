package ollama

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderHTTP(t *testing.T) {
	var got api.EmbedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":      got.Model,
			"embeddings": [][]float32{{1, 0}, {0, 1}},
		})
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	p := New(api.NewClient(u, srv.Client()), "nomic-embed-text", func(o *Options) {
		o.KeepAlive = time.Minute
	})
	assert.Equal(t, "nomic-embed-text", p.Model())

	vecs, err := p.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)

	assert.Equal(t, "nomic-embed-text", got.Model)
	assert.Equal(t, []any{"a", "b"}, got.Input)
	require.NotNil(t, got.Truncate)
	assert.True(t, *got.Truncate)
}

type fakeClient struct {
	resp *api.EmbedResponse
	err  error
}

func (f *fakeClient) Embed(context.Context, *api.EmbedRequest) (*api.EmbedResponse, error) {
	return f.resp, f.err
}

func TestProviderErrors(t *testing.T) {
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := New(&fakeClient{err: boom}, "m").Embed(ctx, []string{"a"})
	assert.ErrorIs(t, err, boom)

	_, err = New(&fakeClient{resp: &api.EmbedResponse{Embeddings: [][]float32{{1}}}}, "m").Embed(ctx, []string{"a", "b"})
	assert.Error(t, err)

	vecs, err := New(&fakeClient{err: boom}, "m").Embed(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}
