package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragindex/model"
)

func setup(t *testing.T) *Source {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.db.Exec(`CREATE TABLE documents (id TEXT PRIMARY KEY, content TEXT NOT NULL, meta TEXT)`)
	require.NoError(t, err)
	_, err = s.db.Exec(`INSERT INTO documents (id, content, meta) VALUES
		('b', 'bravo text', '{"lang":"en"}'),
		('a', 'alpha text', NULL),
		('c', 'charlie', 'not json')`)
	require.NoError(t, err)
	return s
}

func TestSource(t *testing.T) {
	s := setup(t)

	for range 2 {
		var (
			docs []model.Document
			errs []error
		)
		for doc, err := range s.LoadDocuments(context.Background()) {
			if err != nil {
				errs = append(errs, err)
				continue
			}
			docs = append(docs, doc)
		}

		require.Len(t, docs, 2)
		assert.Equal(t, model.Document{ID: "a", Text: "alpha text"}, docs[0])
		assert.Equal(t, model.Document{ID: "b", Text: "bravo text", Metadata: map[string]string{"lang": "en"}}, docs[1])

		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Error(), "metadata of c")
	}
}

func TestSourceMissingTable(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "empty.db"), func(o *Options) { o.Table = "nothing" })
	require.NoError(t, err)
	defer s.Close()

	var errs []error
	for _, err := range s.LoadDocuments(context.Background()) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.Error(t, errs[0])
}

func TestInvalidTableName(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "x.db"), func(o *Options) { o.Table = "docs; DROP TABLE x" })
	assert.Error(t, err)
}
