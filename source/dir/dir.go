// Package dir reads documents from plain text files under a directory.
package dir

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/ragindex/model"
)

// DefaultExtensions are the file extensions read by default.
var DefaultExtensions = []string{".txt", ".md"}

// Options configures a Source.
type Options struct {
	// Extensions lists the file extensions to read, compared case-insensitively.
	Extensions []string

	// FS overrides the file system rooted at the directory. Used by tests.
	FS fs.FS
}

// Source walks a directory tree. Each matching file becomes one document whose
// ID is its slash-separated path relative to the root. Files are visited in
// lexical order.
type Source struct {
	root string
	fsys fs.FS
	exts []string
}

// New creates a Source reading files under root.
func New(root string, optFns ...func(o *Options)) *Source {
	opts := Options{Extensions: DefaultExtensions}
	for _, fn := range optFns {
		fn(&opts)
	}

	fsys := opts.FS
	if fsys == nil {
		fsys = os.DirFS(root)
	}

	exts := make([]string, len(opts.Extensions))
	for i, e := range opts.Extensions {
		exts[i] = strings.ToLower(e)
	}

	return &Source{root: root, fsys: fsys, exts: exts}
}

// LoadDocuments implements source.Source.
func (s *Source) LoadDocuments(ctx context.Context) iter.Seq2[model.Document, error] {
	return func(yield func(model.Document, error) bool) {
		err := fs.WalkDir(s.fsys, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == "." {
					return err
				}
				if !yield(model.Document{}, fmt.Errorf("dir: %s: %w", path, err)) {
					return fs.SkipAll
				}
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() || !s.match(path) {
				return nil
			}

			doc, err := s.read(path)
			if !yield(doc, err) {
				return fs.SkipAll
			}
			return nil
		})
		if err != nil {
			yield(model.Document{}, fmt.Errorf("dir: walk %s: %w", s.root, err))
		}
	}
}

func (s *Source) match(path string) bool {
	return slices.Contains(s.exts, strings.ToLower(filepath.Ext(path)))
}

func (s *Source) read(path string) (model.Document, error) {
	data, err := fs.ReadFile(s.fsys, path)
	if err != nil {
		return model.Document{}, fmt.Errorf("dir: read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return model.Document{}, fmt.Errorf("dir: %s is not valid UTF-8", path)
	}

	return model.Document{
		ID:   path,
		Text: string(data),
		Metadata: map[string]string{
			"source": filepath.ToSlash(filepath.Join(s.root, path)),
			"size":   strconv.Itoa(len(data)),
		},
	}, nil
}
