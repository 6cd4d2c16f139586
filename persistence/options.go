package persistence

import (
	"github.com/hupe1980/ragindex/codec"
	"github.com/hupe1980/ragindex/internal/fs"
	"github.com/hupe1980/ragindex/resource"
)

// Options configures Save, Load and their blob variants.
type Options struct {
	// Compression is applied to the payload on save. Load reads it from the header.
	Compression Compression

	// Codec encodes entry metadata on save. Load selects the codec named in the header.
	Codec codec.Codec

	// FS is the file system used for local files.
	FS fs.FileSystem

	// UseMmap maps files into memory on load when FS is the local file system.
	UseMmap bool

	// Controller throttles writes on save. Nil means unlimited.
	Controller *resource.Controller
}

// DefaultOptions contains the default persistence options.
var DefaultOptions = Options{
	Compression: CompressionZstd,
	Codec:       codec.Default,
	FS:          fs.Default,
	UseMmap:     true,
}

func applyOptions(optFns []func(o *Options)) Options {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.FS == nil {
		opts.FS = fs.Default
	}
	return opts
}
