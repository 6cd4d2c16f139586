// Package codec centralizes metadata and report encoding.
//
// Index files record the codec name in their header, so a file written with
// one codec is always decoded with the same one.
package codec

import (
	"errors"
	"fmt"
)

// ErrUnknownCodec is returned by Lookup for names without a built-in codec.
var ErrUnknownCodec = errors.New("unknown codec")

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// Lookup is ByName with an error for unknown names. An empty name selects Default.
func Lookup(name string) (Codec, error) {
	if name == "" {
		return Default, nil
	}
	c, ok := ByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
	return c, nil
}
