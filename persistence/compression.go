package persistence

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the payload compression algorithm.
type Compression uint8

const (
	// CompressionNone stores the payload as is.
	CompressionNone Compression = iota
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4
	// CompressionZstd uses zstd (better ratio).
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// Valid reports whether c is a known algorithm.
func (c Compression) Valid() bool { return c <= CompressionZstd }

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return CompressionNone, fmt.Errorf("persistence: unknown compression %q", s)
	}
}

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxRawSize))
}

// maxRawSize bounds the uncompressed payload a header may declare.
const maxRawSize = math.MaxInt32 * 8

// lz4MaxRatio is the largest expansion an LZ4 block can encode.
const lz4MaxRatio = 255

// compress returns the stored form of raw and the algorithm actually used.
// Input lz4 reports as incompressible is stored uncompressed.
func compress(raw []byte, c Compression) ([]byte, Compression, error) {
	if len(raw) == 0 {
		return raw, c, nil
	}

	switch c {
	case CompressionNone:
		return raw, c, nil
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, dst, nil)
		if err != nil {
			return nil, c, err
		}
		if n == 0 {
			return raw, CompressionNone, nil
		}
		return dst[:n], c, nil
	case CompressionZstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, c, err
		}
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(raw, nil), c, nil
	default:
		return nil, c, fmt.Errorf("persistence: unknown compression %d", c)
	}
}

// decompress restores the raw payload of rawSize bytes.
func decompress(stored []byte, c Compression, rawSize int) ([]byte, error) {
	if rawSize == 0 {
		if len(stored) != 0 {
			return nil, corrupt("payload of %d bytes for empty index", len(stored))
		}
		return nil, nil
	}

	switch c {
	case CompressionNone:
		if len(stored) != rawSize {
			return nil, corrupt("payload size %d, want %d", len(stored), rawSize)
		}
		return stored, nil
	case CompressionLZ4:
		if rawSize/lz4MaxRatio > len(stored) {
			return nil, corrupt("raw size %d exceeds lz4 bound for %d stored bytes", rawSize, len(stored))
		}
		raw := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(stored, raw)
		if err != nil {
			return nil, corrupt("lz4: %v", err)
		}
		if n != rawSize {
			return nil, corrupt("decompressed size %d, want %d", n, rawSize)
		}
		return raw, nil
	case CompressionZstd:
		var fh zstd.Header
		if err := fh.Decode(stored); err != nil {
			return nil, corrupt("zstd header: %v", err)
		}
		if !fh.HasFCS || fh.FrameContentSize != uint64(rawSize) {
			return nil, corrupt("zstd frame declares %d bytes, want %d", fh.FrameContentSize, rawSize)
		}

		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)

		// The frame size is unverified until decoding succeeds.
		prealloc := min(rawSize, len(stored)*lz4MaxRatio)
		raw, err := dec.DecodeAll(stored, make([]byte, 0, prealloc))
		if err != nil {
			return nil, corrupt("zstd: %v", err)
		}
		if len(raw) != rawSize {
			return nil, corrupt("decompressed size %d, want %d", len(raw), rawSize)
		}
		return raw, nil
	default:
		return nil, corrupt("unknown compression %d", c)
	}
}
