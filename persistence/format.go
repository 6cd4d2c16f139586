package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/hupe1980/ragindex/distance"
)

const (
	// Version is the current file format version.
	Version = 1

	codecNameSize = 16
)

// Magic identifies ragindex files.
var Magic = [4]byte{'R', 'I', 'X', '1'}

// HeaderSize is the encoded size of FileHeader in bytes.
var HeaderSize = binary.Size(FileHeader{})

// FileHeader is the fixed-size header at the start of every index file.
type FileHeader struct {
	Magic       [4]byte
	Version     uint16
	Metric      uint8
	Compression uint8
	Codec       [codecNameSize]byte // NUL-padded codec name
	Dimension   uint32
	Count       uint64 // Number of entries
	RawSize     uint64 // Uncompressed payload size
	StoredSize  uint64 // Payload size on disk
	Checksum    uint32 // CRC32-C of header (checksum zeroed) and raw payload
	Reserved    [4]byte
}

// CodecName returns the codec name stored in the header.
func (h *FileHeader) CodecName() string {
	return strings.TrimRight(string(h.Codec[:]), "\x00")
}

func (h *FileHeader) setCodecName(name string) error {
	if len(name) > codecNameSize {
		return fmt.Errorf("persistence: codec name %q longer than %d bytes", name, codecNameSize)
	}
	h.Codec = [codecNameSize]byte{}
	copy(h.Codec[:], name)
	return nil
}

// marshal encodes the header. The checksum field is zeroed when zeroSum is set.
func (h FileHeader) marshal(zeroSum bool) []byte {
	if zeroSum {
		h.Checksum = 0
	}
	var buf bytes.Buffer
	buf.Grow(HeaderSize)
	// Writes to a bytes.Buffer cannot fail.
	_ = binary.Write(&buf, binary.LittleEndian, &h)
	return buf.Bytes()
}

func parseHeader(data []byte) (*FileHeader, error) {
	if len(data) < HeaderSize {
		return nil, corrupt("file too short for header: %d bytes", len(data))
	}

	var h FileHeader
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &h); err != nil {
		return nil, corrupt("header: %v", err)
	}
	if h.Magic != Magic {
		return nil, corrupt("invalid magic %q", h.Magic[:])
	}
	if h.Version != Version {
		return nil, corrupt("unsupported version %d", h.Version)
	}
	if !distance.Metric(h.Metric).Valid() {
		return nil, corrupt("unknown metric %d", h.Metric)
	}
	if !Compression(h.Compression).Valid() {
		return nil, corrupt("unknown compression %d", h.Compression)
	}
	return &h, nil
}

// Info summarizes an index file without decoding its entries.
type Info struct {
	Version     int
	Metric      distance.Metric
	Compression Compression
	Codec       string
	Dimension   int
	Count       int
	RawSize     int64
	StoredSize  int64
}

func (h *FileHeader) info() Info {
	return Info{
		Version:     int(h.Version),
		Metric:      distance.Metric(h.Metric),
		Compression: Compression(h.Compression),
		Codec:       h.CodecName(),
		Dimension:   int(h.Dimension),
		Count:       int(h.Count),
		RawSize:     int64(h.RawSize),
		StoredSize:  int64(h.StoredSize),
	}
}
