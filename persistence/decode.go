package persistence

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/hupe1980/ragindex/codec"
	"github.com/hupe1980/ragindex/distance"
	"github.com/hupe1980/ragindex/index"
	"github.com/hupe1980/ragindex/model"
)

// Decode reads an index file from r.
// Read failures are returned as *IOError.
func Decode(r io.Reader) (*index.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ioError("read", "", err)
	}
	return Unmarshal(data)
}

// Unmarshal decodes an index file held in memory. The returned snapshot
// does not reference data.
func Unmarshal(data []byte) (*index.Snapshot, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	stored := data[HeaderSize:]
	if uint64(len(stored)) != h.StoredSize {
		return nil, corrupt("payload is %d bytes, header declares %d", len(stored), h.StoredSize)
	}
	if h.RawSize > maxRawSize {
		return nil, corrupt("raw size %d out of range", h.RawSize)
	}

	c, ok := codec.ByName(h.CodecName())
	if !ok {
		return nil, corrupt("unknown codec %q", h.CodecName())
	}

	raw, err := decompress(stored, Compression(h.Compression), int(h.RawSize))
	if err != nil {
		return nil, err
	}

	if sum := checksum(*h, raw); sum != h.Checksum {
		return nil, corrupt("checksum mismatch: expected 0x%08x, got 0x%08x", h.Checksum, sum)
	}

	entries, err := decodePayload(raw, h, c)
	if err != nil {
		return nil, err
	}

	return &index.Snapshot{
		Dimension: int(h.Dimension),
		Metric:    distance.Metric(h.Metric),
		Entries:   entries,
	}, nil
}

type payloadReader struct {
	buf []byte
	off int
	err error
}

func (r *payloadReader) uvarint() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.buf[r.off:])
	if n <= 0 {
		r.err = corrupt("truncated varint at offset %d", r.off)
		return 0
	}
	r.off += n
	return v
}

func (r *payloadReader) varint() int {
	if r.err != nil {
		return 0
	}
	v, n := binary.Varint(r.buf[r.off:])
	if n <= 0 {
		r.err = corrupt("truncated varint at offset %d", r.off)
		return 0
	}
	r.off += n
	return int(v)
}

func (r *payloadReader) bytes() []byte {
	n := r.uvarint()
	if r.err != nil {
		return nil
	}
	if n > uint64(len(r.buf)-r.off) {
		r.err = corrupt("field of %d bytes at offset %d exceeds payload", n, r.off)
		return nil
	}
	b := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return b
}

func (r *payloadReader) vector(dim int) []float32 {
	n := r.uvarint()
	if r.err != nil {
		return nil
	}
	if n != uint64(dim) {
		r.err = corrupt("vector of length %d in index of dimension %d", n, dim)
		return nil
	}
	if uint64(len(r.buf)-r.off) < n*4 {
		r.err = corrupt("truncated vector at offset %d", r.off)
		return nil
	}
	v := make([]float32, n)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(r.buf[r.off:]))
		r.off += 4
	}
	return v
}

func (r *payloadReader) next() byte {
	if r.err != nil {
		return 0
	}
	if r.off >= len(r.buf) {
		r.err = corrupt("truncated payload at offset %d", r.off)
		return 0
	}
	b := r.buf[r.off]
	r.off++
	return b
}

func (r *payloadReader) metadata(entry int, c codec.Codec) map[string]string {
	switch kind := r.next(); kind {
	case metaNone:
		return nil
	case metaCodec:
		data := r.bytes()
		if r.err != nil {
			return nil
		}
		var m map[string]string
		if err := c.Unmarshal(data, &m); err != nil {
			r.err = corrupt("metadata of entry %d: %v", entry, err)
			return nil
		}
		return model.CloneMetadata(m)
	case metaPairs:
		n := r.uvarint()
		// Each pair takes at least two bytes.
		if r.err == nil && n > uint64(len(r.buf)-r.off)/2 {
			r.err = corrupt("metadata of entry %d declares %d pairs", entry, n)
		}
		if r.err != nil {
			return nil
		}
		m := make(map[string]string, n)
		for range n {
			k := string(r.bytes())
			v := string(r.bytes())
			if r.err != nil {
				return nil
			}
			if _, dup := m[k]; dup {
				r.err = corrupt("metadata of entry %d repeats key %q", entry, k)
				return nil
			}
			m[k] = v
		}
		return model.CloneMetadata(m)
	default:
		if r.err == nil {
			r.err = corrupt("metadata of entry %d has unknown kind %d", entry, kind)
		}
		return nil
	}
}

func decodePayload(raw []byte, h *FileHeader, c codec.Codec) ([]model.IndexEntry, error) {
	if h.Count == 0 {
		if len(raw) != 0 {
			return nil, corrupt("%d trailing bytes", len(raw))
		}
		return nil, nil
	}
	if h.Dimension == 0 {
		return nil, corrupt("%d entries with dimension 0", h.Count)
	}
	// Each entry takes at least one byte per field.
	if h.Count > uint64(len(raw)) {
		return nil, corrupt("%d entries in %d bytes", h.Count, len(raw))
	}

	dim := int(h.Dimension)
	r := &payloadReader{buf: raw}
	entries := make([]model.IndexEntry, h.Count)

	for i := range entries {
		e := &entries[i]
		e.Vector = r.vector(dim)
		e.Segment.DocumentID = string(r.bytes())
		e.Segment.Ordinal = r.varint()
		e.Segment.Start = r.varint()
		e.Segment.End = r.varint()
		e.Segment.Text = string(r.bytes())
		e.Metadata = r.metadata(i, c)
		if r.err != nil {
			return nil, r.err
		}
	}

	if r.off != len(raw) {
		return nil, corrupt("%d trailing bytes", len(raw)-r.off)
	}
	return entries, nil
}
