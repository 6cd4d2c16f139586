package persistence

import (
	"encoding/binary"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"unicode/utf8"

	"github.com/hupe1980/ragindex/codec"
	"github.com/hupe1980/ragindex/index"
	"github.com/hupe1980/ragindex/internal/hash"
	"github.com/hupe1980/ragindex/model"
)

// Encode writes snap to w in the index file format.
// Write failures are returned as *IOError.
func Encode(w io.Writer, snap *index.Snapshot, optFns ...func(o *Options)) error {
	data, err := Marshal(snap, optFns...)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return ioError("write", "", err)
	}
	return nil
}

// Marshal returns the encoded index file for snap.
func Marshal(snap *index.Snapshot, optFns ...func(o *Options)) ([]byte, error) {
	opts := applyOptions(optFns)

	if !snap.Metric.Valid() {
		return nil, fmt.Errorf("persistence: %w: %v", index.ErrInvalidMetric, snap.Metric)
	}
	if _, err := index.ValidateEntries(snap.Dimension, snap.Entries); err != nil {
		return nil, fmt.Errorf("persistence: %w", err)
	}

	raw, err := encodePayload(snap.Entries, opts.Codec)
	if err != nil {
		return nil, err
	}

	stored, used, err := compress(raw, opts.Compression)
	if err != nil {
		return nil, fmt.Errorf("persistence: compress: %w", err)
	}

	dim := snap.Dimension
	if dim == 0 && len(snap.Entries) > 0 {
		dim = len(snap.Entries[0].Vector)
	}

	h := FileHeader{
		Magic:       Magic,
		Version:     Version,
		Metric:      uint8(snap.Metric),
		Compression: uint8(used),
		Dimension:   uint32(dim),
		Count:       uint64(len(snap.Entries)),
		RawSize:     uint64(len(raw)),
		StoredSize:  uint64(len(stored)),
	}
	if err := h.setCodecName(opts.Codec.Name()); err != nil {
		return nil, err
	}
	h.Checksum = checksum(h, raw)

	out := make([]byte, 0, HeaderSize+len(stored))
	out = append(out, h.marshal(false)...)
	out = append(out, stored...)
	return out, nil
}

func checksum(h FileHeader, raw []byte) uint32 {
	c := hash.NewCRC32C()
	_, _ = c.Write(h.marshal(true))
	_, _ = c.Write(raw)
	return c.Sum32()
}

func encodePayload(entries []model.IndexEntry, c codec.Codec) ([]byte, error) {
	var buf []byte
	for i := range entries {
		e := &entries[i]

		buf = binary.AppendUvarint(buf, uint64(len(e.Vector)))
		for _, v := range e.Vector {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}

		buf = appendString(buf, e.Segment.DocumentID)
		buf = binary.AppendVarint(buf, int64(e.Segment.Ordinal))
		buf = binary.AppendVarint(buf, int64(e.Segment.Start))
		buf = binary.AppendVarint(buf, int64(e.Segment.End))
		buf = appendString(buf, e.Segment.Text)

		var err error
		if buf, err = appendMetadata(buf, e.Metadata, c); err != nil {
			return nil, fmt.Errorf("persistence: encode metadata of %s: %w", e.Segment.ID(), err)
		}
	}
	return buf, nil
}

// Metadata field kinds.
const (
	metaNone  byte = 0
	metaCodec byte = 1 // codec-encoded map
	metaPairs byte = 2 // uvarint count, then sorted key/value strings
)

// appendMetadata writes m with the codec. Maps the codec cannot carry
// byte-exact (text codecs rewrite invalid UTF-8) are written as raw pairs.
func appendMetadata(buf []byte, m map[string]string, c codec.Codec) ([]byte, error) {
	if len(m) == 0 {
		return append(buf, metaNone), nil
	}

	if validUTF8(m) {
		data, err := c.Marshal(m)
		if err != nil {
			return nil, err
		}
		buf = append(buf, metaCodec)
		return appendBytes(buf, data), nil
	}

	buf = append(buf, metaPairs)
	buf = binary.AppendUvarint(buf, uint64(len(m)))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		buf = appendString(buf, k)
		buf = appendString(buf, m[k])
	}
	return buf, nil
}

func validUTF8(m map[string]string) bool {
	for k, v := range m {
		if !utf8.ValidString(k) || !utf8.ValidString(v) {
			return false
		}
	}
	return true
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func appendBytes(buf, b []byte) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(b)))
	return append(buf, b...)
}
