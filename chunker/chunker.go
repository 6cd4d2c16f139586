package chunker

import (
	"errors"
	"fmt"
	"iter"
	"unicode/utf8"

	"github.com/hupe1980/ragindex/model"
)

const (
	// DefaultSize is the default segment size in runes.
	DefaultSize = 500
	// DefaultOverlap is the default overlap between consecutive segments in runes.
	DefaultOverlap = 50
)

// ErrInvalidChunkConfig is returned when the size/overlap pair is unusable.
var ErrInvalidChunkConfig = errors.New("invalid chunk config")

// ConfigError describes an invalid size/overlap pair.
type ConfigError struct {
	Size    int
	Overlap int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: size=%d overlap=%d (need size > 0 and 0 <= overlap < size)", ErrInvalidChunkConfig, e.Size, e.Overlap)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidChunkConfig }

// Chunker cuts documents into overlapping segments.
// A Chunker is immutable and safe for concurrent use.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker producing segments of at most size runes that overlap
// by overlap runes.
func New(size, overlap int) (*Chunker, error) {
	if err := Validate(size, overlap); err != nil {
		return nil, err
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Validate checks a size/overlap pair.
func Validate(size, overlap int) error {
	if size <= 0 || overlap < 0 || overlap >= size {
		return &ConfigError{Size: size, Overlap: overlap}
	}
	return nil
}

// Size returns the maximum segment length in runes.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the overlap between consecutive segments in runes.
func (c *Chunker) Overlap() int { return c.overlap }

// Stride returns the distance between the starts of consecutive segments.
func (c *Chunker) Stride() int { return c.size - c.overlap }

// Segments returns the lazy segment sequence for doc.
// Empty text yields an empty sequence.
func (c *Chunker) Segments(doc model.Document) iter.Seq[model.Segment] {
	return func(yield func(model.Segment) bool) {
		text := doc.Text
		if text == "" {
			return
		}

		// offsets[i] is the byte offset of rune i; the final element is len(text).
		offsets := runeOffsets(text)
		n := len(offsets) - 1
		stride := c.Stride()

		for ordinal, start := 0, 0; ; ordinal, start = ordinal+1, start+stride {
			end := min(start+c.size, n)
			seg := model.Segment{
				DocumentID: doc.ID,
				Ordinal:    ordinal,
				Start:      start,
				End:        end,
				Text:       text[offsets[start]:offsets[end]],
			}
			if !yield(seg) {
				return
			}
			if end == n {
				return
			}
		}
	}
}

// Split returns all segments of doc as a slice.
func (c *Chunker) Split(doc model.Document) []model.Segment {
	var out []model.Segment
	for seg := range c.Segments(doc) {
		out = append(out, seg)
	}
	return out
}

// Count returns the number of segments doc will produce without materializing them.
func (c *Chunker) Count(doc model.Document) int {
	n := utf8.RuneCountInString(doc.Text)
	if n == 0 {
		return 0
	}
	if n <= c.size {
		return 1
	}
	stride := c.Stride()
	return (n-c.size+stride-1)/stride + 1
}

func runeOffsets(text string) []int {
	offsets := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	return append(offsets, len(text))
}
