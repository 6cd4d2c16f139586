package ragindex

import "fmt"

// State is the processing state of one document.
//
//	Pending -> Chunked -> Embedding -> Indexed | PartiallyFailed | Failed
//
// A document without text goes from Chunked straight to Indexed.
type State int

const (
	StatePending State = iota
	StateChunked
	StateEmbedding
	StateIndexed
	StatePartiallyFailed
	StateFailed
)

var stateNames = [...]string{
	StatePending:         "pending",
	StateChunked:         "chunked",
	StateEmbedding:       "embedding",
	StateIndexed:         "indexed",
	StatePartiallyFailed: "partially_failed",
	StateFailed:          "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s == StateIndexed || s == StatePartiallyFailed || s == StateFailed
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// finalState derives the terminal state from the segment outcome.
func finalState(segments, failed int) State {
	switch {
	case failed == 0:
		return StateIndexed
	case failed >= segments:
		return StateFailed
	default:
		return StatePartiallyFailed
	}
}
