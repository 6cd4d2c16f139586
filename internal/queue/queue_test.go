package queue

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopK(t *testing.T) {
	t.Run("HigherIsBetter", func(t *testing.T) {
		q := NewTopK(3, true)
		for i, s := range []float32{0.1, 0.9, 0.5, 0.7, 0.3} {
			q.Push(Item{ID: uint32(i), Score: s})
		}
		got := q.Sorted()
		require.Len(t, got, 3)
		assert.Equal(t, []uint32{1, 3, 2}, ids(got))
	})

	t.Run("LowerIsBetter", func(t *testing.T) {
		q := NewTopK(2, false)
		for i, s := range []float32{3, 1, 2, 0.5} {
			q.Push(Item{ID: uint32(i), Score: s})
		}
		assert.Equal(t, []uint32{3, 1}, ids(q.Sorted()))
	})

	t.Run("TieBreakByID", func(t *testing.T) {
		q := NewTopK(2, true)
		q.Push(Item{ID: 4, Score: 1})
		q.Push(Item{ID: 2, Score: 1})
		q.Push(Item{ID: 3, Score: 1})
		q.Push(Item{ID: 0, Score: 1})
		assert.Equal(t, []uint32{0, 2}, ids(q.Sorted()))
	})

	t.Run("FewerThanK", func(t *testing.T) {
		q := NewTopK(10, true)
		q.Push(Item{ID: 0, Score: 1})
		assert.False(t, q.Full())
		assert.Len(t, q.Sorted(), 1)
	})

	t.Run("ZeroK", func(t *testing.T) {
		q := NewTopK(0, true)
		q.Push(Item{ID: 0, Score: 1})
		assert.Equal(t, 0, q.Len())
	})

	t.Run("MatchesFullSort", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		items := make([]Item, 500)
		for i := range items {
			// Coarse scores to force many ties.
			items[i] = Item{ID: uint32(i), Score: float32(rng.Intn(20))}
		}

		q := NewTopK(25, false)
		for _, it := range items {
			q.Push(it)
		}
		got := q.Sorted()

		want := slices.Clone(items)
		slices.SortStableFunc(want, func(a, b Item) int {
			switch {
			case a.Score < b.Score:
				return -1
			case a.Score > b.Score:
				return 1
			default:
				return 0
			}
		})
		assert.Equal(t, want[:25], got)
	})
}

func ids(items []Item) []uint32 {
	out := make([]uint32, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
