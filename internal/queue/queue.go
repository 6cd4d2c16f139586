// Package queue provides the bounded top-k selection used by index scans.
package queue

import "slices"

// Item is a scored index entry.
type Item struct {
	ID    uint32  // Entry ID, equal to its insertion position.
	Score float32 // Similarity or distance, depending on the metric.
}

// TopK keeps the k best items seen so far.
//
// Ranking is by score (descending when higherIsBetter, ascending otherwise)
// with ties broken by ID: the earlier-inserted entry ranks first. The backing
// heap keeps the worst retained item at the root.
type TopK struct {
	k              int
	higherIsBetter bool
	items          []Item
}

// NewTopK creates a selector retaining at most k items.
func NewTopK(k int, higherIsBetter bool) *TopK {
	return &TopK{
		k:              k,
		higherIsBetter: higherIsBetter,
		items:          make([]Item, 0, k),
	}
}

// Before reports whether a ranks strictly before b.
func (q *TopK) Before(a, b Item) bool {
	if a.Score != b.Score {
		if q.higherIsBetter {
			return a.Score > b.Score
		}
		return a.Score < b.Score
	}
	return a.ID < b.ID
}

// Len returns the number of retained items.
func (q *TopK) Len() int { return len(q.items) }

// Full reports whether k items are retained.
func (q *TopK) Full() bool { return len(q.items) >= q.k }

// Worst returns the lowest-ranked retained item.
func (q *TopK) Worst() (Item, bool) {
	if len(q.items) == 0 {
		return Item{}, false
	}
	return q.items[0], true
}

// Push offers an item, keeping it only if it ranks among the best k.
func (q *TopK) Push(item Item) {
	if q.k <= 0 {
		return
	}
	if len(q.items) < q.k {
		q.items = append(q.items, item)
		q.siftUp(len(q.items) - 1)
		return
	}
	if q.Before(item, q.items[0]) {
		q.items[0] = item
		q.siftDown(0)
	}
}

// Sorted returns the retained items best first and resets the selector.
func (q *TopK) Sorted() []Item {
	out := slices.Clone(q.items)
	slices.SortFunc(out, func(a, b Item) int {
		switch {
		case q.Before(a, b):
			return -1
		case q.Before(b, a):
			return 1
		default:
			return 0
		}
	})
	q.items = q.items[:0]
	return out
}

// worse orders the heap so the worst item sits at the root.
func (q *TopK) worse(i, j int) bool {
	return q.Before(q.items[j], q.items[i])
}

func (q *TopK) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !q.worse(i, p) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *TopK) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		w := l
		if r := l + 1; r < n && q.worse(r, l) {
			w = r
		}
		if !q.worse(w, i) {
			return
		}
		q.items[i], q.items[w] = q.items[w], q.items[i]
		i = w
	}
}
