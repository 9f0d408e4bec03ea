package subtitle

import "sort"

// ActiveAt returns the first cue in start order whose closed interval contains
// positionMs. items must be sorted by StartMs.
func ActiveAt(items []Item, positionMs uint64) (Item, bool) {
	// Every candidate starts at or before positionMs.
	limit := sort.Search(len(items), func(i int) bool {
		return items[i].StartMs > positionMs
	})
	for i := 0; i < limit; i++ {
		if items[i].EndMs >= positionMs {
			return items[i], true
		}
	}
	return Item{}, false
}

// Timeline answers ActiveAt queries in logarithmic time. The zero value is an
// empty timeline.
type Timeline struct {
	items []Item
	// maxEnd[i] is the largest EndMs among items[:i+1].
	maxEnd []uint64
}

// NewTimeline indexes items, which must be sorted by StartMs. items is
// retained, not copied.
func NewTimeline(items []Item) *Timeline {
	maxEnd := make([]uint64, len(items))
	var running uint64
	for i, item := range items {
		running = max(running, item.EndMs)
		maxEnd[i] = running
	}
	return &Timeline{items: items, maxEnd: maxEnd}
}

// Len returns the number of indexed cues.
func (t *Timeline) Len() int {
	if t == nil {
		return 0
	}
	return len(t.items)
}

// At behaves like ActiveAt on the indexed items.
func (t *Timeline) At(positionMs uint64) (Item, bool) {
	if t.Len() == 0 {
		return Item{}, false
	}
	limit := sort.Search(len(t.items), func(i int) bool {
		return t.items[i].StartMs > positionMs
	})
	// The first index whose running max end reaches positionMs is the first
	// cue that ends at or after it.
	first := sort.Search(len(t.maxEnd), func(i int) bool {
		return t.maxEnd[i] >= positionMs
	})
	if first >= limit {
		return Item{}, false
	}
	return t.items[first], true
}
