package subtitle

import (
	"fmt"
	"sort"
)

// Item is a single timed cue. StartMs <= EndMs always holds for parser output.
type Item struct {
	StartMs uint64 `json:"start_ms"`
	EndMs   uint64 `json:"end_ms"`
	Text    string `json:"text"`
}

// Contains reports whether positionMs falls inside the closed interval [StartMs, EndMs].
func (i Item) Contains(positionMs uint64) bool {
	return positionMs >= i.StartMs && positionMs <= i.EndMs
}

func (i Item) String() string {
	return fmt.Sprintf("[%d-%d] %s", i.StartMs, i.EndMs, i.Text)
}

// Track describes a selectable subtitle candidate. URL is opaque and, for
// remotely hosted tracks, time limited: it is resolved right before each
// download and never persisted.
type Track struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	URL      string `json:"-"`
	Language string `json:"language"`
	Format   Format `json:"format"`
	// Upload is the remote upload time when known.
	Upload string `json:"upload,omitempty"`
}

// Remote reports whether the track must be re-resolved through the remote API.
func (t Track) Remote() bool {
	return t.ID != ""
}

// EmbeddedTrack identifies a text track inside the host's decoded track list.
type EmbeddedTrack struct {
	TrackIndex uint32 `json:"track_index"`
	GroupIndex uint32 `json:"group_index"`
	Language   string `json:"language"`
	Label      string `json:"label"`
	Format     Format `json:"format"`
	MIMEType   string `json:"mime_type"`
}

// SortItems orders items by StartMs, keeping source order for equal starts.
func SortItems(items []Item) {
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].StartMs < items[b].StartMs
	})
}

// Sorted reports whether items are ascending by StartMs.
func Sorted(items []Item) bool {
	return sort.SliceIsSorted(items, func(a, b int) bool {
		return items[a].StartMs < items[b].StartMs
	})
}
