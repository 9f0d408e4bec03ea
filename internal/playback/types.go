package playback

import (
	"context"

	"subplay/internal/embedded"
	"subplay/internal/remote"
	"subplay/internal/subtitle"
)

// State is the load state of the Manager.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Cue is the value published to the renderer. Active is false when no cue
// matches the current position.
type Cue struct {
	Active bool
	Item   subtitle.Item
}

// PositionSource reports the host's playback position. ok is false while the
// position is temporarily unavailable.
type PositionSource interface {
	CurrentPositionMs() (ms uint64, ok bool)
	DurationMs() uint64
}

// TextTrackSource enumerates the text tracks the host has decoded.
type TextTrackSource interface {
	TextTracks() []embedded.HostTrack
}

// TrackActivator tells the host to render one of its own text tracks.
type TrackActivator interface {
	ActivateTextTrack(track subtitle.EmbeddedTrack) error
}

// TrackDeactivator is an optional TrackActivator extension. The Manager calls
// it when it drops an embedded track it had the host activate.
type TrackDeactivator interface {
	DeactivateTextTrack() error
}

// Loader produces parsed cue sequences. *remote.Client implements it.
type Loader interface {
	AutoLoad(ctx context.Context, query string) (remote.Result, error)
	Load(ctx context.Context, track subtitle.Track) (remote.Result, error)
}

// Media describes the playback session the Manager attaches to. Query
// overrides the title derived from Key for automatic searches.
type Media struct {
	Key       string
	Query     string
	Position  PositionSource
	Tracks    TextTrackSource
	Activator TrackActivator
}

// Snapshot is a point-in-time copy of the Manager state.
type Snapshot struct {
	MediaKey  string                  `json:"media_key"`
	State     State                   `json:"-"`
	StateName string                  `json:"state"`
	Enabled   bool                    `json:"enabled"`
	DelayMs   int64                   `json:"delay_ms"`
	Track     *subtitle.Track         `json:"track,omitempty"`
	Embedded  *subtitle.EmbeddedTrack `json:"embedded,omitempty"`
	Cues      int                     `json:"cues"`
	Attempts  int                     `json:"attempts,omitempty"`
	LastError string                  `json:"last_error,omitempty"`
}

// adjustedPosition is the lookup position for a delay. A positive delay
// shows subtitles later; the result never goes below zero.
func adjustedPosition(positionMs uint64, delayMs int64) uint64 {
	if delayMs >= 0 {
		d := uint64(delayMs)
		if d > positionMs {
			return 0
		}
		return positionMs - d
	}
	return positionMs + uint64(-delayMs)
}
