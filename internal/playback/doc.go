// Package playback hosts the subtitle Manager: the state machine that owns the
// enabled flag, the user delay, the loaded cue sequence and the synchronization
// loop that turns the host's playback position into the active cue.
//
// The host plugs in through small adapter interfaces (PositionSource,
// TextTrackSource, TrackActivator) and receives cues through a handler
// registered with WithCueHandler or a channel from Subscribe. Loads run on
// their own goroutine; a newer load always supersedes an older one so the cue
// sequence is only ever replaced wholesale by the most recent request.
//
// Per-media state that must survive the Manager (the one-shot automatic
// search flag and the delay) lives behind the Session interface and is owned
// by the host.
package playback
