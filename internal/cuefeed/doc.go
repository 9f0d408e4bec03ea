// Package cuefeed fans the active cue out to external renderers over
// WebSocket. Each message is a JSON object {"active","start_ms","end_ms","text"};
// a client that connects mid-playback receives the latest cue first.
package cuefeed
