// Package session persists per-media playback state in SQLite: whether the
// automatic remote search has already run for a media item, the user delay,
// and the name and id of the last loaded track. Download URLs are never
// stored; they expire and are re-resolved on every load.
//
// Store.Session returns a handle implementing playback.Session that reads the
// row once and writes through on every change.
package session
