// Package services defines shared utilities consumed by the subtitle pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp media keys and correlation identifiers for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that keep the failure
//     taxonomy (network, timeout, rate limit, credential, not found) intact as
//     errors travel from the HTTP client up to the playback manager.
//
// Use these helpers when wiring new components so error classification and
// observability stay uniform across the engine.
package services
