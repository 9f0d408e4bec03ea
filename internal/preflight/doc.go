// Package preflight provides readiness checks for the filesystem paths,
// external binaries and remote service that subplay depends on.
//
// The CLI "subplay config check" command runs RunAll and renders the results.
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
