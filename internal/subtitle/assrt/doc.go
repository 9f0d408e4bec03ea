// Package assrt wraps the assrt-style subtitle REST API: title search, detail
// lookup returning fresh single-use download URLs, and payload download.
//
// Every request passes through a minimum-interval window so the client never
// exceeds the remote's published budget. API status codes map onto the
// services error taxonomy (rate limits and credential failures stay distinct
// from generic network errors). Cache stores downloaded payloads keyed by
// subtitle id and file name; download URLs are never persisted.
package assrt
