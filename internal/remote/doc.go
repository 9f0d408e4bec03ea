// Package remote implements the remote subtitle pipeline: search by title,
// rank candidates by language priority and upload recency, resolve a fresh
// download URL per attempt, download, decode and parse.
//
// A failed candidate (network error, empty body, unsupported content) moves
// the pipeline to the next-ranked candidate. Rate limits and credential
// failures stop the pipeline immediately. Exhausting the list yields
// services.ErrAllCandidatesFailed joined with every per-candidate cause.
package remote
