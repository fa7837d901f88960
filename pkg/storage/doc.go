// Package storage provides the usage journal, an append-only record of
// accepted chat requests.
//
// # Overview
//
// Two backends implement the Journal interface: MemoryJournal for
// development and tests, and SQLiteJournal for durable single-instance
// deployments. The journal is observational only. Nothing on the request
// path reads it, and quota enforcement never consults it. Summarize gives
// operators per-caller aggregates over a time range.
//
// # Thread Safety
//
// Both backends are safe for concurrent use.
package storage
