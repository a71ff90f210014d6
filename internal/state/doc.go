// Package state persists the per-project documents kept under .rulebook/:
// the pack selection (installed packs and profiles), the file manifest that
// maps starter files to the pack that created them, and the per-assistant
// sync status.
//
// Every document is read whole, mutated in memory and written back with an
// atomic rename. There is no locking; concurrent invocations against the
// same project are unsafe. Decoding is forward compatible: unknown fields
// are ignored and missing ones take their zero value.
package state
