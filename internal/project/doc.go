// Package project exposes the operations the CLI runs against one
// project: installing and removing packs, editing profiles, syncing the
// active packs into every assistant's rule layout, reporting status, and
// cleaning generated output and orphaned starter files.
//
// Each operation loads the state it needs, mutates it in memory and saves
// it before returning. Failures carry an error kind from internal/errors.
// Multi-step operations are not transactional; re-running an operation
// after a failure brings the project back to a consistent state.
package project
