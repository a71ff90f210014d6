// Package compose merges pack content into a project. Stage rebuilds the
// staging tree from the rules/ subtree of each active pack; SeedStarters
// copies starter content into memory/ and tools/ once and records what it
// created in the file manifest.
//
// Both use a non-destructive merge: a file is written only when nothing
// exists at its destination, so the first pack in the list wins every
// path collision.
package compose
