// Package cleanup finds and removes orphaned starter files: files recorded
// in the file manifest whose owning pack is no longer installed.
package cleanup
