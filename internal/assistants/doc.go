// Package assistants renders the staged rule tree into the native rule
// layout of each supported AI assistant. Every assistant is described by a
// static Spec; its capability flags select one of four rendering
// strategies (concatenate, flatten-and-number, preserve-hierarchy,
// mode-partitioned), dispatched through a strategy table.
package assistants
