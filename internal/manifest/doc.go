// Package manifest parses and validates pack manifests (manifest.yaml).
// Manifests are checked against an embedded JSON Schema; a pack directory
// is well formed when its manifest validates and it carries a rules/ tree.
package manifest
