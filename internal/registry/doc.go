// Package registry resolves pack identifiers and installs packs into a
// project. A pack comes from the bundled built-in library, a local
// directory ("local:<path>"), or the community index ("github:<slug>" or
// a bare name the library does not carry). Installed copies live under
// .rulebook/packs/<name> and are recorded in the project's selection.
package registry
