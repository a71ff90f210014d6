// Package cli defines the Cobra command tree for the rulebook CLI. Each file
// in this package registers one command group (packs, profiles, project,
// config) with the root command. Command implementations delegate to
// internal packages for business logic and only handle flag parsing, output
// formatting and confirmation prompts.
package cli
