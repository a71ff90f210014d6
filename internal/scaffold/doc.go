// Package scaffold generates new rule packs from embedded templates. It
// powers "rulebook packs create", producing a manifest, a README, a first
// rule file and an empty memory starter directory that together pass
// manifest validation and can be installed with "packs add local:<dir>".
package scaffold
