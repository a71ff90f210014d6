package assistants

import (
	"path"
	"sort"
	"strings"

	"github.com/rulebook-labs/rulebook/internal/errors"
)

// Name identifies a supported assistant.
type Name string

const (
	Cursor     Name = "cursor"
	Windsurf   Name = "windsurf"
	Cline      Name = "cline"
	Roo        Name = "roo"
	KiloCode   Name = "kilocode"
	Warp       Name = "warp"
	Copilot    Name = "copilot"
	ClaudeCode Name = "claude-code"
	Codex      Name = "codex"
	Gemini     Name = "gemini"
)

// Spec describes where and how an assistant expects its rules.
type Spec struct {
	Name        Name
	DisplayName string
	// RulePath is the project-relative output root. Empty means the
	// project root itself.
	RulePath string
	// Filename is the output file of single-file assistants.
	Filename string
	// MultiFile assistants read a directory of rule files.
	MultiFile bool
	// HasModes assistants treat each top-level staged directory as an
	// independent mode.
	HasModes bool
	// SupportsSubdirectories assistants read nested directories as-is.
	SupportsSubdirectories bool
	// Extension is applied to flattened files. Empty means none.
	Extension string
}

// CleanPath returns the project-relative path removed before rendering
// and on clean.
func (s Spec) CleanPath() string {
	if s.MultiFile {
		return s.RulePath
	}
	return path.Join(s.RulePath, s.Filename)
}

// specs is ordered the way assistants are listed and synced.
var specs = []Spec{
	{Name: Cursor, DisplayName: "Cursor", RulePath: ".cursor/rules", MultiFile: true, SupportsSubdirectories: true, Extension: ".mdc"},
	{Name: Windsurf, DisplayName: "Windsurf", RulePath: ".windsurf/rules", MultiFile: true, Extension: ".md"},
	{Name: Cline, DisplayName: "Cline", RulePath: ".clinerules", MultiFile: true},
	{Name: Roo, DisplayName: "RooCode", RulePath: ".roo", MultiFile: true, HasModes: true},
	{Name: KiloCode, DisplayName: "Kilo Code", RulePath: ".kilocode", MultiFile: true, HasModes: true},
	{Name: Warp, DisplayName: "Warp", Filename: "WARP.md"},
	{Name: Copilot, DisplayName: "GitHub Copilot", RulePath: ".github", Filename: "copilot-instructions.md"},
	{Name: ClaudeCode, DisplayName: "Claude Code", Filename: "CLAUDE.md"},
	{Name: Codex, DisplayName: "Codex CLI", Filename: "AGENTS.md"},
	{Name: Gemini, DisplayName: "Gemini CLI", Filename: "GEMINI.md"},
}

// All returns every supported assistant spec.
func All() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// Names returns every supported assistant name.
func Names() []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = string(s.Name)
	}
	return names
}

// Lookup returns the spec for name.
func Lookup(name string) (Spec, bool) {
	for _, s := range specs {
		if string(s.Name) == name {
			return s, true
		}
	}
	return Spec{}, false
}

// Resolve maps names to specs, preserving order and dropping duplicates.
// An empty list selects every assistant. Unknown names fail with
// KindInvalid before anything is returned.
func Resolve(names []string) ([]Spec, error) {
	if len(names) == 0 {
		return All(), nil
	}

	var unknown []string
	var out []Spec
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		s, ok := Lookup(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		out = append(out, s)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, errors.Newf(errors.KindInvalid, "unknown assistant(s): %s (supported: %s)",
			strings.Join(unknown, ", "), strings.Join(Names(), ", "))
	}
	return out, nil
}
