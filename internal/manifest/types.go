package manifest

// FileName is the manifest file every pack carries at its root.
const FileName = "manifest.yaml"

// RulesDir is the subtree holding a pack's rule content.
const RulesDir = "rules"

// DefaultVersion is assumed when a manifest omits its version.
const DefaultVersion = "0.0.0"

// PackManifest is the decoded manifest.yaml of a pack.
type PackManifest struct {
	Name        string   `yaml:"name" json:"name"`
	Version     string   `yaml:"version,omitempty" json:"version,omitempty"`
	Summary     string   `yaml:"summary,omitempty" json:"summary,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Author      string   `yaml:"author,omitempty" json:"author,omitempty"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`

	// Extra holds keys this version does not know about.
	Extra map[string]interface{} `yaml:",inline" json:"-"`
}
