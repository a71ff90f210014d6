// Package branding provides compile-time identity values for the CLI.
//
// branding.yaml is embedded into the binary; forks change the CLI name,
// state directory, and community index locations there.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	StateDir    string `yaml:"state_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
	GoModule    string `yaml:"go_module"`
	GitHubRepo  string `yaml:"github_repo"`
	IndexURL    string `yaml:"index_url"`
	ArchiveURL  string `yaml:"archive_url"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:     "rulebook",
			DisplayName: "Rulebook",
			Description: "Compose rule packs and sync them into AI assistant rule files",
			HomeDir:     ".rulebook",
			StateDir:    ".rulebook",
			EnvPrefix:   "RULEBOOK",
			GoModule:    "github.com/rulebook-labs/rulebook",
			GitHubRepo:  "rulebook-labs/rulebook",
			IndexURL:    "https://raw.githubusercontent.com/rulebook-labs/community-index/main/packs.json",
			ArchiveURL:  "https://codeload.github.com/{username}/{repo}/tar.gz/HEAD",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "rulebook").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME holding user config.
func HomeDir() string { load(); return defaults.HomeDir }

// StateDir returns the per-project state directory name (e.g., ".rulebook").
func StateDir() string { load(); return defaults.StateDir }

// EnvPrefix returns the environment variable prefix (e.g., "RULEBOOK").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GitHubRepo returns the "owner/repo" string of the CLI itself.
func GitHubRepo() string { load(); return defaults.GitHubRepo }

// IndexURL returns the default community pack index URL.
func IndexURL() string { load(); return defaults.IndexURL }

// ArchiveURL returns the default archive URL template for community packs.
// {username} and {repo} are substituted per pack.
func ArchiveURL() string { load(); return defaults.ArchiveURL }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("PACKS_DIR") → "RULEBOOK_PACKS_DIR".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
