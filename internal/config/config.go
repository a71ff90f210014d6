package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rulebook-labs/rulebook/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Recognized configuration keys.
const (
	KeyPacksDir   = "packs_dir"
	KeyIndexURL   = "index_url"
	KeyArchiveURL = "archive_url"
	KeyAssistants = "assistants"
)

// Keys lists every key accepted by Set.
var Keys = []string{KeyPacksDir, KeyIndexURL, KeyArchiveURL, KeyAssistants}

// Dir returns the path to the rulebook config directory (~/.rulebook/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.rulebook/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	viper.SetDefault(KeyIndexURL, branding.IndexURL())
	viper.SetDefault(KeyArchiveURL, branding.ArchiveURL())

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// IsKnownKey reports whether key is one of Keys.
func IsKnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if !IsKnownKey(key) {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys, ", "))
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// PacksDir returns the bundled pack library location. The configured value
// wins; otherwise the library is expected at <exe dir>/../share/rulebook/packs.
func PacksDir() string {
	if dir := Get(KeyPacksDir); dir != "" {
		return expandHome(dir)
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), "..", "share", branding.CLIName(), "packs")
}

// IndexURL returns the community index URL.
func IndexURL() string {
	if u := Get(KeyIndexURL); u != "" {
		return u
	}
	return branding.IndexURL()
}

// ArchiveURL returns the community archive URL template.
func ArchiveURL() string {
	if u := Get(KeyArchiveURL); u != "" {
		return u
	}
	return branding.ArchiveURL()
}

// DefaultAssistants returns the assistants synced when none are named on
// the command line. The value is a comma separated list; empty means all.
func DefaultAssistants() []string {
	raw := Get(KeyAssistants)
	if raw == "" {
		return nil
	}
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
