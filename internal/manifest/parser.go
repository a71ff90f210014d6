package manifest

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rulebook-labs/rulebook/internal/errors"
	"go.yaml.in/yaml/v3"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidName reports whether name is usable as a pack name. Valid names can
// never escape the directory they are joined onto.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Parse decodes manifest YAML. Version defaults to DefaultVersion.
func Parse(data []byte) (*PackManifest, error) {
	var m PackManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Version == "" {
		m.Version = DefaultVersion
	}
	return &m, nil
}

// ParseFile reads and decodes a manifest file.
func ParseFile(path string) (*PackManifest, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Load validates the pack rooted at dir and returns its manifest. The
// manifest must exist, satisfy the schema, and the pack must carry a
// rules/ directory; any failure is reported as KindInvalid.
func Load(dir string) (*PackManifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.Newf(errors.KindInvalid, "pack at %s has no %s", dir, FileName)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "reading %s", path)
	}

	result, err := Validate(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindInvalid, "invalid manifest %s", path)
	}
	if !result.Valid {
		return nil, errors.Newf(errors.KindInvalid, "invalid manifest %s: %s", path, result.Summary())
	}

	m, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindInvalid, "invalid manifest %s", path)
	}
	if _, err := parseSemver(m.Version); err != nil {
		return nil, errors.Newf(errors.KindInvalid, "invalid manifest %s: version %q is not semver", path, m.Version)
	}

	info, err := os.Stat(filepath.Join(dir, RulesDir))
	if err != nil || !info.IsDir() {
		return nil, errors.Newf(errors.KindInvalid, "pack %q at %s has no %s/ directory", m.Name, dir, RulesDir)
	}
	return m, nil
}

// Summary joins the issues into one line.
func (r *ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		if issue.Path != "" {
			parts = append(parts, issue.Path+": "+issue.Message)
		} else {
			parts = append(parts, issue.Message)
		}
	}
	return strings.Join(parts, "; ")
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
