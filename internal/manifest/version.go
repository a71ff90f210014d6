package manifest

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CompareVersions compares two pack versions using semver.
// Returns -1 if a < b, 0 if equal, 1 if a > b. A leading "v" is ignored.
func CompareVersions(a, b string) (int, error) {
	av, err := parseSemver(a)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", a, err)
	}
	bv, err := parseSemver(b)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", b, err)
	}
	return av.Compare(bv), nil
}

// IsNewer reports whether candidate is a newer version than installed.
// Unparseable versions are never newer.
func IsNewer(installed, candidate string) bool {
	c, err := CompareVersions(installed, candidate)
	return err == nil && c < 0
}

func parseSemver(version string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(version, "v"))
}
