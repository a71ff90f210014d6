package community

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/rulebook-labs/rulebook/internal/branding"
	"github.com/rulebook-labs/rulebook/internal/errors"
)

const cacheFileName = "community_index.json"

// DefaultMaxAge is how long a cached index is considered fresh.
const DefaultMaxAge = 24 * time.Hour

// Entry describes one pack in the community index.
type Entry struct {
	Name        string `json:"name"`
	Username    string `json:"username"`
	Repo        string `json:"repo"`
	Path        string `json:"path,omitempty"`
	Description string `json:"description,omitempty"`
}

// Slug returns "<username>/<repo>[/<path>]".
func (e Entry) Slug() string {
	return Slug{Username: e.Username, Repo: e.Repo, Path: e.Path}.String()
}

// Index is the cached community index.
type Index struct {
	Packs     []Entry   `json:"packs"`
	FetchedAt time.Time `json:"fetched_at"`
}

// IsStale reports whether the index was fetched more than maxAge ago.
// An index that was never fetched is stale.
func (i *Index) IsStale(maxAge time.Duration) bool {
	if i == nil || i.FetchedAt.IsZero() {
		return true
	}
	return time.Since(i.FetchedAt) > maxAge
}

// Find returns the entry whose name equals name, ignoring case.
func (i *Index) Find(name string) (Entry, bool) {
	for _, e := range i.Packs {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entry{}, false
}

// Slug identifies a pack inside a GitHub repository.
type Slug struct {
	Username string
	Repo     string
	Path     string
}

// ParseSlug parses "<username>/<repo>[/<path>]".
func ParseSlug(s string) (Slug, error) {
	parts := strings.SplitN(strings.Trim(s, "/"), "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Slug{}, errors.Newf(errors.KindInvalid, "invalid community slug %q", s)
	}
	slug := Slug{Username: parts[0], Repo: parts[1]}
	if len(parts) == 3 {
		slug.Path = strings.Trim(parts[2], "/")
		for _, seg := range strings.Split(slug.Path, "/") {
			if seg == ".." {
				return Slug{}, errors.Newf(errors.KindInvalid, "invalid community slug %q", s)
			}
		}
	}
	return slug, nil
}

// String renders the slug.
func (s Slug) String() string {
	out := s.Username + "/" + s.Repo
	if s.Path != "" {
		out += "/" + s.Path
	}
	return out
}

// DefaultCachePath returns the index cache location under the XDG cache
// directory, e.g. ~/.cache/rulebook/community_index.json.
func DefaultCachePath() (string, error) {
	path, err := xdg.CacheFile(filepath.Join(branding.CLIName(), cacheFileName))
	if err != nil {
		return "", fmt.Errorf("resolving index cache path: %w", err)
	}
	return path, nil
}

func loadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return &Index{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "reading index cache %s", path)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, errors.Wrapf(err, errors.KindInvalid, "parsing index cache %s", path)
	}
	return &idx, nil
}

func saveIndex(path string, idx *Index) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.KindIO, "creating cache directory")
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling index cache: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.KindIO, "writing index cache %s", path)
	}
	return nil
}
