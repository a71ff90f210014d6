package registry

import (
	"context"
	"strings"

	"github.com/rulebook-labs/rulebook/internal/errors"
	"github.com/rulebook-labs/rulebook/internal/manifest"
	"github.com/rulebook-labs/rulebook/internal/state"
)

// Identifier prefixes.
const (
	LocalPrefix     = "local:"
	CommunityPrefix = "github:"
)

// MarkerFile is written into every community-sourced installed copy.
const MarkerFile = "pack.json"

// Provider resolves community packs. It is implemented by the community
// index client.
type Provider interface {
	// Lookup returns the slug of the community pack with the given name.
	Lookup(ctx context.Context, name string) (string, error)
	// Fetch materializes the pack behind slug in a temporary directory.
	// The caller must invoke cleanup once it has copied the content.
	Fetch(ctx context.Context, slug string) (dir string, cleanup func(), err error)
}

// Identifier is a parsed pack identifier.
type Identifier struct {
	Kind  state.SourceKind
	Value string // pack name, filesystem path, or community slug
}

// ParseIdentifier splits raw into its source kind and value. Bare names
// parse as built-in; Install falls back to the community index when the
// library does not carry them.
func ParseIdentifier(raw string) (Identifier, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, LocalPrefix):
		path := strings.TrimPrefix(raw, LocalPrefix)
		if path == "" {
			return Identifier{}, errors.Newf(errors.KindInvalid, "identifier %q has an empty path", raw)
		}
		return Identifier{Kind: state.SourceLocal, Value: path}, nil
	case strings.HasPrefix(raw, CommunityPrefix):
		slug := strings.Trim(strings.TrimPrefix(raw, CommunityPrefix), "/")
		if strings.Count(slug, "/") < 1 {
			return Identifier{}, errors.Newf(errors.KindInvalid, "identifier %q must look like github:<user>/<repo>", raw)
		}
		return Identifier{Kind: state.SourceCommunity, Value: slug}, nil
	default:
		if !manifest.ValidName(raw) {
			return Identifier{}, errors.Newf(errors.KindInvalid, "invalid pack name %q", raw)
		}
		return Identifier{Kind: state.SourceBuiltin, Value: raw}, nil
	}
}

// String renders the identifier back into its prefixed form.
func (id Identifier) String() string {
	switch id.Kind {
	case state.SourceLocal:
		return LocalPrefix + id.Value
	case state.SourceCommunity:
		return CommunityPrefix + id.Value
	default:
		return id.Value
	}
}

// AvailablePack describes a pack in the built-in library.
type AvailablePack struct {
	Name    string
	Version string
	Summary string
}

// communityMarker is the content of MarkerFile.
type communityMarker struct {
	Name   string           `json:"name"`
	Slug   string           `json:"slug"`
	Source state.SourceKind `json:"source"`
}
