package state

import (
	"path/filepath"
	"slices"
	"sort"

	"github.com/rulebook-labs/rulebook/internal/errors"
)

// SourceKind records where an installed pack came from.
type SourceKind string

const (
	SourceBuiltin   SourceKind = "built-in"
	SourceLocal     SourceKind = "local"
	SourceCommunity SourceKind = "community"
)

// Pack is one installed pack.
type Pack struct {
	Name    string     `json:"name"`
	Version string     `json:"version"`
	Source  SourceKind `json:"source"`
	// Slug is the community slug or local path the pack was installed from.
	Slug string `json:"slug,omitempty"`
}

// Selection is the persisted set of installed packs and profiles.
type Selection struct {
	SchemaVersion int                 `json:"schema_version"`
	Packs         []Pack              `json:"packs"`
	Profiles      map[string][]string `json:"profiles"`
}

// NewSelection returns an empty selection at the current schema version.
func NewSelection() *Selection {
	return &Selection{
		SchemaVersion: SchemaVersion,
		Packs:         []Pack{},
		Profiles:      map[string][]string{},
	}
}

// LoadSelection reads selection.json. A missing document yields an empty
// selection.
func LoadSelection(projectRoot string) (*Selection, error) {
	sel := NewSelection()
	if _, err := readDocument(filepath.Join(DirPath(projectRoot), SelectionFile), sel); err != nil {
		return nil, err
	}
	sel.normalize()
	return sel, nil
}

// SaveSelection writes selection.json atomically.
func SaveSelection(projectRoot string, sel *Selection) error {
	sel.normalize()
	sel.SchemaVersion = SchemaVersion
	return writeDocument(filepath.Join(DirPath(projectRoot), SelectionFile), sel)
}

func (s *Selection) normalize() {
	if s.Packs == nil {
		s.Packs = []Pack{}
	}
	if s.Profiles == nil {
		s.Profiles = map[string][]string{}
	}
	for name, packs := range s.Profiles {
		if packs == nil {
			s.Profiles[name] = []string{}
		}
	}
}

// Pack returns the installed pack with the given name.
func (s *Selection) Pack(name string) (Pack, bool) {
	for _, p := range s.Packs {
		if p.Name == name {
			return p, true
		}
	}
	return Pack{}, false
}

// HasPack reports whether name is installed.
func (s *Selection) HasPack(name string) bool {
	_, ok := s.Pack(name)
	return ok
}

// PackNames returns installed pack names in installation order.
func (s *Selection) PackNames() []string {
	names := make([]string, 0, len(s.Packs))
	for _, p := range s.Packs {
		names = append(names, p.Name)
	}
	return names
}

// AddPack records p. An existing entry with the same name is replaced in
// place so the pack keeps its position.
func (s *Selection) AddPack(p Pack) {
	for i := range s.Packs {
		if s.Packs[i].Name == p.Name {
			s.Packs[i] = p
			return
		}
	}
	s.Packs = append(s.Packs, p)
}

// RemovePack drops name from the pack list and from every profile. It
// reports whether the pack was listed.
func (s *Selection) RemovePack(name string) bool {
	found := false
	kept := s.Packs[:0]
	for _, p := range s.Packs {
		if p.Name == name {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	s.Packs = kept

	for profile, packs := range s.Profiles {
		s.Profiles[profile] = slices.DeleteFunc(packs, func(n string) bool { return n == name })
	}
	return found
}

// CreateProfile adds an empty profile.
func (s *Selection) CreateProfile(name string) error {
	if name == "" {
		return errors.New(errors.KindInvalid, "profile name must not be empty")
	}
	if _, ok := s.Profiles[name]; ok {
		return errors.Newf(errors.KindConflict, "profile %q already exists", name)
	}
	s.Profiles[name] = []string{}
	return nil
}

// DeleteProfile removes a profile. Installed packs are untouched.
func (s *Selection) DeleteProfile(name string) error {
	if _, ok := s.Profiles[name]; !ok {
		return errors.Newf(errors.KindNotFound, "profile %q not found", name)
	}
	delete(s.Profiles, name)
	return nil
}

// AddToProfile appends pack to profile. The pack must be installed at the
// time it is added. Adding a pack that is already present is a no-op.
func (s *Selection) AddToProfile(pack, profile string) error {
	packs, ok := s.Profiles[profile]
	if !ok {
		return errors.Newf(errors.KindNotFound, "profile %q not found", profile)
	}
	if !s.HasPack(pack) {
		return errors.Newf(errors.KindNotFound, "pack %q is not installed", pack)
	}
	if slices.Contains(packs, pack) {
		return nil
	}
	s.Profiles[profile] = append(packs, pack)
	return nil
}

// RemoveFromProfile drops pack from profile.
func (s *Selection) RemoveFromProfile(pack, profile string) error {
	packs, ok := s.Profiles[profile]
	if !ok {
		return errors.Newf(errors.KindNotFound, "profile %q not found", profile)
	}
	idx := slices.Index(packs, pack)
	if idx < 0 {
		return errors.Newf(errors.KindNotFound, "pack %q is not in profile %q", pack, profile)
	}
	s.Profiles[profile] = slices.Delete(packs, idx, idx+1)
	return nil
}

// ProfileNames returns profile names sorted alphabetically.
func (s *Selection) ProfileNames() []string {
	names := make([]string, 0, len(s.Profiles))
	for name := range s.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
