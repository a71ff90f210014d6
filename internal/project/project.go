package project

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rulebook-labs/rulebook/internal/errors"
	"github.com/rulebook-labs/rulebook/internal/logging"
	"github.com/rulebook-labs/rulebook/internal/manifest"
	"github.com/rulebook-labs/rulebook/internal/registry"
	"github.com/rulebook-labs/rulebook/internal/state"
)

// Project is a directory managed by rulebook.
type Project struct {
	Root string
	Repo *registry.Repository
	// Now stamps sync records.
	Now func() time.Time

	log zerolog.Logger
}

// New returns a Project rooted at root. The root is made absolute.
func New(root string, repo *registry.Repository) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindInvalid, "resolving project directory %s", root)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, errors.Newf(errors.KindNotFound, "project directory %s not found", abs)
	}
	return &Project{
		Root: abs,
		Repo: repo,
		Now:  time.Now,
		log:  logging.GetLogger("project"),
	}, nil
}

// InstallPacks installs each identifier in order. A failure does not stop
// the remaining installs; all failures are joined into the returned error.
func (p *Project) InstallPacks(ctx context.Context, identifiers []string) ([]*state.Pack, error) {
	var installed []*state.Pack
	var errs []error
	for _, id := range identifiers {
		pack, err := p.Repo.Install(ctx, id, p.Root)
		if err != nil {
			p.log.Debug().Err(err).Str("identifier", id).Msg("Install failed")
			errs = append(errs, fmt.Errorf("installing %s: %w", id, err))
			continue
		}
		installed = append(installed, pack)
	}
	return installed, stderrors.Join(errs...)
}

// UninstallPacks removes each named pack, continuing past failures.
func (p *Project) UninstallPacks(names []string) ([]string, error) {
	var removed []string
	var errs []error
	for _, name := range names {
		if err := p.Repo.Uninstall(name, p.Root); err != nil {
			errs = append(errs, fmt.Errorf("removing %s: %w", name, err))
			continue
		}
		removed = append(removed, name)
	}
	return removed, stderrors.Join(errs...)
}

// Selection returns the current selection.
func (p *Project) Selection() (*state.Selection, error) {
	return state.LoadSelection(p.Root)
}

// PackStatus is an installed pack with an optional update hint.
type PackStatus struct {
	state.Pack
	// Update is the newer version available in the built-in library.
	Update string
}

// PacksStatus lists installed packs in order and flags built-in packs
// whose library version is newer than the installed one.
func (p *Project) PacksStatus() ([]PackStatus, *state.Selection, error) {
	sel, err := state.LoadSelection(p.Root)
	if err != nil {
		return nil, nil, err
	}

	out := make([]PackStatus, 0, len(sel.Packs))
	for _, pack := range sel.Packs {
		ps := PackStatus{Pack: pack}
		if pack.Source == state.SourceBuiltin && p.Repo != nil {
			if v, ok := p.Repo.BuiltinVersion(pack.Name); ok && manifest.IsNewer(pack.Version, v) {
				ps.Update = v
			}
		}
		out = append(out, ps)
	}
	return out, sel, nil
}

func (p *Project) updateSelection(fn func(*state.Selection) error) error {
	sel, err := state.LoadSelection(p.Root)
	if err != nil {
		return err
	}
	if err := fn(sel); err != nil {
		return err
	}
	return state.SaveSelection(p.Root, sel)
}

// CreateProfile adds an empty profile.
func (p *Project) CreateProfile(name string) error {
	return p.updateSelection(func(s *state.Selection) error { return s.CreateProfile(name) })
}

// DeleteProfile removes a profile.
func (p *Project) DeleteProfile(name string) error {
	return p.updateSelection(func(s *state.Selection) error { return s.DeleteProfile(name) })
}

// AddPackToProfile appends an installed pack to a profile.
func (p *Project) AddPackToProfile(pack, profile string) error {
	return p.updateSelection(func(s *state.Selection) error { return s.AddToProfile(pack, profile) })
}

// Profiles returns every profile and its packs in profile order.
func (p *Project) Profiles() (map[string][]string, error) {
	sel, err := state.LoadSelection(p.Root)
	if err != nil {
		return nil, err
	}
	return sel.Profiles, nil
}

// RemovePackFromProfile drops a pack from a profile.
func (p *Project) RemovePackFromProfile(pack, profile string) error {
	return p.updateSelection(func(s *state.Selection) error { return s.RemoveFromProfile(pack, profile) })
}
