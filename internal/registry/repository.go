package registry

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rulebook-labs/rulebook/internal/errors"
	"github.com/rulebook-labs/rulebook/internal/logging"
	"github.com/rulebook-labs/rulebook/internal/manifest"
	"github.com/rulebook-labs/rulebook/internal/state"
)

// Repository installs and removes packs for a project.
type Repository struct {
	builtinDir string
	provider   Provider
	log        zerolog.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithProvider sets the community provider. Without one, community
// identifiers fail and bare names resolve only against the library.
func WithProvider(p Provider) Option {
	return func(r *Repository) { r.provider = p }
}

// WithLogger overrides the repository logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Repository) { r.log = l }
}

// New returns a Repository backed by the built-in library at builtinDir.
func New(builtinDir string, opts ...Option) *Repository {
	r := &Repository{
		builtinDir: builtinDir,
		log:        logging.GetLogger("registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BuiltinDir returns the built-in library location.
func (r *Repository) BuiltinDir() string {
	return r.builtinDir
}

// source is a resolved identifier ready to be copied.
type source struct {
	kind    state.SourceKind
	dir     string
	slug    string
	cleanup func()
}

// Install resolves identifier, validates the pack it names and copies it
// into projectRoot. Reinstalling from the same source kind replaces the
// installed copy; a same-named pack from another kind is a conflict.
func (r *Repository) Install(ctx context.Context, identifier, projectRoot string) (*state.Pack, error) {
	id, err := ParseIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	src, err := r.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if src.cleanup != nil {
		defer src.cleanup()
	}

	if src.kind == state.SourceLocal && insideDir(src.dir, state.PacksPath(projectRoot)) {
		return nil, errors.Newf(errors.KindInvalid,
			"%s is an installed pack copy; install from the original directory instead", src.dir)
	}

	m, err := manifest.Load(src.dir)
	if err != nil {
		return nil, err
	}
	name := m.Name
	if src.kind == state.SourceBuiltin {
		name = id.Value
	}
	if !manifest.ValidName(name) {
		return nil, errors.Newf(errors.KindInvalid, "invalid pack name %q", name)
	}

	sel, err := state.LoadSelection(projectRoot)
	if err != nil {
		return nil, err
	}

	if existing := installedKind(sel, projectRoot, name); existing != "" && existing != src.kind {
		return nil, errors.Newf(errors.KindConflict,
			"pack %q is already installed from a %s source; remove it before installing the %s version",
			name, existing, src.kind)
	}

	dst := state.PackDir(projectRoot, name)
	if err := replaceDir(src.dir, dst); err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "installing pack %q", name)
	}

	pack := state.Pack{Name: name, Version: m.Version, Source: src.kind, Slug: src.slug}
	if src.kind == state.SourceCommunity {
		if err := writeMarker(dst, pack); err != nil {
			return nil, err
		}
	}

	sel.AddPack(pack)
	if err := state.SaveSelection(projectRoot, sel); err != nil {
		return nil, err
	}

	r.log.Info().
		Str("pack", name).
		Str("version", pack.Version).
		Str("source", string(pack.Source)).
		Msg("Installed pack")
	return &pack, nil
}

// Uninstall removes the installed copy of name, its selection entry and
// every profile reference to it.
func (r *Repository) Uninstall(name, projectRoot string) error {
	if !manifest.ValidName(name) {
		return errors.Newf(errors.KindInvalid, "invalid pack name %q", name)
	}

	sel, err := state.LoadSelection(projectRoot)
	if err != nil {
		return err
	}

	dir := state.PackDir(projectRoot, name)
	_, statErr := os.Stat(dir)
	dirExists := statErr == nil
	if !sel.HasPack(name) && !dirExists {
		return errors.Newf(errors.KindNotFound, "pack %q is not installed", name)
	}

	if dirExists {
		if err := os.RemoveAll(dir); err != nil {
			return errors.Wrapf(err, errors.KindIO, "removing %s", dir)
		}
	}
	sel.RemovePack(name)
	if err := state.SaveSelection(projectRoot, sel); err != nil {
		return err
	}

	r.log.Info().Str("pack", name).Msg("Removed pack")
	return nil
}

// Available lists the built-in library sorted by name. Directories without
// a readable manifest are skipped. A missing library yields an empty list.
func (r *Repository) Available() ([]AvailablePack, error) {
	entries, err := os.ReadDir(r.builtinDir)
	if stderrors.Is(err, fs.ErrNotExist) || r.builtinDir == "" {
		r.log.Debug().Str("dir", r.builtinDir).Msg("Built-in library not found")
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "reading built-in library %s", r.builtinDir)
	}

	var packs []AvailablePack
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		m, err := manifest.ParseFile(filepath.Join(r.builtinDir, entry.Name(), manifest.FileName))
		if err != nil {
			r.log.Debug().Err(err).Str("pack", entry.Name()).Msg("Skipping library entry")
			continue
		}
		packs = append(packs, AvailablePack{
			Name:    entry.Name(),
			Version: m.Version,
			Summary: m.Summary,
		})
	}

	sort.Slice(packs, func(i, j int) bool { return packs[i].Name < packs[j].Name })
	return packs, nil
}

// BuiltinVersion returns the library version of a built-in pack.
func (r *Repository) BuiltinVersion(name string) (string, bool) {
	if !manifest.ValidName(name) {
		return "", false
	}
	m, err := manifest.ParseFile(filepath.Join(r.builtinDir, name, manifest.FileName))
	if err != nil {
		return "", false
	}
	return m.Version, true
}

func (r *Repository) resolve(ctx context.Context, id Identifier) (*source, error) {
	switch id.Kind {
	case state.SourceLocal:
		path, err := expandPath(id.Value)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			return nil, errors.Newf(errors.KindNotFound, "local pack directory %s not found", path)
		}
		return &source{kind: state.SourceLocal, dir: path, slug: path}, nil

	case state.SourceCommunity:
		return r.fetch(ctx, id.Value)

	default:
		dir := filepath.Join(r.builtinDir, id.Value)
		if info, err := os.Stat(dir); r.builtinDir != "" && err == nil && info.IsDir() {
			return &source{kind: state.SourceBuiltin, dir: dir}, nil
		}
		if r.provider == nil {
			return nil, errors.Newf(errors.KindNotFound, "pack %q not found in the built-in library", id.Value)
		}
		slug, err := r.provider.Lookup(ctx, id.Value)
		if err != nil {
			return nil, err
		}
		r.log.Debug().Str("pack", id.Value).Str("slug", slug).Msg("Resolved pack through community index")
		return r.fetch(ctx, slug)
	}
}

func (r *Repository) fetch(ctx context.Context, slug string) (*source, error) {
	if r.provider == nil {
		return nil, errors.Newf(errors.KindInvalid, "community packs are not available (requested %q)", slug)
	}
	dir, cleanup, err := r.provider.Fetch(ctx, slug)
	if err != nil {
		return nil, err
	}
	return &source{kind: state.SourceCommunity, dir: dir, slug: slug, cleanup: cleanup}, nil
}

// installedKind reports how name is currently installed. The selection is
// authoritative; when it has no entry, an installed copy carrying the
// community marker counts as community. Empty means no known install.
func installedKind(sel *state.Selection, projectRoot, name string) state.SourceKind {
	if p, ok := sel.Pack(name); ok {
		return p.Source
	}
	if _, err := os.Stat(filepath.Join(state.PackDir(projectRoot, name), MarkerFile)); err == nil {
		return state.SourceCommunity
	}
	return ""
}

func writeMarker(dir string, p state.Pack) error {
	data, err := json.MarshalIndent(communityMarker{Name: p.Name, Slug: p.Slug, Source: p.Source}, "", "  ")
	if err != nil {
		return errors.Wrapf(err, errors.KindIO, "encoding %s", MarkerFile)
	}
	path := filepath.Join(dir, MarkerFile)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.Wrapf(err, errors.KindIO, "writing %s", path)
	}
	return nil
}

// insideDir reports whether path is dir or lies beneath it.
func insideDir(path, dir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, errors.KindIO, "resolving home directory")
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.KindInvalid, "resolving %s", path)
	}
	return abs, nil
}
