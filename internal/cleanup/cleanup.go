package cleanup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rulebook-labs/rulebook/internal/compose"
	"github.com/rulebook-labs/rulebook/internal/errors"
	"github.com/rulebook-labs/rulebook/internal/logging"
	"github.com/rulebook-labs/rulebook/internal/state"
)

// Action is what happens to orphaned files.
type Action string

const (
	// ActionNone lets the confirmation decide.
	ActionNone Action = ""
	// ActionDelete removes the files and stops tracking them.
	ActionDelete Action = "delete"
	// ActionKeep leaves the files in place and stops tracking them.
	ActionKeep Action = "keep"
)

// ParseAction validates a user-supplied action.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionNone, ActionDelete, ActionKeep:
		return Action(s), nil
	default:
		return "", errors.Newf(errors.KindInvalid, "unknown action %q (want %q or %q)", s, ActionDelete, ActionKeep)
	}
}

// Orphan is a tracked file whose pack is gone.
type Orphan struct {
	Path string // slash-separated, project-relative
	Pack string
}

// ConfirmFunc asks whether to proceed. When action is ActionNone the
// question is whether to delete the orphans.
type ConfirmFunc func(orphans []Orphan, action Action) (bool, error)

// Options controls Run.
type Options struct {
	Action  Action
	Force   bool
	Confirm ConfirmFunc
}

// Report is the outcome of Run.
type Report struct {
	Orphans []Orphan
	Action  Action
	// Removed lists orphans whose file or directory was deleted.
	Removed []string
	// Untracked lists every orphan dropped from the manifest.
	Untracked []string
	Cancelled bool
}

// FindOrphans lists manifest entries whose pack is not installed, sorted
// by path.
func FindOrphans(projectRoot string) ([]Orphan, error) {
	sel, err := state.LoadSelection(projectRoot)
	if err != nil {
		return nil, err
	}
	fm, err := state.LoadFileManifest(projectRoot)
	if err != nil {
		return nil, err
	}

	paths := fm.Orphans(sel.PackNames())
	orphans := make([]Orphan, 0, len(paths))
	for _, p := range paths {
		orphans = append(orphans, Orphan{Path: p, Pack: fm[p]})
	}
	return orphans, nil
}

// Run finds orphans and applies opts. Without Force, opts.Confirm decides
// whether to continue; declining is a successful, cancelled run. With
// Force and no action, orphans are kept. Manifest entries are dropped
// for every processed orphan whether or not its file still exists.
func Run(projectRoot string, opts Options) (*Report, error) {
	log := logging.GetLogger("cleanup")

	orphans, err := FindOrphans(projectRoot)
	if err != nil {
		return nil, err
	}
	report := &Report{Orphans: orphans}
	if len(orphans) == 0 {
		return report, nil
	}

	action := opts.Action
	if !opts.Force {
		if opts.Confirm == nil {
			return nil, errors.New(errors.KindInvalid, "confirmation required: pass an action with force to run unattended")
		}
		ok, err := opts.Confirm(orphans, action)
		if err != nil {
			return nil, fmt.Errorf("confirming cleanup: %w", err)
		}
		if !ok {
			report.Cancelled = true
			return report, nil
		}
		if action == ActionNone {
			action = ActionDelete
		}
	} else if action == ActionNone {
		action = ActionKeep
	}
	report.Action = action

	fm, err := state.LoadFileManifest(projectRoot)
	if err != nil {
		return nil, err
	}

	protected := protectedRoots(projectRoot)
	for _, o := range orphans {
		full := filepath.Join(projectRoot, filepath.FromSlash(o.Path))
		if action == ActionDelete && insideProject(projectRoot, full) {
			removed, err := remove(full)
			if err != nil {
				return report, err
			}
			if removed {
				report.Removed = append(report.Removed, o.Path)
				pruneEmptyParents(filepath.Dir(full), protected)
			}
		}
		delete(fm, o.Path)
		report.Untracked = append(report.Untracked, o.Path)
	}

	if err := state.SaveFileManifest(projectRoot, fm); err != nil {
		return report, err
	}
	log.Info().
		Str("action", string(action)).
		Int("orphans", len(orphans)).
		Int("removed", len(report.Removed)).
		Msg("Cleaned orphaned context")
	return report, nil
}

func remove(path string) (bool, error) {
	if _, err := os.Lstat(path); os.IsNotExist(err) {
		return false, nil
	}
	if err := os.RemoveAll(path); err != nil {
		return false, errors.Wrapf(err, errors.KindIO, "removing %s", path)
	}
	return true, nil
}

func insideProject(projectRoot, path string) bool {
	rel, err := filepath.Rel(projectRoot, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// protectedRoots are never removed while pruning.
func protectedRoots(projectRoot string) map[string]bool {
	roots := map[string]bool{filepath.Clean(projectRoot): true}
	for _, s := range compose.Starters {
		roots[filepath.Join(projectRoot, s.Target)] = true
	}
	return roots
}

// pruneEmptyParents removes empty directories from dir upward, stopping at
// the first non-empty or protected directory.
func pruneEmptyParents(dir string, protected map[string]bool) {
	for {
		dir = filepath.Clean(dir)
		if protected[dir] {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
