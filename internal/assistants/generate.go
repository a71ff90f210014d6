package assistants

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rulebook-labs/rulebook/internal/errors"
	"github.com/rulebook-labs/rulebook/internal/logging"
)

// Result describes one assistant render.
type Result struct {
	Assistant Name
	Strategy  Strategy
	// Files are the written outputs, slash-separated and relative to the
	// project root, in render order.
	Files []string
	// Notices are informational messages, e.g. when nothing was rendered.
	Notices []string
}

// Generate removes the assistant's previous output and renders the staged
// tree into projectRoot.
func Generate(spec Spec, staged, projectRoot string) (*Result, error) {
	log := logging.GetLogger("assistants")

	if _, err := removeOutput(spec, projectRoot); err != nil {
		return nil, err
	}

	strategy := StrategyFor(spec)
	render, ok := renderers[strategy]
	if !ok {
		return nil, fmt.Errorf("no renderer for strategy %s", strategy)
	}

	target := filepath.Join(projectRoot, filepath.FromSlash(spec.RulePath))
	if strategy == Concatenate {
		target = filepath.Join(projectRoot, filepath.FromSlash(spec.CleanPath()))
	}

	written, err := render(spec, staged, target)
	result := &Result{Assistant: spec.Name, Strategy: strategy}
	for _, abs := range written {
		rel, relErr := filepath.Rel(projectRoot, abs)
		if relErr != nil {
			rel = abs
		}
		result.Files = append(result.Files, filepath.ToSlash(rel))
	}
	if err != nil {
		return result, errors.Wrapf(err, errors.KindIO, "rendering %s rules", spec.DisplayName)
	}

	if len(result.Files) == 0 {
		result.Notices = append(result.Notices, fmt.Sprintf("No rules found to generate for %s", spec.DisplayName))
	}
	log.Debug().
		Str("assistant", string(spec.Name)).
		Str("strategy", strategy.String()).
		Int("files", len(result.Files)).
		Msg("Rendered rules")
	return result, nil
}

// Clean removes the assistant's output. When the output is a single file
// its parent directory is removed too if that leaves it empty, unless the
// parent is the project root. It reports whether anything was removed.
func Clean(spec Spec, projectRoot string) (bool, error) {
	removed, err := removeOutput(spec, projectRoot)
	if err != nil || !removed || spec.MultiFile {
		return removed, err
	}

	parent := filepath.Dir(filepath.Join(projectRoot, filepath.FromSlash(spec.CleanPath())))
	if filepath.Clean(parent) == filepath.Clean(projectRoot) {
		return true, nil
	}
	if entries, err := os.ReadDir(parent); err == nil && len(entries) == 0 {
		if err := os.Remove(parent); err != nil {
			return true, errors.Wrapf(err, errors.KindIO, "removing %s", parent)
		}
	}
	return true, nil
}

func removeOutput(spec Spec, projectRoot string) (bool, error) {
	if spec.CleanPath() == "" {
		return false, nil
	}
	p := filepath.Join(projectRoot, filepath.FromSlash(spec.CleanPath()))
	if _, err := os.Lstat(p); os.IsNotExist(err) {
		return false, nil
	}
	if err := os.RemoveAll(p); err != nil {
		return false, errors.Wrapf(err, errors.KindIO, "removing %s", p)
	}
	return true, nil
}
