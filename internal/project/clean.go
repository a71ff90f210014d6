package project

import (
	"os"
	"path/filepath"

	"github.com/rulebook-labs/rulebook/internal/assistants"
	"github.com/rulebook-labs/rulebook/internal/cleanup"
	"github.com/rulebook-labs/rulebook/internal/compose"
	"github.com/rulebook-labs/rulebook/internal/errors"
	"github.com/rulebook-labs/rulebook/internal/state"
)

// CleanReport lists what a clean removed, as project-relative paths.
type CleanReport struct {
	Removed []string
}

// CleanRules removes every assistant's generated output and the state
// directory. Starter directories are left alone.
func (p *Project) CleanRules() (*CleanReport, error) {
	report := &CleanReport{}
	for _, spec := range assistants.All() {
		removed, err := assistants.Clean(spec, p.Root)
		if err != nil {
			return report, err
		}
		if removed {
			report.Removed = append(report.Removed, spec.CleanPath())
		}
	}

	dir := state.DirPath(p.Root)
	removed, err := removePath(dir)
	if err != nil {
		return report, err
	}
	if removed {
		report.Removed = append(report.Removed, filepath.Base(dir))
	}
	p.log.Info().Int("removed", len(report.Removed)).Msg("Cleaned generated rules")
	return report, nil
}

// Clean runs CleanRules and also removes the starter directories.
func (p *Project) Clean() (*CleanReport, error) {
	report, err := p.CleanRules()
	if err != nil {
		return report, err
	}
	for _, s := range compose.Starters {
		removed, err := removePath(filepath.Join(p.Root, s.Target))
		if err != nil {
			return report, err
		}
		if removed {
			report.Removed = append(report.Removed, s.Target)
		}
	}
	return report, nil
}

// CleanContext handles orphaned starter files.
func (p *Project) CleanContext(opts cleanup.Options) (*cleanup.Report, error) {
	return cleanup.Run(p.Root, opts)
}

func removePath(path string) (bool, error) {
	if _, err := os.Lstat(path); os.IsNotExist(err) {
		return false, nil
	}
	if err := os.RemoveAll(path); err != nil {
		return false, errors.Wrapf(err, errors.KindIO, "removing %s", path)
	}
	return true, nil
}
