package project

import (
	stderrors "errors"
	"fmt"
	"slices"

	"github.com/rulebook-labs/rulebook/internal/assistants"
	"github.com/rulebook-labs/rulebook/internal/compose"
	"github.com/rulebook-labs/rulebook/internal/errors"
	"github.com/rulebook-labs/rulebook/internal/logging"
	"github.com/rulebook-labs/rulebook/internal/state"
)

// SyncOptions selects what a sync composes and renders. Profile and Packs
// are mutually exclusive; when both are empty every installed pack is
// used. Empty Assistants renders every supported assistant.
type SyncOptions struct {
	Profile    string
	Packs      []string
	Assistants []string
}

// SyncReport describes a completed sync.
type SyncReport struct {
	Mode    state.SyncMode
	Profile string
	// Packs were composed, in precedence order.
	Packs []string
	// Skipped packs were requested but are not installed.
	Skipped []string
	// Starters are starter files created by this sync.
	Starters []string
	Results  []*assistants.Result
}

// Sync stages the selected packs, seeds their starter files and renders
// every requested assistant. Stale profile references and uninstalled
// ad-hoc packs are skipped with a warning. Assistants are rendered
// independently; a failing assistant does not stop the others, and only
// successful ones get a sync record.
func (p *Project) Sync(opts SyncOptions) (*SyncReport, error) {
	log := p.log
	done := logging.LogOperationStart(log, "sync")
	defer done()

	if opts.Profile != "" && len(opts.Packs) > 0 {
		return nil, errors.New(errors.KindInvalid, "cannot select both a profile and individual packs")
	}
	specs, err := assistants.Resolve(opts.Assistants)
	if err != nil {
		return nil, err
	}

	sel, err := state.LoadSelection(p.Root)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{Profile: opts.Profile}
	var requested []string
	switch {
	case opts.Profile != "":
		packs, ok := sel.Profiles[opts.Profile]
		if !ok {
			return nil, errors.Newf(errors.KindNotFound, "profile %q not found", opts.Profile)
		}
		report.Mode = state.ModeProfile
		requested = packs
	case len(opts.Packs) > 0:
		report.Mode = state.ModePack
		requested = opts.Packs
	default:
		report.Mode = state.ModeAll
		requested = sel.PackNames()
	}

	var active []string
	for _, name := range requested {
		switch {
		case slices.Contains(active, name):
		case sel.HasPack(name):
			active = append(active, name)
		default:
			log.Warn().Str("pack", name).Msg("Pack is not installed, skipping")
			report.Skipped = append(report.Skipped, name)
		}
	}

	staged, err := compose.Stage(p.Root, active)
	if err != nil {
		return nil, err
	}
	report.Packs = staged.Packs
	report.Skipped = append(report.Skipped, staged.Skipped...)

	fm, err := state.LoadFileManifest(p.Root)
	if err != nil {
		return nil, err
	}
	created, seedErr := compose.SeedStarters(p.Root, report.Packs, fm)
	report.Starters = created
	if err := state.SaveFileManifest(p.Root, fm); err != nil {
		return report, err
	}
	if seedErr != nil {
		return report, seedErr
	}

	stagingRoot := state.StagingPath(p.Root)
	rec := state.NewSyncRecord(p.Now(), report.Mode, report.Profile, slices.Clone(report.Packs))

	var errs []error
	for _, spec := range specs {
		result, err := assistants.Generate(spec, stagingRoot, p.Root)
		if result != nil {
			report.Results = append(report.Results, result)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", spec.Name, err))
			continue
		}
		if err := state.RecordSync(p.Root, string(spec.Name), rec); err != nil {
			errs = append(errs, err)
			continue
		}
		log.Info().Str("assistant", string(spec.Name)).Int("files", len(result.Files)).Msg("Synced assistant")
	}
	return report, stderrors.Join(errs...)
}

// Status returns the last sync record of every assistant.
func (p *Project) Status() (state.SyncStatus, error) {
	return state.LoadSyncStatus(p.Root)
}
