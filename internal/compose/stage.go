package compose

import (
	"os"
	"path/filepath"

	"github.com/rulebook-labs/rulebook/internal/errors"
	"github.com/rulebook-labs/rulebook/internal/logging"
	"github.com/rulebook-labs/rulebook/internal/manifest"
	"github.com/rulebook-labs/rulebook/internal/state"
)

// Starter maps a pack subtree to the project directory it seeds.
type Starter struct {
	Source string // directory inside the pack
	Target string // project-relative directory
}

// Starter target directories.
const (
	MemoryDir = "memory"
	ToolsDir  = "tools"
)

// Starters lists the starter subtrees in the order they are seeded.
var Starters = []Starter{
	{Source: "memory_starters", Target: MemoryDir},
	{Source: "tool_starters", Target: ToolsDir},
}

// Result describes a staging run.
type Result struct {
	// Packs were merged into the staging tree, in order.
	Packs []string
	// Skipped packs had no installed copy.
	Skipped []string
	// Files is the number of files staged.
	Files int
}

// Stage clears the staging tree and rebuilds it from the rules/ subtree of
// each pack in order.
func Stage(projectRoot string, packs []string) (*Result, error) {
	log := logging.GetLogger("compose")
	staging := state.StagingPath(projectRoot)

	if err := os.RemoveAll(staging); err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "clearing %s", staging)
	}
	if err := os.MkdirAll(staging, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "creating %s", staging)
	}

	result := &Result{}
	for _, name := range packs {
		packDir := state.PackDir(projectRoot, name)
		if _, err := os.Stat(packDir); err != nil {
			log.Warn().Str("pack", name).Msg("Installed copy missing, skipping pack")
			result.Skipped = append(result.Skipped, name)
			continue
		}

		created, err := MergeTree(filepath.Join(packDir, manifest.RulesDir), staging, staging)
		if err != nil {
			return result, errors.Wrapf(err, errors.KindIO, "staging rules of %q", name)
		}
		log.Debug().Str("pack", name).Int("files", len(created)).Msg("Staged rules")
		result.Packs = append(result.Packs, name)
		result.Files += len(created)
	}
	return result, nil
}

// SeedStarters merges each pack's starter subtrees into the project and
// records every newly created file in fm. Files that already exist are
// never touched, so starters are copied once. It returns the created
// paths.
func SeedStarters(projectRoot string, packs []string, fm state.FileManifest) ([]string, error) {
	log := logging.GetLogger("compose")

	var all []string
	for _, name := range packs {
		packDir := state.PackDir(projectRoot, name)
		for _, s := range Starters {
			created, err := MergeTree(
				filepath.Join(packDir, s.Source),
				filepath.Join(projectRoot, s.Target),
				projectRoot,
			)
			for _, path := range created {
				fm.Record(path, name)
			}
			all = append(all, created...)
			if err != nil {
				return all, errors.Wrapf(err, errors.KindIO, "copying %s of %q", s.Source, name)
			}
			if len(created) > 0 {
				log.Info().Str("pack", name).Str("target", s.Target).Int("files", len(created)).Msg("Seeded starter files")
			}
		}
	}
	return all, nil
}
