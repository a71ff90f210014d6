package state

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rulebook-labs/rulebook/internal/branding"
	"github.com/rulebook-labs/rulebook/internal/errors"
)

// Document and directory names inside the state directory.
const (
	SelectionFile    = "selection.json"
	FileManifestFile = "file_manifest.json"
	SyncStatusFile   = "sync_status.json"
	PacksDir         = "packs"
	StagingDir       = "project_rules"
)

// SchemaVersion is written into selection.json.
const SchemaVersion = 1

// DirPath returns the state directory of a project.
func DirPath(projectRoot string) string {
	return filepath.Join(projectRoot, branding.StateDir())
}

// PacksPath returns the directory holding installed pack copies.
func PacksPath(projectRoot string) string {
	return filepath.Join(DirPath(projectRoot), PacksDir)
}

// PackDir returns the installed copy location of a pack.
func PackDir(projectRoot, name string) string {
	return filepath.Join(PacksPath(projectRoot), name)
}

// StagingPath returns the staging root rebuilt on every sync.
func StagingPath(projectRoot string) string {
	return filepath.Join(DirPath(projectRoot), StagingDir)
}

// readDocument decodes a JSON document into v. It reports false when the
// file does not exist.
func readDocument(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, errors.KindIO, "reading %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, errors.Wrapf(err, errors.KindInvalid, "parsing %s", path)
	}
	return true, nil
}

// writeDocument encodes v as indented JSON and replaces path atomically.
func writeDocument(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.KindIO, "creating %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, errors.KindIO, "writing %s", path)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, errors.KindIO, "writing %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, errors.KindIO, "writing %s", path)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return errors.Wrapf(err, errors.KindIO, "writing %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, errors.KindIO, "replacing %s", path)
	}
	return nil
}
