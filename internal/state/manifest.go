package state

import (
	"path/filepath"
	"sort"
)

// FileManifest maps a slash-separated, project-relative starter file path
// to the pack that created it. Rendered rule output never appears here.
type FileManifest map[string]string

// LoadFileManifest reads file_manifest.json. A missing document yields an
// empty manifest.
func LoadFileManifest(projectRoot string) (FileManifest, error) {
	fm := FileManifest{}
	if _, err := readDocument(filepath.Join(DirPath(projectRoot), FileManifestFile), &fm); err != nil {
		return nil, err
	}
	if fm == nil {
		fm = FileManifest{}
	}
	return fm, nil
}

// SaveFileManifest writes file_manifest.json atomically.
func SaveFileManifest(projectRoot string, fm FileManifest) error {
	if fm == nil {
		fm = FileManifest{}
	}
	return writeDocument(filepath.Join(DirPath(projectRoot), FileManifestFile), fm)
}

// Record attributes path to pack. Paths are stored slash-separated.
func (fm FileManifest) Record(path, pack string) {
	fm[filepath.ToSlash(path)] = pack
}

// Orphans returns the paths whose owning pack is not in installed, sorted.
func (fm FileManifest) Orphans(installed []string) []string {
	live := make(map[string]bool, len(installed))
	for _, name := range installed {
		live[name] = true
	}

	var orphans []string
	for path, owner := range fm {
		if !live[owner] {
			orphans = append(orphans, path)
		}
	}
	sort.Strings(orphans)
	return orphans
}
