package state

import (
	"path/filepath"
	"time"
)

// SyncMode describes how the packs of a sync were selected.
type SyncMode string

const (
	ModeAll     SyncMode = "all"
	ModeProfile SyncMode = "profile"
	ModePack    SyncMode = "pack"
)

// SyncRecord is the outcome of the last successful render for one assistant.
type SyncRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Mode      SyncMode  `json:"mode"`
	Profile   string    `json:"profile,omitempty"`
	Packs     []string  `json:"packs"`
	PackCount int       `json:"pack_count"`
}

// NewSyncRecord builds a record with PackCount derived from packs.
func NewSyncRecord(at time.Time, mode SyncMode, profile string, packs []string) SyncRecord {
	if packs == nil {
		packs = []string{}
	}
	return SyncRecord{
		Timestamp: at.UTC(),
		Mode:      mode,
		Profile:   profile,
		Packs:     packs,
		PackCount: len(packs),
	}
}

// SyncStatus maps assistant name to its last sync record.
type SyncStatus map[string]SyncRecord

// LoadSyncStatus reads sync_status.json. A missing document yields an
// empty status.
func LoadSyncStatus(projectRoot string) (SyncStatus, error) {
	status := SyncStatus{}
	if _, err := readDocument(filepath.Join(DirPath(projectRoot), SyncStatusFile), &status); err != nil {
		return nil, err
	}
	if status == nil {
		status = SyncStatus{}
	}
	return status, nil
}

// SaveSyncStatus writes sync_status.json atomically.
func SaveSyncStatus(projectRoot string, status SyncStatus) error {
	if status == nil {
		status = SyncStatus{}
	}
	return writeDocument(filepath.Join(DirPath(projectRoot), SyncStatusFile), status)
}

// RecordSync replaces the record of one assistant and saves the document.
func RecordSync(projectRoot, assistant string, rec SyncRecord) error {
	status, err := LoadSyncStatus(projectRoot)
	if err != nil {
		return err
	}
	status[assistant] = rec
	return SaveSyncStatus(projectRoot, status)
}
