package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mdtree/docsync/internal/fsys"
)

// Metadata describes a single snapshot.
type Metadata struct {
	// ID is the unique snapshot identifier (timestamp plus content hash).
	ID string `yaml:"id"`
	// Sources are the dataset-relative paths the snapshot captured.
	Sources []string `yaml:"sources"`
	// Files are the dataset-relative paths of every file in the snapshot.
	Files []string `yaml:"files"`
	// CreatedAt is the snapshot creation timestamp.
	CreatedAt time.Time `yaml:"created_at"`
	// Hash is the SHA256 over the snapshot's file contents in path order.
	Hash string `yaml:"hash"`
	// Size is the total size of the snapshot in bytes.
	Size int64 `yaml:"size"`
}

// Index maintains the set of snapshots under a dataset root.
type Index struct {
	Version string              `yaml:"version"`
	Updated time.Time           `yaml:"updated"`
	Backups map[string]Metadata `yaml:"backups"`
}

const (
	// IndexVersion is the current version of the index format.
	IndexVersion = "1"
	// IndexFilename is the name of the index file.
	IndexFilename = "index.yaml"
)

// loadIndex reads the index, returning an empty one when none exists yet.
func (m *Manager) loadIndex() (*Index, error) {
	data, err := m.svc.ReadFile(m.indexPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Index{
				Version: IndexVersion,
				Updated: time.Now(),
				Backups: make(map[string]Metadata),
			}, nil
		}
		return nil, fmt.Errorf("failed to read backup index: %w", err)
	}
	var index Index
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse backup index: %w", err)
	}
	if index.Backups == nil {
		index.Backups = make(map[string]Metadata)
	}
	return &index, nil
}

// saveIndex writes the index back under the backups directory.
func (m *Manager) saveIndex(index *Index) error {
	if err := m.svc.MkdirAll(m.backupsDir(), fsys.DirPerm); err != nil {
		return fmt.Errorf("failed to create backups directory: %w", err)
	}
	index.Updated = time.Now()
	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal backup index: %w", err)
	}
	if err := m.svc.WriteFile(m.indexPath(), data, fsys.FilePerm); err != nil {
		return fmt.Errorf("failed to write backup index: %w", err)
	}
	return nil
}

func (m *Manager) indexPath() string {
	return path.Join(m.backupsDir(), IndexFilename)
}

// sortByNewest orders snapshots newest first.
func sortByNewest(backups []Metadata) {
	sort.Slice(backups, func(i, j int) bool {
		return backups[j].CreatedAt.Before(backups[i].CreatedAt)
	})
}
