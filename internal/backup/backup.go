// Package backup snapshots dataset content before destructive sync steps
// (move source deletion, mirror cleanup) into a bookkeeping directory inside
// the dataset root, with a YAML index and count-based retention.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"time"

	"github.com/mdtree/docsync/internal/fsys"
	"github.com/mdtree/docsync/internal/logging"
)

// Dir is the bookkeeping directory under the dataset root.
const Dir = ".docsync/backups"

// Manager creates and restores snapshots for one dataset root.
type Manager struct {
	svc  fsys.Service
	root string
	keep int
}

// NewManager creates a Manager. keep bounds how many snapshots are retained
// after each new snapshot (0 = unlimited).
func NewManager(svc fsys.Service, datasetRoot string, keep int) *Manager {
	return &Manager{svc: svc, root: datasetRoot, keep: keep}
}

func (m *Manager) backupsDir() string {
	return path.Join(m.root, Dir)
}

// Snapshot copies the given dataset-relative files or directories into a new
// snapshot and records it in the index. Retention pruning runs afterwards.
func (m *Manager) Snapshot(relPaths []string) (*Metadata, error) {
	files, err := m.collectFiles(relPaths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("nothing to snapshot under %v", relPaths)
	}

	hash := sha256.New()
	var size int64
	contents := make(map[string][]byte, len(files))
	for _, rel := range files {
		data, err := m.svc.ReadFile(path.Join(m.root, rel))
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", rel, err)
		}
		hash.Write(data)
		size += int64(len(data))
		contents[rel] = data
	}
	hashStr := hex.EncodeToString(hash.Sum(nil))
	id := time.Now().Format("20060102-150405-") + hashStr[:8]

	for _, rel := range files {
		dst := path.Join(m.backupsDir(), id, rel)
		if err := m.svc.MkdirAll(path.Dir(dst), fsys.DirPerm); err != nil {
			return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		if err := m.svc.WriteFile(dst, contents[rel], fsys.FilePerm); err != nil {
			return nil, fmt.Errorf("failed to write snapshot file %q: %w", rel, err)
		}
	}

	metadata := Metadata{
		ID:        id,
		Sources:   relPaths,
		Files:     files,
		CreatedAt: time.Now(),
		Hash:      hashStr,
		Size:      size,
	}

	index, err := m.loadIndex()
	if err != nil {
		return nil, err
	}
	index.Backups[id] = metadata
	if err := m.saveIndex(index); err != nil {
		return nil, err
	}

	logging.Debug("created snapshot",
		logging.Path(path.Join(Dir, id)),
		logging.Count(len(files)),
	)

	if _, err := m.Prune(); err != nil {
		return nil, err
	}
	return &metadata, nil
}

// SnapshotFunc adapts the manager to the pre-deletion hook shape used by the
// sync engine.
func (m *Manager) SnapshotFunc() func(relPaths []string) error {
	return func(relPaths []string) error {
		_, err := m.Snapshot(relPaths)
		return err
	}
}

// Restore writes every file of a snapshot back to its original dataset
// location, verifying the recorded content hash first.
func (m *Manager) Restore(id string) error {
	index, err := m.loadIndex()
	if err != nil {
		return err
	}
	metadata, exists := index.Backups[id]
	if !exists {
		return fmt.Errorf("backup %q not found", id)
	}

	hash := sha256.New()
	contents := make(map[string][]byte, len(metadata.Files))
	for _, rel := range metadata.Files {
		data, err := m.svc.ReadFile(path.Join(m.backupsDir(), id, rel))
		if err != nil {
			return fmt.Errorf("failed to read snapshot file %q: %w", rel, err)
		}
		hash.Write(data)
		contents[rel] = data
	}
	if got := hex.EncodeToString(hash.Sum(nil)); got != metadata.Hash {
		return fmt.Errorf("backup %q corrupted: hash mismatch", id)
	}

	for _, rel := range metadata.Files {
		dst := path.Join(m.root, rel)
		if err := m.svc.MkdirAll(path.Dir(dst), fsys.DirPerm); err != nil {
			return fmt.Errorf("failed to create target directory: %w", err)
		}
		if err := m.svc.WriteFile(dst, contents[rel], fsys.FilePerm); err != nil {
			return fmt.Errorf("failed to restore %q: %w", rel, err)
		}
	}
	logging.Info("restored snapshot",
		logging.Path(id),
		logging.Count(len(metadata.Files)),
	)
	return nil
}

// collectFiles expands the given dataset-relative paths into the concrete
// files they cover, in sorted order.
func (m *Manager) collectFiles(relPaths []string) ([]string, error) {
	var files []string
	for _, rel := range relPaths {
		abs := path.Join(m.root, rel)
		info, err := m.svc.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %q: %w", rel, err)
		}
		if !info.IsDir() {
			files = append(files, rel)
			continue
		}
		under, err := fsys.WalkFiles(m.svc, abs)
		if err != nil {
			return nil, fmt.Errorf("failed to walk %q: %w", rel, err)
		}
		for _, f := range under {
			files = append(files, path.Join(rel, f))
		}
	}
	return files, nil
}
