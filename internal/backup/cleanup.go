package backup

import (
	"fmt"
	"path"

	"github.com/mdtree/docsync/internal/logging"
)

// List returns every snapshot, newest first.
func (m *Manager) List() ([]Metadata, error) {
	index, err := m.loadIndex()
	if err != nil {
		return nil, err
	}
	backups := make([]Metadata, 0, len(index.Backups))
	for _, b := range index.Backups {
		backups = append(backups, b)
	}
	sortByNewest(backups)
	return backups, nil
}

// Delete removes a snapshot's files and its index entry.
func (m *Manager) Delete(id string) error {
	index, err := m.loadIndex()
	if err != nil {
		return err
	}
	if _, exists := index.Backups[id]; !exists {
		return fmt.Errorf("backup %q not found", id)
	}
	if err := m.svc.RemoveAll(path.Join(m.backupsDir(), id)); err != nil {
		return fmt.Errorf("failed to delete snapshot %q: %w", id, err)
	}
	delete(index.Backups, id)
	return m.saveIndex(index)
}

// Prune deletes the oldest snapshots beyond the manager's retention count
// and returns the IDs it removed. A zero retention keeps everything.
func (m *Manager) Prune() ([]string, error) {
	if m.keep <= 0 {
		return nil, nil
	}
	backups, err := m.List()
	if err != nil {
		return nil, err
	}
	var pruned []string
	for _, b := range backups[min(m.keep, len(backups)):] {
		if err := m.Delete(b.ID); err != nil {
			return pruned, err
		}
		pruned = append(pruned, b.ID)
	}
	if len(pruned) > 0 {
		logging.Debug("pruned old snapshots", logging.Count(len(pruned)))
	}
	return pruned, nil
}
