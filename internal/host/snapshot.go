package host

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/yndnr/composable-go/internal/storage/snapshot"
	"github.com/yndnr/composable-go/pkg/crypto/adaptive"
)

// ErrNoSnapshotDir is returned when neither snapshot.dir nor storage.dir is set.
var ErrNoSnapshotDir = errors.New("snapshot.dir is required when storage.dir is empty")

// Snapshots returns a manager for the configured snapshot directory.
func (h *Host) Snapshots() (*snapshot.Manager, error) {
	cfg := h.cfg.Snapshot

	dir := cfg.Dir
	if dir == "" {
		if h.cfg.Storage.Dir == "" {
			return nil, ErrNoSnapshotDir
		}
		dir = filepath.Join(h.cfg.Storage.Dir, "snapshots")
	}

	var enc *snapshot.Encryption
	if cfg.Passphrase != "" {
		enc = &snapshot.Encryption{
			Passphrase: []byte(cfg.Passphrase),
			Cipher:     adaptive.CipherType(h.cfg.Security.Cipher),
		}
	}

	return snapshot.NewManager(snapshot.Config{
		Dir:            dir,
		RetentionCount: cfg.RetentionCount,
		Encryption:     enc,
	})
}

// Snapshot writes a snapshot of the whole store. Values sealed by the
// storage key are written as stored.
func (h *Host) Snapshot(ctx context.Context) (*snapshot.Info, error) {
	m, err := h.Snapshots()
	if err != nil {
		return nil, err
	}
	info, err := m.Create(ctx, h.engine, nil)
	if err != nil {
		return nil, err
	}
	h.log.Info("snapshot created", "id", info.ID, "entries", info.Entries, "encrypted", info.Encrypted)
	return info, nil
}

// Restore loads the snapshot at path, or the newest valid one when path is
// empty, into the store.
func (h *Host) Restore(ctx context.Context, path string) (*snapshot.Info, error) {
	m, err := h.Snapshots()
	if err != nil {
		return nil, err
	}

	var info *snapshot.Info
	if path == "" {
		info, err = m.Load(ctx, h.engine)
	} else {
		info, err = m.LoadFile(ctx, path, h.engine)
	}
	if err != nil {
		return nil, err
	}
	h.log.Info("snapshot restored", "id", info.ID, "entries", info.Entries)
	return info, nil
}
