package snapshot

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/composable-go/internal/storage"
)

const (
	filePrefix    = "snapshot-"
	fileExtension = ".snap"

	DefaultRetentionCount = 5
)

// ErrNoSnapshots is returned when a directory holds no readable snapshot.
var ErrNoSnapshots = errors.New("snapshot: no snapshots available")

// Config configures the snapshot manager.
type Config struct {
	Dir string

	// RetentionCount is how many snapshots Prune keeps. Zero selects
	// DefaultRetentionCount; negative keeps everything.
	RetentionCount int

	// RetentionDays additionally keeps snapshots modified within this many days.
	RetentionDays int

	Encryption *Encryption
}

// DefaultConfig returns a Config for dir with default retention.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:            dir,
		RetentionCount: DefaultRetentionCount,
	}
}

// Manager keeps snapshots of a store in a directory.
type Manager struct {
	cfg Config
}

// NewManager creates the snapshot directory if needed.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("snapshot: dir is required")
	}
	if err := cfg.Encryption.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}
	if cfg.RetentionCount == 0 {
		cfg.RetentionCount = DefaultRetentionCount
	}
	return &Manager{cfg: cfg}, nil
}

// Dir returns the snapshot directory.
func (m *Manager) Dir() string { return m.cfg.Dir }

// Info contains metadata about a snapshot file.
type Info struct {
	ID        string `json:"id"`
	Entries   uint64 `json:"entries"`
	CreatedAt int64  `json:"created_at"`
	Encrypted bool   `json:"encrypted"`
	Size      int64  `json:"size"`
	Path      string `json:"path"`
	Checksum  string `json:"checksum,omitempty"`
}

// Create snapshots every entry of store under prefix, then prunes.
func (m *Manager) Create(ctx context.Context, store storage.RawStore, prefix []byte) (*Info, error) {
	id := m.generateID(time.Now())

	tempPath := filepath.Join(m.cfg.Dir, id+".tmp")
	file, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("snapshot: create temp file: %w", err)
	}
	defer os.Remove(tempPath)

	hdr, sum, err := Write(ctx, file, store, prefix, m.cfg.Encryption)
	if err != nil {
		file.Close()
		return nil, err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: sync: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("snapshot: close: %w", err)
	}

	stat, err := os.Stat(tempPath)
	if err != nil {
		return nil, err
	}
	finalPath := filepath.Join(m.cfg.Dir, id+fileExtension)
	if err := os.Rename(tempPath, finalPath); err != nil {
		return nil, fmt.Errorf("snapshot: rename: %w", err)
	}

	if err := m.Prune(); err != nil {
		return nil, err
	}

	return &Info{
		ID:        id,
		Entries:   hdr.Entries,
		CreatedAt: hdr.CreatedAt,
		Encrypted: hdr.Encrypted,
		Size:      stat.Size(),
		Path:      finalPath,
		Checksum:  hex.EncodeToString(sum),
	}, nil
}

// Load restores the newest valid snapshot into store. Corrupt snapshots are
// skipped in favour of older ones.
func (m *Manager) Load(ctx context.Context, store storage.RawStore) (*Info, error) {
	infos, err := m.List()
	if err != nil {
		return nil, err
	}

	for i := len(infos) - 1; i >= 0; i-- {
		info, err := m.LoadFile(ctx, infos[i].Path, store)
		if err == nil {
			return info, nil
		}
		if errors.Is(err, ErrChecksumMismatch) || errors.Is(err, ErrInvalidMagic) || errors.Is(err, ErrCorrupt) {
			continue
		}
		return nil, err
	}
	return nil, ErrNoSnapshots
}

// LoadFile restores the snapshot at path into store.
func (m *Manager) LoadFile(ctx context.Context, path string, store storage.RawStore) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	hdr, err := Restore(ctx, f, store, m.cfg.Encryption)
	if err != nil {
		return nil, err
	}
	return &Info{
		ID:        strings.TrimSuffix(filepath.Base(path), fileExtension),
		Entries:   hdr.Entries,
		CreatedAt: hdr.CreatedAt,
		Encrypted: hdr.Encrypted,
		Size:      stat.Size(),
		Path:      path,
	}, nil
}

// List lists snapshot files, oldest first (metadata only).
func (m *Manager) List() ([]*Info, error) {
	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileExtension) {
			paths = append(paths, filepath.Join(m.cfg.Dir, name))
		}
	}
	sort.Strings(paths)

	infos := make([]*Info, 0, len(paths))
	for _, p := range paths {
		stat, err := os.Stat(p)
		if err != nil {
			continue
		}
		infos = append(infos, &Info{
			ID:   strings.TrimSuffix(filepath.Base(p), fileExtension),
			Path: p,
			Size: stat.Size(),
		})
	}
	return infos, nil
}

// Prune applies the retention policy and deletes old snapshots.
func (m *Manager) Prune() error {
	if m.cfg.RetentionCount < 0 {
		return nil
	}
	infos, err := m.List()
	if err != nil {
		return err
	}
	if len(infos) <= 1 {
		return nil
	}

	keep := make(map[string]struct{}, len(infos))
	start := max(len(infos)-m.cfg.RetentionCount, 0)
	for _, info := range infos[start:] {
		keep[info.Path] = struct{}{}
	}

	if m.cfg.RetentionDays > 0 {
		cutoff := time.Now().Add(-time.Duration(m.cfg.RetentionDays) * 24 * time.Hour)
		for _, info := range infos {
			if st, err := os.Stat(info.Path); err == nil && st.ModTime().After(cutoff) {
				keep[info.Path] = struct{}{}
			}
		}
	}

	// Always keep at least the newest.
	keep[infos[len(infos)-1].Path] = struct{}{}

	var errs []error
	for _, info := range infos {
		if _, ok := keep[info.Path]; ok {
			continue
		}
		if err := os.Remove(info.Path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) generateID(t time.Time) string {
	ts := t.UTC().Format("20060102150405")
	stem := filePrefix + ts + "-"
	seq := 1

	entries, _ := os.ReadDir(m.cfg.Dir)
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, stem) || !strings.HasSuffix(name, fileExtension) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, stem), fileExtension))
		if err == nil && n >= seq {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", stem, seq)
}
