package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// FS stores each artifact as <root>/<run-id>/<slot>.json. Writes go to a
// temp file in the same directory followed by a rename, so a crash mid-write
// never leaves a half-written slot visible.
type FS struct {
	root string
}

// NewFS creates (if needed) the root directory and returns a filesystem store.
func NewFS(root string) (*FS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating store root %s: %w", root, err)
	}
	return &FS{root: root}, nil
}

func (f *FS) slotPath(runID uuid.UUID, slot string) string {
	return filepath.Join(f.root, runID.String(), slot+".json")
}

// Read returns the stored payload or ErrNotFound.
func (f *FS) Read(_ context.Context, runID uuid.UUID, slot string) ([]byte, error) {
	data, err := os.ReadFile(f.slotPath(runID, slot))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading slot %s: %w", slot, err)
	}
	return data, nil
}

// Write stores the payload atomically via temp file + rename.
func (f *FS) Write(_ context.Context, runID uuid.UUID, slot string, data []byte) error {
	dir := filepath.Join(f.root, runID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating run directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+slot+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing slot %s: %w", slot, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.slotPath(runID, slot)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("committing slot %s: %w", slot, err)
	}
	return nil
}

// Delete removes the slot file.
func (f *FS) Delete(_ context.Context, runID uuid.UUID, slot string) error {
	err := os.Remove(f.slotPath(runID, slot))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting slot %s: %w", slot, err)
	}
	return nil
}

// Slots lists present slot names for a run, sorted.
func (f *FS) Slots(_ context.Context, runID uuid.UUID) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(f.root, runID.String()))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing run directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Runs lists run ids that have a directory under the root.
func (f *FS) Runs(_ context.Context) ([]uuid.UUID, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("listing store root: %w", err)
	}

	var ids []uuid.UUID
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, err := uuid.Parse(e.Name())
		if err != nil {
			continue // ignore stray directories
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}
