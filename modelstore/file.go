package modelstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/edm"
)

// Ext is the file extension of stored snapshots.
const Ext = ".msgpack"

// FileStore stores one msgpack encoded snapshot per model name in a
// directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir, creating the directory if
// needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := edmx.CheckNotEmpty("dir", dir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("modelstore: create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the file path of the named snapshot.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, name+Ext)
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, name string) (*edm.Snapshot, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("modelstore: read %q: %w", name, err)
	}
	return Unmarshal(b)
}

// Save implements Store. The snapshot is written to a temporary file that
// is renamed into place.
func (s *FileStore) Save(ctx context.Context, name string, snap *edm.Snapshot) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := Marshal(snap)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("modelstore: save %q: %w", name, err)
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("modelstore: save %q: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("modelstore: save %q: %w", name, err)
	}
	if err := os.Rename(f.Name(), s.Path(name)); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("modelstore: save %q: %w", name, err)
	}
	return nil
}

// Delete implements Store. Deleting a missing snapshot is not an error.
func (s *FileStore) Delete(_ context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := os.Remove(s.Path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("modelstore: delete %q: %w", name, err)
	}
	return nil
}

// Names returns the names of the stored snapshots in lexical order.
func (s *FileStore) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("modelstore: list: %w", err)
	}
	var names []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), Ext); ok && !e.IsDir() {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}
