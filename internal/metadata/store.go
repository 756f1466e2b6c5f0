package metadata

import (
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/facets/internal/catalog"
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
	"git.home.luguber.info/inful/facets/internal/logfields"
)

// Store persists State to one file.
type Store struct {
	Path string
}

// NewStore returns a store for the metadata file at path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// StorePath resolves the metadata location for a project root. Relative
// paths are taken relative to root; an empty path means DefaultPath.
func StorePath(root, path string) string {
	if path == "" {
		path = DefaultPath
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, filepath.FromSlash(path))
}

// Load reads and decodes the document. An absent file yields the empty
// state and the empty stamp.
func (s *Store) Load(cat catalog.Catalog) (State, Stamp, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, "", nil
		}
		return State{}, "", errors.FileSystemError("failed to read facet metadata").
			WithCause(err).WithContext("path", s.Path).Build()
	}
	st, err := Decode(data, cat)
	if err != nil {
		return State{}, "", err
	}
	return st, StampOf(data), nil
}

// Save writes the document through a temporary file in the same directory
// and renames it into place. It returns the stamp of the written bytes.
func (s *Store) Save(st State) (Stamp, error) {
	data, err := Encode(st)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", s.persistenceError("failed to create metadata directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return "", s.persistenceError("failed to create temporary metadata file", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			slog.Warn("Failed to remove temporary metadata file", logfields.Path(tmpPath), logfields.Error(rmErr))
		}
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", s.persistenceError("failed to write facet metadata", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", s.persistenceError("failed to sync facet metadata", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", s.persistenceError("failed to close facet metadata", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		cleanup()
		return "", s.persistenceError("failed to replace facet metadata", err)
	}
	return StampOf(data), nil
}

// CurrentStamp returns the stamp of the file as it is on disk now.
func (s *Store) CurrentStamp() (Stamp, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.FileSystemError("failed to read facet metadata").
			WithCause(err).WithContext("path", s.Path).Build()
	}
	return StampOf(data), nil
}

func (s *Store) persistenceError(msg string, cause error) error {
	return errors.PersistenceError(msg).WithCause(cause).WithContext("path", s.Path).Build()
}
