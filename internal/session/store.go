package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"kowaiquest/internal/models"
)

// CurrentVersion is the session file format written by Save
const CurrentVersion = 1

var (
	// ErrUnsupportedVersion means the file was written by a newer release. It
	// is ignored and left untouched.
	ErrUnsupportedVersion = errors.New("unsupported session file version")
	// ErrCorrupt means the file could not be parsed; the next Save replaces it
	ErrCorrupt = errors.New("corrupt session file")
)

// fileFormat is the on-disk shape. Files without a version are the legacy
// untyped blob with the same keys.
type fileFormat struct {
	Version         int              `json:"version"`
	ActiveTrainerID *string          `json:"activeTrainerId"`
	TrainerSessions []models.Session `json:"trainerSessions"`
}

// FileStore persists a Directory as JSON at a single path
type FileStore struct {
	path     string
	readOnly bool
}

// NewFileStore creates a store for path; nothing is read until Load
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the session file location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the directory. A missing file is an empty directory. A legacy
// file is rewritten in the current format. On ErrUnsupportedVersion and
// ErrCorrupt an empty directory is returned with the error.
func (s *FileStore) Load() (*Directory, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Directory{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return &Directory{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if f.Version > CurrentVersion {
		s.readOnly = true
		return &Directory{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
	}

	d := fromFile(f)
	if f.Version < CurrentVersion {
		if err := s.Save(d); err != nil {
			return d, fmt.Errorf("failed to migrate session file: %w", err)
		}
	}
	return d, nil
}

// Save writes the directory atomically through a temp file and rename
func (s *FileStore) Save(d *Directory) error {
	if s.readOnly {
		return ErrUnsupportedVersion
	}

	f := fileFormat{Version: CurrentVersion, TrainerSessions: d.Sessions}
	if f.TrainerSessions == nil {
		f.TrainerSessions = []models.Session{}
	}
	if d.ActiveTrainerID != "" {
		active := d.ActiveTrainerID
		f.ActiveTrainerID = &active
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".sessions-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// fromFile drops duplicate and empty ids and an active id with no session
func fromFile(f fileFormat) *Directory {
	d := &Directory{}
	for _, sess := range f.TrainerSessions {
		if sess.TrainerID == "" {
			continue
		}
		if _, dup := d.Get(sess.TrainerID); dup {
			continue
		}
		d.Sessions = append(d.Sessions, sess)
	}
	if f.ActiveTrainerID != nil {
		if _, ok := d.Get(*f.ActiveTrainerID); ok {
			d.ActiveTrainerID = *f.ActiveTrainerID
		}
	}
	return d
}
