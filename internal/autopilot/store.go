package autopilot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	stateFileName   = "autopilot.json"
	archiveFileName = "autopilot.archive.json"

	stateDirPerm  = 0o700
	stateFilePerm = 0o600
)

// Store persists enforcement records keyed by working directory.
type Store interface {
	// Load returns the record for dir, or (nil, nil) when no readable
	// record exists. A corrupt or unreadable state file is treated as
	// absent, never as an error.
	Load(dir string) (*Record, error)

	// Save atomically writes the record for dir, creating the state
	// directory if needed. A reader never observes a partial write.
	Save(dir string, rec *Record) error

	// Delete removes the record for dir. Deleting an absent record is not
	// an error.
	Delete(dir string) error
}

// FileStore keeps one record per working directory under
// <dir>/<stateDirName>/autopilot.json.
type FileStore struct {
	stateDirName string
	logger       *zap.Logger
}

// NewFileStore creates a store rooted at stateDirName inside each working
// directory.
func NewFileStore(stateDirName string, logger *zap.Logger) (*FileStore, error) {
	if stateDirName == "" {
		return nil, errors.New("state directory name is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{stateDirName: stateDirName, logger: logger}, nil
}

// StatePath returns the live state file path for a working directory.
func (s *FileStore) StatePath(dir string) string {
	return filepath.Join(dir, s.stateDirName, stateFileName)
}

// ArchivePath returns the archive file path for a working directory.
func (s *FileStore) ArchivePath(dir string) string {
	return filepath.Join(dir, s.stateDirName, archiveFileName)
}

// Load reads the record for dir. Missing, unreadable, and malformed files
// all report an absent record so a damaged run never wedges the host.
func (s *FileStore) Load(dir string) (*Record, error) {
	path := s.StatePath(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("state file unreadable, treating as absent",
				zap.String("path", path),
				zap.Error(err))
		}
		return nil, nil
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn("state file corrupt, treating as absent",
			zap.String("path", path),
			zap.Error(err))
		return nil, nil
	}
	if !rec.Phase.Valid() {
		s.logger.Warn("state file has unknown phase, treating as absent",
			zap.String("path", path),
			zap.String("phase", string(rec.Phase)))
		return nil, nil
	}
	return &rec, nil
}

// Save writes the record atomically.
func (s *FileStore) Save(dir string, rec *Record) error {
	if rec == nil {
		return errors.New("record is required")
	}
	stateDir := filepath.Join(dir, s.stateDirName)
	if err := os.MkdirAll(stateDir, stateDirPerm); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := atomicWriteFile(s.StatePath(dir), data, stateFilePerm); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// Delete removes the live record, if any.
func (s *FileStore) Delete(dir string) error {
	err := os.Remove(s.StatePath(dir))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}

// Archive moves the live record aside as autopilot.archive.json and removes
// the live file. With no live record it is a no-op.
func (s *FileStore) Archive(dir string) error {
	rec, err := s.Load(dir)
	if err != nil || rec == nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := atomicWriteFile(s.ArchivePath(dir), data, stateFilePerm); err != nil {
		return fmt.Errorf("write archive file: %w", err)
	}
	return s.Delete(dir)
}

// atomicWriteFile writes data to a temp file in the target directory, syncs
// it, then renames it over the final path so concurrent readers see either
// the old or the new content.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
