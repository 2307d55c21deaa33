// ABOUTME: Persists the default sound folder as a plain-text file.
// ABOUTME: The whole file content is the folder path; nothing else is stored.

package settings

import (
	"errors"
	"fmt"
	"os"

	"github.com/codequiver/jukebox/internal/logging"
)

const (
	// DefaultSoundFolder is used when no setting has been persisted
	DefaultSoundFolder = "./jukebox_sound"
	// FileName is the settings file, relative to the working directory
	FileName = "default_sound_folder.config"
)

// WriteError reports a failure to persist the default folder
type WriteError struct {
	Path   string
	Folder string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write settings file %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Store reads and writes the default sound folder.
// Two processes writing at once are not coordinated; the last write wins.
type Store struct {
	path string
}

// NewStore creates a store backed by path. An empty path means FileName.
func NewStore(path string) *Store {
	if path == "" {
		path = FileName
	}
	return &Store{path: path}
}

// Path returns the settings file location
func (s *Store) Path() string {
	return s.path
}

// LoadDefault returns the persisted folder, or DefaultSoundFolder when the
// file is missing, unreadable or empty
func (s *Store) LoadDefault() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Warn("Cannot read settings file %s, using %s: %v", s.path, DefaultSoundFolder, err)
		}
		return DefaultSoundFolder
	}

	if len(data) == 0 {
		return DefaultSoundFolder
	}
	return string(data)
}

// SaveDefault overwrites the settings file with exactly folder
func (s *Store) SaveDefault(folder string) error {
	if err := os.WriteFile(s.path, []byte(folder), 0644); err != nil {
		return &WriteError{Path: s.path, Folder: folder, Err: err}
	}
	logging.Debug("Default sound folder saved: %s -> %s", folder, s.path)
	return nil
}
