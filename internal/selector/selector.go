// ABOUTME: Finds playable sound files in a folder and picks one at random.
// ABOUTME: Only the top level of the folder is searched.

package selector

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extensions lists the suffixes eligible for random selection (case-sensitive)
var Extensions = []string{".mp3", ".wav"}

// ErrEmptySet is returned when there is nothing to choose from
var ErrEmptySet = errors.New("no eligible sound files")

// ListError reports a folder that could not be listed
type ListError struct {
	Folder string
	Err    error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("failed to list sound folder %s: %v", e.Folder, e.Err)
}

func (e *ListError) Unwrap() error { return e.Err }

// IsEligible reports whether name ends in one of Extensions
func IsEligible(name string) bool {
	for _, ext := range Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// ListEligibleFiles returns the sorted names of eligible files directly inside folder
func ListEligibleFiles(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, &ListError{Folder: folder, Err: err}
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IsEligible(entry.Name()) {
			files = append(files, entry.Name())
		}
	}

	sort.Strings(files)
	return files, nil
}

// PickRandom returns one of files, chosen uniformly
func PickRandom(files []string) (string, error) {
	if len(files) == 0 {
		return "", ErrEmptySet
	}
	return files[rand.Intn(len(files))], nil
}

// PickFromFolder lists folder and picks one eligible file from it
func PickFromFolder(folder string) (string, error) {
	files, err := ListEligibleFiles(folder)
	if err != nil {
		return "", err
	}

	name, err := PickRandom(files)
	if err != nil {
		return "", fmt.Errorf("%s: %w", folder, err)
	}
	return name, nil
}

// SoundPath joins folder and name without checking that the file exists
func SoundPath(folder, name string) string {
	return filepath.Join(folder, name)
}
