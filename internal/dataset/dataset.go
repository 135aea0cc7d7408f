// Package dataset manages the on-disk dataset tree: directory bootstrap,
// train/test/validation splitting, and counting.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Split subdirectory names under <base>/data.
const (
	SplitTrain      = "train"
	SplitTest       = "test"
	SplitValidation = "validation"
)

// EnsureDirectories creates the dataset skeleton under base.
func EnsureDirectories(base string) error {
	for _, dir := range []string{
		base,
		filepath.Join(base, "data"),
		filepath.Join(base, "data", SplitTrain),
	} {
		if _, err := os.Stat(dir); err == nil {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
		log.Info().Str("dir", dir).Msg("Created directory")
	}
	return nil
}

// cardDirs lists the card directories directly under dir. A missing dir yields
// an empty list.
func cardDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs, nil
}

// cardImages lists the image files directly inside one card directory.
func cardImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && isImageFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
