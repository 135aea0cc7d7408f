package dataset

import (
	"os"
	"path/filepath"
	"strings"
)

// SplitStats counts one split's card directories and images.
type SplitStats struct {
	Cards  int
	Images int
}

// Stats walks the dataset tree and counts cards and images per split.
func Stats(base string) (map[string]SplitStats, error) {
	out := make(map[string]SplitStats, 3)
	for _, split := range []string{SplitTrain, SplitTest, SplitValidation} {
		splitDir := filepath.Join(base, "data", split)
		ids, err := cardDirs(splitDir)
		if err != nil {
			return nil, err
		}
		s := SplitStats{Cards: len(ids)}
		for _, id := range ids {
			entries, err := os.ReadDir(filepath.Join(splitDir, id))
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				if isImageFile(e.Name()) {
					s.Images++
				}
			}
		}
		out[split] = s
	}
	return out, nil
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tiff", ".webp":
		return true
	}
	return false
}
