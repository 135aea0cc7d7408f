// Package images holds the image validation, processing and augmentation
// primitives used by the dataset pipeline.
package images

import (
	"errors"
	"fmt"
	"os"

	"github.com/disintegration/imaging"

	// Register decoders beyond imaging's defaults so downloads in these
	// formats survive validation.
	_ "golang.org/x/image/webp"
)

// File size and dimension bounds for a plausible card scan.
const (
	MinFileSize = 100
	MaxFileSize = 50_000_000
	MinDim      = 10
	MaxDim      = 10_000
)

// Corruption reasons, in the order Validate checks them.
var (
	ErrFileTooSmall = errors.New("image file too small, likely corrupted")
	ErrFileTooLarge = errors.New("image file too large, possibly corrupted or invalid")
	ErrZeroDim      = errors.New("image has zero dimensions")
	ErrDimsTooSmall = errors.New("image dimensions too small, likely corrupted")
	ErrDimsTooLarge = errors.New("image dimensions unreasonably large")
)

// Validate checks that the file at path is a decodable raster image within
// sane size and dimension bounds. It never mutates or deletes the file, and
// short-circuits on the first failed check.
func Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat image: %w", err)
	}
	if info.Size() < MinFileSize {
		return ErrFileTooSmall
	}
	if info.Size() > MaxFileSize {
		return ErrFileTooLarge
	}

	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return ErrZeroDim
	}
	if w < MinDim || h < MinDim {
		return ErrDimsTooSmall
	}
	if w > MaxDim || h > MaxDim {
		return ErrDimsTooLarge
	}
	return nil
}
