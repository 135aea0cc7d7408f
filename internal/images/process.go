package images

import (
	"fmt"
	"os"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

// JPEG quality for the canonical training images.
const jpegQuality = 90

// Process decodes sourcePath, resizes it to exactly width x height (direct
// stretch, no letterboxing) with Lanczos resampling, and writes the result to
// targetPath as JPEG. The fresh target is validated before sourcePath is
// deleted, so a re-encoding bug cannot silently corrupt the dataset. On error
// the caller owns cleanup of both paths.
func Process(sourcePath, targetPath string, width, height int) error {
	src, err := imaging.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("decode source image: %w", err)
	}

	resized := imaging.Resize(src, width, height, imaging.Lanczos)

	if err := imaging.Save(resized, targetPath, imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("encode target image: %w", err)
	}
	if err := Validate(targetPath); err != nil {
		return fmt.Errorf("validate processed image: %w", err)
	}

	// Temp artifact removal is best-effort once the target is known good.
	if err := os.Remove(sourcePath); err != nil {
		log.Warn().Str("path", sourcePath).Err(err).Msg("Failed to remove temp image")
	}
	return nil
}
