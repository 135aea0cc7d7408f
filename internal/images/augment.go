package images

import (
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// Op is one augmentation transform.
type Op int

const (
	OpRotation Op = iota
	OpBrightness
	OpContrast
	OpSaturation
	OpNoise
	OpBlur
	OpFlip
	numOps
)

// Augment applies 2-4 randomly chosen distinct transforms to img and returns
// the result. The input is never modified.
func Augment(img image.Image, rng *rand.Rand) *image.NRGBA {
	picks := rng.Perm(int(numOps))[:2+rng.Intn(3)]
	out := imaging.Clone(img)
	for _, op := range picks {
		out = applyOp(out, Op(op), rng)
	}
	return out
}

func applyOp(img *image.NRGBA, op Op, rng *rand.Rand) *image.NRGBA {
	switch op {
	case OpRotation:
		// Small tilts only; fill the exposed corners with black.
		angle := rng.Float64()*30 - 15
		return imaging.Rotate(img, angle, color.Black)
	case OpBrightness:
		return imaging.AdjustBrightness(img, rng.Float64()*24-12)
	case OpContrast:
		return imaging.AdjustContrast(img, rng.Float64()*30-15)
	case OpSaturation:
		return imaging.AdjustSaturation(img, rng.Float64()*50-25)
	case OpNoise:
		return addNoise(img, 5+rng.Intn(21), rng)
	case OpBlur:
		return imaging.Blur(img, 0.5+rng.Float64()*1.5)
	case OpFlip:
		if rng.Intn(2) == 0 {
			return imaging.FlipH(img)
		}
		return imaging.FlipV(img)
	}
	return img
}

// addNoise perturbs every channel by a uniform value in [-intensity, intensity].
func addNoise(img *image.NRGBA, intensity int, rng *rand.Rand) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 0; i < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			n := rng.Intn(2*intensity+1) - intensity
			out.Pix[i+c] = clampByte(int(out.Pix[i+c]) + n)
		}
	}
	return out
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// GenerateAugmentations writes amount augmented variants of the image at path
// into the same directory, numbered after the highest existing NNNN file.
// Directories that already hold at least amount variants beyond the canonical
// image are left untouched; reports whether any new files were written.
func GenerateAugmentations(path string, amount int, rng *rand.Rand) (bool, error) {
	dir := filepath.Dir(path)
	maxExisting, count, err := scanNumbered(dir)
	if err != nil {
		return false, err
	}
	if count-1 >= amount { // count includes the canonical 0000 image
		return false, nil
	}

	src, err := imaging.Open(path)
	if err != nil {
		return false, fmt.Errorf("decode source image: %w", err)
	}

	for i := 1; i <= amount; i++ {
		variant := Augment(src, rng)
		out := filepath.Join(dir, fmt.Sprintf("%04d.jpg", maxExisting+i))
		if err := imaging.Save(variant, out, imaging.JPEGQuality(jpegQuality)); err != nil {
			return false, fmt.Errorf("save augmented image: %w", err)
		}
	}
	return true, nil
}

// scanNumbered returns the highest NNNN image number in dir and how many
// numbered images it holds.
func scanNumbered(dir string) (maxNum, count int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("read card directory: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		base, ok := strings.CutSuffix(name, ".jpg")
		if !ok {
			base, ok = strings.CutSuffix(name, ".png")
		}
		if !ok {
			continue
		}
		n, convErr := strconv.Atoi(base)
		if convErr != nil {
			continue
		}
		count++
		if n > maxNum {
			maxNum = n
		}
	}
	return maxNum, count, nil
}
