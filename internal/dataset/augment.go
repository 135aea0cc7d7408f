package dataset

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"

	"github.com/tcgforge/tcgforge/internal/images"
)

// AugmentResult summarizes one augmentation pass over the train set.
type AugmentResult struct {
	Cards     int
	Generated int
	Skipped   int // card dirs that already had enough variants
}

// Augment walks data/train and generates amount augmented variants of each
// card's canonical image. Card directories are processed in parallel; a
// directory that already holds enough variants is skipped, so re-runs are
// cheap.
func Augment(base string, amount int, seed int64) (AugmentResult, error) {
	trainDir := filepath.Join(base, "data", SplitTrain)
	ids, err := cardDirs(trainDir)
	if err != nil {
		return AugmentResult{}, err
	}
	if len(ids) == 0 {
		return AugmentResult{}, fmt.Errorf("no card directories in %s", trainDir)
	}

	var (
		wg        sync.WaitGroup
		generated atomic.Int64
		skipped   atomic.Int64
		jobs      = make(chan string)
	)
	workers := runtime.NumCPU()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed + int64(w)))
			for id := range jobs {
				path := filepath.Join(trainDir, id, "0000.jpg")
				wrote, err := images.GenerateAugmentations(path, amount, rng)
				switch {
				case err != nil:
					log.Error().Str("card", id).Err(err).Msg("Augmentation failed")
				case wrote:
					generated.Add(int64(amount))
				default:
					skipped.Add(1)
				}
			}
		}(w)
	}
	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	res := AugmentResult{
		Cards:     len(ids),
		Generated: int(generated.Load()),
		Skipped:   int(skipped.Load()),
	}
	log.Info().
		Int("cards", res.Cards).
		Int("generated", res.Generated).
		Int("skipped", res.Skipped).
		Msg("Augmentation complete")
	return res, nil
}

// Verify decodes every image under data/train and counts corrupt files.
func Verify(base string) (corrupt, verified int, err error) {
	trainDir := filepath.Join(base, "data", SplitTrain)
	ids, err := cardDirs(trainDir)
	if err != nil {
		return 0, 0, err
	}
	for _, id := range ids {
		cardDir := filepath.Join(trainDir, id)
		entries, err := cardImages(cardDir)
		if err != nil {
			return corrupt, verified, err
		}
		for _, name := range entries {
			if _, err := imaging.Open(filepath.Join(cardDir, name)); err != nil {
				corrupt++
				log.Error().Str("card", id).Str("file", name).Msg("Corrupt image")
			} else {
				verified++
			}
		}
	}
	return corrupt, verified, nil
}
